package content

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestQuery(t *testing.T) {
	r, err := Open(writeDocs(t))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	tests := []struct {
		name      string
		q         Query
		want      []string
		wantFound int
	}{
		{name: "all, newest first", q: Query{}, want: []string{"e", "a", "b", "c"}, wantFound: 4},
		{name: "keyword", q: Query{Keyword: "a"}, want: []string{"a"}, wantFound: 1},
		{name: "unknown keyword", q: Query{Keyword: "zz"}, want: nil, wantFound: 0},
		{name: "year", q: Query{Date: "2023"}, want: []string{"e", "a"}, wantFound: 2},
		{name: "month", q: Query{Date: "2022-12"}, want: []string{"b"}, wantFound: 1},
		{name: "day with dots", q: Query{Date: "2023.04.05"}, want: []string{"a"}, wantFound: 1},
		{name: "invalid date", q: Query{Date: "yesterday"}, want: nil, wantFound: 0},
		{name: "tag ignores case", q: Query{Tags: []string{"GO"}}, want: []string{"a", "b"}, wantFound: 2},
		{name: "all tags required", q: Query{Tags: []string{"go", "web"}}, want: []string{"a"}, wantFound: 1},
		{name: "meta", q: Query{Meta: map[string]string{"author": "me"}}, want: []string{"b"}, wantFound: 1},
		{
			name:      "filter",
			q:         Query{Filter: func(n *Node) bool { return n.Keyword != "c" }},
			want:      []string{"e", "a", "b"},
			wantFound: 3,
		},
		{name: "oldest first", q: Query{Order: SortAsc}, want: []string{"c", "b", "a", "e"}, wantFound: 4},
		{name: "by keyword", q: Query{Sort: "keyword", Order: SortAsc}, want: []string{"a", "b", "c", "e"}, wantFound: 4},
		{name: "by keyword desc", q: Query{Sort: "keyword"}, want: []string{"e", "c", "b", "a"}, wantFound: 4},
		{
			name:      "by meta key, missing last",
			q:         Query{Sort: "author", Order: SortAsc},
			want:      []string{"b", "e", "a", "c"},
			wantFound: 4,
		},
		{
			name:      "by meta key desc, missing last",
			q:         Query{Sort: "author", Order: SortDesc},
			want:      []string{"e", "b", "a", "c"},
			wantFound: 4,
		},
		{name: "first page", q: Query{Count: 3}, want: []string{"e", "a", "b"}, wantFound: 4},
		{name: "second page", q: Query{Count: 3, Page: 2}, want: []string{"c"}, wantFound: 4},
		{name: "past the end", q: Query{Count: 3, Page: 3}, want: nil, wantFound: 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := keywords(r.Query(tt.q))
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Query mismatch (-want +got):\n%s", diff)
			}
			if found := r.FoundNodes(); found != tt.wantFound {
				t.Errorf("FoundNodes() = %d, want %d", found, tt.wantFound)
			}
		})
	}
}

func TestNewestOldestOne(t *testing.T) {
	r, err := Open(writeDocs(t))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	if diff := cmp.Diff([]string{"e", "a"}, keywords(r.Newest(2))); diff != "" {
		t.Errorf("Newest mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"c"}, keywords(r.Oldest(1))); diff != "" {
		t.Errorf("Oldest mismatch (-want +got):\n%s", diff)
	}

	n, err := r.One(Query{Tags: []string{"cli"}})
	if err != nil || n.Keyword != "b" {
		t.Errorf("One(cli) = %v, %v; want b", n, err)
	}
	if _, err := r.One(Query{Tags: []string{"nope"}}); err != ErrNotFound {
		t.Errorf("One(nope) error = %v, want ErrNotFound", err)
	}
}

func TestTags(t *testing.T) {
	r, err := Open(writeDocs(t))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	want := map[string]int{"Go": 1, "web": 2, "go": 1, "cli": 1}
	if diff := cmp.Diff(want, r.Tags(Query{Count: 1})); diff != "" {
		t.Errorf("Tags mismatch (-want +got):\n%s", diff)
	}

	want = map[string]int{"web": 1}
	if diff := cmp.Diff(want, r.Tags(Query{Keyword: "e"})); diff != "" {
		t.Errorf("Tags(e) mismatch (-want +got):\n%s", diff)
	}
}
