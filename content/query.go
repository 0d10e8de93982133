package content

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Sort orders.
const (
	SortDesc = "desc"
	SortAsc  = "asc"
)

// Query selects documents. Zero fields do not filter.
type Query struct {
	// Keyword selects a single document.
	Keyword string

	// Date is a year ("2023"), a month ("2023-04") or a day ("2023-04-05").
	// "." may separate the parts instead of "-".
	Date string

	// Tags must all be present on a document. Case is ignored.
	Tags []string

	// Meta maps keys to the exact value the metadata must have.
	Meta map[string]string

	// Filter, when set, keeps the nodes for which it returns true.
	Filter func(*Node) bool

	// Sort is "date" (the default), "keyword" or a metadata key.
	// Documents without the key sort last.
	Sort string

	// Order is SortDesc (the default) or SortAsc.
	Order string

	// Count limits the result to a page of Count documents.
	Count int

	// Page is the 1-based page returned when Count is set.
	Page int
}

// Query returns the documents selected by q.
func (r *Repository) Query(q Query) []*Node {
	nodes, found := r.Select(q)

	r.mu.Lock()
	r.found = found
	r.mu.Unlock()

	return nodes
}

// Select is Query for concurrent callers: it also returns the number of
// documents found before pagination, and does not change FoundNodes.
func (r *Repository) Select(q Query) ([]*Node, int) {
	nodes := r.filter(q)
	found := len(nodes)

	if q.Count > 0 {
		page := q.Page
		if page < 1 {
			page = 1
		}
		offset := (page - 1) * q.Count
		if offset >= len(nodes) {
			return nil, found
		}
		end := offset + q.Count
		if end > len(nodes) {
			end = len(nodes)
		}
		nodes = nodes[offset:end]
	}

	return nodes, found
}

// FoundNodes returns the number of documents matched by the last Query,
// before pagination.
func (r *Repository) FoundNodes() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.found
}

// Newest returns up to count documents, newest first. A zero count returns all.
func (r *Repository) Newest(count int) []*Node {
	return r.Query(Query{Count: count})
}

// Oldest returns up to count documents, oldest first. A zero count returns all.
func (r *Repository) Oldest(count int) []*Node {
	return r.Query(Query{Order: SortAsc, Count: count})
}

// One returns the newest document selected by q.
func (r *Repository) One(q Query) (*Node, error) {
	q.Count, q.Page = 1, 1
	nodes := r.Query(q)
	if len(nodes) == 0 {
		return nil, ErrNotFound
	}
	return nodes[0], nil
}

// Tags counts the tags of the documents selected by q, ignoring pagination.
func (r *Repository) Tags(q Query) map[string]int {
	counts := make(map[string]int)
	for _, n := range r.filter(q) {
		for _, t := range n.Tags {
			counts[t]++
		}
	}
	return counts
}

func (r *Repository) filter(q Query) []*Node {
	r.mu.RLock()
	all := r.nodes
	r.mu.RUnlock()

	var start, end time.Time
	if q.Date != "" {
		var ok bool
		if start, end, ok = dateRange(q.Date); !ok {
			r.log.Debugw("invalid date in query", "date", q.Date)
			return nil
		}
	}

	var nodes []*Node
	for _, n := range all {
		if q.Keyword != "" && n.Keyword != q.Keyword {
			continue
		}
		if q.Date != "" && (n.Date.Before(start) || !n.Date.Before(end)) {
			continue
		}
		if !hasAllTags(n, q.Tags) {
			continue
		}
		if !hasMeta(n, q.Meta) {
			continue
		}
		if q.Filter != nil && !q.Filter(n) {
			continue
		}
		nodes = append(nodes, n)
	}

	sortNodes(nodes, q.Sort, q.Order)

	return nodes
}

func hasAllTags(n *Node, tags []string) bool {
	for _, t := range tags {
		if !n.HasTag(strings.TrimSpace(t)) {
			return false
		}
	}
	return true
}

func hasMeta(n *Node, meta map[string]string) bool {
	for k, want := range meta {
		got, ok := n.Meta[k]
		if !ok || got != want {
			return false
		}
	}
	return true
}

var queryDateRegex = regexp.MustCompile(`^(\d{4})(?:[.\-](\d{2})(?:[.\-](\d{2}))?)?$`)

// dateRange returns the local time interval [start, end) covered by a
// year, month or day.
func dateRange(s string) (start, end time.Time, ok bool) {
	m := queryDateRegex.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return start, end, false
	}

	y, _ := strconv.Atoi(m[1])
	switch {
	case m[3] != "":
		mo, _ := strconv.Atoi(m[2])
		d, _ := strconv.Atoi(m[3])
		start = time.Date(y, time.Month(mo), d, 0, 0, 0, 0, time.Local)
		end = start.AddDate(0, 0, 1)
	case m[2] != "":
		mo, _ := strconv.Atoi(m[2])
		start = time.Date(y, time.Month(mo), 1, 0, 0, 0, 0, time.Local)
		end = start.AddDate(0, 1, 0)
	default:
		start = time.Date(y, time.January, 1, 0, 0, 0, 0, time.Local)
		end = start.AddDate(1, 0, 0)
	}

	return start, end, true
}

// sortNodes orders nodes in place. The index is already sorted by date,
// newest first, so the default order needs no work.
func sortNodes(nodes []*Node, key, order string) {
	if key == "" {
		key = "date"
	}
	desc := order != SortAsc

	if key == "date" && desc {
		return
	}

	// less reports whether a comes before b in ascending order, and
	// whether both have the key.
	var less func(a, b *Node) bool
	switch key {
	case "date":
		less = func(a, b *Node) bool { return a.Date.Before(b.Date) }
	case "keyword":
		less = func(a, b *Node) bool { return a.Keyword < b.Keyword }
	default:
		less = func(a, b *Node) bool { return a.Meta[key] < b.Meta[key] }
	}

	missing := func(n *Node) bool {
		if key == "date" || key == "keyword" {
			return false
		}
		_, ok := n.Meta[key]
		return !ok
	}

	sort.SliceStable(nodes, func(i, j int) bool {
		a, b := nodes[i], nodes[j]
		if ma, mb := missing(a), missing(b); ma || mb {
			return !ma && mb
		}
		if desc {
			return less(b, a)
		}
		return less(a, b)
	})
}
