// Copyright 2023 Jesus Ruiz. All rights reserved.
// Use of this source code is governed by an Apache-2.0
// license that can be found in the LICENSE file.

// Package sliceedit queues edits against an immutable byte slice using
// rsc.io/edit and applies them in a single pass.
// Offsets passed to the methods always refer to the original data,
// so callers can scan the input once and queue edits as they go.
package sliceedit

import (
	"bytes"

	"rsc.io/edit"
)

// A Buffer is a queue of edits to apply to a given byte slice.
type Buffer struct {
	ed    *edit.Buffer
	buf   []byte
	edits int
}

// NewBuffer returns a new buffer to accumulate changes to an initial data slice.
// The returned buffer maintains a reference to the data, so the caller must ensure
// the data is not modified until after the Buffer is done being used.
func NewBuffer(buf []byte) *Buffer {
	return &Buffer{
		ed:  edit.NewBuffer(buf),
		buf: buf,
	}
}

// NewBufferString is NewBuffer for string data.
func NewBufferString(s string) *Buffer {
	return NewBuffer([]byte(s))
}

// FindAll finds all non-overlapping instances of item in buf.
func FindAll(buf []byte, item string) []int {
	found := []int{}

	if len(item) == 0 {
		return found
	}

	realOffset := 0

	for {
		i := bytes.Index(buf, []byte(item))
		if i == -1 {
			return found
		}
		found = append(found, i+realOffset)
		buf = buf[i+len(item):]
		realOffset = realOffset + i + len(item)
	}
}

// Replace replaces the original bytes in [start, end) with new.
func (b *Buffer) Replace(start, end int, new string) {
	b.ed.Replace(start, end, new)
	b.edits++
}

// ReplaceAllString replaces every occurrence of old with new.
func (b *Buffer) ReplaceAllString(old string, new string) {
	for _, hit := range FindAll(b.buf, old) {
		b.ed.Replace(hit, hit+len(old), new)
		b.edits++
	}
}

// Bytes returns a new byte slice containing the original data
// with the queued edits applied.
func (b *Buffer) Bytes() []byte {
	return b.ed.Bytes()
}

// String returns a string containing the original data
// with the queued edits applied.
func (b *Buffer) String() string {
	if b.edits == 0 {
		return string(b.buf)
	}
	return string(b.ed.Bytes())
}
