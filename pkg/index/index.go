// Package index assembles parsed citations into the ordered
// book -> chapter -> verse structure that drives the reading checklist.
package index

import (
	"bytes"
	"encoding/json"
)

// Record is one row of the citation dataset.
type Record struct {
	Reference string `json:"reference" yaml:"reference"`
	Text      string `json:"text" yaml:"text"`
}

// Verse is a leaf of the index.
type Verse struct {
	LinkText      string `json:"linkText"`
	URL           string `json:"url"`
	ScriptureText string `json:"scriptureText"`
}

// Entry is a leaf together with its position in the index.
type Entry struct {
	Book    string
	Chapter string
	Label   string
	Verse   Verse
}

// Key returns the composite key of the entry.
func (e Entry) Key() string {
	return CompositeKey(e.Book, e.Chapter, e.Label)
}

type chapter struct {
	label  string
	order  []string
	verses map[string]Verse
}

type book struct {
	name     string
	order    []string
	chapters map[string]*chapter
}

// Index is an insertion-ordered book -> chapter -> verse mapping. It is
// never modified after Build returns; rebuild it to pick up new data.
type Index struct {
	order []string
	books map[string]*book
	keys  map[string]struct{}
}

func newIndex() *Index {
	return &Index{
		books: make(map[string]*book),
		keys:  make(map[string]struct{}),
	}
}

// put inserts or overwrites a leaf and reports whether it overwrote.
// An overwritten leaf keeps its original position.
func (ix *Index) put(bookName, chapterLabel, verseLabel string, v Verse) bool {
	b, ok := ix.books[bookName]
	if !ok {
		b = &book{name: bookName, chapters: make(map[string]*chapter)}
		ix.books[bookName] = b
		ix.order = append(ix.order, bookName)
	}
	c, ok := b.chapters[chapterLabel]
	if !ok {
		c = &chapter{label: chapterLabel, verses: make(map[string]Verse)}
		b.chapters[chapterLabel] = c
		b.order = append(b.order, chapterLabel)
	}
	_, existed := c.verses[verseLabel]
	if !existed {
		c.order = append(c.order, verseLabel)
	}
	c.verses[verseLabel] = v
	ix.keys[CompositeKey(bookName, chapterLabel, verseLabel)] = struct{}{}
	return existed
}

// Books returns book names in insertion order.
func (ix *Index) Books() []string {
	if ix == nil {
		return nil
	}
	return append([]string(nil), ix.order...)
}

// Chapters returns the chapter labels of a book in insertion order.
func (ix *Index) Chapters(bookName string) []string {
	if ix == nil {
		return nil
	}
	b, ok := ix.books[bookName]
	if !ok {
		return nil
	}
	return append([]string(nil), b.order...)
}

// Verses returns the verse labels of a chapter in insertion order.
func (ix *Index) Verses(bookName, chapterLabel string) []string {
	if ix == nil {
		return nil
	}
	b, ok := ix.books[bookName]
	if !ok {
		return nil
	}
	c, ok := b.chapters[chapterLabel]
	if !ok {
		return nil
	}
	return append([]string(nil), c.order...)
}

// Lookup returns the leaf at the given position.
func (ix *Index) Lookup(bookName, chapterLabel, verseLabel string) (Verse, bool) {
	if ix == nil {
		return Verse{}, false
	}
	b, ok := ix.books[bookName]
	if !ok {
		return Verse{}, false
	}
	c, ok := b.chapters[chapterLabel]
	if !ok {
		return Verse{}, false
	}
	v, ok := c.verses[verseLabel]
	return v, ok
}

// HasKey reports whether a composite key names a leaf of the index.
func (ix *Index) HasKey(key string) bool {
	if ix == nil {
		return false
	}
	_, ok := ix.keys[key]
	return ok
}

// Entries returns every leaf in index order.
func (ix *Index) Entries() []Entry {
	if ix == nil {
		return nil
	}
	out := make([]Entry, 0, len(ix.keys))
	ix.Walk(func(e Entry) {
		out = append(out, e)
	})
	return out
}

// Walk calls fn for every leaf in index order.
func (ix *Index) Walk(fn func(Entry)) {
	if ix == nil {
		return
	}
	for _, bn := range ix.order {
		b := ix.books[bn]
		for _, cl := range b.order {
			c := b.chapters[cl]
			for _, vl := range c.order {
				fn(Entry{Book: bn, Chapter: cl, Label: vl, Verse: c.verses[vl]})
			}
		}
	}
}

// Total is the number of leaf entries: the sum over books and chapters of
// the verse keys they hold.
func (ix *Index) Total() int {
	if ix == nil {
		return 0
	}
	total := 0
	for _, b := range ix.books {
		for _, c := range b.chapters {
			total += len(c.verses)
		}
	}
	return total
}

// MarshalJSON renders the index as nested objects whose keys keep
// insertion order.
func (ix *Index) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	if ix != nil {
		for i, bn := range ix.order {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeKey(&buf, bn); err != nil {
				return nil, err
			}
			b := ix.books[bn]
			buf.WriteByte('{')
			for j, cl := range b.order {
				if j > 0 {
					buf.WriteByte(',')
				}
				if err := writeKey(&buf, cl); err != nil {
					return nil, err
				}
				c := b.chapters[cl]
				buf.WriteByte('{')
				for k, vl := range c.order {
					if k > 0 {
						buf.WriteByte(',')
					}
					if err := writeKey(&buf, vl); err != nil {
						return nil, err
					}
					v, err := json.Marshal(c.verses[vl])
					if err != nil {
						return nil, err
					}
					buf.Write(v)
				}
				buf.WriteByte('}')
			}
			buf.WriteByte('}')
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func writeKey(buf *bytes.Buffer, key string) error {
	k, err := json.Marshal(key)
	if err != nil {
		return err
	}
	buf.Write(k)
	buf.WriteByte(':')
	return nil
}
