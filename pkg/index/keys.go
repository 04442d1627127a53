package index

import (
	"fmt"
	"strings"

	"github.com/versemark/versemark/pkg/reference"
)

// KeySeparator joins the parts of a composite key.
const KeySeparator = "_"

// CompositeKey correlates an index entry with a persisted read flag. It is a
// pure function of its inputs; progress lookups rely on that.
func CompositeKey(book, chapterLabel, verseLabel string) string {
	return fmt.Sprintf("%s%s%s%s%s", book, KeySeparator, chapterLabel, KeySeparator, verseLabel)
}

// ChapterLabel returns the chapter-level key, e.g. "Chapter 3".
func ChapterLabel(chapter int) string {
	return fmt.Sprintf("Chapter %d", chapter)
}

// VerseLabel returns the verse-level key: "3" for a whole chapter,
// "3:16" or "1:26–38" when verses are named.
func VerseLabel(chapter int, verseRange string) string {
	if verseRange == "" {
		return fmt.Sprintf("%d", chapter)
	}
	return fmt.Sprintf("%d:%s", chapter, verseRange)
}

// KeyFor returns the composite key of a parsed citation.
func KeyFor(ref reference.ParsedReference) string {
	return CompositeKey(ref.Book, ChapterLabel(ref.Chapter), VerseLabel(ref.Chapter, ref.VerseRange))
}

// SplitKey reverses CompositeKey. Book names never contain the separator in
// practice; the split is done from the right so that they could.
func SplitKey(key string) (book, chapterLabel, verseLabel string, ok bool) {
	last := strings.LastIndex(key, KeySeparator)
	if last < 0 {
		return "", "", "", false
	}
	rest, verseLabel := key[:last], key[last+len(KeySeparator):]
	mid := strings.LastIndex(rest, KeySeparator)
	if mid < 0 {
		return "", "", "", false
	}
	book, chapterLabel = rest[:mid], rest[mid+len(KeySeparator):]
	if book == "" || chapterLabel == "" || verseLabel == "" {
		return "", "", "", false
	}
	return book, chapterLabel, verseLabel, true
}
