package importer

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

// ExtractText collects the verse texts of c from a volume document. Volumes
// come in two layouts: books[].chapters[].verses[] and sections[].verses[]
// where each section carries a "reference" like "D&C 59".
func ExtractText(volume string, c Citation) (string, bool) {
	var verses gjson.Result
	switch {
	case gjson.Get(volume, "books").Exists():
		verses = gjson.Get(volume, fmt.Sprintf(`books.#(book==%q).chapters.#(chapter==%d).verses`, c.info.name, c.Chapter))
	case gjson.Get(volume, "sections").Exists():
		verses = gjson.Get(volume, fmt.Sprintf(`sections.#(reference==%q).verses`, fmt.Sprintf("%s %d", c.Book, c.Chapter)))
	default:
		return "", false
	}
	if !verses.Exists() {
		return "", false
	}

	byNumber := make(map[int64]string)
	verses.ForEach(func(_, v gjson.Result) bool {
		byNumber[v.Get("verse").Int()] = v.Get("text").String()
		return true
	})

	var parts []string
	for _, span := range c.Spans {
		for n := span.Start; n <= span.End; n++ {
			if text, ok := byNumber[int64(n)]; ok {
				parts = append(parts, text)
			}
		}
	}
	if len(parts) == 0 {
		return "", false
	}
	return strings.TrimSpace(strings.Join(parts, " ")), true
}
