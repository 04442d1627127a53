package importer

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Anchor is one <a href> found in the input markup.
type Anchor struct {
	Href string
	Text string
	HTML string
}

// VerseSpan is an inclusive verse range.
type VerseSpan struct {
	Start int
	End   int
}

// Citation is an anchor resolved to a book, chapter and verse spans.
type Citation struct {
	Book      string
	Chapter   int
	Spans     []VerseSpan
	Reference string

	info bookInfo
}

var (
	ErrNoSlug      = errors.New("no scripture book in link")
	ErrUnknownSlug = errors.New("unknown book slug")
	ErrNoVerses    = errors.New("no chapter and verses in link text")
)

var (
	slugPattern      = regexp.MustCompile(`/scriptures/(?:nt|ot|bofm|dc-testament|pgp)/([^/?#]+)/\d+`)
	chapterPattern   = regexp.MustCompile(`^(?:.*?\s+)?(\d+):(.+)$`)
	verseSpanPattern = regexp.MustCompile(`^(\d+)(?:[–—](\d+))?`)
)

// ParseAnchors returns every link in markup, in document order.
func ParseAnchors(markup string) ([]Anchor, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, err
	}
	var anchors []Anchor
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		outer, err := goquery.OuterHtml(s)
		if err != nil {
			outer = s.Text()
		}
		anchors = append(anchors, Anchor{
			Href: href,
			Text: strings.TrimSpace(s.Text()),
			HTML: outer,
		})
	})
	return anchors, nil
}

// ParseCitation resolves the book from the link target and the chapter and
// verses from the link text. The returned Reference is rebuilt from those
// parts so differently written links agree.
func ParseCitation(a Anchor) (Citation, error) {
	m := slugPattern.FindStringSubmatch(a.Href)
	if m == nil {
		return Citation{}, fmt.Errorf("%w: %s", ErrNoSlug, a.Href)
	}
	info, ok := slugs[strings.ToLower(m[1])]
	if !ok {
		return Citation{}, fmt.Errorf("%w %q in %s", ErrUnknownSlug, m[1], a.Href)
	}

	cm := chapterPattern.FindStringSubmatch(a.Text)
	if cm == nil {
		return Citation{}, fmt.Errorf("%w: %q", ErrNoVerses, a.Text)
	}
	chapter, err := strconv.Atoi(cm[1])
	if err != nil || chapter <= 0 {
		return Citation{}, fmt.Errorf("%w: %q", ErrNoVerses, a.Text)
	}

	c := Citation{Book: info.abbrev, Chapter: chapter, info: info}
	var parts []string
	for _, part := range strings.Split(cm[2], ",") {
		vm := verseSpanPattern.FindStringSubmatch(strings.TrimSpace(part))
		if vm == nil {
			continue
		}
		start, _ := strconv.Atoi(vm[1])
		end := start
		if vm[2] != "" {
			end, _ = strconv.Atoi(vm[2])
		}
		c.Spans = append(c.Spans, VerseSpan{Start: start, End: end})
		if start == end {
			parts = append(parts, strconv.Itoa(start))
		} else {
			parts = append(parts, fmt.Sprintf("%d–%d", start, end))
		}
	}
	if len(c.Spans) == 0 {
		return Citation{}, fmt.Errorf("%w: %q", ErrNoVerses, a.Text)
	}
	c.Reference = fmt.Sprintf("%s %d:%s", c.Book, c.Chapter, strings.Join(parts, ","))
	return c, nil
}
