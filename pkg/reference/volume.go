package reference

import (
	"fmt"
	"net/url"
	"strings"
	"unicode"
)

// Volume is one of the major scriptural collections. It is used only to
// build deep links and has no bearing on index structure.
type Volume string

const (
	OldTestament         Volume = "ot"
	NewTestament         Volume = "nt"
	BookOfMormon         Volume = "bofm"
	DoctrineAndCovenants Volume = "dc-testament"
	PearlOfGreatPrice    Volume = "pgp"
)

// DefaultLinkBase is the study site the deep links point at.
const DefaultLinkBase = "https://www.churchofjesuschrist.org/study/scriptures"

var volumeTitles = map[Volume]string{
	OldTestament:         "Old Testament",
	NewTestament:         "New Testament",
	BookOfMormon:         "Book of Mormon",
	DoctrineAndCovenants: "Doctrine and Covenants",
	PearlOfGreatPrice:    "Pearl of Great Price",
}

// Title returns the human readable name of the volume.
func (v Volume) Title() string {
	if t, ok := volumeTitles[v]; ok {
		return t
	}
	return string(v)
}

var bookOfMormonBooks = map[string]struct{}{
	"1-ne": {}, "2-ne": {}, "3-ne": {}, "4-ne": {},
	"jacob": {}, "enos": {}, "jarom": {}, "omni": {}, "w": {},
	"mosiah": {}, "alma": {}, "hel": {}, "morm": {}, "ether": {}, "moro": {},
}

// Moses is filed under the Old Testament together with Genesis.
var oldTestamentBooks = map[string]struct{}{
	"moses": {}, "gen": {}, "ex": {}, "lev": {}, "num": {}, "deut": {},
	"josh": {}, "judg": {}, "ruth": {}, "1-sam": {}, "2-sam": {},
	"1-kgs": {}, "2-kgs": {}, "1-chr": {}, "2-chr": {}, "ezra": {},
	"neh": {}, "esth": {}, "job": {}, "ps": {}, "prov": {}, "eccl": {},
	"song": {}, "isa": {}, "jer": {}, "lam": {}, "ezek": {}, "dan": {},
	"hosea": {}, "joel": {}, "amos": {}, "obad": {}, "jonah": {},
	"micah": {}, "nahum": {}, "hab": {}, "zeph": {}, "hag": {},
	"zech": {}, "mal": {},
}

const (
	doctrineAndCovenantsAbbrev = "d&c"
	abrahamAbbrev              = "abr"
)

// linkSlugs holds slugs that differ from the normalized token.
var linkSlugs = map[string]string{
	doctrineAndCovenantsAbbrev: "dc",
}

// NormalizeBook reduces a citation to the token used for classification:
// the first whitespace-delimited token, lower-cased, periods stripped.
// A purely numeric first token is joined to the next one with a hyphen, so
// "1 Ne. 3:7" normalizes to "1-ne".
func NormalizeBook(citation string) string {
	fields := strings.Fields(citation)
	if len(fields) == 0 {
		return ""
	}
	token := clean(fields[0])
	if isDigits(token) && len(fields) > 1 {
		if next := clean(fields[1]); next != "" && !startsWithDigit(next) {
			token += "-" + next
		}
	}
	return token
}

func clean(s string) string {
	return strings.ReplaceAll(strings.ToLower(s), ".", "")
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

func startsWithDigit(s string) bool {
	return s != "" && unicode.IsDigit(rune(s[0]))
}

// Classify maps a normalized book token to its volume. Unrecognized tokens
// fall back to the New Testament; this is not an error.
func Classify(normalized string) Volume {
	if _, ok := bookOfMormonBooks[normalized]; ok {
		return BookOfMormon
	}
	switch normalized {
	case doctrineAndCovenantsAbbrev:
		return DoctrineAndCovenants
	case abrahamAbbrev:
		return PearlOfGreatPrice
	}
	if _, ok := oldTestamentBooks[normalized]; ok {
		return OldTestament
	}
	return NewTestament
}

// DeepLink builds "{base}/{volume}/{book}/{chapter}[.{verses}]?lang=eng" for
// a parsed citation. The en-dash of a range becomes a hyphen-minus. An
// unusable base yields "" so that a bad link never blocks indexing.
func DeepLink(base string, ref ParsedReference) string {
	if base == "" {
		base = DefaultLinkBase
	}
	u, err := url.Parse(base)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}

	slug := NormalizeBook(ref.Book)
	if slug == "" {
		return ""
	}
	volume := Classify(slug)
	if s, ok := linkSlugs[slug]; ok {
		slug = s
	}

	location := fmt.Sprintf("%d", ref.Chapter)
	if ref.VerseRange != "" {
		location += "." + strings.ReplaceAll(ref.VerseRange, RangeSeparator, "-")
	}

	u = u.JoinPath(string(volume), slug, location)
	q := u.Query()
	q.Set("lang", "eng")
	u.RawQuery = q.Encode()
	return u.String()
}
