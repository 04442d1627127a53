// Package reference parses free-text scripture citations such as
// "Luke 1:26–38" or "D&C 59:8" and classifies them into volumes for
// deep linking.
package reference

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// RangeSeparator is the en-dash (U+2013) used between the two verses of a
// range. A hyphen-minus is not accepted in citations.
const RangeSeparator = "–"

// ErrParse is matched by every *ParseError.
var ErrParse = errors.New("citation does not match book chapter[:verses]")

// ParsedReference is the structured form of a citation.
type ParsedReference struct {
	// Book is the book token as written, e.g. "1 Pet." or "D&C".
	Book string `json:"book"`

	// Chapter is always positive for a successfully parsed citation.
	Chapter int `json:"chapter"`

	// VerseRange is the raw verse component without the colon, e.g. "26–38".
	// It is empty, never absent, for chapter-only citations.
	VerseRange string `json:"verseRange"`

	// DisplayText is the citation exactly as it was given.
	DisplayText string `json:"displayText"`
}

// ParseError reports a citation that could not be parsed.
type ParseError struct {
	Citation string
	Err      error
}

func (e *ParseError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("invalid citation %q", e.Citation)
	}
	return fmt.Sprintf("invalid citation %q: %v", e.Citation, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

func (e *ParseError) Is(target error) bool { return target == ErrParse }

// citationGrammar matches "<book><chapter>[:<verse>[–<verse>]]".
// Examples: "Luke 1:26–38", "1 Pet. 2:5", "3 Ne. 9:20", "D&C 59:8", "Moro. 10"
//
// Whitespace is only allowed after a numeric book prefix, between the words
// of the book and between the book and the chapter. "Luke 1 : 5" and
// "Luke 1:26 – 38" do not match.
//
//nolint:govet // participle grammar tags are not standard struct tags
type citationGrammar struct {
	Prefix  string          `( @Int Space? )?`
	Book    string          `@Book Space?`
	Chapter *chapterGrammar `@@`
}

//nolint:govet // participle grammar tags are not standard struct tags
type chapterGrammar struct {
	Pos    lexer.Position
	Number string        `@Int`
	Verses *verseGrammar `( ":" @@ )?`
}

//nolint:govet // participle grammar tags are not standard struct tags
type verseGrammar struct {
	Pos   lexer.Position
	Start string `@Int`
	End   string `( "–" @Int )?`
}

// A book is one or more words separated by whitespace. Words never contain
// digits so that "Luke1" still splits into a book and a chapter.
var citationLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Int", Pattern: `[0-9]+`},
	{Name: "Book", Pattern: `[A-Za-z_&][A-Za-z_&.]*(?:[ \t]+[A-Za-z_&][A-Za-z_&.]*)*`},
	{Name: "Colon", Pattern: `:`},
	{Name: "Dash", Pattern: `–`},
	{Name: "Space", Pattern: `[ \t]+`},
})

var citationParser = participle.MustBuild[citationGrammar](
	participle.Lexer(citationLexer),
)

// Parse parses a citation. On failure the returned error is a *ParseError
// carrying the original string; callers building an index skip the record.
func Parse(citation string) (ParsedReference, error) {
	// Offsets below index into the trimmed text.
	text := strings.TrimSpace(citation)
	if text == "" {
		return ParsedReference{}, &ParseError{Citation: citation, Err: errors.New("empty citation")}
	}

	parsed, err := citationParser.ParseString("", text)
	if err != nil {
		return ParsedReference{}, &ParseError{Citation: citation, Err: err}
	}

	ch := parsed.Chapter
	chapter, err := strconv.Atoi(ch.Number)
	if err != nil {
		return ParsedReference{}, &ParseError{Citation: citation, Err: fmt.Errorf("chapter %q: %w", ch.Number, err)}
	}
	if chapter <= 0 {
		return ParsedReference{}, &ParseError{Citation: citation, Err: errors.New("chapter must be positive")}
	}

	ref := ParsedReference{
		Book:        strings.TrimSpace(text[:ch.Pos.Offset]),
		Chapter:     chapter,
		DisplayText: citation,
	}
	if ch.Verses != nil {
		ref.VerseRange = text[ch.Verses.Pos.Offset:]
	}
	return ref, nil
}

// MustParse is like Parse but panics on error. Intended for tests and
// static tables.
func MustParse(citation string) ParsedReference {
	ref, err := Parse(citation)
	if err != nil {
		panic(err)
	}
	return ref
}

// String returns the original citation text.
func (r ParsedReference) String() string {
	return r.DisplayText
}

// HasVerses reports whether the citation names verses rather than a whole chapter.
func (r ParsedReference) HasVerses() bool {
	return r.VerseRange != ""
}
