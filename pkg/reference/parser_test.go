package reference

import (
	"errors"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		input    string
		expected ParsedReference
	}{
		{
			input:    "Luke 1:26–38",
			expected: ParsedReference{Book: "Luke", Chapter: 1, VerseRange: "26–38", DisplayText: "Luke 1:26–38"},
		},
		{
			input:    "1 Pet. 2:5",
			expected: ParsedReference{Book: "1 Pet.", Chapter: 2, VerseRange: "5", DisplayText: "1 Pet. 2:5"},
		},
		{
			input:    "D&C 59:8",
			expected: ParsedReference{Book: "D&C", Chapter: 59, VerseRange: "8", DisplayText: "D&C 59:8"},
		},
		{
			input:    "3 Ne. 9:20",
			expected: ParsedReference{Book: "3 Ne.", Chapter: 9, VerseRange: "20", DisplayText: "3 Ne. 9:20"},
		},
		{
			input:    "Moro. 10",
			expected: ParsedReference{Book: "Moro.", Chapter: 10, VerseRange: "", DisplayText: "Moro. 10"},
		},
		{
			input:    "W of M 1:4–7",
			expected: ParsedReference{Book: "W of M", Chapter: 1, VerseRange: "4–7", DisplayText: "W of M 1:4–7"},
		},
		{
			input:    "Luke 12:3",
			expected: ParsedReference{Book: "Luke", Chapter: 12, VerseRange: "3", DisplayText: "Luke 12:3"},
		},
		{
			input:    "Ps. 023:1",
			expected: ParsedReference{Book: "Ps.", Chapter: 23, VerseRange: "1", DisplayText: "Ps. 023:1"},
		},
		{
			input:    "D&C59:8",
			expected: ParsedReference{Book: "D&C", Chapter: 59, VerseRange: "8", DisplayText: "D&C59:8"},
		},
		{
			input:    "Song of Solomon 2:1",
			expected: ParsedReference{Book: "Song of Solomon", Chapter: 2, VerseRange: "1", DisplayText: "Song of Solomon 2:1"},
		},
		{
			input:    "Luke1:5",
			expected: ParsedReference{Book: "Luke", Chapter: 1, VerseRange: "5", DisplayText: "Luke1:5"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := Parse(tt.input)
			if err != nil {
				t.Fatalf("Parse(%q) failed: %v", tt.input, err)
			}
			if got != tt.expected {
				t.Errorf("Parse(%q) = %+v, want %+v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestParseDisplayTextIsVerbatim(t *testing.T) {
	inputs := []string{"Luke 1:26–38", "  Alma 32:21 ", "D&C 59:8", "1 Pet. 2:5"}
	for _, in := range inputs {
		got, err := Parse(in)
		if err != nil {
			t.Fatalf("Parse(%q) failed: %v", in, err)
		}
		if got.DisplayText != in {
			t.Errorf("DisplayText = %q, want %q", got.DisplayText, in)
		}
	}
}

func TestParseTrimsSurroundingWhitespace(t *testing.T) {
	got, err := Parse("  Alma 32:21 ")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if got.Book != "Alma" || got.Chapter != 32 || got.VerseRange != "21" {
		t.Fatalf("unexpected parse result: %+v", got)
	}
}

func TestParseFailures(t *testing.T) {
	inputs := []string{
		"garbage!!",
		"",
		"   ",
		"Luke",
		"1:5",
		"Luke 1:26-38", // hyphen-minus is not a range separator
		"Luke 0:1",
		"Luke 1:",
		"Luke 1:5–",
		"JS—H 1:17",
		"Luke 1 :5",
		"Luke 1: 5",
		"Luke 1:26 – 38",
		"Luke 1:26– 38",
		"Luke 1 : 26 – 38",
		"Luke 1:5 6",
	}
	for _, in := range inputs {
		_, err := Parse(in)
		if err == nil {
			t.Errorf("Parse(%q) succeeded, expected failure", in)
			continue
		}
		if !errors.Is(err, ErrParse) {
			t.Errorf("Parse(%q) error %v is not ErrParse", in, err)
		}
		var pe *ParseError
		if !errors.As(err, &pe) {
			t.Fatalf("Parse(%q) error is %T, want *ParseError", in, err)
		}
		if pe.Citation != in {
			t.Errorf("ParseError.Citation = %q, want %q", pe.Citation, in)
		}
	}
}

// A spaced-out range must not become a second leaf next to the canonical one.
func TestParseSpacedRangeIsNotAnotherKey(t *testing.T) {
	good := MustParse("Luke 1:26–38")
	if good.VerseRange != "26–38" {
		t.Fatalf("VerseRange = %q", good.VerseRange)
	}
	if _, err := Parse("Luke 1 : 26 – 38"); err == nil {
		t.Fatal("spaced citation parsed; it would index under a different key")
	}
}

func TestMustParsePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected MustParse to panic")
		}
	}()
	MustParse("garbage!!")
}
