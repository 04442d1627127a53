package index

import (
	"reflect"
	"testing"

	"github.com/versemark/versemark/pkg/reference"
)

func TestCompositeKeyDeterministic(t *testing.T) {
	a := CompositeKey("1 Pet.", "Chapter 2", "2:5")
	b := CompositeKey("1 Pet.", "Chapter 2", "2:5")
	if a != b {
		t.Fatalf("composite key not deterministic: %q vs %q", a, b)
	}
	if a != "1 Pet._Chapter 2_2:5" {
		t.Fatalf("unexpected key %q", a)
	}
}

func TestKeyForMatchesIndex(t *testing.T) {
	ref := reference.MustParse("Luke 1:26–38")
	ix, _ := Build([]Record{{Reference: "Luke 1:26–38", Text: "x"}})
	if !ix.HasKey(KeyFor(ref)) {
		t.Fatalf("KeyFor(%v) = %q not found in index", ref, KeyFor(ref))
	}
}

func TestSplitKey(t *testing.T) {
	book, ch, v, ok := SplitKey("1 Pet._Chapter 2_2:5")
	if !ok || book != "1 Pet." || ch != "Chapter 2" || v != "2:5" {
		t.Fatalf("SplitKey = %q %q %q %v", book, ch, v, ok)
	}
	for _, bad := range []string{"", "nokey", "a_b", "_Chapter 1_1", "Luke__1"} {
		if _, _, _, ok := SplitKey(bad); ok {
			t.Errorf("SplitKey(%q) should fail", bad)
		}
	}
}

func TestToggle(t *testing.T) {
	p := Progress{}
	read, patch := p.Toggle("Luke_Chapter 1_1:5")
	if !read || !p.IsRead("Luke_Chapter 1_1:5") {
		t.Fatalf("expected key to be read after first toggle")
	}
	if !reflect.DeepEqual(patch, Patch{"Luke_Chapter 1_1:5": true}) {
		t.Fatalf("unexpected patch %v", patch)
	}

	read, patch = p.Toggle("Luke_Chapter 1_1:5")
	if read || p.IsRead("Luke_Chapter 1_1:5") {
		t.Fatalf("expected key to be unread after second toggle")
	}
	if len(p) != 0 {
		t.Fatalf("unread keys must be removed, got %v", p)
	}
	if !reflect.DeepEqual(patch, Patch{"Luke_Chapter 1_1:5": false}) {
		t.Fatalf("unexpected patch %v", patch)
	}
}

func TestApplyPatch(t *testing.T) {
	stored := Progress{"a": true, "b": true}
	stored.Apply(Patch{"b": false, "c": true})
	if !reflect.DeepEqual(stored, Progress{"a": true, "c": true}) {
		t.Fatalf("unexpected merged progress %v", stored)
	}
}

func TestTally(t *testing.T) {
	ix, _ := Build([]Record{
		{Reference: "Luke 1:26–38", Text: "a"},
		{Reference: "Luke 2:1–7", Text: "b"},
		{Reference: "Alma 32:21", Text: "c"},
	})
	p := Progress{
		"Luke_Chapter 1_1:26–38": true,
		"Alma_Chapter 32_32:21":  true,
		"Stale_Chapter 9_9:9":    true,
	}
	got := ix.Tally(p)
	want := Tally{Read: 2, Total: 3, Percent: 67}
	if got != want {
		t.Fatalf("Tally = %+v, want %+v", got, want)
	}
}

func TestPercent(t *testing.T) {
	tests := []struct{ read, total, want int }{
		{0, 0, 0},
		{0, 10, 0},
		{1, 3, 33},
		{1, 2, 50},
		{3, 3, 100},
	}
	for _, tt := range tests {
		if got := Percent(tt.read, tt.total); got != tt.want {
			t.Errorf("Percent(%d, %d) = %d, want %d", tt.read, tt.total, got, tt.want)
		}
	}
}
