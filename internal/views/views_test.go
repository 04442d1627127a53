package views

import (
	"strings"
	"testing"

	"github.com/versemark/versemark/pkg/index"
)

func TestChecklistPage(t *testing.T) {
	ix, _ := index.Build([]index.Record{
		{Reference: "Luke 1:26–38", Text: "And in the sixth month"},
		{Reference: "Alma 32:21", Text: "faith"},
	})
	var b strings.Builder
	err := ChecklistPage("Ada", ix, index.Progress{"Alma_Chapter 32_32:21": true}).Render(&b)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	html := b.String()

	for _, want := range []string{
		"<!DOCTYPE html>",
		`data-key="Luke_Chapter 1_1:26–38"`,
		`data-key="Alma_Chapter 32_32:21"`,
		"1/2 (50%)",
		"Ada",
		"And in the sixth month",
		"/bofm/alma/32.21?lang=eng",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("checklist page is missing %q", want)
		}
	}
	if strings.Index(html, "Luke") > strings.Index(html, "Alma") {
		t.Error("books must keep index order")
	}
	if strings.Count(html, "checked") != 1 {
		t.Errorf("expected exactly one checked box, got %d", strings.Count(html, "checked"))
	}
}

func TestChecklistPageEmpty(t *testing.T) {
	ix, _ := index.Build(nil)
	var b strings.Builder
	if err := ChecklistPage("", ix, nil).Render(&b); err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(b.String(), "0/0 (0%)") || !strings.Contains(b.String(), "index is empty") {
		t.Fatalf("unexpected empty page: %s", b.String())
	}
}

func TestLoginPage(t *testing.T) {
	var b strings.Builder
	err := LoginPage([]ProviderLink{
		{Name: "google", Title: "Google"},
		{Name: "anonymous", Title: "Guest", Post: true},
	}, "").Render(&b)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	html := b.String()
	if !strings.Contains(html, `href="/auth/google"`) || !strings.Contains(html, "Sign in with Google") {
		t.Errorf("google link missing: %s", html)
	}
	if !strings.Contains(html, `action="/auth/anonymous"`) || !strings.Contains(html, `method="post"`) {
		t.Errorf("anonymous form missing: %s", html)
	}
}

func TestProgressLabel(t *testing.T) {
	if got := ProgressLabel(index.Tally{Read: 2, Total: 3, Percent: 67}); got != "2/3 (67%)" {
		t.Fatalf("ProgressLabel = %q", got)
	}
}

func TestErrorPage(t *testing.T) {
	var b strings.Builder
	if err := ErrorPage(404, "Nothing here.").Render(&b); err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(b.String(), "404 Not Found") || !strings.Contains(b.String(), "Nothing here.") {
		t.Fatalf("unexpected error page: %s", b.String())
	}
}
