// Package views renders the HTML pages with gomponents.
package views

import (
	"fmt"
	"net/http"

	"github.com/versemark/versemark/pkg/index"
	g "maragu.dev/gomponents"
	. "maragu.dev/gomponents/html" // Using . import for convenience with html tags
)

// ProviderLink is one sign-in option on the login page.
type ProviderLink struct {
	Name  string
	Title string
	// Post is set for providers that sign in with a form post instead of a
	// redirect.
	Post bool
}

// Page layout component
func PageLayout(title string, navbar g.Node, content g.Node) g.Node {
	return g.Group([]g.Node{
		g.Raw("<!DOCTYPE html>"),
		HTML(Lang("en"),
			Head(
				Meta(Charset("UTF-8")),
				Meta(Name("viewport"), Content("width=device-width, initial-scale=1.0")),
				TitleEl(g.Text(title)),
				Link(Rel("stylesheet"), Href("/static/style.css")),
				Link(Rel("icon"), Type("image/svg+xml"), Href("/static/favicon.svg")),
			),
			Body(
				navbar,
				Main(Class("container"), content),
				Script(Src("/static/app.js"), Defer()),
			),
		),
	})
}

// Navbar component
func Navbar(displayName string) g.Node {
	return Nav(Class("navbar"),
		A(Href("/"), Class("brand"), g.Text("versemark")),
		g.If(displayName != "",
			Div(Class("navbar-user"),
				Span(g.Text(displayName)),
				A(Href("/logout"), g.Text("Sign out")),
			),
		),
	)
}

// ProgressLabel formats a tally as "read/total (pct%)".
func ProgressLabel(t index.Tally) string {
	return fmt.Sprintf("%d/%d (%d%%)", t.Read, t.Total, t.Percent)
}

func LoginPage(providers []ProviderLink, errMsg string) g.Node {
	var options []g.Node
	for _, p := range providers {
		if p.Post {
			options = append(options, Form(Method("post"), Action("/auth/"+p.Name), Class("provider"),
				Button(Type("submit"), g.Text("Continue as guest")),
			))
			continue
		}
		options = append(options, A(Href("/auth/"+p.Name), Class("provider provider-"+p.Name), g.Textf("Sign in with %s", p.Title)))
	}

	return PageLayout("Sign in - versemark", Navbar(""),
		Section(Class("login"),
			H1(g.Text("Sign in")),
			P(g.Text("Sign in to keep track of the verses you have read.")),
			g.If(errMsg != "", P(Class("error"), g.Text(errMsg))),
			g.If(len(options) == 0, P(g.Text("No sign-in methods are configured."))),
			Div(Class("providers"), g.Group(options)),
		),
	)
}

// ChecklistPage renders every book, chapter and verse with a checkbox per
// leaf. Books and chapters appear in the order the index holds them.
func ChecklistPage(displayName string, ix *index.Index, progress index.Progress) g.Node {
	tally := ix.Tally(progress)

	var books []g.Node
	for _, book := range ix.Books() {
		var chapters []g.Node
		for _, chapter := range ix.Chapters(book) {
			var verses []g.Node
			for _, label := range ix.Verses(book, chapter) {
				v, _ := ix.Lookup(book, chapter, label)
				verses = append(verses, verseItem(index.CompositeKey(book, chapter, label), v, progress.IsRead(index.CompositeKey(book, chapter, label))))
			}
			chapters = append(chapters, Div(Class("chapter"),
				H3(g.Text(chapter)),
				Ul(Class("verses"), g.Group(verses)),
			))
		}
		books = append(books, Details(Class("book"), g.Attr("open"),
			Summary(g.Text(book)),
			g.Group(chapters),
		))
	}

	return PageLayout("versemark", Navbar(displayName),
		g.Group([]g.Node{
			Header(Class("summary"),
				H1(g.Text("Reading checklist")),
				P(g.Text("Read: "), Span(ID("progress"), g.Text(ProgressLabel(tally)))),
			),
			g.If(len(books) == 0, P(Class("empty"), g.Text("The scripture index is empty."))),
			Div(ID("checklist"), g.Group(books)),
		}),
	)
}

func verseItem(key string, v index.Verse, read bool) g.Node {
	id := "v-" + fmt.Sprintf("%x", key)
	return Li(Class("verse"),
		Input(Type("checkbox"), ID(id), g.Attr("data-key", key), g.If(read, Checked())),
		Label(For(id),
			A(Href(v.URL), Target("_blank"), Rel("noopener noreferrer"), g.Text(v.LinkText)),
		),
		g.If(v.ScriptureText != "", P(Class("text"), g.Text(v.ScriptureText))),
	)
}

// ErrorPage is shown for unknown routes and failed sign-ins.
func ErrorPage(status int, message string) g.Node {
	return PageLayout(fmt.Sprintf("%d %s - versemark", status, http.StatusText(status)), Navbar(""),
		Section(Class("error-page"),
			H1(g.Textf("%d", status)),
			P(g.Text(message)),
			A(Href("/"), g.Text("Back to the checklist")),
		),
	)
}
