package printer

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/versemark/versemark/pkg/index"
)

// PrintEntries writes one line per entry. Each character of outputFlags
// selects a field:
//
//	b book, c chapter label, v verse label, k composite key,
//	l link text, u url, t scripture text
func PrintEntries(w io.Writer, entries []index.Entry, outputFlags string, delimiter string) error {
	for _, f := range outputFlags {
		if !strings.ContainsRune("bcvklut", f) {
			return fmt.Errorf("invalid print flag %q", f)
		}
	}

	lines := ""
	for _, e := range entries {
		var line string
		for _, f := range outputFlags {
			switch f {
			case 'b':
				line += e.Book + delimiter
			case 'c':
				line += e.Chapter + delimiter
			case 'v':
				line += e.Label + delimiter
			case 'k':
				line += e.Key() + delimiter
			case 'l':
				line += e.Verse.LinkText + delimiter
			case 'u':
				line += e.Verse.URL + delimiter
			case 't':
				line += e.Verse.ScriptureText + delimiter
			}
		}
		line = strings.TrimSuffix(line, delimiter)
		if len(line) > 0 {
			lines += line + "\n"
		}
	}

	_, err := io.WriteString(w, lines)
	return err
}

// PrintTally writes the checklist figure, e.g. "2/3 (67%)".
func PrintTally(w io.Writer, t index.Tally) error {
	_, err := fmt.Fprintf(w, "%d/%d (%d%%)\n", t.Read, t.Total, t.Percent)
	return err
}

// PrintReadKeys writes marked keys as book, chapter and verse columns.
// Keys that do not split are written whole in the first column.
func PrintReadKeys(w io.Writer, keys []string) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, k := range keys {
		book, chapter, verse, ok := index.SplitKey(k)
		if !ok {
			fmt.Fprintf(tw, "%s\t\t\n", k)
			continue
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", book, chapter, verse)
	}
	return tw.Flush()
}
