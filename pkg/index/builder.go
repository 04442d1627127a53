package index

import (
	"github.com/versemark/versemark/pkg/reference"
)

// Logger abstracts logging so callers can use logrus, stdlib log, or any
// other logger that satisfies this interface.
type Logger interface {
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	Debugf(format string, args ...interface{})
}

// NopLogger silently discards all messages.
type NopLogger struct{}

func (NopLogger) Infof(string, ...interface{})  {}
func (NopLogger) Warnf(string, ...interface{})  {}
func (NopLogger) Errorf(string, ...interface{}) {}
func (NopLogger) Debugf(string, ...interface{}) {}

// Option configures Build.
type Option func(*buildConfig)

type buildConfig struct {
	log      Logger
	linkBase string
}

// WithLogger reports skipped and overwritten records to log.
func WithLogger(log Logger) Option {
	return func(c *buildConfig) {
		if log != nil {
			c.log = log
		}
	}
}

// WithLinkBase sets the base of generated deep links.
func WithLinkBase(base string) Option {
	return func(c *buildConfig) {
		c.linkBase = base
	}
}

// Skipped is a record that did not parse.
type Skipped struct {
	Reference string
	Err       error
}

// Report summarizes a build.
type Report struct {
	Records     int
	Indexed     int
	Skipped     []Skipped
	Overwritten []string // composite keys hit by a later record
}

// Build runs every record through the citation parser, in input order, and
// assembles the index. Unparsable records are logged and skipped; they never
// abort the build. When two records resolve to the same composite key the
// later one wins.
func Build(records []Record, opts ...Option) (*Index, Report) {
	cfg := buildConfig{log: NopLogger{}, linkBase: reference.DefaultLinkBase}
	for _, o := range opts {
		o(&cfg)
	}

	ix := newIndex()
	report := Report{Records: len(records)}

	for _, rec := range records {
		ref, err := reference.Parse(rec.Reference)
		if err != nil {
			cfg.log.Warnf("Skipping unparsable citation %q: %v", rec.Reference, err)
			report.Skipped = append(report.Skipped, Skipped{Reference: rec.Reference, Err: err})
			continue
		}

		chapterLabel := ChapterLabel(ref.Chapter)
		verseLabel := VerseLabel(ref.Chapter, ref.VerseRange)
		leaf := Verse{
			LinkText:      ref.DisplayText,
			URL:           reference.DeepLink(cfg.linkBase, ref),
			ScriptureText: rec.Text,
		}

		if ix.put(ref.Book, chapterLabel, verseLabel, leaf) {
			key := CompositeKey(ref.Book, chapterLabel, verseLabel)
			cfg.log.Debugf("Citation %q replaces an earlier entry at %s", rec.Reference, key)
			report.Overwritten = append(report.Overwritten, key)
		}
		report.Indexed++
	}

	return ix, report
}
