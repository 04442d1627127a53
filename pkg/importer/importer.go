// Package importer turns scripture links into a citation/text dataset by
// looking every verse up in the published volume files.
package importer

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/versemark/versemark/pkg/index"
	"github.com/versemark/versemark/pkg/reference"
	"github.com/versemark/versemark/pkg/whttp"
)

// Placeholder texts written when a verse cannot be resolved.
const (
	TextUnparsed    = "Scripture not found/parsed."
	TextNotInVolume = "Scripture not found in JSON."
	textNoData      = "Data not available for book: %s"
)

// Logger abstracts logging so callers can use logrus, stdlib log, or any
// other logger that satisfies this interface.
type Logger interface {
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	Debugf(format string, args ...interface{})
}

type nopLogger struct{}

func (nopLogger) Infof(string, ...interface{})  {}
func (nopLogger) Warnf(string, ...interface{})  {}
func (nopLogger) Errorf(string, ...interface{}) {}
func (nopLogger) Debugf(string, ...interface{}) {}

// Config holds everything Run needs.
type Config struct {
	Anchors     []Anchor
	SourceURL   string                // defaults to DefaultSourceURL
	Client      *retryablehttp.Client // defaults to whttp.NewClient(3)
	Concurrency int                   // defaults to 4 if <= 0
	Log         Logger                // optional; nil = no logging
}

// Result holds the records in input order plus what went wrong.
type Result struct {
	Records    []index.Record
	Unresolved int
	// Unindexable counts records whose reference the index builder will
	// skip, such as multi-range citations. They are still written.
	Unindexable int
	Errors      []error // non-fatal, one per volume that could not be fetched
}

// Run resolves every anchor. Failures never drop an anchor: each yields a
// record with a placeholder text.
func Run(ctx context.Context, cfg Config) (*Result, error) {
	log := cfg.Log
	if log == nil {
		log = nopLogger{}
	}
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 4
	}
	client := cfg.Client
	if client == nil {
		client = whttp.NewClient(3)
	}
	base := cfg.SourceURL
	if base == "" {
		base = DefaultSourceURL
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}

	citations := make([]*Citation, len(cfg.Anchors))
	needed := make(map[string]bool)
	for i, a := range cfg.Anchors {
		c, err := ParseCitation(a)
		if err != nil {
			log.Warnf("Could not parse link %s: %v", a.HTML, err)
			continue
		}
		citations[i] = &c
		needed[c.info.file] = true
	}

	volumes, errs := fetchVolumes(ctx, client, base, needed, concurrency, log)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := &Result{Records: make([]index.Record, 0, len(cfg.Anchors)), Errors: errs}
	for i, a := range cfg.Anchors {
		c := citations[i]
		switch {
		case c == nil:
			result.Records = append(result.Records, index.Record{Reference: a.HTML, Text: TextUnparsed})
			result.Unresolved++
		case volumes[c.info.file] == "":
			result.Records = append(result.Records, index.Record{Reference: c.Reference, Text: fmt.Sprintf(textNoData, c.Book)})
			result.Unresolved++
		default:
			text, ok := ExtractText(volumes[c.info.file], *c)
			if !ok {
				log.Warnf("No verses found for %s", c.Reference)
				text = TextNotInVolume
				result.Unresolved++
			}
			result.Records = append(result.Records, index.Record{Reference: c.Reference, Text: text})
		}
	}

	for _, r := range result.Records {
		if _, err := reference.Parse(r.Reference); err != nil {
			log.Debugf("Not indexable: %v", err)
			result.Unindexable++
		}
	}
	if result.Unindexable > 0 {
		log.Warnf("%d of %d records are written but will not appear in the index", result.Unindexable, len(result.Records))
	}
	return result, nil
}

// fetchVolumes downloads each needed volume once using a worker pool.
func fetchVolumes(ctx context.Context, client *retryablehttp.Client, base string, needed map[string]bool, concurrency int, log Logger) (map[string]string, []error) {
	volumes := make(map[string]string, len(needed))
	if len(needed) == 0 {
		return volumes, nil
	}

	fileChan := make(chan string, len(needed))

	var mu sync.Mutex
	var allErrors []error

	var wg sync.WaitGroup
	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for file := range fileChan {
				if ctx.Err() != nil {
					return
				}
				url := base + file
				log.Infof("Fetching %s", url)
				res, err := whttp.Get(ctx, client, url)
				if err != nil {
					log.Warnf("Failed to fetch %s: %v", url, err)
					mu.Lock()
					allErrors = append(allErrors, err)
					mu.Unlock()
					continue
				}
				mu.Lock()
				volumes[file] = res.BodyString
				mu.Unlock()
			}
		}()
	}

	for file := range needed {
		fileChan <- file
	}
	close(fileChan)
	wg.Wait()

	return volumes, allErrors
}
