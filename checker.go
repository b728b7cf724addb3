package lexicon

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"
	"unicode/utf8"

	"github.com/RoaringBitmap/roaring"
	"golang.org/x/sync/errgroup"
)

// ═══════════════════════════════════════════════════════════════════════════════
// SPELL CHECKING
// ═══════════════════════════════════════════════════════════════════════════════
// The checker scans a text, looks every token up in the dictionary and records
// the ones it cannot find:
//
//	dictionary: [ciao, hello, mondo, world, hola]
//	text:       "Ciao mundo, hello wrld"
//	report:     mundo (#1), wrld (#3)
//
// Misspellings come out in text order; the dictionary's order plays no part.
//
// Besides the list, a report keeps a Roaring bitmap of misspelled token
// ordinals. Bitmaps from several reports combine with a single Or/And and answer
// "was token #n wrong?" in O(1).
// ═══════════════════════════════════════════════════════════════════════════════

// Misspelling is a token that the dictionary does not contain.
type Misspelling struct {
	Word    string
	Ordinal uint32
	Offset  int64
}

// Report is the result of checking one text.
type Report struct {
	Source     string          // Name of the text (file path or caller label)
	Tokens     int             // Tokens examined
	Misspelled []Misspelling   // Every unknown token, in text order
	Ordinals   *roaring.Bitmap // Ordinals of the unknown tokens
	Elapsed    time.Duration
}

func newReport(source string) *Report {
	return &Report{
		Source:   source,
		Ordinals: roaring.NewBitmap(),
	}
}

// Count returns the number of misspelled tokens.
func (r *Report) Count() int {
	return int(r.Ordinals.GetCardinality())
}

// IsMisspelled reports whether the token with the given ordinal was unknown.
func (r *Report) IsMisspelled(ordinal uint32) bool {
	return r.Ordinals.Contains(ordinal)
}

// Unique returns each misspelled word once, at its first occurrence, in text
// order. Words differing only in case count as the same word.
func (r *Report) Unique() []string {
	seen := make(map[string]struct{}, len(r.Misspelled))
	out := make([]string, 0, len(r.Misspelled))
	for _, m := range r.Misspelled {
		key := Fold(m.Word)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, m.Word)
	}
	return out
}

// Checker checks texts against a dictionary.
type Checker struct {
	dict   *Dictionary
	config AnalyzerConfig
}

// NewChecker returns a checker over dict. Stemming in config only has an effect
// when dict was built with stemming enabled.
func NewChecker(dict *Dictionary, config AnalyzerConfig) *Checker {
	return &Checker{dict: dict, config: config}
}

// Check scans r and reports every token missing from the dictionary. The
// context is checked between tokens.
func (c *Checker) Check(ctx context.Context, source string, r io.Reader) (*Report, error) {
	start := time.Now()
	report := newReport(source)

	scanner := NewTokenScanner(r)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		tok := scanner.Token()
		report.Tokens++

		if utf8.RuneCountInString(tok.Text) < c.config.MinTokenLength {
			continue
		}
		if c.known(tok.Text) {
			continue
		}

		report.Misspelled = append(report.Misspelled, Misspelling{
			Word:    tok.Text,
			Ordinal: tok.Ordinal,
			Offset:  tok.Offset,
		})
		report.Ordinals.Add(tok.Ordinal)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning %s: %w", source, err)
	}

	report.Elapsed = time.Since(start)
	slog.Info("text checked",
		slog.String("source", source),
		slog.Int("tokens", report.Tokens),
		slog.Int("misspelled", report.Count()),
		slog.Duration("elapsed", report.Elapsed))

	return report, nil
}

func (c *Checker) known(word string) bool {
	if c.config.EnableStemming {
		return c.dict.Contains(word)
	}
	_, found := c.dict.Lookup(word)
	return found
}

// CheckFile opens and checks a single file.
func (c *Checker) CheckFile(ctx context.Context, path string) (*Report, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return c.Check(ctx, path, f)
}

// CheckFiles checks several files in parallel, at most concurrency at a time
// (unbounded when concurrency <= 0). Reports come back in the order of paths.
// The first failure cancels the remaining checks.
func (c *Checker) CheckFiles(ctx context.Context, paths []string, concurrency int) ([]*Report, error) {
	reports := make([]*Report, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	if concurrency > 0 {
		g.SetLimit(concurrency)
	}

	for i, path := range paths {
		g.Go(func() error {
			report, err := c.CheckFile(ctx, path)
			if err != nil {
				return fmt.Errorf("checking %s: %w", path, err)
			}
			reports[i] = report
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return reports, nil
}
