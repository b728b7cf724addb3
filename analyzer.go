// ═══════════════════════════════════════════════════════════════════════════════
// TEXT ANALYSIS OVERVIEW
// ═══════════════════════════════════════════════════════════════════════════════
// Two collaborators feed the dictionary index:
//
//  1. Word lists → one dictionary word per line, surrounding blanks trimmed
//  2. Free text  → maximal runs of letters, everything else is a separator
//
// EXAMPLE TRANSFORMATION:
// -----------------------
// Input:  "Ciao, mondo! It's 2024."
// Tokens: ["Ciao", "mondo", "It", "s"]
//
// Case is kept: the dictionary compares with case folding, and the report
// prints words the way the author wrote them.
//
// Optional stemming maps inflected forms to a root ("running" → "run") so a
// dictionary of base forms can accept them.
// ═══════════════════════════════════════════════════════════════════════════════

package lexicon

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"unicode"
	"unicode/utf8"

	snowballeng "github.com/kljensen/snowball/english"
)

// maxLineBytes bounds a single word-list line and a single text token.
const maxLineBytes = 1 << 20

// AnalyzerConfig holds configuration options for text analysis
type AnalyzerConfig struct {
	MinTokenLength int  // Tokens shorter than this are not checked (default: 1)
	EnableStemming bool // Accept words whose stem is in the dictionary (default: false)
}

// DefaultConfig returns the standard analyzer configuration
func DefaultConfig() AnalyzerConfig {
	return AnalyzerConfig{
		MinTokenLength: 1,
		EnableStemming: false,
	}
}

// Token is one alphabetic run found in a text.
type Token struct {
	Text    string // The run exactly as written
	Ordinal uint32 // 0-based position among the tokens of the text
	Offset  int64  // Byte offset of the first letter
}

// Tokenize splits text into maximal runs of letters.
//
//	"hello-world"    → ["hello", "world"]
//	"user@email.com" → ["user", "email", "com"]
//	"price: $9.99"   → ["price"]
//	"café"           → ["café"]
func Tokenize(text string) []string {
	return strings.FieldsFunc(text, isSeparator)
}

func isSeparator(r rune) bool {
	return !unicode.IsLetter(r)
}

// ═══════════════════════════════════════════════════════════════════════════════
// STREAMING TOKENIZER
// ═══════════════════════════════════════════════════════════════════════════════
// Tokenize needs the whole text in memory. TokenScanner does the same split on
// an io.Reader, so arbitrarily large files are checked in constant memory.
//
//	sc := NewTokenScanner(f)
//	for sc.Scan() {
//	    tok := sc.Token()
//	}
//	if err := sc.Err(); err != nil { ... }
// ═══════════════════════════════════════════════════════════════════════════════

// TokenScanner reads successive alphabetic runs from a reader.
type TokenScanner struct {
	scanner  *bufio.Scanner
	consumed int64 // bytes handed out by the split function so far
	start    int64 // offset of the current token
	ordinal  uint32
	token    Token
}

// NewTokenScanner returns a scanner over r.
func NewTokenScanner(r io.Reader) *TokenScanner {
	ts := &TokenScanner{scanner: bufio.NewScanner(r)}
	ts.scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	ts.scanner.Split(ts.split)
	return ts
}

// split is a bufio.SplitFunc yielding letter runs. It records where each token
// starts so Token can report byte offsets.
func (ts *TokenScanner) split(data []byte, atEOF bool) (int, []byte, error) {
	// Skip leading separators.
	begin := 0
	for begin < len(data) {
		r, width := utf8.DecodeRune(data[begin:])
		if r == utf8.RuneError && width == 1 && !atEOF && !utf8.FullRune(data[begin:]) {
			break // need more bytes to decode
		}
		if !isSeparator(r) {
			break
		}
		begin += width
	}

	// Scan until a separator.
	for i := begin; i < len(data); {
		r, width := utf8.DecodeRune(data[i:])
		if r == utf8.RuneError && width == 1 && !atEOF && !utf8.FullRune(data[i:]) {
			break
		}
		if isSeparator(r) {
			return ts.emit(i+width, data[begin:i], begin)
		}
		i += width
	}

	if atEOF && len(data) > begin {
		return ts.emit(len(data), data[begin:], begin)
	}

	// Drop the separators we already skipped and ask for more.
	ts.consumed += int64(begin)
	return begin, nil, nil
}

func (ts *TokenScanner) emit(advance int, token []byte, begin int) (int, []byte, error) {
	ts.start = ts.consumed + int64(begin)
	ts.consumed += int64(advance)
	return advance, token, nil
}

// Scan advances to the next token. It returns false at end of input or on error.
func (ts *TokenScanner) Scan() bool {
	if !ts.scanner.Scan() {
		return false
	}
	ts.token = Token{
		Text:    ts.scanner.Text(),
		Ordinal: ts.ordinal,
		Offset:  ts.start,
	}
	ts.ordinal++
	return true
}

// Token returns the most recent token.
func (ts *TokenScanner) Token() Token {
	return ts.token
}

// Err returns the first non-EOF error.
func (ts *TokenScanner) Err() error {
	return ts.scanner.Err()
}

// ═══════════════════════════════════════════════════════════════════════════════
// WORD LISTS
// ═══════════════════════════════════════════════════════════════════════════════

// ReadWordList calls fn once for every non-blank line of r with the surrounding
// whitespace (including the newline) removed. It stops at the first error from
// fn or from the reader.
func ReadWordList(r io.Reader, fn func(word string) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	line := 0
	for scanner.Scan() {
		line++
		word := strings.TrimSpace(scanner.Text())
		if word == "" {
			continue
		}
		if err := fn(word); err != nil {
			return fmt.Errorf("word list line %d: %w", line, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading word list: %w", err)
	}
	return nil
}

// ═══════════════════════════════════════════════════════════════════════════════
// STEMMING
// ═══════════════════════════════════════════════════════════════════════════════
// Uses the Snowball (Porter2) stemmer:
//
//	"running", "runs" → "run"
//	"connection", "connected" → "connect"
//
// Trade-off: stemming also accepts some non-words that share a root with a real
// one, so it is off by default.
// ═══════════════════════════════════════════════════════════════════════════════

// Stem lowercases word and reduces it to its English root.
func Stem(word string) string {
	return snowballeng.Stem(strings.ToLower(word), false)
}
