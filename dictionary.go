package lexicon

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
)

// ═══════════════════════════════════════════════════════════════════════════════
// DICTIONARY
// ═══════════════════════════════════════════════════════════════════════════════
// A Dictionary is a membership test over a word list, backed by skip indexes
// ordered with case folding:
//
//	Dictionary
//	├── words: SkipIndex[string]   every loaded word, as written
//	├── stems: SkipIndex[string]   Snowball stems (only with stemming on)
//	└── mu:    RWMutex              writers load, readers check in parallel
//
// Typical life cycle:
//
//	dict, _ := NewDictionary(DefaultDictionaryConfig())
//	dict.Load(wordlist)
//	dict.Contains("Ciao")
//	dict.Close()
// ═══════════════════════════════════════════════════════════════════════════════

var ErrEmptyWord = errors.New("empty word")

// DictionaryConfig holds the parameters of a Dictionary.
type DictionaryConfig struct {
	MaxHeight      int          // Lane capacity of the backing indexes
	EnableStemming bool         // Also match words by their stem
	Chooser        LevelChooser // nil means the process-seeded default
}

// DefaultDictionaryConfig returns the standard dictionary configuration
func DefaultDictionaryConfig() DictionaryConfig {
	return DictionaryConfig{
		MaxHeight: DefaultMaxHeight,
	}
}

// Dictionary is a case-insensitive word set. It is safe for concurrent use.
type Dictionary struct {
	mu     sync.RWMutex
	words  *SkipIndex[string]
	stems  *SkipIndex[string]
	config DictionaryConfig
}

// NewDictionary creates an empty dictionary.
func NewDictionary(config DictionaryConfig) (*Dictionary, error) {
	words, err := New(config.MaxHeight, CompareFold, WithLevelChooser[string](config.Chooser))
	if err != nil {
		return nil, fmt.Errorf("creating dictionary: %w", err)
	}

	d := &Dictionary{words: words, config: config}
	if config.EnableStemming {
		// Stems are already lowercase; plain byte order is enough.
		d.stems, err = New(config.MaxHeight, CompareStrings, WithLevelChooser[string](config.Chooser))
		if err != nil {
			return nil, fmt.Errorf("creating stem index: %w", err)
		}
	}

	return d, nil
}

// Add inserts one word.
func (d *Dictionary) Add(word string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.add(word)
}

func (d *Dictionary) add(word string) error {
	if err := d.words.Insert(word); err != nil {
		if errors.Is(err, ErrNilKey) {
			return ErrEmptyWord
		}
		return err
	}

	if d.stems != nil {
		if stem := Stem(word); stem != "" {
			if err := d.stems.Insert(stem); err != nil {
				return err
			}
		}
	}
	return nil
}

// Load inserts every word of a word list (one per line) and returns how many
// were added.
func (d *Dictionary) Load(r io.Reader) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	slog.Info("loading dictionary")

	added := 0
	err := ReadWordList(r, func(word string) error {
		if err := d.add(word); err != nil {
			return err
		}
		added++
		return nil
	})
	if err != nil {
		return added, err
	}

	slog.Info("dictionary loaded",
		slog.Int("words", added),
		slog.Int("level", d.words.Level()),
		slog.Int("maxHeight", d.words.MaxHeight()))

	return added, nil
}

// Lookup returns the dictionary's own spelling of word, if present. Stem
// matches are not considered.
func (d *Dictionary) Lookup(word string) (string, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	stored, found, err := d.words.Lookup(word)
	if err != nil {
		return "", false
	}
	return stored, found
}

// Contains reports whether word is in the dictionary, directly or (with
// stemming enabled) through its stem.
func (d *Dictionary) Contains(word string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.words.Contains(word) {
		return true
	}
	if d.stems != nil {
		return d.stems.Contains(Stem(word))
	}
	return false
}

// Len returns the number of words added.
func (d *Dictionary) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return d.words.Len()
}

// Close destroys the backing indexes and returns the number of words released.
func (d *Dictionary) Close() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	released := d.words.Destroy()
	if d.stems != nil {
		d.stems.Destroy()
	}

	slog.Debug("dictionary closed", slog.Int("released", released))
	return released
}
