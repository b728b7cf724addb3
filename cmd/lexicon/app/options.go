package app

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/wizenheimer/lexicon"
)

// Options holds every setting of the check and build commands. Values come
// from flags, then LEXICON_* environment variables, then the config file.
type Options struct {
	DictPath       string
	SnapshotPath   string
	OutPath        string
	MaxHeight      int
	Seed           uint32
	Stemming       bool
	MinTokenLength int
	Concurrency    int
	Unique         bool
	LogLevel       string
}

// NewOptions returns options populated with defaults.
func NewOptions() *Options {
	return &Options{
		MaxHeight:      lexicon.DefaultMaxHeight,
		MinTokenLength: lexicon.DefaultConfig().MinTokenLength,
		Concurrency:    4,
		LogLevel:       "warn",
	}
}

// AddFlags adds flags for the dictionary and checker to the specified FlagSet.
func (o *Options) AddFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&o.DictPath, "dict", "d", o.DictPath,
		"Word list, one word per line")
	fs.StringVarP(&o.SnapshotPath, "snapshot", "s", o.SnapshotPath,
		"Dictionary snapshot written by the build command (used instead of --dict)")
	fs.IntVar(&o.MaxHeight, "max-height", o.MaxHeight,
		"Maximum number of skip index lanes")
	fs.Uint32Var(&o.Seed, "seed", o.Seed,
		"Seed for reproducible tower heights (0 picks a random seed)")
	fs.BoolVar(&o.Stemming, "stem", o.Stemming,
		"Accept words whose English stem is in the dictionary")
	fs.IntVar(&o.MinTokenLength, "min-length", o.MinTokenLength,
		"Ignore words shorter than this many letters")
	fs.IntVarP(&o.Concurrency, "concurrency", "j", o.Concurrency,
		"Files checked in parallel (0 means no limit)")
	fs.BoolVarP(&o.Unique, "unique", "u", o.Unique,
		"Report every misspelled word once")
}

// AddBuildFlags adds the flags of the build command.
func (o *Options) AddBuildFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&o.DictPath, "dict", "d", o.DictPath,
		"Word list, one word per line")
	fs.StringVarP(&o.OutPath, "out", "o", o.OutPath,
		"Snapshot file to write")
	fs.IntVar(&o.MaxHeight, "max-height", o.MaxHeight,
		"Maximum number of skip index lanes")
	fs.Uint32Var(&o.Seed, "seed", o.Seed,
		"Seed for reproducible tower heights (0 picks a random seed)")
}

// Complete overlays environment and config file values onto every flag the
// user did not set explicitly.
func (o *Options) Complete(v *viper.Viper, fs *pflag.FlagSet) error {
	if err := v.BindPFlags(fs); err != nil {
		return err
	}

	var err error
	fs.VisitAll(func(f *pflag.Flag) {
		if err != nil || f.Changed || !v.IsSet(f.Name) {
			return
		}
		if setErr := fs.Set(f.Name, v.GetString(f.Name)); setErr != nil {
			err = fmt.Errorf("config %s: %w", f.Name, setErr)
		}
	})
	return err
}

// Validate checks the options of the check command.
func (o *Options) Validate() []error {
	var errs []error
	if o.DictPath == "" && o.SnapshotPath == "" {
		errs = append(errs, fmt.Errorf("one of --dict or --snapshot is required"))
	}
	if o.MaxHeight <= 0 {
		errs = append(errs, fmt.Errorf("--max-height must be positive, got %d", o.MaxHeight))
	}
	if o.MinTokenLength < 0 {
		errs = append(errs, fmt.Errorf("--min-length must not be negative, got %d", o.MinTokenLength))
	}
	if o.Concurrency < 0 {
		errs = append(errs, fmt.Errorf("--concurrency must not be negative, got %d", o.Concurrency))
	}
	if _, err := parseLevel(o.LogLevel); err != nil {
		errs = append(errs, err)
	}
	return errs
}

// ValidateBuild checks the options of the build command.
func (o *Options) ValidateBuild() []error {
	var errs []error
	if o.DictPath == "" {
		errs = append(errs, fmt.Errorf("--dict is required"))
	}
	if o.OutPath == "" {
		errs = append(errs, fmt.Errorf("--out is required"))
	}
	if o.MaxHeight <= 0 {
		errs = append(errs, fmt.Errorf("--max-height must be positive, got %d", o.MaxHeight))
	}
	if o.MaxHeight > lexicon.MaxSnapshotHeight {
		errs = append(errs, fmt.Errorf("--max-height must be at most %d for a snapshot, got %d", lexicon.MaxSnapshotHeight, o.MaxHeight))
	}
	if _, err := parseLevel(o.LogLevel); err != nil {
		errs = append(errs, err)
	}
	return errs
}

func (o *Options) DictionaryConfig() lexicon.DictionaryConfig {
	config := lexicon.DictionaryConfig{
		MaxHeight:      o.MaxHeight,
		EnableStemming: o.Stemming,
	}
	if o.Seed != 0 {
		config.Chooser = lexicon.NewSeededLevelChooser(o.Seed)
	}
	return config
}

func (o *Options) AnalyzerConfig() lexicon.AnalyzerConfig {
	return lexicon.AnalyzerConfig{
		MinTokenLength: o.MinTokenLength,
		EnableStemming: o.Stemming,
	}
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return level, fmt.Errorf("--log-level: %w", err)
	}
	return level, nil
}
