package app

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	"github.com/wizenheimer/lexicon"
)

func newCheckCommand(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check FILE...",
		Short: "Report words of FILE that are not in the dictionary",
		Example: `  lexicon check --dict dictionary.txt correctme.txt
  lexicon check --snapshot dictionary.lex --unique chapter*.txt`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if errs := opts.Validate(); len(errs) > 0 {
				return errors.Join(errs...)
			}
			return runCheck(cmd, opts, args)
		},
	}
	opts.AddFlags(cmd.Flags())
	return cmd
}

func runCheck(cmd *cobra.Command, opts *Options, paths []string) error {
	dict, err := openDictionary(opts)
	if err != nil {
		return err
	}
	defer dict.Close()

	checker := lexicon.NewChecker(dict, opts.AnalyzerConfig())
	reports, err := checker.CheckFiles(cmd.Context(), paths, opts.Concurrency)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, report := range reports {
		printReport(out, report, opts.Unique, len(reports) > 1)
	}
	printSummary(cmd.ErrOrStderr(), reports)
	return nil
}

// openDictionary loads the snapshot when one is given, the word list otherwise.
func openDictionary(opts *Options) (*lexicon.Dictionary, error) {
	config := opts.DictionaryConfig()

	if opts.SnapshotPath != "" {
		f, err := os.Open(opts.SnapshotPath)
		if err != nil {
			return nil, err
		}
		defer f.Close()

		return lexicon.LoadDictionary(f, config)
	}

	f, err := os.Open(opts.DictPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dict, err := lexicon.NewDictionary(config)
	if err != nil {
		return nil, err
	}
	if _, err := dict.Load(f); err != nil {
		dict.Close()
		return nil, fmt.Errorf("loading %s: %w", opts.DictPath, err)
	}
	return dict, nil
}

// printReport writes misspelled words one per line, under a header when
// several files were checked.
func printReport(w io.Writer, report *lexicon.Report, unique, header bool) {
	if header {
		fmt.Fprintf(w, "%v %s\n", progressMessage, report.Source)
	}

	if unique {
		for _, word := range report.Unique() {
			fmt.Fprintln(w, word)
		}
		return
	}
	for _, m := range report.Misspelled {
		fmt.Fprintln(w, m.Word)
	}
}

func printSummary(w io.Writer, reports []*lexicon.Report) {
	table := uitable.New()
	table.Separator = "  "
	table.MaxColWidth = 60
	table.AddRow("SOURCE", "TOKENS", "MISSPELLED", "ELAPSED")
	for _, r := range reports {
		count := fmt.Sprint(r.Count())
		if r.Count() > 0 {
			count = color.YellowString(count)
		}
		table.AddRow(r.Source, r.Tokens, count, r.Elapsed)
	}
	fmt.Fprintln(w, table)
}
