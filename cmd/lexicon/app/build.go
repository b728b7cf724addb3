package app

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wizenheimer/lexicon"
)

func newBuildCommand(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "build",
		Short:   "Load a word list once and save it as a dictionary snapshot",
		Example: `  lexicon build --dict dictionary.txt --out dictionary.lex --seed 42`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if errs := opts.ValidateBuild(); len(errs) > 0 {
				return errors.Join(errs...)
			}
			return runBuild(cmd, opts)
		},
	}
	opts.AddBuildFlags(cmd.Flags())
	return cmd
}

func runBuild(cmd *cobra.Command, opts *Options) error {
	in, err := os.Open(opts.DictPath)
	if err != nil {
		return err
	}
	defer in.Close()

	dict, err := lexicon.NewDictionary(opts.DictionaryConfig())
	if err != nil {
		return err
	}
	defer dict.Close()

	words, err := dict.Load(in)
	if err != nil {
		return fmt.Errorf("loading %s: %w", opts.DictPath, err)
	}

	out, err := os.Create(opts.OutPath)
	if err != nil {
		return err
	}
	if err := dict.Save(out); err != nil {
		out.Close()
		return fmt.Errorf("writing %s: %w", opts.OutPath, err)
	}
	if err := out.Close(); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%v %d words written to %s\n", progressMessage, words, opts.OutPath)
	return nil
}
