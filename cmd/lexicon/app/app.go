package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	appName  = "lexicon"
	appShort = "Dictionary-based spell checker backed by a skip index"
	appLong  = `lexicon loads a word list into a skip index and reports every word of the
given texts that the word list does not contain, in text order.`
)

var progressMessage = color.GreenString("==>")

// NewRootCommand builds the lexicon command tree.
func NewRootCommand() *cobra.Command {
	opts := NewOptions()
	v := viper.New()
	var cfgFile string

	cmd := &cobra.Command{
		Use:           appName,
		Short:         appShort,
		Long:          appLong,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVarP(&cfgFile, "config", "C", cfgFile,
		"Read configuration from specified `FILE`, support JSON, TOML, YAML, HCL, or Java properties formats.")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", opts.LogLevel,
		"Log level: debug, info, warn or error")

	// Runs before every subcommand: config file, environment, then logging.
	cmd.PersistentPreRunE = func(c *cobra.Command, args []string) error {
		v.SetEnvPrefix(strings.ToUpper(appName))
		v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
		v.AutomaticEnv()

		if cfgFile != "" {
			v.SetConfigFile(cfgFile)
			if err := v.ReadInConfig(); err != nil {
				return fmt.Errorf("failed to read configuration file(%s): %w", cfgFile, err)
			}
		}

		for _, fs := range []*pflag.FlagSet{c.Flags(), c.InheritedFlags()} {
			if err := opts.Complete(v, fs); err != nil {
				return err
			}
		}

		return setupLogging(opts.LogLevel, c.ErrOrStderr())
	}

	cmd.AddCommand(newCheckCommand(opts), newBuildCommand(opts))
	return cmd
}

// setupLogging installs a text slog handler at the requested level.
func setupLogging(levelName string, w io.Writer) error {
	level, err := parseLevel(levelName)
	if err != nil {
		return err
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
	return nil
}

// Execute runs the root command and exits non-zero on failure. An interrupt
// cancels the checks in flight.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := NewRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "%v %v\n", color.RedString("Error:"), err)
		stop()
		os.Exit(1)
	}
}
