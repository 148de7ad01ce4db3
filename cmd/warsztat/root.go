package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/artpar/warsztat/bootstrap"
	"github.com/artpar/warsztat/config"
	"github.com/artpar/warsztat/core/confirm"
	"github.com/artpar/warsztat/core/runtime"
)

var (
	// Global flags
	cfgFile    string
	jsonOutput bool
	verbose    bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "warsztat",
	Short: "Workshop CRM: clients, orders, invoices, stock and custom modules",
	Long: `Warsztat is a small CRM for workshops.

It keeps clients, orders, invoices and stock, plus any number of
user-defined modules, in one local document.

Quick start:
  warsztat serve                           # Start the JSON API
  warsztat records add clients --set name="Jan Kowalski"
  warsztat modules create Pojazdy --fields "vin:text:VIN:true"

Data:
  warsztat export --out backup.json
  warsztat import backup.json
  warsztat reset`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	defaultConfig := os.Getenv(bootstrap.EnvConfigPath)
	if defaultConfig == "" {
		defaultConfig = "warsztat.yaml"
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", defaultConfig, "config file path (falls back to environment when absent)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "print JSON instead of tables")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log at the configured level instead of warn")
}

// loadConfig reads the configuration for CLI commands.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadWithFallback(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// cliLogger writes to stderr so stdout stays parseable.
func cliLogger(cfg *config.Config) zerolog.Logger {
	level := "warn"
	if verbose {
		level = cfg.Logging.Level
	}
	return bootstrap.NewLogger(os.Stderr, level, "console")
}

// openRuntime loads the configured store. The caller must close it.
func openRuntime(ctx context.Context) (*runtime.Runtime, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return bootstrap.NewRuntime(ctx, cfg, bootstrap.RuntimeOptions{}, cliLogger(cfg))
}

// withRuntime runs fn against a freshly opened runtime.
func withRuntime(cmd *cobra.Command, fn func(ctx context.Context, rt *runtime.Runtime) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	rt, err := openRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()
	return fn(ctx, rt)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

// terminalConfirmer asks on out and reads the answer from in.
type terminalConfirmer struct {
	in  *bufio.Reader
	out io.Writer
}

func (c terminalConfirmer) Confirm(_ context.Context, p confirm.Prompt) (bool, error) {
	fmt.Fprintf(c.out, "%s\n%s\n%s? [y/N]: ", p.Title, p.Body, p.ConfirmText)
	line, err := c.in.ReadString('\n')
	if err != nil && line == "" {
		if errors.Is(err, io.EOF) {
			return false, nil
		}
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes", "t", "tak":
		return true, nil
	}
	return false, nil
}

// confirmer returns the confirmer for destructive commands.
func confirmer(cmd *cobra.Command, yes bool) confirm.Confirmer {
	if yes {
		return confirm.AlwaysConfirm
	}
	return terminalConfirmer{in: bufio.NewReader(cmd.InOrStdin()), out: cmd.ErrOrStderr()}
}

// runConfirmed asks and runs in, reporting a cancellation on stderr.
func runConfirmed(ctx context.Context, cmd *cobra.Command, rt *runtime.Runtime, yes bool, in confirm.Intent) (bool, error) {
	err := rt.Confirm(ctx, confirmer(cmd, yes), in)
	if errors.Is(err, confirm.ErrCancelled) {
		fmt.Fprintln(cmd.ErrOrStderr(), "Cancelled.")
		return false, nil
	}
	return err == nil, err
}
