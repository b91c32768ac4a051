package main

import (
	"encoding/json"
	"io"
	"strings"

	"github.com/goliatone/go-delivery"
	"github.com/goliatone/go-delivery/internal/di"
	"github.com/goliatone/go-delivery/internal/logging/console"
	"github.com/goliatone/go-delivery/internal/runtimeconfig"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	configPath string
	demo       bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "delivery",
		Short:         "Assemble and serve localized pages from a headless content source",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "YAML config file (defaults apply when omitted)")
	cmd.PersistentFlags().BoolVar(&opts.demo, "demo", false, "Serve built-in demo content from memory")

	cmd.AddCommand(
		newServeCmd(opts),
		newAssembleCmd(opts),
		newResolveCmd(opts),
		newBlocksCmd(opts),
	)
	return cmd
}

// loadConfig reads the config file when given, then the environment.
func (o *rootOptions) loadConfig() (delivery.Config, error) {
	cfg := delivery.DefaultConfig()
	if o.configPath != "" {
		loaded, err := delivery.LoadConfig(o.configPath)
		if err != nil {
			return delivery.Config{}, err
		}
		cfg = loaded
	}
	cfg.ApplyEnv()
	if o.demo {
		cfg.Source = runtimeconfig.SourceConfig{Provider: runtimeconfig.SourceMemory}
	}
	return cfg, nil
}

// module builds the runtime for one-shot commands. Console output is
// written to logs so stdout carries only JSON.
func (o *rootOptions) module(logs io.Writer) (*delivery.Module, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}
	var opts []di.Option
	if strings.EqualFold(strings.TrimSpace(cfg.Logging.Provider), runtimeconfig.LoggingConsole) {
		consoleOpts := console.Options{Writer: logs}
		if level, ok := console.ParseLevel(cfg.Logging.Level); ok {
			consoleOpts.MinLevel = &level
		}
		opts = append(opts, di.WithLoggerProvider(console.NewProvider(consoleOpts)))
	}
	return delivery.New(cfg, opts...)
}

func printJSON(w io.Writer, payload any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(payload)
}
