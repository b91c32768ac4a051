package main

import (
	"github.com/goliatone/go-delivery/internal/locale"
	"github.com/spf13/cobra"
)

func newResolveCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <path>",
		Short: "Print the locale decision for a request path",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			resolver, err := locale.NewResolver(cfg.DefaultLocale, cfg.Locales)
			if err != nil {
				return err
			}
			exclusions := locale.NewExclusions(cfg.Routing.Exclusions...)

			path := args[0]
			out := map[string]any{"path": path}
			if exclusions.Excluded(path) {
				out["excluded"] = true
				return printJSON(cmd.OutOrStdout(), out)
			}
			result := resolver.Resolve(path)
			routed := path
			if result.Kind == locale.Rewrite {
				routed = result.Path
			}
			out["result"] = result
			if result.Kind != locale.Redirect {
				out["route"] = resolver.Split(routed)
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}
}
