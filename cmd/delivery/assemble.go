package main

import (
	"errors"

	"github.com/goliatone/go-delivery"
	"github.com/spf13/cobra"
)

func newAssembleCmd(opts *rootOptions) *cobra.Command {
	var (
		code  string
		slug  string
		token string
		view  bool
	)
	cmd := &cobra.Command{
		Use:   "assemble",
		Short: "Print the render plan of one page as JSON",
		RunE: func(cmd *cobra.Command, _ []string) error {
			module, err := opts.module(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer func() { _ = module.Close() }()

			ctx := cmd.Context()
			var plan *delivery.RenderPlan
			switch {
			case token != "":
				plan, err = module.AssemblePreview(ctx, token)
			case slug != "":
				if code == "" {
					code = module.Container().Config.DefaultLocale
				}
				plan, err = module.Assemble(ctx, code, slug)
			default:
				return errors.New("assemble: --slug or --preview is required")
			}
			if err != nil {
				return err
			}
			if view {
				return printJSON(cmd.OutOrStdout(), module.Compose(plan))
			}
			return printJSON(cmd.OutOrStdout(), plan)
		},
	}
	cmd.Flags().StringVarP(&code, "locale", "l", "", "Locale code (default locale when omitted)")
	cmd.Flags().StringVarP(&slug, "slug", "s", "", "Page slug, for example / or /about")
	cmd.Flags().StringVar(&token, "preview", "", "Assemble the draft behind a preview token instead")
	cmd.Flags().BoolVar(&view, "view", false, "Print the composed view instead of the plan")
	return cmd
}
