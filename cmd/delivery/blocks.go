package main

import (
	"github.com/goliatone/go-delivery/internal/blocks"
	"github.com/spf13/cobra"
)

func newBlocksCmd(_ *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "blocks",
		Short: "List the block types offered in the editor add-menu",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return printJSON(cmd.OutOrStdout(), blocks.BuiltinRegistry().AddMenu())
		},
	}
}
