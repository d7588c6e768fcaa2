package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/culpastquestions-arch/caleb-university-resource-bank-project/internal/folderpath"
)

func newCacheCmd(opts *rootOptions) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Local listing cache operations (clear, invalidate)",
	}
	cacheCmd.AddCommand(newCacheClearCmd(opts))
	cacheCmd.AddCommand(newCacheInvalidateCmd(opts))
	return cacheCmd
}

func newCacheClearCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every cached listing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cache, closeCache, err := opts.openCache(cmd.Context())
			if err != nil {
				return err
			}
			defer closeCache()

			n := cache.ClearAll(cmd.Context())
			fmt.Fprintf(cmd.OutOrStdout(), "removed %d cached listings\n", n)
			return nil
		},
	}
}

func newCacheInvalidateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "invalidate <path>",
		Short: "Drop the cached folder and document listings of one path",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cache, closeCache, err := opts.openCache(cmd.Context())
			if err != nil {
				return err
			}
			defer closeCache()

			cache.Invalidate(cmd.Context(), args[0])
			fmt.Fprintf(cmd.OutOrStdout(), "invalidated %s\n", folderpath.Canonical(args[0]))
			return nil
		},
	}
}
