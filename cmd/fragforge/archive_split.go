package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fragforge/fragforge/pkg/archive"
	"github.com/fragforge/fragforge/pkg/conf"
	"github.com/fragforge/fragforge/pkg/splitter"
)

func newArchiveSplitCmd() *cobra.Command {
	var flags splitFlags
	cmd := &cobra.Command{
		Use:   "archive-split <srcdir> <outdir>",
		Short: "Tar+gzip a directory, then fragment the resulting blob",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			base, err := loadBase(cmd)
			if err != nil {
				return err
			}
			opts := flags.resolve(base)
			if err := opts.Validate(); err != nil {
				return err
			}

			blobPath, err := archive.PackDir(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			defer os.Remove(blobPath)

			paths, err := splitter.Split(blobPath, args[1], opts, loggerFor(opts.Verbose))
			if err != nil {
				return err
			}
			fmt.Printf("archived %s into %d fragments\n", args[0], len(paths))
			return nil
		},
	}
	addSplitFlags(cmd, &flags, conf.Defaults())
	return cmd
}
