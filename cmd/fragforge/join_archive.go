package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fragforge/fragforge/pkg/archive"
	"github.com/fragforge/fragforge/pkg/conf"
	"github.com/fragforge/fragforge/pkg/ferrors"
	"github.com/fragforge/fragforge/pkg/scanner"
)

func newJoinArchiveCmd() *cobra.Command {
	var flags joinFlags
	cmd := &cobra.Command{
		Use:   "join-archive <fragdir> <outdir>",
		Short: "Restore a fragmented archive blob and unpack it into a directory tree",
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

			log := loggerFor(opts.Verbose)
			blobDir, err := os.MkdirTemp("", "fragforge-join-archive-*")
			if err != nil {
				return ferrors.New(ferrors.IO, "failed to create temp directory", err)
			}
			defer os.RemoveAll(blobDir)

			var blobPath string
			for path, err := range scanner.Scan(args[0], blobDir, opts, log) {
				if err != nil {
					return err
				}
				blobPath = path
				break
			}
			if blobPath == "" {
				return ferrors.New(ferrors.Incomplete, "no complete archive blob found in "+args[0], nil)
			}

			if err := archive.UnpackBlob(cmd.Context(), blobPath, args[1]); err != nil {
				return err
			}
			fmt.Printf("restored archive into %s\n", args[1])
			return nil
		},
	}
	addJoinFlags(cmd, &flags, conf.Defaults())
	return cmd
}
