package main

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/fragforge/fragforge/pkg/conf"
	"github.com/fragforge/fragforge/pkg/splitter"
)

func newSplitCmd() *cobra.Command {
	var flags splitFlags
	cmd := &cobra.Command{
		Use:   "split <input> <outdir>",
		Short: "Fragment a single file into an output directory",
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

			paths, err := splitter.Split(args[0], args[1], opts, loggerFor(opts.Verbose))
			if err != nil {
				return err
			}
			fmt.Printf("wrote %d fragments (%s total)\n", len(paths), humanize.Bytes(uint64(sumFileSizes(paths))))
			return nil
		},
	}
	addSplitFlags(cmd, &flags, conf.Defaults())
	return cmd
}

func sumFileSizes(paths []string) uint64 {
	var total uint64
	for _, p := range paths {
		if info, err := os.Stat(p); err == nil {
			total += uint64(info.Size())
		}
	}
	return total
}
