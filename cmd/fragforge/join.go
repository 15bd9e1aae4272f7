package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fragforge/fragforge/pkg/conf"
	"github.com/fragforge/fragforge/pkg/scanner"
)

func newJoinCmd() *cobra.Command {
	var flags joinFlags
	cmd := &cobra.Command{
		Use:   "join <fragdir> <outdir>",
		Short: "Scan a directory of fragments and restore every complete file",
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
			var restored int
			for path, err := range scanner.Scan(args[0], args[1], opts, log) {
				if err != nil {
					return err
				}
				restored++
				fmt.Println(path)
			}
			fmt.Printf("restored %d file(s)\n", restored)
			return nil
		},
	}
	addJoinFlags(cmd, &flags, conf.Defaults())
	return cmd
}
