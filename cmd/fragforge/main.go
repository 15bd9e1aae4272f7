// Command fragforge fragments files into ASCII85+RC4 records and restores
// them, with optional directory archiving around both ends of the trip.
package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("error:"), err)
		os.Exit(1)
	}
}
