package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/fragforge/fragforge/pkg/conf"
	"github.com/fragforge/fragforge/pkg/progress"
)

// kdfVersionValue is a pflag.Value that rejects anything but ver1/ver2 at
// flag-parse time, rather than waiting for conf.Options.Validate().
type kdfVersionValue string

var _ pflag.Value = (*kdfVersionValue)(nil)

func newKDFVersionValue(initial string, dst *string) *kdfVersionValue {
	*dst = initial
	return (*kdfVersionValue)(dst)
}

func (v *kdfVersionValue) String() string { return string(*v) }

func (v *kdfVersionValue) Set(s string) error {
	switch s {
	case "ver1", "ver2":
		*v = kdfVersionValue(s)
		return nil
	default:
		return fmt.Errorf("must be ver1 or ver2, got %q", s)
	}
}

func (v *kdfVersionValue) Type() string { return "kdfVersion" }

// splitFlags holds the subset of conf.Options exposed as CLI flags that
// affect fragmentation; join-side commands use joinFlags instead.
type splitFlags struct {
	maxSize      int64
	sizeRange    int64
	password     string
	hashFunc     string
	kdfVersion   string
	overwrite    bool
	verbose      bool
}

func addSplitFlags(cmd *cobra.Command, f *splitFlags, defaults conf.Options) {
	cmd.Flags().Int64Var(&f.maxSize, "max-size", defaults.MaxSize, "maximum fragment size in bytes")
	cmd.Flags().Int64Var(&f.sizeRange, "size-range", defaults.SizeRange, "randomised size variance below max-size")
	cmd.Flags().StringVar(&f.password, "password", defaults.Password, "pass-phrase; empty disables encryption")
	cmd.Flags().StringVar(&f.hashFunc, "hash-func", defaults.HashFunc, "digest algorithm (MD5, SHA-1, SHA-224, SHA-256, SHA-384, SHA-512)")
	cmd.Flags().Var(newKDFVersionValue(defaults.KDFVersion, &f.kdfVersion), "kdf-version", "key derivation strategy (ver1, ver2)")
	cmd.Flags().BoolVar(&f.overwrite, "overwrite", defaults.Overwrite, "overwrite an existing output that doesn't match")
	cmd.Flags().BoolVar(&f.verbose, "verbose", defaults.Verbose, "print per-fragment progress")
}

func (f *splitFlags) resolve(base conf.Options) conf.Options {
	base.MaxSize = f.maxSize
	base.SizeRange = f.sizeRange
	base.Password = f.password
	base.HashFunc = f.hashFunc
	base.KDFVersion = f.kdfVersion
	base.Overwrite = f.overwrite
	base.Verbose = f.verbose
	return base
}

type joinFlags struct {
	password        string
	hashFunc        string
	overwrite       bool
	removeOriginals bool
	verbose         bool
}

func addJoinFlags(cmd *cobra.Command, f *joinFlags, defaults conf.Options) {
	cmd.Flags().StringVar(&f.password, "password", defaults.Password, "pass-phrase used when fragmenting")
	cmd.Flags().StringVar(&f.hashFunc, "hash-func", defaults.HashFunc, "digest algorithm used when fragmenting")
	cmd.Flags().BoolVar(&f.overwrite, "overwrite", defaults.Overwrite, "overwrite an existing output that doesn't match")
	cmd.Flags().BoolVar(&f.removeOriginals, "remove-originals", defaults.RemoveOriginals, "delete fragments once a file is fully restored")
	cmd.Flags().BoolVar(&f.verbose, "verbose", defaults.Verbose, "print per-group progress")
}

func (f *joinFlags) resolve(base conf.Options) conf.Options {
	base.Password = f.password
	base.HashFunc = f.hashFunc
	base.Overwrite = f.overwrite
	base.RemoveOriginals = f.removeOriginals
	base.Verbose = f.verbose
	return base
}

func loadBase(cmd *cobra.Command) (conf.Options, error) {
	return conf.Load(configPath)
}

func loggerFor(verbose bool) progress.Logger {
	if !verbose {
		return progress.Discard
	}
	return progress.NewConsole(os.Stdout)
}
