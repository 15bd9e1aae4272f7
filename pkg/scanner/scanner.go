// Package scanner walks a directory of fragment files and lazily yields
// restored file paths, grouping and reassembling as it goes.
package scanner

import (
	"iter"
	"os"
	"path/filepath"
	"sort"

	"github.com/samber/lo"

	"github.com/fragforge/fragforge/pkg/conf"
	"github.com/fragforge/fragforge/pkg/ferrors"
	"github.com/fragforge/fragforge/pkg/fragment"
	"github.com/fragforge/fragforge/pkg/planner"
	"github.com/fragforge/fragforge/pkg/progress"
)

// Scan walks inputDir non-recursively, parses every candidate fragment
// file, groups them by file_hash, and reassembles each complete group into
// outputDir. It returns a lazy iterator: nothing is read or written until
// the caller ranges over it, and a group is only reassembled once its turn
// comes up. Groups the planner reports ferrors.Incomplete for are skipped
// with a warning rather than aborting the whole scan.
func Scan(inputDir, outputDir string, opts conf.Options, log progress.Logger) iter.Seq2[string, error] {
	if log == nil {
		log = progress.Discard
	}
	return func(yield func(string, error) bool) {
		groups, err := collectGroups(inputDir, opts, log)
		if err != nil {
			yield("", err)
			return
		}
		// Map iteration order is random; sort by file_hash so repeated
		// scans of the same directory yield files in the same order.
		fileHashes := lo.Keys(groups)
		sort.Strings(fileHashes)
		for _, fileHash := range fileHashes {
			g := groups[fileHash]
			path, err := planner.Reassemble(g, outputDir, opts, log)
			if err != nil {
				if ferrors.Is(err, ferrors.Incomplete) {
					log.Warnf("skipping incomplete group (file_hash=%s): %v", g.FileHash, err)
					continue
				}
				if !yield("", err) {
					return
				}
				continue
			}
			if !yield(path, nil) {
				return
			}
		}
	}
}

// collectGroups parses every fragment file directly under inputDir (no
// recursion; fragments are flat siblings of one another) and groups them by
// file_hash. Non-fragment entries are skipped silently and candidates that
// fail to parse are skipped with a warning, matching the scan driver's
// "tolerate noise" stance.
func collectGroups(inputDir string, opts conf.Options, log progress.Logger) (map[string]*planner.Group, error) {
	entries, err := os.ReadDir(inputDir)
	if err != nil {
		return nil, ferrors.New(ferrors.IO, "failed to read input directory "+inputDir, err)
	}

	hashAlg := opts.HashAlgorithm()
	groups := map[string]*planner.Group{}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(inputDir, entry.Name())
		if !fragment.IsFragmentFile(path) {
			continue
		}
		rec, err := fragment.Parse(path, hashAlg)
		if err != nil {
			log.Warnf("skipping %s: %v", path, err)
			continue
		}
		planner.AddFragment(groups, rec)
	}
	return groups, nil
}
