// Package planner groups fragment records by original-file identity,
// computes a contiguous-coverage extraction plan over possibly overlapping
// intervals (greedy longest-reach, O(n log n)), and writes the restored
// file via atomic rename-on-complete with whole-file hash verification.
package planner

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/fragforge/fragforge/pkg/conf"
	"github.com/fragforge/fragforge/pkg/ferrors"
	"github.com/fragforge/fragforge/pkg/fragment"
	"github.com/fragforge/fragforge/pkg/hashcodec"
	"github.com/fragforge/fragforge/pkg/nameenc"
	"github.com/fragforge/fragforge/pkg/progress"
)

// Group is the in-memory set of all fragments sharing the same file_hash.
// Records is kept in insertion order so tie-breaking in Plan is
// deterministic.
type Group struct {
	FileHash string
	FileSize int64
	Magic    string
	Records  []*fragment.Record
}

// AddFragment appends rec to the group it belongs to within groups,
// creating the group on first sight. Groups are keyed by file_hash.
func AddFragment(groups map[string]*Group, rec *fragment.Record) {
	g, ok := groups[rec.Header.FileHash]
	if !ok {
		g = &Group{FileHash: rec.Header.FileHash, FileSize: rec.Header.FileSize, Magic: rec.Magic}
		groups[rec.Header.FileHash] = g
	}
	g.Records = append(g.Records, rec)
}

// Step is one entry of an extraction plan: read the first N plaintext
// bytes of Fragment's payload and append them to the output.
type Step struct {
	N        int
	Fragment *fragment.Record
}

// Plan computes the greedy-longest-reach extraction plan for g: sort
// candidates once by fragment_start, then sweep a single monotonic
// pointer forward, at each step picking the already-visible candidate
// reaching furthest past the current offset (ties broken by insertion
// order). Each record is inspected exactly once across the whole sweep,
// so the pass is O(n log n) overall, dominated by the initial sort. It
// tolerates duplicate and strictly overlapping fragments, and returns
// ferrors.Incomplete if no candidate can extend coverage from the
// current offset.
func Plan(g *Group) ([]Step, error) {
	if g.FileSize == 0 {
		return nil, nil
	}

	type candidate struct {
		start int64
		end   int64
		rec   *fragment.Record
		idx   int // insertion order, for deterministic tie-breaking
	}
	candidates := make([]candidate, len(g.Records))
	for i, rec := range g.Records {
		candidates[i] = candidate{start: rec.Header.FragmentStart, end: rec.End(), rec: rec, idx: i}
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].start != candidates[j].start {
			return candidates[i].start < candidates[j].start
		}
		return candidates[i].idx < candidates[j].idx
	})

	var plan []Step
	var boundaries []int64
	var curr int64
	next := 0

	for curr < g.FileSize {
		var best *candidate
		for next < len(candidates) && candidates[next].start <= curr {
			c := &candidates[next]
			if best == nil || c.end > best.end || (c.end == best.end && c.idx < best.idx) {
				best = c
			}
			next++
		}
		if best == nil || best.end <= curr {
			return nil, ferrors.New(ferrors.Incomplete,
				"no fragment covers byte offset "+itoa(curr), nil)
		}
		plan = append(plan, Step{Fragment: best.rec})
		boundaries = append(boundaries, best.rec.Header.FragmentStart)
		curr = best.end
	}
	boundaries = append(boundaries, g.FileSize)

	for i := range plan {
		plan[i].N = int(boundaries[i+1] - boundaries[i])
	}
	return plan, nil
}

func itoa(n int64) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	pos := len(buf)
	for n > 0 {
		pos--
		buf[pos] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		pos--
		buf[pos] = '-'
	}
	return string(buf[pos:])
}

// Reassemble writes g's restored file to outputDir, returning the output
// path. An existing matching output is treated as success, an existing
// non-matching output is skipped unless opts.Overwrite, writes go through
// a .partial sibling, and on success the group's source fragments are
// removed if opts.RemoveOriginals.
func Reassemble(g *Group, outputDir string, opts conf.Options, log progress.Logger) (string, error) {
	if log == nil {
		log = progress.Discard
	}
	hashAlg := opts.HashAlgorithm()
	if hashAlg == 0 {
		hashAlg = hashcodec.Default
	}

	scheme := fragment.FilenameScheme(g.Magic)
	fileName, err := nameenc.Decode(g.rawFileName(), scheme)
	if err != nil {
		return "", ferrors.New(ferrors.Malformed, "failed to decode file_name", err)
	}

	outPath := filepath.Join(outputDir, fileName)
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return "", ferrors.New(ferrors.IO, "failed to create output directory", err)
	}

	if existing, statErr := os.Stat(outPath); statErr == nil && !existing.IsDir() {
		matches, hashErr := fileMatchesHash(outPath, g.FileHash, hashAlg)
		if hashErr != nil {
			return "", ferrors.New(ferrors.IO, "failed to hash existing output", hashErr)
		}
		if matches {
			log.Infof("output %s already matches file_hash, skipping write", outPath)
			cleanup(g, opts, log)
			return outPath, nil
		}
		if !opts.Overwrite {
			log.Warnf("output %s exists and does not match file_hash; skipping (overwrite=false)", outPath)
			return "", ferrors.New(ferrors.AlreadyExists, "output exists and does not match, overwrite disabled", nil)
		}
	}

	plan, err := Plan(g)
	if err != nil {
		return "", err
	}

	partialPath := outPath + ".partial"
	out, err := os.Create(partialPath)
	if err != nil {
		return "", ferrors.New(ferrors.IO, "failed to create partial output", err)
	}

	var written int64
	for _, step := range plan {
		if written != step.Fragment.Header.FragmentStart {
			out.Close()
			os.Remove(partialPath)
			return "", ferrors.New(ferrors.IO, "internal error: write offset desynced from fragment_start", nil)
		}
		data, err := step.Fragment.Read(opts.Password, step.N)
		if err != nil {
			out.Close()
			os.Remove(partialPath)
			return "", err
		}
		if _, err := out.Write(data); err != nil {
			out.Close()
			os.Remove(partialPath)
			return "", ferrors.New(ferrors.IO, "failed to write restored bytes", err)
		}
		written += int64(len(data))
	}

	if err := out.Close(); err != nil {
		os.Remove(partialPath)
		return "", ferrors.New(ferrors.IO, "failed to close partial output", err)
	}
	if written != g.FileSize {
		os.Remove(partialPath)
		return "", ferrors.New(ferrors.Corrupt, "restored size does not match file_size", nil)
	}

	matches, err := fileMatchesHash(partialPath, g.FileHash, hashAlg)
	if err != nil {
		os.Remove(partialPath)
		return "", ferrors.New(ferrors.IO, "failed to hash restored output", err)
	}
	if !matches {
		os.Remove(partialPath)
		return "", ferrors.New(ferrors.Corrupt, "restored file_hash mismatch", nil)
	}

	if err := os.Rename(partialPath, outPath); err != nil {
		os.Remove(partialPath)
		return "", ferrors.New(ferrors.IO, "failed to rename partial output into place", err)
	}

	cleanup(g, opts, log)
	return outPath, nil
}

func cleanup(g *Group, opts conf.Options, log progress.Logger) {
	if !opts.RemoveOriginals {
		return
	}
	for _, rec := range g.Records {
		rec.Delete(log)
	}
}

func fileMatchesHash(path, wantHash string, algo hashcodec.Algorithm) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()
	got, err := algo.HashFile(f)
	if err != nil {
		return false, err
	}
	return got == wantHash, nil
}

// rawFileName returns the header's file_name verbatim from the group's
// first record (every record in a valid group carries the same original
// identity).
func (g *Group) rawFileName() string {
	if len(g.Records) == 0 {
		return ""
	}
	return g.Records[0].Header.FileName
}
