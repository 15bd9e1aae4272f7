// Package archive is the narrow tar+gzip front-end consumed only by
// cmd/fragforge's archive-split/join-archive subcommands: pack a directory
// tree into a single blob before splitting, and unpack one after joining.
package archive

import (
	"context"
	"os"
	"path/filepath"

	"github.com/mholt/archiver/v4"

	"github.com/fragforge/fragforge/pkg/ferrors"
)

var format = archiver.CompressedArchive{
	Compression: archiver.Gzip{},
	Archival:    archiver.Tar{},
}

// PackDir tars and gzips every file under srcDir into a single temp file
// under os.TempDir, returning its path. gzip is used rather than bzip2
// since compress/bzip2 in the standard library cannot write.
func PackDir(ctx context.Context, srcDir string) (string, error) {
	info, err := os.Stat(srcDir)
	if err != nil {
		return "", ferrors.New(ferrors.InvalidInput, "archive source not found: "+srcDir, err)
	}
	if !info.IsDir() {
		return "", ferrors.New(ferrors.InvalidInput, srcDir+" is not a directory", nil)
	}

	files, err := archiver.FilesFromDisk(nil, map[string]string{srcDir: ""})
	if err != nil {
		return "", ferrors.New(ferrors.IO, "failed to enumerate archive source files", err)
	}

	out, err := os.CreateTemp("", "fragforge-archive-*.tar.gz")
	if err != nil {
		return "", ferrors.New(ferrors.IO, "failed to create archive blob", err)
	}
	defer out.Close()

	if err := format.Archive(ctx, out, files); err != nil {
		os.Remove(out.Name())
		return "", ferrors.New(ferrors.IO, "failed to write archive blob", err)
	}
	return out.Name(), nil
}

// UnpackBlob extracts blobPath (as produced by PackDir) into destDir,
// recreating the original directory tree.
func UnpackBlob(ctx context.Context, blobPath, destDir string) error {
	f, err := os.Open(blobPath)
	if err != nil {
		return ferrors.New(ferrors.InvalidInput, "archive blob not found: "+blobPath, err)
	}
	defer f.Close()

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return ferrors.New(ferrors.IO, "failed to create archive destination", err)
	}

	handler := func(_ context.Context, fi archiver.File) error {
		target := filepath.Join(destDir, fi.NameInArchive)
		if fi.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return err
		}
		src, err := fi.Open()
		if err != nil {
			return err
		}
		defer src.Close()

		dst, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, fi.Mode())
		if err != nil {
			return err
		}
		defer dst.Close()

		_, err = dst.ReadFrom(src)
		return err
	}

	if err := format.Extract(ctx, f, handler); err != nil {
		return ferrors.New(ferrors.Corrupt, "failed to extract archive blob", err)
	}
	return nil
}
