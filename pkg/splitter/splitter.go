// Package splitter streams an input file once, allocates randomised
// fragment sizes, and emits fragment records to an output directory via
// atomic rename-on-complete.
package splitter

import (
	"crypto/rand"
	"fmt"
	"io"
	mrand "math/rand/v2"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/fragforge/fragforge/pkg/conf"
	"github.com/fragforge/fragforge/pkg/ferrors"
	"github.com/fragforge/fragforge/pkg/fragment"
	"github.com/fragforge/fragforge/pkg/hashcodec"
	"github.com/fragforge/fragforge/pkg/hexcodec"
	"github.com/fragforge/fragforge/pkg/kdf"
	"github.com/fragforge/fragforge/pkg/nameenc"
	"github.com/fragforge/fragforge/pkg/progress"
	"github.com/fragforge/fragforge/pkg/rc4stream"
)

// Split fragments the file at inputPath into outputDir according to opts,
// returning the ordered list of written fragment paths.
func Split(inputPath, outputDir string, opts conf.Options, log progress.Logger) ([]string, error) {
	if log == nil {
		log = progress.Discard
	}
	if opts.SizeRange < 0 || opts.SizeRange >= opts.MaxSize {
		return nil, ferrors.New(ferrors.InvalidInput, "size_range must be in [0, max_size)", nil)
	}

	info, err := os.Stat(inputPath)
	if err != nil {
		return nil, ferrors.New(ferrors.InvalidInput, "input file not found: "+inputPath, err)
	}
	fileSize := info.Size()

	hashAlg := opts.HashAlgorithm()
	if hashAlg == 0 {
		hashAlg = hashcodec.Default
	}
	kdfVersion, err := opts.KDFVersionEnum()
	if err != nil {
		return nil, ferrors.New(ferrors.InvalidInput, "bad kdf_version", err)
	}
	magic := magicForVersion(kdfVersion)

	fileHash, err := hashWholeFile(inputPath, hashAlg)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, ferrors.New(ferrors.IO, "failed to create output directory", err)
	}

	sizes := allocateSizes(fileSize, opts.MaxSize, opts.SizeRange)
	log.Infof("splitting %s (%d bytes) into %d fragments", inputPath, fileSize, len(sizes))

	encodedName, err := nameenc.Encode(fragment.FilenameScheme(magic), filepath.Base(inputPath))
	if err != nil {
		return nil, ferrors.New(ferrors.InvalidInput, "failed to encode file_name", err)
	}

	in, err := os.Open(inputPath)
	if err != nil {
		return nil, ferrors.New(ferrors.IO, "failed to reopen input file", err)
	}
	defer in.Close()

	var written []string
	var offset int64
	for _, size := range sizes {
		path, err := writeOneFragment(in, outputDir, writeFragmentArgs{
			magic:       magic,
			kdfVersion:  kdfVersion,
			hashAlg:     hashAlg,
			fileName:    encodedName,
			fileHash:    fileHash,
			fileSize:    fileSize,
			offset:      offset,
			size:        size,
			password:    opts.Password,
		})
		if err != nil {
			return nil, err
		}
		written = append(written, path)
		offset += size
	}

	if offset != fileSize {
		return nil, ferrors.New(ferrors.IO, fmt.Sprintf("internal error: consumed %d of %d bytes", offset, fileSize), nil)
	}
	return written, nil
}

func magicForVersion(v kdf.Version) string {
	if v == kdf.IteratedSHA3 {
		return fragment.MagicVer1
	}
	return fragment.MagicVer2
}

// allocateSizes builds the fragment-size sequence in file order (so offsets
// stay monotonic), then shuffles the sizes so the odd-sized remainder isn't
// always last.
func allocateSizes(fileSize, maxSize, sizeRange int64) []int64 {
	if fileSize == 0 {
		// A zero-length input still yields one (zero-length) fragment.
		return []int64{0}
	}

	var sizes []int64
	remaining := fileSize
	for remaining > maxSize {
		lo := maxSize - sizeRange
		s := lo
		if sizeRange > 0 {
			s = lo + mrand.Int64N(sizeRange+1)
		}
		if s > remaining {
			s = remaining
		}
		sizes = append(sizes, s)
		remaining -= s
	}
	sizes = append(sizes, remaining)

	mrand.Shuffle(len(sizes), func(i, j int) { sizes[i], sizes[j] = sizes[j], sizes[i] })
	return sizes
}

func hashWholeFile(path string, algo hashcodec.Algorithm) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", ferrors.New(ferrors.IO, "failed to open input for hashing", err)
	}
	defer f.Close()
	h, err := algo.HashFile(f)
	if err != nil {
		return "", ferrors.New(ferrors.IO, "failed to hash input file", err)
	}
	return h, nil
}

type writeFragmentArgs struct {
	magic      string
	kdfVersion kdf.Version
	hashAlg    hashcodec.Algorithm
	fileName   string
	fileHash   string
	fileSize   int64
	offset     int64
	size       int64
	password   string
}

func writeOneFragment(in io.Reader, outputDir string, a writeFragmentArgs) (string, error) {
	plaintext := make([]byte, a.size)
	if _, err := io.ReadFull(in, plaintext); err != nil {
		return "", ferrors.New(ferrors.IO, "failed to read fragment slice from input", err)
	}

	fragHash, err := a.hashAlg.HashBytes(plaintext)
	if err != nil {
		return "", ferrors.New(ferrors.IO, "failed to hash fragment", err)
	}

	iv := make([]byte, 16)
	if _, err := rand.Read(iv); err != nil {
		return "", ferrors.New(ferrors.IO, "failed to generate IV", err)
	}
	salt := make([]byte, kdf.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", ferrors.New(ferrors.IO, "failed to generate salt", err)
	}

	ciphertext := plaintext
	if a.password != "" {
		key, err := kdf.Derive(a.kdfVersion, a.password, salt, kdf.KeyLength)
		if err != nil {
			return "", ferrors.New(ferrors.IO, "key derivation failed", err)
		}
		ciphertext, err = rc4stream.Apply(key, iv, plaintext)
		if err != nil {
			return "", ferrors.New(ferrors.IO, "rc4 encrypt failed", err)
		}
	}

	header := fragment.Header{
		FileName:             a.fileName,
		FileHash:             a.fileHash,
		FileSize:             a.fileSize,
		FragmentStart:        a.offset,
		FragmentHash:         fragHash,
		FragmentSize:         a.size,
		InitializationVector: hexcodec.Encode(iv),
		PasswordSalt:         hexcodec.Encode(salt),
	}

	finalPath := filepath.Join(outputDir, fragHash+".txt")
	tmpPath := finalPath + ".tempfile-" + uuid.NewString()

	tmp, err := os.Create(tmpPath)
	if err != nil {
		return "", ferrors.New(ferrors.IO, "failed to create temp fragment", err)
	}
	if err := fragment.Write(tmp, a.magic, header, ciphertext); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return "", err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return "", ferrors.New(ferrors.IO, "failed to close temp fragment", err)
	}

	// A fragment_hash collision is treated as an overwrite: the plaintext
	// is identical (same hash), but the file renamed last replaces the
	// earlier one together with its header (fragment_start, IV, salt).
	if err := os.Rename(tmpPath, finalPath); err != nil {
		os.Remove(tmpPath)
		return "", ferrors.New(ferrors.IO, "failed to rename temp fragment into place", err)
	}
	return finalPath, nil
}
