package conf

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultsValidate(t *testing.T) {
	require.NoError(t, Defaults().Validate())
}

func TestSizeRangeMustBeLessThanMaxSize(t *testing.T) {
	o := Defaults()
	o.SizeRange = o.MaxSize
	assert.Error(t, o.Validate())

	o.SizeRange = o.MaxSize + 1
	assert.Error(t, o.Validate())
}

func TestUnknownHashFuncRejected(t *testing.T) {
	o := Defaults()
	o.HashFunc = "crc32"
	assert.Error(t, o.Validate())
}

func TestUnknownKDFVersionRejected(t *testing.T) {
	o := Defaults()
	o.KDFVersion = "ver3"
	assert.Error(t, o.Validate())
}

func TestLoadFromYAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fragforge.yaml")
	contents := "max_size: 1000\nsize_range: 100\nhash_func: SHA-256\nkdf_version: ver1\nfilename_encoding: ascii85\n"
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	opts, err := Load(path)
	require.NoError(t, err)
	assert.EqualValues(t, 1000, opts.MaxSize)
	assert.EqualValues(t, 100, opts.SizeRange)
	assert.Equal(t, "SHA-256", opts.HashFunc)
	assert.Equal(t, "ver1", opts.KDFVersion)
}

func TestLoadEmptyPathIsNotAnError(t *testing.T) {
	opts, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Defaults(), opts)
}
