// Package conf defines the configuration surface as a typed options
// struct, loaded from a YAML file and/or CLI flags via spf13/viper and
// validated with go-playground/validator/v10.
package conf

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/fragforge/fragforge/pkg/ferrors"
	"github.com/fragforge/fragforge/pkg/hashcodec"
	"github.com/fragforge/fragforge/pkg/kdf"
)

// Options holds every tunable of a split/join run, including the
// hash_func, kdf_version, and filename_encoding selectors. FilenameEncoding
// is validated but the splitter does not consult it: the file_name scheme
// follows the magic version picked by KDFVersion (ver1: ascii85, ver2:
// punycode).
type Options struct {
	MaxSize          int64  `mapstructure:"max_size" validate:"required,gt=0"`
	SizeRange        int64  `mapstructure:"size_range" validate:"gte=0,ltfield=MaxSize"`
	Password         string `mapstructure:"password"`
	HashFunc         string `mapstructure:"hash_func" validate:"required"`
	RemoveOriginals  bool   `mapstructure:"remove_originals"`
	Overwrite        bool   `mapstructure:"overwrite"`
	Verbose          bool   `mapstructure:"verbose"`
	KDFVersion       string `mapstructure:"kdf_version" validate:"required,oneof=ver1 ver2"`
	FilenameEncoding string `mapstructure:"filename_encoding" validate:"required,oneof=ascii85 punycode"`
}

// Defaults returns the documented default configuration.
func Defaults() Options {
	return Options{
		MaxSize:          22_000_000,
		SizeRange:        4_000_000,
		Password:         "",
		HashFunc:         "SHA-1",
		RemoveOriginals:  true,
		Overwrite:        false,
		Verbose:          false,
		KDFVersion:       "ver2",
		FilenameEncoding: "punycode",
	}
}

var validate = validator.New()

// Load reads an optional config file at path (if non-empty) through viper,
// merges it over Defaults(), and validates the result. An empty path is not
// an error (Defaults() alone is used); a non-empty path that does not exist,
// cannot be read, or does not parse is.
func Load(path string) (Options, error) {
	opts := Defaults()

	v := viper.New()
	v.SetConfigType("yaml")
	setViperDefaults(v, opts)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Options{}, ferrors.New(ferrors.InvalidInput, "failed to read config file "+path, err)
		}
	}

	if err := v.Unmarshal(&opts); err != nil {
		return Options{}, ferrors.New(ferrors.InvalidInput, "failed to parse config", err)
	}

	if err := opts.Validate(); err != nil {
		return Options{}, err
	}
	return opts, nil
}

func setViperDefaults(v *viper.Viper, opts Options) {
	v.SetDefault("max_size", opts.MaxSize)
	v.SetDefault("size_range", opts.SizeRange)
	v.SetDefault("password", opts.Password)
	v.SetDefault("hash_func", opts.HashFunc)
	v.SetDefault("remove_originals", opts.RemoveOriginals)
	v.SetDefault("overwrite", opts.Overwrite)
	v.SetDefault("verbose", opts.Verbose)
	v.SetDefault("kdf_version", opts.KDFVersion)
	v.SetDefault("filename_encoding", opts.FilenameEncoding)
}

// Validate enforces the configuration's preconditions: 0 <= size_range <
// max_size, a resolvable hash_func, a known kdf_version.
func (o Options) Validate() error {
	if err := validate.Struct(o); err != nil {
		return ferrors.New(ferrors.InvalidInput, "invalid configuration", err)
	}
	if _, err := hashcodec.Parse(o.HashFunc); err != nil {
		return ferrors.New(ferrors.InvalidInput, "unrecognised hash_func", err)
	}
	if _, err := o.KDFVersionEnum(); err != nil {
		return ferrors.New(ferrors.InvalidInput, "unrecognised kdf_version", err)
	}
	return nil
}

// HashAlgorithm resolves the configured hash_func.
func (o Options) HashAlgorithm() hashcodec.Algorithm {
	algo, _ := hashcodec.Parse(o.HashFunc)
	return algo
}

// KDFVersionEnum resolves the configured kdf_version to its enum and magic
// tag.
func (o Options) KDFVersionEnum() (kdf.Version, error) {
	switch o.KDFVersion {
	case "ver1":
		return kdf.IteratedSHA3, nil
	case "ver2":
		return kdf.ScryptHMAC, nil
	default:
		return 0, fmt.Errorf("conf: unknown kdf_version %q", o.KDFVersion)
	}
}
