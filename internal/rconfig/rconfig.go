// Package rconfig loads marsha's runtime configuration: the knobs that
// govern how marshad behaves, as distinct from the grammar
// documents the recognizer itself consumes (see internal/grammar, which
// uses the same BurntSushi/toml decoding idiom for a different document
// shape).
package rconfig

import (
	"io"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/corvidlabs/marsha/internal/rerrors"
)

// Config holds every runtime knob read from a marsha config file. None of
// these fields affect recognition semantics. cmd/marshad reads StoreDir and
// HTTP; cmd/marsharec does not load a config file.
type Config struct {
	// Trace is decoded from the config document; no command reads it
	// (cmd/marsharec takes its --trace flag instead).
	Trace bool `toml:"trace"`

	// ChartCapacityHint is decoded and must be at least 1 (see Validate).
	// internal/earley.Recognize sizes its chart from the input length and
	// does not read this value.
	ChartCapacityHint int `toml:"chart_capacity_hint"`

	// StoreDir is the directory holding marsha's sqlite database file.
	StoreDir string `toml:"store_dir"`

	// HTTP configures cmd/marshad's listener and auth.
	HTTP HTTPConfig `toml:"http"`
}

// HTTPConfig configures the marshad HTTP surface (SPEC_FULL.md §11.4).
type HTTPConfig struct {
	ListenAddress   string        `toml:"listen_address"`
	TokenLifetime   time.Duration `toml:"-"`
	TokenLifetimeMs int64         `toml:"token_lifetime_ms"`
	JWTSigningKey   string        `toml:"jwt_signing_key"`
}

// Default returns the configuration used when no config file is given.
func Default() Config {
	return Config{
		ChartCapacityHint: 64,
		StoreDir:          "./marsha-data",
		HTTP: HTTPConfig{
			ListenAddress: ":8080",
			TokenLifetime: time.Hour,
		},
	}
}

// Load decodes a Config from r, applying Default for any field the document
// omits. Fields are merged onto the defaults rather than replacing them
// wholesale, mirroring tqw's FileInfo-then-body two-step decode in spirit:
// read everything, then validate it makes sense together.
func Load(r io.Reader) (Config, error) {
	cfg := Default()
	if _, err := toml.NewDecoder(r).Decode(&cfg); err != nil {
		return Config{}, rerrors.New("malformed config document", err)
	}

	if cfg.HTTP.TokenLifetimeMs > 0 {
		cfg.HTTP.TokenLifetime = time.Duration(cfg.HTTP.TokenLifetimeMs) * time.Millisecond
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadFile opens path and decodes it as a Config. A missing file is not an
// error: it is treated the same as an empty document, yielding Default().
func LoadFile(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return Config{}, rerrors.New("opening config file", err)
	}
	defer f.Close()
	return Load(f)
}

// Validate reports whether cfg is internally consistent enough to run with.
func (cfg Config) Validate() error {
	if cfg.ChartCapacityHint < 1 {
		return rerrors.New("chart_capacity_hint must be at least 1", rerrors.ErrBadArgument)
	}
	if cfg.StoreDir == "" {
		return rerrors.New("store_dir must not be empty", rerrors.ErrBadArgument)
	}
	if cfg.HTTP.ListenAddress == "" {
		return rerrors.New("http.listen_address must not be empty", rerrors.ErrBadArgument)
	}
	return nil
}
