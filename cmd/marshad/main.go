/*
Marshad starts marsha's HTTP daemon and begins listening for grammar
management and recognize requests.

Usage:

	marshad [flags]

The flags are:

	-v, --version
		Give the current version of marsha and then exit.

	-c, --config FILE
		Load runtime configuration (SPEC_FULL.md §10.2) from FILE. If not
		given, defaults are used and may be overridden by the remaining
		flags.

	-l, --listen ADDRESS
		Listen on the given address, overriding the config file's
		http.listen_address.

	--store-dir DIR
		Use DIR for marsha's sqlite database, overriding the config file's
		store_dir.

	--api-key KEY
		The API key clients must present to POST /token to obtain a bearer
		token. If not given, will default to the value of environment
		variable MARSHA_API_KEY, and if that is not given, a random key is
		generated and printed once to stderr at startup (suitable for local
		testing only).

	-s, --secret SECRET
		Use the provided secret for signing JWTs. If not given, will default
		to the value of environment variable MARSHA_TOKEN_SECRET, then to the
		config file's http.jwt_signing_key, and if that is not given either,
		a random secret is generated; all tokens issued will
		become invalid as soon as the daemon shuts down.
*/
package main

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/corvidlabs/marsha/internal/httpapi"
	"github.com/corvidlabs/marsha/internal/rconfig"
	"github.com/corvidlabs/marsha/internal/store"
	"github.com/corvidlabs/marsha/internal/version"
	"github.com/spf13/pflag"
)

const (
	envAPIKey = "MARSHA_API_KEY"
	envSecret = "MARSHA_TOKEN_SECRET"
)

var (
	flagVersion  = pflag.BoolP("version", "v", false, "Give the current version of marsha and then exit.")
	flagConfig   = pflag.StringP("config", "c", "", "Load runtime configuration from the given TOML file.")
	flagListen   = pflag.StringP("listen", "l", "", "Listen on the given address.")
	flagStoreDir = pflag.String("store-dir", "", "Use the given directory for marsha's sqlite database.")
	flagAPIKey   = pflag.String("api-key", "", "The API key clients exchange for a bearer token.")
	flagSecret   = pflag.StringP("secret", "s", "", "Use the given secret for signing JWTs.")
)

func main() {
	pflag.Parse()

	if *flagVersion {
		fmt.Printf("%s (marshad)\n", version.Current)
		return
	}

	cfg, err := rconfig.LoadFile(*flagConfig)
	if err != nil {
		log.Fatalf("FATAL could not load config: %s", err.Error())
	}
	if *flagListen != "" {
		cfg.HTTP.ListenAddress = *flagListen
	}
	if *flagStoreDir != "" {
		cfg.StoreDir = *flagStoreDir
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("FATAL invalid config: %s", err.Error())
	}

	if err := os.MkdirAll(cfg.StoreDir, 0770); err != nil {
		log.Fatalf("FATAL could not create store directory %q: %s", cfg.StoreDir, err.Error())
	}

	apiKey := resolveAPIKey()
	jwtSecret := resolveSecret(cfg.HTTP.JWTSigningKey)

	st, err := store.NewDatastore(cfg.StoreDir)
	if err != nil {
		log.Fatalf("FATAL could not open store: %s", err.Error())
	}
	defer st.Close()

	api, err := httpapi.New(st, apiKey, jwtSecret, cfg.HTTP.TokenLifetime)
	if err != nil {
		log.Fatalf("FATAL could not initialize HTTP API: %s", err.Error())
	}

	log.Printf("INFO  Starting marshad %s on %s...", version.Current, cfg.HTTP.ListenAddress)
	if err := http.ListenAndServe(cfg.HTTP.ListenAddress, api.Router()); err != nil {
		log.Fatalf("FATAL server exited: %s", err.Error())
	}
}

func resolveAPIKey() string {
	if *flagAPIKey != "" {
		return *flagAPIKey
	}
	if env := os.Getenv(envAPIKey); env != "" {
		return env
	}

	key := randomHex(16)
	log.Printf("WARN  Using generated API key %q; pass --api-key or set %s for production use", key, envAPIKey)
	return key
}

func resolveSecret(configured string) []byte {
	if *flagSecret != "" {
		return []byte(*flagSecret)
	}
	if env := os.Getenv(envSecret); env != "" {
		return []byte(env)
	}
	if configured != "" {
		return []byte(configured)
	}

	log.Printf("WARN  Using generated token secret; all tokens issued will become invalid at shutdown")
	return []byte(randomHex(32))
}

func randomHex(n int) string {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		log.Fatalf("FATAL could not generate random bytes: %s", err.Error())
	}
	return hex.EncodeToString(b)
}
