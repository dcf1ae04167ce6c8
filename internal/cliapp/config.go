// Package cliapp wires the palette-engine CLI: config loading, the
// interactive REPL, and the version/self-update subcommand, in the idiom
// pkg/cli already establishes for the stdlib filter library.
package cliapp

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds the process defaults CLRQ_* environment variables seed,
// replacing pkg/cli/dotenv.go's hand-rolled parser with the
// github.com/joho/godotenv dependency the teacher already declared but
// never imported.
type Config struct {
	Seed       uint64
	Workers    int
	BlockSize  int
	GPUEnabled bool
}

// LoadConfig loads a .env file (if present) via godotenv.Load, then reads
// CLRQ_SEED, CLRQ_WORKERS, CLRQ_BLOCK_SIZE, and CLRQ_GPU_ENABLED from the
// process environment, applying the given defaults when unset. A missing
// .env file is not an error: godotenv.Load's result is ignored the same
// way dotenv.go's caller was expected to ignore it.
func LoadConfig(envPath string, defaults Config) Config {
	_ = godotenv.Load(envPath)

	cfg := defaults
	if v, ok := os.LookupEnv("CLRQ_SEED"); ok {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			cfg.Seed = n
		}
	}
	if v, ok := os.LookupEnv("CLRQ_WORKERS"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Workers = n
		}
	}
	if v, ok := os.LookupEnv("CLRQ_BLOCK_SIZE"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.BlockSize = n
		}
	}
	if v, ok := os.LookupEnv("CLRQ_GPU_ENABLED"); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.GPUEnabled = b
		}
	}
	return cfg
}

// DefaultConfig mirrors the values the engine falls back to absent any
// environment configuration.
func DefaultConfig() Config {
	return Config{Seed: 42, Workers: 0, BlockSize: 2000, GPUEnabled: false}
}
