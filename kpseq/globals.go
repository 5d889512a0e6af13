package kpseq

import (
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

var (
	// DefaultAppName is used for config lookup paths and the binary name
	DefaultAppName    = "kpseq"
	DefaultConfigPath = filepath.Join(getHomeDir(), ".config", DefaultAppName)
	DefaultCacheDir   = filepath.Join(DefaultConfigPath, ".cache")

	// Default store settings
	DefaultStoreDSN = "file:" + filepath.Join(DefaultConfigPath, "runs.db")

	// Preprocessing defaults, overridden by dataset profiles
	DefaultMaxDocumentLength = 1000
	DefaultMaxVocabularySize = 50000
	DefaultEmbeddingsSize    = 50
	DefaultSeed              = int64(421)

	// DefaultTopK lists the k values of the top-k evaluation strategies
	DefaultTopK = []int{5, 10, 15}
)

// NumLabels is the width of the label set: outside, begin and inside.
const NumLabels = 3

// Label values written by the label encoder.
const (
	LabelOutside = 0
	LabelBegin   = 1
	LabelInside  = 2
)

func getHomeDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		cwd, cwdErr := os.Getwd()
		if cwdErr != nil {
			log.Printf("Unable to get home or working directory, using /tmp: %v", err)
			return "/tmp"
		}
		log.Printf("Unable to get home directory, using current working directory: %v", err)
		return cwd
	}
	return homeDir
}

// GetLogger returns a properly configured zerolog logger instance
func GetLogger() zerolog.Logger {
	return zerolog.New(os.Stderr).With().Timestamp().Logger()
}

// NewLogger returns a console logger at the given level. Unknown levels fall back to info.
func NewLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}
	return zerolog.New(out).Level(lvl).With().Timestamp().Logger()
}
