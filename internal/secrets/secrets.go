// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads contact details and credentials kept out of the
// config file: a .env file for REFCHASER_* variables, and a directory of
// plain-text key files where the file name is the key and the trimmed
// contents are the value.
//
// Recognized key files: openalex-email.
package secrets

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// OpenAlexEmail is the key file holding the address sent to OpenAlex.
const OpenAlexEmail = "openalex-email"

// Secrets maps key names to values.
type Secrets map[string]string

// Get returns the value for key, or fallback when fallback is non-empty or
// the key is absent. Explicit settings win over key files.
func (s Secrets) Get(key, fallback string) string {
	if fallback != "" {
		return fallback
	}
	return s[key]
}

// Keys returns the loaded key names in sorted order.
func (s Secrets) Keys() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// LoadEnv sets process environment variables from the given .env files.
// Missing files are skipped; variables already set are not overridden.
func LoadEnv(paths ...string) error {
	for _, p := range paths {
		if _, err := os.Stat(p); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("loading %s: %w", p, err)
		}
	}
	return nil
}

// Load reads every key file in dir. A missing directory yields an empty
// set. Unreadable files are logged and skipped; empty files and dotfiles
// are ignored.
func Load(dir string, logger *zap.Logger) (Secrets, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Secrets{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	s := make(Secrets)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			logger.Warn("could not read secret", zap.String("key", name), zap.Error(err))
			continue
		}
		if value := strings.TrimSpace(string(data)); value != "" {
			s[name] = value
		}
	}
	return s, nil
}
