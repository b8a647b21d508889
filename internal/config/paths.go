// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Yaug Contributors

package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/samber/oops"
)

const (
	appName         = "yaug"
	defaultFileName = "config.yaml"
)

// Dir returns the yaug config directory: $XDG_CONFIG_HOME/yaug, falling
// back to ~/.config/yaug.
func Dir() (string, error) {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", oops.Code("CONFIG_DIR_UNKNOWN").Wrap(err)
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, appName), nil
}

// Resolve picks the config file to load. An explicit path wins. Otherwise
// config.yaml in Dir is used when it exists, and "" (defaults only) when
// it does not.
func Resolve(path string) (string, error) {
	if path != "" {
		return path, nil
	}
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	candidate := filepath.Join(dir, defaultFileName)
	_, err = os.Stat(candidate)
	switch {
	case err == nil:
		return candidate, nil
	case errors.Is(err, fs.ErrNotExist):
		return "", nil
	default:
		return "", oops.Code("CONFIG_LOAD_FAILED").With("path", candidate).Wrap(err)
	}
}
