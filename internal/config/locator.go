package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const (
	// ConfigFileName is the exact file name searched for.
	ConfigFileName = "integration-tests.json"
	// ConfigFileSuffix matches prefixed files such as app.integration-tests.json.
	ConfigFileSuffix = ".integration-tests.json"
	// DefaultSearchDepth bounds the directory walk below the search root.
	DefaultSearchDepth = 3
)

// ErrConfigNotFound is returned when no configuration file exists below the
// search root.
var ErrConfigNotFound = errors.New("no integration-tests configuration file found")

// skippedDirs are never descended into.
var skippedDirs = map[string]bool{
	"node_modules": true,
	".git":         true,
	"dist":         true,
	"build":        true,
	"vendor":       true,
	"coverage":     true,
	".angular":     true,
	"tmp":          true,
}

// IsConfigFileName reports whether name follows the configuration naming
// convention.
func IsConfigFileName(name string) bool {
	return name == ConfigFileName || (strings.HasSuffix(name, ConfigFileSuffix) && len(name) > len(ConfigFileSuffix))
}

// FindConfigFile searches root and up to maxDepth directory levels below it
// for a configuration file. Shallower matches win; at the same depth the
// exact name wins, then lexical order.
func FindConfigFile(root string, maxDepth int) (string, error) {
	if maxDepth < 0 {
		maxDepth = DefaultSearchDepth
	}

	info, err := os.Stat(root)
	if err != nil {
		return "", fmt.Errorf("failed to access search root %s: %w", root, err)
	}
	if !info.IsDir() {
		if IsConfigFileName(info.Name()) {
			return root, nil
		}
		return "", fmt.Errorf("%s is not a directory", root)
	}

	type match struct {
		path  string
		depth int
		exact bool
	}
	var matches []match

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Unreadable subtrees are skipped.
			if d != nil && d.IsDir() && path != root {
				return fs.SkipDir
			}
			return nil
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return nil
		}
		depth := 0
		if rel != "." {
			depth = len(strings.Split(rel, string(filepath.Separator)))
		}

		if d.IsDir() {
			if path != root && (skippedDirs[d.Name()] || depth > maxDepth) {
				return fs.SkipDir
			}
			return nil
		}

		if IsConfigFileName(d.Name()) {
			// depth counts the file itself, so a file directly in root has depth 1.
			matches = append(matches, match{path: path, depth: depth - 1, exact: d.Name() == ConfigFileName})
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to search %s: %w", root, err)
	}

	if len(matches) == 0 {
		return "", ErrConfigNotFound
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].depth != matches[j].depth {
			return matches[i].depth < matches[j].depth
		}
		if matches[i].exact != matches[j].exact {
			return matches[i].exact
		}
		return matches[i].path < matches[j].path
	})
	return matches[0].path, nil
}
