package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// StdinPath names standard input in an input list.
const StdinPath = "-"

// ExpandInputs expands file paths and glob patterns into the list of inputs
// to read, in argument order. Each glob contributes its matches in sorted
// order and repeated paths are read once. No arguments means standard input.
func ExpandInputs(args []string) ([]string, error) {
	if len(args) == 0 {
		return []string{StdinPath}, nil
	}

	files := make([]string, 0, len(args))
	seen := make(map[string]struct{})
	add := func(path string) {
		if _, ok := seen[path]; ok {
			return
		}
		seen[path] = struct{}{}
		files = append(files, path)
	}

	for _, arg := range args {
		if arg == StdinPath {
			add(arg)
			continue
		}

		if hasGlobMeta(arg) {
			matches, err := filepath.Glob(arg)
			if err != nil {
				return nil, fmt.Errorf("expanding %q: %w", arg, err)
			}
			if len(matches) == 0 {
				return nil, fmt.Errorf("no matches for pattern %q", arg)
			}
			for _, match := range matches {
				add(match)
			}
			continue
		}

		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if info.IsDir() {
			return nil, fmt.Errorf("%s is a directory", arg)
		}
		add(arg)
	}

	return files, nil
}

func hasGlobMeta(s string) bool {
	return strings.ContainsAny(s, "*?[")
}
