package reconcile

import (
	"io"
	"os"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// FindMissing returns the scheduled config paths that have no matching
// result yet. Configs and results pair up by layout key, so renaming either
// side breaks the match. The returned paths are sorted; duplicates cannot
// occur because the source paths are unique.
func FindMissing(layout Layout) ([]string, error) {
	configPaths, err := layout.ConfigFiles()
	if err != nil {
		return nil, err
	}
	resultPaths, err := layout.ResultFiles()
	if err != nil {
		return nil, err
	}

	done := map[string]bool{}
	for _, resultPath := range resultPaths {
		key, err := layout.Key(resultPath)
		if err != nil {
			return nil, err
		}
		done[key] = true
	}

	missing := []string{}
	for _, configPath := range configPaths {
		key, err := layout.Key(configPath)
		if err != nil {
			return nil, err
		}
		if !done[key] {
			missing = append(missing, configPath)
		}
	}

	sort.Strings(missing)
	return missing, nil
}

// WriteList renders paths newline-delimited, dropping blank entries.
func WriteList(output io.Writer, paths []string) error {
	for _, path := range paths {
		if strings.TrimSpace(path) == "" {
			continue
		}
		if _, err := io.WriteString(output, path+"\n"); err != nil {
			return errors.Wrap(err, "could not write missing list")
		}
	}
	return nil
}

// SaveList writes the missing list to a file.
func SaveList(filePath string, paths []string) error {
	file, err := os.Create(filePath)
	if err != nil {
		return errors.Wrapf(err, "could not create missing list %q", filePath)
	}
	defer file.Close()

	return WriteList(file, paths)
}
