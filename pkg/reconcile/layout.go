// Package reconcile plans inference work for trained TPGs and finds the part
// of a previous plan that still has no results.
package reconcile

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// Layout resolves the fixed on-disk shape of an inference experiment root:
// <root>/training_results/<tpgDir>/inference/{configs,results,overlays,tpg_inference_expe}.
// Every path question goes through it so the shape is written down once.
type Layout struct {
	Root string
}

// TrainingResults is the directory holding one subdirectory per trained TPG.
func (l Layout) TrainingResults() string {
	return filepath.Join(l.Root, "training_results")
}

// TPGDirs lists the per-TPG artifact directories, sorted by name.
func (l Layout) TPGDirs() ([]string, error) {
	entries, err := os.ReadDir(l.TrainingResults())
	if err != nil {
		return nil, errors.Wrapf(err, "could not list training results under %q", l.Root)
	}

	dirs := []string{}
	for _, entry := range entries {
		if entry.IsDir() {
			dirs = append(dirs, filepath.Join(l.TrainingResults(), entry.Name()))
		}
	}
	sort.Strings(dirs)
	return dirs, nil
}

// ConfigsDir is where scheduled inference configs for one TPG live.
func (l Layout) ConfigsDir(tpgDir string) string {
	return filepath.Join(tpgDir, "inference", "configs")
}

// ResultsDir is where the simulator drops timing documents for one TPG.
func (l Layout) ResultsDir(tpgDir string) string {
	return filepath.Join(tpgDir, "inference", "results")
}

// WorkDirs are the remaining per-TPG inference directories created up front.
func (l Layout) WorkDirs(tpgDir string) []string {
	return []string{
		filepath.Join(tpgDir, "inference", "overlays"),
		filepath.Join(tpgDir, "inference", "tpg_inference_expe"),
	}
}

// ConfigFiles lists the scheduled config documents of every TPG, sorted.
func (l Layout) ConfigFiles() ([]string, error) {
	return l.inferenceFiles("configs")
}

// ResultFiles lists the produced timing documents of every TPG, sorted.
func (l Layout) ResultFiles() ([]string, error) {
	return l.inferenceFiles("results")
}

func (l Layout) inferenceFiles(kind string) ([]string, error) {
	tpgDirs, err := l.TPGDirs()
	if err != nil {
		return nil, err
	}

	files := []string{}
	for _, tpgDir := range tpgDirs {
		matches, err := filepath.Glob(filepath.Join(tpgDir, "inference", kind, "*.json"))
		if err != nil {
			return nil, errors.Wrap(err, "could not glob inference files")
		}
		files = append(files, matches...)
	}
	sort.Strings(files)
	return files, nil
}

// OwningTPGDir maps a config or result path back to its TPG directory. The
// file sits three levels below it; this positional contract must survive any
// layout change.
func (l Layout) OwningTPGDir(filePath string) string {
	return filepath.Dir(filepath.Dir(filepath.Dir(filePath)))
}

// Key identifies a scheduled config and its result as the same piece of
// work: the path with the configs or results segment removed and the
// extension stripped.
func (l Layout) Key(filePath string) (string, error) {
	parts := strings.Split(filePath, string(filepath.Separator))

	index := -1
	for position, part := range parts {
		if part == "configs" || part == "results" {
			index = position
			break
		}
	}
	if index < 0 {
		return "", errors.Errorf("no configs or results segment in path %q", filePath)
	}

	stem := strings.TrimSuffix(parts[len(parts)-1], filepath.Ext(parts[len(parts)-1]))
	kept := append([]string{}, parts[:index]...)
	kept = append(kept, stem)
	return strings.Join(kept, string(filepath.Separator)), nil
}
