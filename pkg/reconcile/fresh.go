package reconcile

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// InferenceConfig is one scheduled simulator run: a TPG on one core with one
// ISA variant. The compiler field is attached only when requested.
type InferenceConfig struct {
	TPG      string `json:"tpg"`
	Uarch    string `json:"uarch"`
	ISA      string `json:"isa"`
	ABI      string `json:"abi"`
	DType    string `json:"dtype"`
	Compiler string `json:"compiler,omitempty"`
}

// FileName is the config's name inside inference/configs.
func (c InferenceConfig) FileName() string {
	return c.Uarch + "_" + c.ISA + "_" + c.ABI + "_" + c.DType + ".json"
}

// Planner generates the full inference plan for every trained TPG under a
// root.
type Planner struct {
	Layout Layout
	// WithCompiler attaches the toolchain path to each config.
	WithCompiler bool
	// Mini truncates each TPG's flattened combination list to its first
	// Mini entries. Zero plans everything.
	Mini int
}

// InferDType recovers the arithmetic type from a TPG directory name.
func InferDType(tpgDirName string) (string, error) {
	for _, dtype := range []string{"float", "double", "fixedpt"} {
		if strings.Contains(tpgDirName, "instrType-"+dtype) {
			return dtype, nil
		}
	}
	return "", errors.Errorf("cannot detect arithmetic type from directory name %q", tpgDirName)
}

// Combinations builds the flattened core by ISA-variant product for one
// arithmetic type, already filtered for validity and truncated when a mini
// plan was requested.
func (p Planner) Combinations(tpgDirName, dtype string) []InferenceConfig {
	configs := []InferenceConfig{}
	for _, microarch := range Microarchs {
		if !microarch.ValidFor(dtype) {
			logrus.Infof("Skipping %s on %s (dtype %s)", tpgDirName, microarch.Name, dtype)
			continue
		}

		for _, isa := range ExpandISA(microarch.ISA) {
			config := InferenceConfig{
				TPG:   tpgDirName,
				Uarch: microarch.Name,
				ISA:   isa,
				ABI:   microarch.ABI,
				DType: dtype,
			}
			if p.WithCompiler {
				config.Compiler = CompilerFor(isa)
			}
			configs = append(configs, config)
		}
	}

	if p.Mini > 0 && len(configs) > p.Mini {
		configs = configs[:p.Mini]
	}
	return configs
}

// PlanTPG writes the config documents for one TPG directory and creates the
// inference working directories alongside them.
func (p Planner) PlanTPG(tpgDir string) error {
	dtype, err := InferDType(filepath.Base(tpgDir))
	if err != nil {
		return err
	}

	directories := append([]string{p.Layout.ConfigsDir(tpgDir), p.Layout.ResultsDir(tpgDir)}, p.Layout.WorkDirs(tpgDir)...)
	for _, directory := range directories {
		if err := os.MkdirAll(directory, 0755); err != nil {
			return errors.Wrapf(err, "could not create inference directory %q", directory)
		}
	}

	for _, config := range p.Combinations(filepath.Base(tpgDir), dtype) {
		raw, err := json.MarshalIndent(config, "", "    ")
		if err != nil {
			return errors.Wrap(err, "could not encode inference config")
		}

		configPath := filepath.Join(p.Layout.ConfigsDir(tpgDir), config.FileName())
		if err := os.WriteFile(configPath, raw, 0644); err != nil {
			return errors.Wrapf(err, "could not write inference config %q", configPath)
		}
	}

	return nil
}

// PlanAll plans every TPG directory under the root. A directory whose name
// carries no recognizable arithmetic type is skipped with a warning; the
// rest of the plan proceeds.
func (p Planner) PlanAll() error {
	tpgDirs, err := p.Layout.TPGDirs()
	if err != nil {
		return err
	}

	for _, tpgDir := range tpgDirs {
		if err := p.PlanTPG(tpgDir); err != nil {
			logrus.Warnf("Skipping TPG directory %q: %v", tpgDir, err)
		}
	}
	return nil
}
