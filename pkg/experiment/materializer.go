package experiment

import (
	"io/ioutil"
	"os"
	"path"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/allpaul0/tpg-nextflow/pkg/params"
	"github.com/allpaul0/tpg-nextflow/pkg/sweep"
)

// Names of the configuration documents the containerized trainer reads.
const (
	trainParamsFile   = "trainParams.json"
	runtimeParamsFile = "params.json"
)

// MaterializerConfig carries the explicit context a materializer needs:
// no working-directory or environment lookups happen below this point.
type MaterializerConfig struct {
	// RootDir is the sweep root under which unit directories are created.
	RootDir string
	// TemplateDir holds the base trainParams.json and params.json templates.
	TemplateDir string
	// CustomRuntimeParams optionally overrides the params.json template.
	CustomRuntimeParams string
	// TrainingTime is the per-unit training time budget.
	TrainingTime time.Duration
	// Cores is the thread count handed to the trainer.
	Cores int
}

// Materializer turns parameter tuples into experiment units on storage.
type Materializer struct {
	config MaterializerConfig
}

// NewMaterializer returns a materializer for the given context.
func NewMaterializer(config MaterializerConfig) Materializer {
	return Materializer{config: config}
}

// Materialize creates the unit's work directory tree, copies the base
// templates into `params/` and overwrites every tuple field found in them.
// Materializing the same tuple twice reproduces the same directory.
func (m Materializer) Materialize(tuple sweep.Tuple) (*Unit, error) {
	unit := &Unit{
		ID:      tuple.ID(),
		Tuple:   tuple,
		WorkDir: path.Join(m.config.RootDir, tuple.ID()),
		Status:  StatusCreated,
	}

	logrus.Debugf("Materializing experiment %q", unit.ID)

	paramsDir := path.Join(unit.WorkDir, "params")
	if err := os.MkdirAll(paramsDir, 0755); err != nil {
		return nil, errors.Wrapf(err, "could not create params directory for unit %q", unit.ID)
	}
	// The trainer writes policy graph dotfiles below outLogs.
	if err := os.MkdirAll(path.Join(unit.WorkDir, "outLogs", "dotfiles"), 0755); err != nil {
		return nil, errors.Wrapf(err, "could not create outLogs directory for unit %q", unit.ID)
	}

	if err := m.copyTemplates(paramsDir); err != nil {
		return nil, err
	}

	if err := m.overrideTrainParams(paramsDir, tuple); err != nil {
		return nil, err
	}

	if err := m.overrideRuntimeParams(paramsDir); err != nil {
		return nil, err
	}

	return unit, nil
}

// copyTemplates copies the base configuration documents into the unit.
// A missing trainParams.json template is fatal for the unit: there is nothing
// to override. The runtime params template may come from a custom path.
func (m Materializer) copyTemplates(paramsDir string) error {
	trainTemplate := path.Join(m.config.TemplateDir, trainParamsFile)
	if err := copyFile(trainTemplate, path.Join(paramsDir, trainParamsFile)); err != nil {
		return errors.Wrapf(err, "base template %q is missing or unreadable", trainTemplate)
	}

	runtimeTemplate := path.Join(m.config.TemplateDir, runtimeParamsFile)
	if m.config.CustomRuntimeParams != "" {
		if _, err := os.Stat(m.config.CustomRuntimeParams); err == nil {
			runtimeTemplate = m.config.CustomRuntimeParams
		} else {
			logrus.Warnf("Custom params.json %q not found, falling back to template", m.config.CustomRuntimeParams)
		}
	}

	if err := copyFile(runtimeTemplate, path.Join(paramsDir, runtimeParamsFile)); err != nil {
		// The trainer falls back to its built-in defaults without params.json.
		logrus.Warnf("No %s template found to copy", runtimeParamsFile)
	}

	return nil
}

// overrideTrainParams rewrites the unit's trainParams.json with the tuple
// values and the training time budget. Override keys absent from the template
// are logged, not fatal; the decorative set name is always written so results
// can be tagged with it later.
func (m Materializer) overrideTrainParams(paramsDir string, tuple sweep.Tuple) error {
	documentPath := path.Join(paramsDir, trainParamsFile)
	document, err := params.Load(documentPath)
	if err != nil {
		return err
	}

	document.Set("timeMaxTraining", int(m.config.TrainingTime.Seconds()))

	type override struct {
		key   string
		value interface{}
	}
	overrides := []override{}
	for _, flag := range tuple.InstrSet.Flags {
		overrides = append(overrides, override{flag.Name, flag.Value})
	}
	overrides = append(overrides,
		override{"seed", tuple.Seed},
		override{"instrType", string(tuple.DataType)},
	)

	for _, entry := range overrides {
		if document.Has(entry.key) {
			document.Set(entry.key, entry.value)
		} else {
			logrus.Warnf("Key %q not found in %s", entry.key, trainParamsFile)
		}
	}
	document.Set("instrSetName", tuple.InstrSet.Name)

	return document.Save(documentPath)
}

// overrideRuntimeParams sets the thread count in the secondary resource
// config. Its absence downgrades to a log line.
func (m Materializer) overrideRuntimeParams(paramsDir string) error {
	documentPath := path.Join(paramsDir, runtimeParamsFile)
	if _, err := os.Stat(documentPath); err != nil {
		logrus.Warnf("No %s found to modify", runtimeParamsFile)
		return nil
	}

	document, err := params.Load(documentPath)
	if err != nil {
		return err
	}

	document.Set("nbThreads", m.config.Cores)

	return document.Save(documentPath)
}

func copyFile(src, dst string) error {
	data, err := ioutil.ReadFile(src)
	if err != nil {
		return err
	}
	return ioutil.WriteFile(dst, data, 0644)
}
