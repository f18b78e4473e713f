package main

import (
	"os"
	"path"

	"github.com/sirupsen/logrus"

	"github.com/allpaul0/tpg-nextflow/pkg/conf"
	"github.com/allpaul0/tpg-nextflow/pkg/experiment"
	"github.com/allpaul0/tpg-nextflow/pkg/results"
	"github.com/allpaul0/tpg-nextflow/pkg/utils/errutil"
)

var (
	sweepRootFlag = conf.NewStringFlag("sweep_root", "Sweep root holding the unit work directories to aggregate.", "")
	outputFlag    = conf.NewStringFlag("output", "Path of the aggregated training CSV.", "results.csv")

	inferenceRootFlag = conf.NewStringFlag("inference_root", "Experiment root holding training_results with inference timings to aggregate.", "")
	outputDirFlag     = conf.NewStringFlag("output_dir", "Directory for the inference CSV tables.", "results_out")
)

func aggregateTraining(sweepRoot string) {
	entries, err := os.ReadDir(sweepRoot)
	errutil.Check(err)

	unitDirs := []string{}
	for _, entry := range entries {
		if entry.IsDir() {
			unitDirs = append(unitDirs, path.Join(sweepRoot, entry.Name()))
		}
	}

	table := results.AggregateTraining(unitDirs)
	err = table.SaveCSV(outputFlag.Value())
	errutil.Check(err)
	logrus.Infof("Aggregated %d rows from %d unit directories into %s",
		len(table.Rows), len(unitDirs), outputFlag.Value())
}

func aggregateInference(inferenceRoot string) {
	aggregator := results.NewInferenceAggregator()
	err := aggregator.AddResultsUnder(inferenceRoot)
	errutil.Check(err)
	err = aggregator.SaveCSVs(outputDirFlag.Value())
	errutil.Check(err)
	logrus.Infof("Inference tables written to %s", outputDirFlag.Value())
}

func main() {
	conf.SetAppName("tpg-aggregate")
	conf.SetHelp("Aggregates per-unit training metrics into one CSV table, and per-TPG inference timings into per-seed and seed-averaged tables.")

	experiment.Configure()

	if sweepRootFlag.Value() == "" && inferenceRootFlag.Value() == "" {
		logrus.Error("Nothing to aggregate: set -sweep_root or -inference_root")
		os.Exit(experiment.ExUsage)
	}

	if sweepRootFlag.Value() != "" {
		aggregateTraining(sweepRootFlag.Value())
	}
	if inferenceRootFlag.Value() != "" {
		aggregateInference(inferenceRootFlag.Value())
	}
}
