package main

import (
	"os"
	"os/signal"
	"path"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/allpaul0/tpg-nextflow/pkg/conf"
	"github.com/allpaul0/tpg-nextflow/pkg/dispatch"
	"github.com/allpaul0/tpg-nextflow/pkg/executor"
	"github.com/allpaul0/tpg-nextflow/pkg/experiment"
	"github.com/allpaul0/tpg-nextflow/pkg/results"
	"github.com/allpaul0/tpg-nextflow/pkg/sweep"
	"github.com/allpaul0/tpg-nextflow/pkg/utils/errutil"
	"github.com/allpaul0/tpg-nextflow/pkg/utils/uuid"
)

var (
	// Sweep definition.
	definitionFlag = conf.NewFileFlag("sweep_definition", "Path to the YAML sweep definition.", "sweep.yaml")
	miniFlag       = conf.NewIntFlag("mini", "Truncate every sweep dimension to its first N values. 0 runs the full sweep.", 0)

	// Materialization.
	sweepRootFlag     = conf.NewStringFlag("sweep_root", "Directory under which unit work directories are created.", "sweeps")
	templateDirFlag   = conf.NewStringFlag("template_dir", "Directory holding the base trainParams.json and params.json templates.", "templates")
	runtimeParamsFlag = conf.NewStringFlag("runtime_params", "Optional params.json overriding the template one.", "")

	// Dispatch.
	imageFlag          = conf.NewStringFlag("image", "Trainer container image.", "armlearn-wrapper.sif")
	trainerCommandFlag = conf.NewStringFlag("trainer_command", "Command run inside the trainer container.", "/armlearn-wrapper/run_training.sh")
	coresFlag          = conf.NewIntFlag("cores", "Cores requested per unit and threads handed to the trainer.", 8)
	memoryFlag         = conf.NewStringFlag("memory", "Memory requested per unit, in scheduler syntax.", "8G")
	trainingTimeFlag   = conf.NewDurationFlag("training_time", "Per-unit training time budget.", 2*time.Hour)
	stopCriterionFlag  = conf.NewStringFlag("stop_criterion", "Trainer stop criterion: time or generations.", "time")

	// Metadata.
	recordMetadataFlag = conf.NewBoolFlag("record_metadata", "Record sweep configuration in Cassandra.", false)
)

func recordMetadata(sweepID string) {
	metadata := experiment.NewMetadata(sweepID, experiment.MetadataConfigFromFlags())
	err := metadata.Connect()
	errutil.Check(err)
	err = metadata.RecordFlags()
	errutil.Check(err)
	err = metadata.RecordEnv(conf.EnvironmentPrefix)
	errutil.Check(err)
}

func main() {
	conf.SetAppName("tpg-sweep")
	conf.SetHelp("Expands a TPG training parameter sweep, materializes one work directory per combination, submits each to the batch scheduler and aggregates the training metrics.")

	experiment.Configure()

	sweepID := uuid.New()
	logrus.Infof("Starting sweep %s", sweepID)

	if recordMetadataFlag.Value() {
		recordMetadata(sweepID)
	}

	space, err := sweep.LoadDefinition(definitionFlag.Value())
	errutil.Check(err)

	if miniFlag.Value() > 0 {
		space = space.Mini(miniFlag.Value())
		logrus.Infof("Mini sweep: truncated to %d combinations", space.Size())
	}
	tuples := space.Expand()
	logrus.Infof("Sweep expands to %d experiment units", len(tuples))

	materializer := experiment.NewMaterializer(experiment.MaterializerConfig{
		RootDir:             sweepRootFlag.Value(),
		TemplateDir:         templateDirFlag.Value(),
		CustomRuntimeParams: runtimeParamsFlag.Value(),
		TrainingTime:        trainingTimeFlag.Value(),
		Cores:               coresFlag.Value(),
	})

	stopCriterion, err := dispatch.ParseStopCriterion(stopCriterionFlag.Value())
	errutil.Check(err)

	dispatcher := dispatch.NewDispatcher(executor.NewLocal(), dispatch.Config{
		Image:          imageFlag.Value(),
		TrainerCommand: trainerCommandFlag.Value(),
		CPUs:           coresFlag.Value(),
		Memory:         memoryFlag.Value(),
		TrainingTime:   trainingTimeFlag.Value(),
		StopCriterion:  stopCriterion,
	})

	// Termination forwards a stop to the in-flight jobs. Best effort: remote
	// termination belongs to the scheduler.
	interrupts := make(chan os.Signal, 1)
	signal.Notify(interrupts, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-interrupts
		logrus.Warn("Interrupted, stopping in-flight jobs")
		dispatcher.StopAll()
	}()

	units := []*experiment.Unit{}
	for _, tuple := range tuples {
		unit, err := materializer.Materialize(tuple)
		if err != nil {
			logrus.Errorf("Could not materialize experiment %q: %v", tuple.ID(), err)
			continue
		}
		if err := dispatcher.Dispatch(unit); err != nil {
			logrus.Errorf("Could not dispatch experiment %q: %v", unit.ID, err)
			continue
		}
		units = append(units, unit)
	}

	completed, failed := dispatcher.WaitAll()
	logrus.Infof("Sweep %s finished: %d completed, %d failed", sweepID, completed, failed)

	// Aggregation runs after every handle has been waited on, over completed
	// units only.
	unitDirs := []string{}
	for _, unit := range units {
		if unit.Status == experiment.StatusCompleted {
			unitDirs = append(unitDirs, unit.WorkDir)
		}
	}

	table := results.AggregateTraining(unitDirs)
	resultsPath := path.Join(sweepRootFlag.Value(), "results.csv")
	err = table.SaveCSV(resultsPath)
	errutil.Check(err)
	logrus.Infof("Aggregated training results written to %s", resultsPath)
}
