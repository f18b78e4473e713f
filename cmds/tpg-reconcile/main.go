package main

import (
	"os"

	"github.com/sirupsen/logrus"

	"github.com/allpaul0/tpg-nextflow/pkg/conf"
	"github.com/allpaul0/tpg-nextflow/pkg/experiment"
	"github.com/allpaul0/tpg-nextflow/pkg/reconcile"
	"github.com/allpaul0/tpg-nextflow/pkg/utils/errutil"
)

var (
	rootFlag = conf.NewStringFlag("root", "Experiment root holding training_results.", ".")
	modeFlag = conf.NewStringFlag("mode", "fresh plans the full inference product, resume lists configs still missing a result.", "resume")

	withCompilerFlag = conf.NewBoolFlag("with_compiler", "Attach the toolchain path to each planned config.", false)
	miniFlag         = conf.NewIntFlag("mini", "Truncate each TPG's flattened combination list to its first N entries. 0 plans everything.", 0)

	outputFlag = conf.NewStringFlag("output", "File for the missing list. Empty prints to stdout.", "")
)

func main() {
	conf.SetAppName("tpg-reconcile")
	conf.SetHelp("Plans inference runs for trained TPGs, or lists the planned configs that still have no simulator result.")

	experiment.Configure()

	layout := reconcile.Layout{Root: rootFlag.Value()}

	switch modeFlag.Value() {
	case "fresh":
		planner := reconcile.Planner{
			Layout:       layout,
			WithCompiler: withCompilerFlag.Value(),
			Mini:         miniFlag.Value(),
		}
		err := planner.PlanAll()
		errutil.Check(err)

	case "resume":
		missing, err := reconcile.FindMissing(layout)
		errutil.Check(err)
		logrus.Infof("%d configs still missing a result", len(missing))

		if outputFlag.Value() == "" {
			err = reconcile.WriteList(os.Stdout, missing)
		} else {
			err = reconcile.SaveList(outputFlag.Value(), missing)
		}
		errutil.Check(err)

	default:
		logrus.Errorf("Unrecognized mode %q: use fresh or resume", modeFlag.Value())
		os.Exit(experiment.ExUsage)
	}
}
