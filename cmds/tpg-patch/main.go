package main

import (
	"os"

	"github.com/sirupsen/logrus"

	"github.com/allpaul0/tpg-nextflow/pkg/codepatch"
	"github.com/allpaul0/tpg-nextflow/pkg/conf"
	"github.com/allpaul0/tpg-nextflow/pkg/experiment"
	"github.com/allpaul0/tpg-nextflow/pkg/utils/errutil"
)

var (
	dirFlag      = conf.NewStringFlag("dir", "Directory holding the generated inference sources.", ".")
	stemFlag     = conf.NewStringFlag("stem", "Stem of the generated set (<stem>.c/.h and <stem>_program.c/.h).", "best_root")
	dataTypeFlag = conf.NewStringFlag("data_type", "Target arithmetic type: double, float, int or fixedpt.", "")
)

func main() {
	conf.SetAppName("tpg-patch")
	conf.SetHelp("Retargets code-generator output from its default double arithmetic to the experiment's configured type.")

	experiment.Configure()

	if dataTypeFlag.Value() == "" {
		logrus.Error("No target type: set -data_type")
		os.Exit(experiment.ExUsage)
	}

	engine, err := codepatch.New(dataTypeFlag.Value())
	errutil.Check(err)

	err = engine.PatchUnit(dirFlag.Value(), stemFlag.Value())
	errutil.Check(err)
	logrus.Infof("Patched generated set %q in %s for %s", stemFlag.Value(), dirFlag.Value(), dataTypeFlag.Value())
}
