package experiment

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/allpaul0/tpg-nextflow/pkg/conf"
	"github.com/allpaul0/tpg-nextflow/pkg/utils/errutil"
)

// ExUsage is the exit code for malformed invocations.
const ExUsage = 64

var (
	// DumpConfigFlag name includes dash to exclude it from dumping.
	dumpConfigFlag = conf.NewBoolFlag("config-dump", "Dump configuration as environment script.", false)

	// DumpConfigSweepIDFlag name includes dash to exclude it from dumping.
	dumpConfigSweepIDFlag = conf.NewStringFlag("config-dump-sweep-id", "Dump configuration based on sweep ID.", "")
)

// Configure handles configuration parsing, generation and restoration based on config-* flags.
// Note: exits if configuration generation was requested.
// This function must reside in experiment package because it depends on metadata access.
func Configure() {

	err := conf.ParseFlags()
	if err != nil {
		logrus.Errorf("Cannot parse flags: %q", err.Error())
		os.Exit(ExUsage)
	}
	logrus.SetLevel(conf.LogLevel())

	if dumpConfigFlag.Value() {
		previousSweepID := dumpConfigSweepIDFlag.Value()
		if previousSweepID != "" {
			metadata := NewMetadata(previousSweepID, MetadataConfigFromFlags())
			err := metadata.Connect()
			errutil.Check(err)
			flags, err := metadata.GetGroup("flags")
			errutil.Check(err)
			fmt.Println(conf.DumpConfigMap(flags))
		} else {
			fmt.Println(conf.DumpConfig())
		}
		os.Exit(0)
	}
}
