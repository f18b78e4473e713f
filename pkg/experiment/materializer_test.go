package experiment

import (
	"io/ioutil"
	"os"
	"path"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/allpaul0/tpg-nextflow/pkg/params"
	"github.com/allpaul0/tpg-nextflow/pkg/sweep"
)

const trainParamsTemplate = `{
	// Seed for the pseudo random number generator.
	"seed": 0,
	"instrType": "double",
	"instrSetName": "",
	"useInstrTrig": false,
	"useInstrLogExp": false,
	"timeMaxTraining": 60,
	"nbGenerations": 300,
	"mutationRate": 0.3
}`

const runtimeParamsTemplate = `{
	"nbThreads": 1 /* overwritten per sweep */
}`

func testTuple() sweep.Tuple {
	return sweep.Tuple{
		Seed: 3,
		InstrSet: sweep.InstructionSet{
			Name: "baseSet",
			Flags: []sweep.InstructionFlag{
				{Name: "useInstrTrig", Value: true},
				{Name: "useInstrLogExp", Value: false},
			},
		},
		DataType: sweep.Float,
	}
}

func writeTemplates(t *testing.T, dir string) {
	t.Helper()
	if err := ioutil.WriteFile(path.Join(dir, "trainParams.json"), []byte(trainParamsTemplate), 0644); err != nil {
		t.Fatal(err)
	}
	if err := ioutil.WriteFile(path.Join(dir, "params.json"), []byte(runtimeParamsTemplate), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestMaterializer(t *testing.T) {
	Convey("While materializing an experiment unit", t, func() {
		rootDir, err := ioutil.TempDir("", "sweep_root")
		So(err, ShouldBeNil)
		defer os.RemoveAll(rootDir)

		templateDir, err := ioutil.TempDir("", "sweep_templates")
		So(err, ShouldBeNil)
		defer os.RemoveAll(templateDir)
		writeTemplates(t, templateDir)

		materializer := NewMaterializer(MaterializerConfig{
			RootDir:      rootDir,
			TemplateDir:  templateDir,
			TrainingTime: 10 * time.Minute,
			Cores:        8,
		})

		Convey("The work directory tree should match the trainer bind contract", func() {
			unit, err := materializer.Materialize(testTuple())
			So(err, ShouldBeNil)
			So(unit.Status, ShouldEqual, StatusCreated)
			So(unit.WorkDir, ShouldEqual, path.Join(rootDir, unit.ID))

			for _, subdir := range []string{"params", "outLogs/dotfiles"} {
				info, err := os.Stat(path.Join(unit.WorkDir, subdir))
				So(err, ShouldBeNil)
				So(info.IsDir(), ShouldBeTrue)
			}
		})

		Convey("Tuple fields and resource parameters should be written into the configs", func() {
			unit, err := materializer.Materialize(testTuple())
			So(err, ShouldBeNil)

			document, err := params.Load(path.Join(unit.WorkDir, "params", "trainParams.json"))
			So(err, ShouldBeNil)
			train, err := document.Train()
			So(err, ShouldBeNil)

			So(train.Seed, ShouldEqual, 3)
			So(train.InstrType, ShouldEqual, "float")
			So(train.InstrSetName, ShouldEqual, "baseSet")
			So(train.TimeMaxTraining, ShouldEqual, 600)

			trig, _ := document.Get("useInstrTrig")
			So(trig, ShouldEqual, true)
			// Unknown template keys survive the rewrite.
			So(document.Has("mutationRate"), ShouldBeTrue)

			runtime, err := params.Load(path.Join(unit.WorkDir, "params", "params.json"))
			So(err, ShouldBeNil)
			runtimeParams, err := runtime.Runtime()
			So(err, ShouldBeNil)
			So(runtimeParams.NbThreads, ShouldEqual, 8)
		})

		Convey("Materializing the same tuple twice should reproduce the same directory", func() {
			first, err := materializer.Materialize(testTuple())
			So(err, ShouldBeNil)
			second, err := materializer.Materialize(testTuple())
			So(err, ShouldBeNil)
			So(first.ID, ShouldEqual, second.ID)
			So(first.WorkDir, ShouldEqual, second.WorkDir)
		})

		Convey("An override key absent from the template should not fail materialization", func() {
			tuple := testTuple()
			tuple.InstrSet.Flags = append(tuple.InstrSet.Flags, sweep.InstructionFlag{Name: "useInstrZmmul", Value: true})

			unit, err := materializer.Materialize(tuple)
			So(err, ShouldBeNil)

			document, err := params.Load(path.Join(unit.WorkDir, "params", "trainParams.json"))
			So(err, ShouldBeNil)
			So(document.Has("useInstrZmmul"), ShouldBeFalse)
		})

		Convey("A missing params.json template should only warn", func() {
			So(os.Remove(path.Join(templateDir, "params.json")), ShouldBeNil)

			_, err := materializer.Materialize(testTuple())
			So(err, ShouldBeNil)
		})

		Convey("A missing trainParams.json template should be fatal for the unit", func() {
			So(os.Remove(path.Join(templateDir, "trainParams.json")), ShouldBeNil)

			_, err := materializer.Materialize(testTuple())
			So(err, ShouldNotBeNil)
		})

		Convey("A custom params.json path should take precedence", func() {
			customDir, err := ioutil.TempDir("", "custom_params")
			So(err, ShouldBeNil)
			defer os.RemoveAll(customDir)

			customPath := path.Join(customDir, "params.json")
			So(ioutil.WriteFile(customPath, []byte(`{"nbThreads": 2, "verbosity": 1}`), 0644), ShouldBeNil)

			custom := NewMaterializer(MaterializerConfig{
				RootDir:             rootDir,
				TemplateDir:         templateDir,
				CustomRuntimeParams: customPath,
				TrainingTime:        10 * time.Minute,
				Cores:               4,
			})

			unit, err := custom.Materialize(testTuple())
			So(err, ShouldBeNil)

			document, err := params.Load(path.Join(unit.WorkDir, "params", "params.json"))
			So(err, ShouldBeNil)
			So(document.Has("verbosity"), ShouldBeTrue)

			runtimeParams, err := document.Runtime()
			So(err, ShouldBeNil)
			So(runtimeParams.NbThreads, ShouldEqual, 4)
		})
	})
}
