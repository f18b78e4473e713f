package params

import (
	"io/ioutil"
	"os"
	"path"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

const commentedTemplate = `{
	// Random seed used by the trainer.
	"seed": 7,
	"instrType": "double", /* default arithmetic */
	"timeMaxTraining": 600,
	"mutationRate": 0.3
}`

func TestDocument(t *testing.T) {
	Convey("While parsing a commented config document", t, func() {
		document, err := Parse([]byte(commentedTemplate))
		So(err, ShouldBeNil)

		Convey("Line and block comments should be stripped", func() {
			train, err := document.Train()
			So(err, ShouldBeNil)
			So(train.Seed, ShouldEqual, 7)
			So(train.InstrType, ShouldEqual, "double")
			So(train.TimeMaxTraining, ShouldEqual, 600)
		})

		Convey("Unknown keys should be preserved in the field map", func() {
			So(document.Has("mutationRate"), ShouldBeTrue)
			value, ok := document.Get("mutationRate")
			So(ok, ShouldBeTrue)
			So(value, ShouldEqual, 0.3)
		})

		Convey("Overridden values should survive a save and reload", func() {
			document.Set("seed", 42)
			document.Set("instrSetName", "baseSet")

			dir, err := ioutil.TempDir("", "params")
			So(err, ShouldBeNil)
			defer os.RemoveAll(dir)

			rewritten := path.Join(dir, "trainParams.json")
			So(document.Save(rewritten), ShouldBeNil)

			// The rewritten document must be plain JSON without comments.
			data, err := ioutil.ReadFile(rewritten)
			So(err, ShouldBeNil)
			So(string(data), ShouldNotContainSubstring, "//")

			reloaded, err := Load(rewritten)
			So(err, ShouldBeNil)
			train, err := reloaded.Train()
			So(err, ShouldBeNil)
			So(train.Seed, ShouldEqual, 42)
			So(train.InstrSetName, ShouldEqual, "baseSet")
			So(reloaded.Has("mutationRate"), ShouldBeTrue)
		})
	})

	Convey("While parsing a malformed document", t, func() {
		_, err := Parse([]byte(`{"seed": }`))
		So(err, ShouldNotBeNil)
	})

	Convey("While loading a missing document", t, func() {
		_, err := Load("/nonexistent/trainParams.json")
		So(err, ShouldNotBeNil)
	})
}
