package results

import (
	"bytes"
	"os"
	"path"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func writeUnit(t *testing.T, root, id, metrics, trainParams string) string {
	t.Helper()

	unitDir := path.Join(root, id)
	if err := os.MkdirAll(path.Join(unitDir, "outLogs"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(path.Join(unitDir, "params"), 0755); err != nil {
		t.Fatal(err)
	}

	if metrics != "" {
		if err := os.WriteFile(path.Join(unitDir, "outLogs", "garbage.ods"), []byte(metrics), 0644); err != nil {
			t.Fatal(err)
		}
	}
	if trainParams != "" {
		if err := os.WriteFile(path.Join(unitDir, "params", "trainParams.json"), []byte(trainParams), 0644); err != nil {
			t.Fatal(err)
		}
	}

	return unitDir
}

func TestParseMetricsFile(t *testing.T) {
	Convey("While parsing a trainer metrics file", t, func() {
		root := t.TempDir()

		Convey("The first line is discarded and the second names the columns", func() {
			unitDir := writeUnit(t, root, "unit",
				"Log of the training\ngen best avg\n0 0.50 0.30\n1 0.70 0.40\n", "")

			columns, rows, err := ParseMetricsFile(path.Join(unitDir, "outLogs", "garbage.ods"))
			So(err, ShouldBeNil)
			So(columns, ShouldResemble, []string{"gen", "best", "avg"})
			So(len(rows), ShouldEqual, 2)
			So(rows[0]["gen"], ShouldEqual, "0")
			So(rows[1]["best"], ShouldEqual, "0.70")
		})

		Convey("A file without its two-line header is an error", func() {
			unitDir := writeUnit(t, root, "short", "only one line", "")

			_, _, err := ParseMetricsFile(path.Join(unitDir, "outLogs", "garbage.ods"))
			So(err, ShouldNotBeNil)
		})
	})
}

func TestAggregateTraining(t *testing.T) {
	Convey("While aggregating training results across units", t, func() {
		root := t.TempDir()

		first := writeUnit(t, root, "seed-0_instrType-double",
			"log\ngen best avg\n0 0.50 0.30\n1 0.70 0.40\n",
			`{"seed": 0, "instrType": "double", "instrSetName": "full"}`)
		second := writeUnit(t, root, "seed-1_instrType-double",
			"log\ngen best avg\n0 0.55 0.35\n",
			`{"seed": 1, "instrType": "double", "instrSetName": "full"}`)
		// Unit whose job failed before writing metrics.
		third := writeUnit(t, root, "seed-2_instrType-double", "",
			`{"seed": 2, "instrType": "double", "instrSetName": "full"}`)

		Convey("A unit without a metrics file is skipped, not fatal", func() {
			table := AggregateTraining([]string{first, second, third})
			So(len(table.Rows), ShouldEqual, 3)
		})

		Convey("Rows are tagged with the unit's sweep coordinates", func() {
			table := AggregateTraining([]string{first, second})

			So(table.Rows[0]["seed"], ShouldEqual, "0")
			So(table.Rows[0]["instrType"], ShouldEqual, "double")
			So(table.Rows[0]["instrSetName"], ShouldEqual, "full")
			So(table.Rows[2]["seed"], ShouldEqual, "1")
		})

		Convey("Metric columns come first, tag columns last", func() {
			table := AggregateTraining([]string{first, second})
			So(table.Columns, ShouldResemble, []string{"gen", "best", "avg", "seed", "instrType", "instrSetName"})
		})

		Convey("A unit with fewer columns merges with empty cells", func() {
			narrow := writeUnit(t, root, "seed-3_instrType-double",
				"log\ngen best\n0 0.60\n",
				`{"seed": 3, "instrType": "double", "instrSetName": "full"}`)

			table := AggregateTraining([]string{first, narrow})
			So(table.Columns, ShouldResemble, []string{"gen", "best", "avg", "seed", "instrType", "instrSetName"})

			narrowRow := table.Rows[len(table.Rows)-1]
			So(narrowRow["best"], ShouldEqual, "0.60")
			So(narrowRow["avg"], ShouldEqual, "")
		})

		Convey("The CSV render starts with the header row", func() {
			table := AggregateTraining([]string{second})

			buffer := &bytes.Buffer{}
			So(table.WriteCSV(buffer), ShouldBeNil)
			So(buffer.String(), ShouldEqual,
				"gen,best,avg,seed,instrType,instrSetName\n0,0.55,0.35,1,double,full\n")
		})
	})
}
