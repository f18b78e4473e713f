package sweep

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	. "github.com/smartystreets/goconvey/convey"
)

const sweepDefinition = `
seeds: 0-1
dataTypes: double,int
instructionSets:
  - name: baseSet
    flags:
      - useInstrTrig: true
      - useInstrLogExp: false
  - name: extendedSet
    flags:
      - useInstrTrig: true
      - useInstrLogExp: true
`

func TestDefinition(t *testing.T) {
	Convey("While loading a sweep definition", t, func() {
		space, err := parseDefinition([]byte(sweepDefinition))
		So(err, ShouldBeNil)

		Convey("All dimensions should be populated", func() {
			So(space.Seeds, ShouldResemble, []int{0, 1})
			So(space.DataTypes, ShouldResemble, []DataType{Double, Integer})
			So(len(space.InstructionSets), ShouldEqual, 2)
		})

		Convey("Flag declaration order should be preserved", func() {
			expected := []InstructionFlag{
				{Name: "useInstrTrig", Value: true},
				{Name: "useInstrLogExp", Value: false},
			}
			So(cmp.Diff(expected, space.InstructionSets[0].Flags), ShouldBeEmpty)
		})

		Convey("The expanded space should cover the full product", func() {
			So(len(space.Expand()), ShouldEqual, 8)
		})
	})

	Convey("While loading a malformed sweep definition", t, func() {
		Convey("An unknown data type should be sweep-fatal", func() {
			_, err := parseDefinition([]byte("seeds: 0-1\ndataTypes: quad\ninstructionSets:\n  - name: baseSet\n"))
			So(err, ShouldNotBeNil)
		})

		Convey("A definition without instruction sets should be sweep-fatal", func() {
			_, err := parseDefinition([]byte("seeds: 0-1\ndataTypes: double\n"))
			So(err, ShouldNotBeNil)
		})

		Convey("An unnamed instruction set should be sweep-fatal", func() {
			_, err := parseDefinition([]byte("seeds: 0-1\ndataTypes: double\ninstructionSets:\n  - flags:\n      - useInstrTrig: true\n"))
			So(err, ShouldNotBeNil)
		})
	})
}
