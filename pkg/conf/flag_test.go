package conf

import (
	"os"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestFlags(t *testing.T) {
	Convey("While using flags", t, func() {

		Convey("When some custom String Flag is defined", func() {
			flag := NewStringFlag("custom_string_arg", "help", "default")
			defer flag.clear()

			Convey("Without parse it should return default value", func() {
				isEnvParsed = false
				So(flag.Value(), ShouldEqual, "default")
			})

			Convey("When we define again the same flag it should return the same instance", func() {
				So(NewStringFlag("custom_string_arg", "help", "default"), ShouldEqual, flag)
			})

			Convey("When we set the corresponding env var, after parse it should return that value", func() {
				os.Setenv(flag.envName(), "non-default")

				err := ParseEnv()
				So(err, ShouldBeNil)

				So(flag.Value(), ShouldEqual, "non-default")
			})
		})

		Convey("When some custom Int Flag is defined", func() {
			flag := NewIntFlag("custom_int_arg", "help", 23)
			defer flag.clear()

			Convey("Without parse it should return default value", func() {
				isEnvParsed = false
				So(flag.Value(), ShouldEqual, 23)
			})

			Convey("When we set the corresponding env var, after parse it should return that value", func() {
				os.Setenv(flag.envName(), "42")

				err := ParseEnv()
				So(err, ShouldBeNil)

				So(flag.Value(), ShouldEqual, 42)
			})
		})

		Convey("When some custom Bool Flag is defined", func() {
			flag := NewBoolFlag("custom_bool_arg", "help", false)
			defer flag.clear()

			Convey("Without parse it should return default value", func() {
				isEnvParsed = false
				So(flag.Value(), ShouldBeFalse)
			})

			Convey("When we set the corresponding env var, after parse it should return that value", func() {
				os.Setenv(flag.envName(), "true")

				err := ParseEnv()
				So(err, ShouldBeNil)

				So(flag.Value(), ShouldBeTrue)
			})
		})

		Convey("When some custom Duration Flag is defined", func() {
			flag := NewDurationFlag("custom_duration_arg", "help", 99*time.Second)
			defer flag.clear()

			Convey("Without parse it should return default value", func() {
				isEnvParsed = false
				So(flag.Value(), ShouldEqual, 99*time.Second)
			})

			Convey("When we set the corresponding env var, after parse it should return that value", func() {
				os.Setenv(flag.envName(), "1h")

				err := ParseEnv()
				So(err, ShouldBeNil)

				So(flag.Value(), ShouldEqual, time.Hour)
			})
		})

		Convey("When some custom Slice Flag is defined", func() {
			flag := NewSliceFlag("custom_slice_arg", "help", "foo", "bar")
			defer flag.clear()

			Convey("When we set the corresponding env var, after parse it should return all items", func() {
				os.Setenv(flag.envName(), "A,B,C")

				err := ParseEnv()
				So(err, ShouldBeNil)

				So(flag.Value(), ShouldResemble, []string{"A", "B", "C"})
			})
		})
	})
}
