package executor

import (
	"io/ioutil"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestLocal(t *testing.T) {
	Convey("While using Local executor", t, func() {
		local := NewLocal()

		Convey("When command ends successfully", func() {
			handle, err := local.Execute("echo output")
			So(err, ShouldBeNil)
			defer handle.EraseOutput()
			defer handle.Clean()

			So(handle.Wait(0), ShouldBeTrue)
			So(handle.Status(), ShouldEqual, TERMINATED)

			exitCode, err := handle.ExitCode()
			So(err, ShouldBeNil)
			So(exitCode, ShouldEqual, 0)

			stdoutFile, err := handle.StdoutFile()
			So(err, ShouldBeNil)
			content, err := ioutil.ReadAll(stdoutFile)
			So(err, ShouldBeNil)
			So(string(content), ShouldEqual, "output\n")
		})

		Convey("When command ends with non-zero exit code", func() {
			handle, err := local.Execute("exit 3")
			So(err, ShouldBeNil)
			defer handle.EraseOutput()
			defer handle.Clean()

			So(handle.Wait(0), ShouldBeTrue)

			exitCode, err := handle.ExitCode()
			So(err, ShouldBeNil)
			So(exitCode, ShouldEqual, 3)
		})

		Convey("When command is still running", func() {
			handle, err := local.Execute("sleep 10")
			So(err, ShouldBeNil)
			defer handle.EraseOutput()
			defer handle.Clean()

			So(handle.Status(), ShouldEqual, RUNNING)
			_, err = handle.ExitCode()
			So(err, ShouldNotBeNil)

			So(handle.Wait(50*time.Millisecond), ShouldBeFalse)

			Convey("It can be stopped before completion", func() {
				So(handle.Stop(), ShouldBeNil)
				So(handle.Status(), ShouldEqual, TERMINATED)

				exitCode, err := handle.ExitCode()
				So(err, ShouldBeNil)
				// SIGTERM is reported as a negated signal number.
				So(exitCode, ShouldEqual, -15)
			})
		})
	})
}
