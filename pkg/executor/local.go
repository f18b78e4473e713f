package executor

import (
	"io"
	"io/ioutil"
	"os"
	"os/exec"
	"path"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Local provisioning is responsible for providing the execution environment
// on local machine via exec.Command. It runs command as current user.
type Local struct {
}

// NewLocal returns a Local instance.
func NewLocal() Local {
	return Local{}
}

// Name returns user-friendly name of executor.
func (l Local) Name() string {
	return "Local Executor"
}

// Execute runs the command given as input.
// Returned TaskHandle is able to stop & monitor the provisioned process.
func (l Local) Execute(command string) (TaskHandle, error) {
	logrus.Debugf("Starting %q locally", command)

	outputDir, err := ioutil.TempDir("", "local_"+commandName(command)+"_")
	if err != nil {
		return nil, errors.Wrap(err, "could not create output directory for task")
	}

	stdoutFile, err := os.Create(path.Join(outputDir, "stdout"))
	if err != nil {
		return nil, errors.Wrap(err, "could not create stdout file for task")
	}
	stderrFile, err := os.Create(path.Join(outputDir, "stderr"))
	if err != nil {
		return nil, errors.Wrap(err, "could not create stderr file for task")
	}

	cmd := exec.Command("sh", "-c", command)
	// Additional process group is set for the parent process and its children
	// to have the ability to kill all of them at once.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Stdout = stdoutFile
	cmd.Stderr = stderrFile

	if err := cmd.Start(); err != nil {
		return nil, errors.Wrapf(err, "could not start %q", command)
	}

	logrus.Debugf("Started %q with pid %d", command, cmd.Process.Pid)

	taskHandle := &localTaskHandle{
		command:    command,
		pid:        cmd.Process.Pid,
		terminated: make(chan struct{}),
		stdoutFile: stdoutFile,
		stderrFile: stderrFile,
	}

	// Wait for the task termination in a goroutine; Wait() and Status() only
	// observe the terminated channel and the recorded exit code.
	go func() {
		cmd.Wait()

		var exitCode int
		waitStatus := cmd.ProcessState.Sys().(syscall.WaitStatus)
		if waitStatus.Exited() {
			exitCode = waitStatus.ExitStatus()
		} else {
			// Show what signal caused the termination.
			exitCode = -int(waitStatus.Signal())
		}

		logrus.Debugf("Ended %q with exit code %d; stdout in %q, stderr in %q",
			command, exitCode, stdoutFile.Name(), stderrFile.Name())

		taskHandle.exitCode = exitCode
		close(taskHandle.terminated)
	}()

	return taskHandle, nil
}

// localTaskHandle implements TaskHandle for processes started by Local.
type localTaskHandle struct {
	command    string
	pid        int
	exitCode   int
	terminated chan struct{}
	stdoutFile *os.File
	stderrFile *os.File
	stopOnce   sync.Once
}

// isTerminated returns true without blocking when the process has ended.
func (handle *localTaskHandle) isTerminated() bool {
	select {
	case <-handle.terminated:
		return true
	default:
		return false
	}
}

// Stop terminates the local task.
func (handle *localTaskHandle) Stop() error {
	if handle.isTerminated() {
		return nil
	}

	var err error
	handle.stopOnce.Do(func() {
		// We signal the entire process group.
		// The kill syscall interprets a negated PID N as the process group N belongs to.
		logrus.Debugf("Sending SIGTERM to process group %d", handle.pid)
		err = syscall.Kill(-handle.pid, syscall.SIGTERM)
	})
	if err != nil {
		return errors.Wrapf(err, "could not stop task %q", handle.command)
	}

	<-handle.terminated
	return nil
}

// Status returns a state of the task.
func (handle *localTaskHandle) Status() TaskState {
	if handle.isTerminated() {
		return TERMINATED
	}
	return RUNNING
}

// ExitCode returns an exit code. If task is not terminated it returns error.
func (handle *localTaskHandle) ExitCode() (int, error) {
	if !handle.isTerminated() {
		return 0, errors.Errorf("task %q is still running", handle.command)
	}
	return handle.exitCode, nil
}

// StdoutFile returns a file handle to the task's stdout file.
func (handle *localTaskHandle) StdoutFile() (*os.File, error) {
	if _, err := handle.stdoutFile.Seek(0, io.SeekStart); err != nil {
		return nil, errors.Wrap(err, "could not rewind stdout file")
	}
	return handle.stdoutFile, nil
}

// StderrFile returns a file handle to the task's stderr file.
func (handle *localTaskHandle) StderrFile() (*os.File, error) {
	if _, err := handle.stderrFile.Seek(0, io.SeekStart); err != nil {
		return nil, errors.Wrap(err, "could not rewind stderr file")
	}
	return handle.stderrFile, nil
}

// Wait blocks until process is terminated or timeout elapsed.
// Returns true when process terminates before timeout, otherwise false.
func (handle *localTaskHandle) Wait(timeout time.Duration) bool {
	if handle.isTerminated() {
		return true
	}

	if timeout == 0 {
		<-handle.terminated
		return true
	}

	select {
	case <-handle.terminated:
		return true
	case <-time.After(timeout):
		return false
	}
}

// Clean closes the task's stdout & stderr files.
func (handle *localTaskHandle) Clean() error {
	if err := handle.stdoutFile.Close(); err != nil {
		return errors.Wrap(err, "could not close stdout file")
	}
	if err := handle.stderrFile.Close(); err != nil {
		return errors.Wrap(err, "could not close stderr file")
	}
	return nil
}

// EraseOutput removes task's stdout & stderr files.
func (handle *localTaskHandle) EraseOutput() error {
	outputDir := path.Dir(handle.stdoutFile.Name())
	if err := os.RemoveAll(outputDir); err != nil {
		return errors.Wrapf(err, "could not remove output directory %q", outputDir)
	}
	return nil
}

// Address returns address where task was located.
func (handle *localTaskHandle) Address() string {
	return "127.0.0.1"
}

func commandName(command string) string {
	_, name := path.Split(command)
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return "task"
	}
	return fields[0]
}
