package dispatch

import (
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/allpaul0/tpg-nextflow/pkg/executor"
	"github.com/allpaul0/tpg-nextflow/pkg/experiment"
)

// inflight pairs a dispatched unit with its task handle.
type inflight struct {
	unit   *experiment.Unit
	handle executor.TaskHandle
}

// Dispatcher submits experiment units to the batch scheduler through the
// configured executor and tracks the resulting task handles.
type Dispatcher struct {
	executor executor.Executor
	config   Config

	mutex    sync.Mutex
	inflight []inflight
}

// NewDispatcher returns a dispatcher submitting through the given executor.
func NewDispatcher(exec executor.Executor, config Config) *Dispatcher {
	return &Dispatcher{
		executor: exec,
		config:   config,
	}
}

// Dispatch builds and submits the job request for one unit.
// Submission failure marks the unit failed; the sweep continues.
func (d *Dispatcher) Dispatch(unit *experiment.Unit) error {
	request := NewRequest(unit, d.config)
	command := request.Render(d.config.Image)

	logrus.Infof("Submitting experiment %q with wall time %s", unit.ID, request.Resources.WallTime)

	handle, err := d.executor.Execute(command)
	if err != nil {
		unit.Status = experiment.StatusFailed
		return errors.Wrapf(err, "could not submit experiment %q", unit.ID)
	}

	unit.Status = experiment.StatusSubmitted

	d.mutex.Lock()
	d.inflight = append(d.inflight, inflight{unit: unit, handle: handle})
	d.mutex.Unlock()

	return nil
}

// WaitAll blocks until every in-flight job terminated, bounded per job by the
// requested wall time ceiling, and resolves unit statuses from exit codes.
// A non-zero exit marks the unit failed; no partial result is surfaced for it.
func (d *Dispatcher) WaitAll() (completed, failed int) {
	d.mutex.Lock()
	jobs := make([]inflight, len(d.inflight))
	copy(jobs, d.inflight)
	d.mutex.Unlock()

	for _, job := range jobs {
		if job.handle.Status() == executor.RUNNING {
			job.unit.Status = experiment.StatusRunning
		}

		// The wall time already carries the safety margin over the training
		// budget; the scheduler enforces the same ceiling on its side.
		wallTime := WallTime(d.config.StopCriterion, d.config.TrainingTime)
		if terminated := job.handle.Wait(wallTime); !terminated {
			logrus.Errorf("Experiment %q exceeded its wall time ceiling, stopping", job.unit.ID)
			job.handle.Stop()
		}

		exitCode, err := job.handle.ExitCode()
		if err != nil || exitCode != 0 {
			job.unit.Status = experiment.StatusFailed
			failed++
			executor.LogUnsucessfulExecution(job.unit.ID, d.executor.Name(), job.handle)
			continue
		}

		job.unit.Status = experiment.StatusCompleted
		completed++
	}

	return completed, failed
}

// StopAll forwards a stop to every in-flight job. It is best-effort: the
// scheduler owns remote termination and a stop here cannot guarantee it.
func (d *Dispatcher) StopAll() {
	d.mutex.Lock()
	jobs := make([]inflight, len(d.inflight))
	copy(jobs, d.inflight)
	d.mutex.Unlock()

	for _, job := range jobs {
		if err := job.handle.Stop(); err != nil {
			logrus.Warnf("Could not stop experiment %q: %v", job.unit.ID, err)
		}
	}
}
