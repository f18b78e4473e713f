// Package dispatch builds one schedulable job request per experiment unit and
// hands it to the batch scheduler. Queuing and parallelism are the scheduler's
// business; this package's contract ends at producing a correct,
// self-contained request and observing its outcome.
package dispatch

import (
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/allpaul0/tpg-nextflow/pkg/experiment"
)

// Paths inside the trainer container the unit directories are bound to.
// The binary behind them is opaque: configuration goes in, artifacts come out.
const (
	containerParamsPath  = "/armlearn-wrapper/params"
	containerOutLogsPath = "/armlearn-wrapper/outLogs"
)

// StopCriterion selects how the trainer decides it is done.
type StopCriterion string

const (
	// StopByTime stops the trainer after its configured time budget.
	StopByTime StopCriterion = "time"
	// StopByGenerations stops the trainer after a generation count.
	StopByGenerations StopCriterion = "generations"
)

// ParseStopCriterion validates a stop criterion tag.
func ParseStopCriterion(tag string) (StopCriterion, error) {
	switch StopCriterion(tag) {
	case StopByTime, StopByGenerations:
		return StopCriterion(tag), nil
	}
	return "", errors.Errorf("unrecognized stop criterion %q", tag)
}

// ResourceSpec is the resource annotation of a job request.
type ResourceSpec struct {
	CPUs     int
	Memory   string
	WallTime time.Duration
}

// BindMount exposes a host directory inside the trainer container.
type BindMount struct {
	HostPath      string
	ContainerPath string
	Mode          string
}

// JobRequest is one schedulable request for one experiment unit.
type JobRequest struct {
	Command    string
	Resources  ResourceSpec
	BindMounts []BindMount
	WorkDir    string
}

// Config carries the sweep-global dispatch parameters.
type Config struct {
	// Image is the trainer container image path.
	Image string
	// TrainerCommand is the command run inside the container.
	TrainerCommand string
	// CPUs is the per-unit core count.
	CPUs int
	// Memory is the per-unit memory request, in scheduler syntax (e.g. "8G").
	Memory string
	// TrainingTime is the per-unit training time budget.
	TrainingTime time.Duration
	// StopCriterion selects the wall-time policy.
	StopCriterion StopCriterion
}

// NewRequest builds the job request for one materialized unit, binding its
// `params/` in read-only and its `outLogs/` read-write.
func NewRequest(unit *experiment.Unit, config Config) JobRequest {
	return JobRequest{
		Command: config.TrainerCommand,
		Resources: ResourceSpec{
			CPUs:     config.CPUs,
			Memory:   config.Memory,
			WallTime: WallTime(config.StopCriterion, config.TrainingTime),
		},
		BindMounts: []BindMount{
			{HostPath: path.Join(unit.WorkDir, "params"), ContainerPath: containerParamsPath, Mode: "ro"},
			{HostPath: path.Join(unit.WorkDir, "outLogs"), ContainerPath: containerOutLogsPath, Mode: "rw"},
		},
		WorkDir: unit.WorkDir,
	}
}

// Render serializes the request into the batch submission command: an sbatch
// invocation wrapping an apptainer exec with the unit's bind mounts.
func (r JobRequest) Render(image string) string {
	binds := []string{}
	for _, mount := range r.BindMounts {
		binds = append(binds, fmt.Sprintf("-B %s:%s:%s", mount.HostPath, mount.ContainerPath, mount.Mode))
	}

	containerCommand := fmt.Sprintf("apptainer exec %s %s %s", strings.Join(binds, " "), image, r.Command)

	return fmt.Sprintf("sbatch --chdir=%s --cpus-per-task=%d --mem=%s --time=%s --wait --wrap='%s'",
		r.WorkDir, r.Resources.CPUs, r.Resources.Memory, formatWallTime(r.Resources.WallTime), containerCommand)
}

// formatWallTime renders a duration in the scheduler's HH:MM:SS syntax.
func formatWallTime(wallTime time.Duration) string {
	seconds := int(wallTime.Seconds())
	return fmt.Sprintf("%02d:%02d:%02d", seconds/3600, (seconds%3600)/60, seconds%60)
}
