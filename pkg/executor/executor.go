// Package executor provides the execution environment abstraction used to run
// external workloads. Workloads are executed asynchronously; an Executor
// returns a TaskHandle when the workload started gracefully.
package executor

// Executor is responsible for creating execution environment for given workload.
type Executor interface {
	// Execute executes command on underlying platform.
	Execute(command string) (TaskHandle, error)
	// Name returns user-friendly name of executor.
	Name() string
}
