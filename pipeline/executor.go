package pipeline

import "context"

// Executor runs synchronous units of work. Execute must eventually call
// exactly one of run or skip; skip receives the reason a queued unit will
// never run. An error from Execute means the unit was not accepted.
type Executor interface {
	Execute(run func(), skip func(error)) error
}

// Joiner is implemented by executors owning resources, such as a dedicated
// goroutine, that must be released once the pipeline has finished.
type Joiner interface {
	Join()
}

// ExecutorFactory creates the executor for one synchronous worker. It is
// called once per worker with the pipeline's context.
type ExecutorFactory func(ctx context.Context) Executor

// GoExecutor runs every unit on a new goroutine.
type GoExecutor struct{}

// Execute implements Executor.
func (GoExecutor) Execute(run func(), _ func(error)) error {
	go run()
	return nil
}

func defaultExecutorFactory(context.Context) Executor { return GoExecutor{} }
