// Package serial provides a scheduler that runs every unit of work on one
// dedicated goroutine, in submission order.
//
// A pipeline configured with pipeline.WithSerialExecution creates one
// Scheduler per synchronous worker, so a worker never migrates between
// goroutines and never shares its goroutine with another worker.
//
//	s := serial.New(ctx)
//	_ = s.Execute(func() { work() }, func(err error) { skipped(err) })
//	s.Join()
package serial
