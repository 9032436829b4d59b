// Package buffer provides the two bounded buffers that connect pipeline
// stages: Bytes, a byte channel with reader and writer halves and
// pause/resume back-pressure, and Items, a queue of typed values with
// explicit completion.
//
// Both kinds are safe for concurrent producers and consumers, report their
// occupancy and capacity for progress reporting, and can be aborted so that
// every blocked operation returns promptly when a pipeline is cancelled.
//
// # Usage
//
//	b := buffer.NewItems[string](16)
//	go func() {
//		defer b.CompleteAdding()
//		_ = b.Add(ctx, "a")
//	}()
//	for v, err := range b.Consume(ctx) {
//		...
//	}
package buffer
