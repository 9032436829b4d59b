// Package pipeline composes bidirectional data pipelines from pipe ends.
//
// A pipe end is an immutable description of a data source, a data sink, or
// a decorator around another end. The same end can be sucked from (it
// produces data) or blown into (it consumes data), if it supports that
// direction. Decorators own a buffer between themselves and the end they
// wrap, so a chain of N decorators around a terminal end runs N+1 workers
// over N internal buffers, plus the buffer shared by source and sink.
//
// Wiring is separate from running. Running an end against a Context only
// records buffers and workers in the context's ledger and attaches units of
// work; a Pipeline collects the ledgers of both directions and starts every
// unit at once. The first worker fault cancels the rest.
//
// # Ends
//
// Terminal ends:
//
//   - File, Reader, Writer, Streams: byte sources and sinks
//   - FromSlice, FromSeq, FromChannel: item sources
//   - FromAction, FromAsyncAction, Collect, Blackhole: item sinks
//
// Decorators:
//
//   - WrapStream, TransformStream: byte to byte
//   - Itemize: bytes to items
//   - Map, MapContext, Transform, Do, Filter, Batch: items to items
//
// # Usage
//
//	src := pipeline.Map(pipeline.FromSlice([]int{1, 2, 3}),
//	    func(n int) (string, error) { return strconv.Itoa(n), nil }, nil)
//	out, err := pipeline.ReadAll(ctx, src)
//
// Progress of a running pipeline is observable through Live.Report:
//
//	live, err := pipeline.New(source, sink).Start(ctx)
//	...
//	for _, w := range live.Report().Workers() {
//	    fmt.Println(w.Name, w.Verb, w.Processed, w.State)
//	}
//	err = live.Wait()
package pipeline
