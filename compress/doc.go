// Package compress provides byte-stream transforms for pipelines.
//
// Each transform decompresses when its pipe end is sucked from and
// compresses when it is blown into:
//
//	src := compress.GZip(pipeline.File("in.csv.gz"), gzip.DefaultCompression)
//	dst := compress.Zstd(pipeline.File("out.csv.zst"), zstd.SpeedDefault)
//	err := pipeline.Copy(ctx, src, dst)
//
// BZip2 only decompresses.
package compress
