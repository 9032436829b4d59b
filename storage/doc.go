// Package storage provides object storage abstractions with pluggable
// backends, and a pipe end that streams objects in and out of pipelines.
//
// # Backends
//
//   - storage/local: local filesystem
//   - storage/s3: Amazon S3 and S3-compatible storage
//   - storage/memory: in-process map, for tests and scratch data
//
// Backends register themselves with New when imported:
//
//	import _ "github.com/kbukum/pipekit/storage/s3"
//
//	s, err := storage.New(storage.Config{Provider: "s3", Bucket: "logs"}, log)
//	err = pipeline.Copy(ctx, storage.PipeEnd(s, "2024/01/app.log"), pipeline.File("app.log"))
//
// # Configuration
//
//	storage:
//	  provider: "s3"
//	  bucket: "my-bucket"
//	  region: "us-east-1"
package storage
