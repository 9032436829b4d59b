// Package report renders and serves progress reports of running pipelines.
//
// A Renderer turns a pipeline.Report into output; Console is the terminal
// flavour. Watch renders a live pipeline on a fixed interval until it
// resolves. A Registry keeps track of live pipelines so that Register can
// expose them over HTTP and Check can feed the server health endpoints.
package report
