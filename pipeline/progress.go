package pipeline

import "sync/atomic"

// Progress is a worker's best-effort counter of processed units against an
// optional total. Units are whatever the worker moves: bytes or items.
type Progress struct {
	total     atomic.Int64
	hasTotal  atomic.Bool
	processed atomic.Int64
}

// ReportTotal records the expected number of units.
func (p *Progress) ReportTotal(n int64) {
	p.total.Store(n)
	p.hasTotal.Store(true)
}

// ReportProcessed records the absolute number of units processed so far.
func (p *Progress) ReportProcessed(n int64) { p.processed.Store(n) }

// AddProcessed adds n units to the processed count.
func (p *Progress) AddProcessed(n int64) { p.processed.Add(n) }

// Total returns the expected number of units, if one was reported.
func (p *Progress) Total() (int64, bool) {
	if !p.hasTotal.Load() {
		return 0, false
	}
	return p.total.Load(), true
}

// Processed returns the number of units processed so far.
func (p *Progress) Processed() int64 { return p.processed.Load() }
