package hub

import (
	"sync"
	"time"
)

// Progress is mutated in place by the download engine and read by the
// caller. It has reference semantics: pass the same *Progress to Download
// and keep reading it from another goroutine if desired.
type Progress struct {
	mu sync.Mutex

	// Total is the expected number of bytes for the current operation, or
	// 0 if unknown.
	Total int64
	// Completed is the number of bytes written so far. It grows as bytes
	// stream in; a retry re-seeds it from the staging file's size, and it
	// drops to zero when a server ignores a Range request and the transfer
	// restarts.
	Completed int64
	// UserInfo carries auxiliary fields; "throughput" holds the most
	// recently computed bytes/second as a float64.
	UserInfo map[string]any

	lastSample     time.Time
	lastCompleted  int64
	throughputFreq time.Duration
}

// NewProgress returns a zero-valued Progress ready for use.
func NewProgress() *Progress {
	return &Progress{UserInfo: make(map[string]any), throughputFreq: 100 * time.Millisecond}
}

// setTotal records the expected size. Safe for concurrent use.
func (p *Progress) setTotal(total int64) {
	if p == nil {
		return
	}
	p.mu.Lock()
	p.Total = total
	p.mu.Unlock()
}

// add advances Completed by n bytes and, at most every throughputFreq,
// recomputes instantaneous throughput into UserInfo["throughput"].
func (p *Progress) add(n int64) {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Completed += n
	now := time.Now()
	if p.lastSample.IsZero() {
		p.lastSample = now
		p.lastCompleted = p.Completed
		return
	}
	elapsed := now.Sub(p.lastSample)
	if elapsed < p.throughputFreq {
		return
	}
	delta := p.Completed - p.lastCompleted
	if p.UserInfo == nil {
		p.UserInfo = make(map[string]any)
	}
	p.UserInfo["throughput"] = float64(delta) / elapsed.Seconds()
	p.lastSample = now
	p.lastCompleted = p.Completed
}

// setCompleted sets Completed to an absolute byte count, unlike add which
// is cumulative. Used to seed progress from an on-disk resume offset at
// the start of each retry attempt, so re-running the same attempt never
// double-counts bytes already reflected on a prior attempt.
func (p *Progress) setCompleted(n int64) {
	if p == nil {
		return
	}
	p.mu.Lock()
	p.Completed = n
	p.mu.Unlock()
}

// resetCompleted zeroes Completed, used when a server ignores a Range
// resume request and restarts the transfer from byte zero.
func (p *Progress) resetCompleted() {
	if p == nil {
		return
	}
	p.mu.Lock()
	p.Completed = 0
	p.mu.Unlock()
}

// complete marks the progress as fully done, setting Completed to Total
// (used for the cache-hit short-circuit path where no bytes are streamed).
func (p *Progress) complete(total int64) {
	if p == nil {
		return
	}
	p.mu.Lock()
	p.Total = total
	p.Completed = total
	p.mu.Unlock()
}

// Snapshot returns a consistent copy of the counters for display.
func (p *Progress) Snapshot() (total, completed int64, userInfo map[string]any) {
	if p == nil {
		return 0, 0, nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make(map[string]any, len(p.UserInfo))
	for k, v := range p.UserInfo {
		out[k] = v
	}
	return p.Total, p.Completed, out
}
