package metrics

import (
	"sync/atomic"
	"time"
)

type Collector struct {
	totalRequests    uint64
	errorRequests    uint64
	rateLimited      uint64
	totalDurationMs  uint64
	ledgerEntries    uint64
	payrollComputed  uint64
	recomputeRuns    uint64
	payslipsRendered uint64
}

func New() *Collector {
	return &Collector{}
}

func (c *Collector) Record(status int, duration time.Duration) {
	if c == nil {
		return
	}
	atomic.AddUint64(&c.totalRequests, 1)
	if status >= 500 {
		atomic.AddUint64(&c.errorRequests, 1)
	}
	if status == 429 {
		atomic.AddUint64(&c.rateLimited, 1)
	}
	atomic.AddUint64(&c.totalDurationMs, uint64(duration.Milliseconds()))
}

func (c *Collector) AddLedgerEntries(n int) {
	if c == nil || n <= 0 {
		return
	}
	atomic.AddUint64(&c.ledgerEntries, uint64(n))
}

func (c *Collector) AddPayrollComputed(n int) {
	if c == nil || n <= 0 {
		return
	}
	atomic.AddUint64(&c.payrollComputed, uint64(n))
}

func (c *Collector) IncRecompute() {
	if c == nil {
		return
	}
	atomic.AddUint64(&c.recomputeRuns, 1)
}

func (c *Collector) IncPayslip() {
	if c == nil {
		return
	}
	atomic.AddUint64(&c.payslipsRendered, 1)
}

func (c *Collector) Snapshot() map[string]any {
	if c == nil {
		return map[string]any{}
	}
	total := atomic.LoadUint64(&c.totalRequests)
	errs := atomic.LoadUint64(&c.errorRequests)
	limited := atomic.LoadUint64(&c.rateLimited)
	totalMs := atomic.LoadUint64(&c.totalDurationMs)
	avg := float64(0)
	if total > 0 {
		avg = float64(totalMs) / float64(total)
	}
	return map[string]any{
		"requestsTotal":         total,
		"errorsTotal":           errs,
		"rateLimitedTotal":      limited,
		"avgDurationMs":         avg,
		"totalDurationMs":       totalMs,
		"ledgerEntriesTotal":    atomic.LoadUint64(&c.ledgerEntries),
		"payrollComputedTotal":  atomic.LoadUint64(&c.payrollComputed),
		"recomputeRunsTotal":    atomic.LoadUint64(&c.recomputeRuns),
		"payslipsRenderedTotal": atomic.LoadUint64(&c.payslipsRendered),
	}
}
