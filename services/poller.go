package services

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"idealista-watcher/models"
	"idealista-watcher/utils"
)

// Cycler runs one pipeline cycle.
type Cycler interface {
	RunCycle(ctx context.Context) *models.CycleReport
}

// Poller drives cycles one after another, sleeping a random interval in
// [min, max) between them. Cycles never overlap.
type Poller struct {
	cycler Cycler
	min    time.Duration
	max    time.Duration
	logger *utils.Logger

	rngMu sync.Mutex
	rng   *rand.Rand

	mu   sync.RWMutex
	last *models.CycleReport
}

// NewPoller creates a Poller. max is raised to min when smaller.
func NewPoller(c Cycler, min, max time.Duration, logger *utils.Logger) *Poller {
	if max < min {
		max = min
	}
	return &Poller{
		cycler: c,
		min:    min,
		max:    max,
		logger: logger,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// RunOnce executes a single cycle. A panic inside the cycle is logged and
// swallowed so the driver keeps going.
func (p *Poller) RunOnce(ctx context.Context) (report *models.CycleReport) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("[poller] Cycle panicked: %v", r)
			report = nil
		}
	}()

	report = p.cycler.RunCycle(ctx)

	p.mu.Lock()
	p.last = report
	p.mu.Unlock()
	return report
}

// Run loops until ctx is cancelled.
func (p *Poller) Run(ctx context.Context) {
	p.logger.Info("[poller] Polling every %v-%v", p.min, p.max)

	for ctx.Err() == nil {
		p.RunOnce(ctx)

		wait := p.NextInterval()
		p.logger.Debug("[poller] Next cycle in %v", wait.Round(time.Second))

		select {
		case <-ctx.Done():
		case <-time.After(wait):
		}
	}
	p.logger.Info("[poller] Stopping: %v", ctx.Err())
}

// NextInterval draws the wait before the next cycle.
func (p *Poller) NextInterval() time.Duration {
	span := p.max - p.min
	if span <= 0 {
		return p.min
	}
	p.rngMu.Lock()
	defer p.rngMu.Unlock()
	return p.min + time.Duration(p.rng.Int63n(int64(span)))
}

// LastReport returns the most recent cycle report, or nil before the first cycle.
func (p *Poller) LastReport() *models.CycleReport {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.last
}
