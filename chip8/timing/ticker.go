package timing

import (
	"sync"
	"time"
)

// Ticker is the periodic timer that paces the scheduler. It starts stopped.
// Each value received from C is the time of a fire; the scheduler derives
// the elapsed time between fires from it.
type Ticker interface {
	C() <-chan time.Time
	Start()
	Stop()
	Interval() time.Duration
	IsRunning() bool
}

// FrameTicker is a Ticker backed by time.Ticker.
type FrameTicker struct {
	mu       sync.Mutex
	ticker   *time.Ticker
	interval time.Duration
	running  bool
}

// NewFrameTicker creates a stopped ticker firing every interval.
func NewFrameTicker(interval time.Duration) *FrameTicker {
	t := time.NewTicker(interval)
	t.Stop()
	return &FrameTicker{
		ticker:   t,
		interval: interval,
	}
}

func (f *FrameTicker) C() <-chan time.Time {
	return f.ticker.C
}

func (f *FrameTicker) Start() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ticker.Reset(f.interval)
	f.running = true
}

func (f *FrameTicker) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ticker.Stop()
	f.running = false
}

func (f *FrameTicker) Interval() time.Duration {
	return f.interval
}

func (f *FrameTicker) IsRunning() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.running
}

// ManualTicker only fires when told to. It lets tests and embedders drive
// the scheduler deterministically.
type ManualTicker struct {
	mu       sync.Mutex
	ch       chan time.Time
	interval time.Duration
	running  bool
}

func NewManualTicker(interval time.Duration) *ManualTicker {
	return &ManualTicker{
		ch:       make(chan time.Time),
		interval: interval,
	}
}

func (m *ManualTicker) C() <-chan time.Time {
	return m.ch
}

func (m *ManualTicker) Start() {
	m.mu.Lock()
	m.running = true
	m.mu.Unlock()
}

func (m *ManualTicker) Stop() {
	m.mu.Lock()
	m.running = false
	m.mu.Unlock()
}

func (m *ManualTicker) Interval() time.Duration {
	return m.interval
}

func (m *ManualTicker) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// Fire delivers a tick at time at. It blocks until the tick is received and
// returns false without sending when the ticker is stopped.
func (m *ManualTicker) Fire(at time.Time) bool {
	if !m.IsRunning() {
		return false
	}
	m.ch <- at
	return true
}
