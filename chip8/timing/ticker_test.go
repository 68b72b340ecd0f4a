package timing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFrameDuration(t *testing.T) {
	assert.InDelta(t, 16.667, float64(FrameDuration())/float64(time.Millisecond), 0.001)
}

func TestFrameTickerStartStop(t *testing.T) {
	ticker := NewFrameTicker(time.Millisecond)
	assert.False(t, ticker.IsRunning())
	assert.Equal(t, time.Millisecond, ticker.Interval())

	ticker.Start()
	assert.True(t, ticker.IsRunning())
	select {
	case <-ticker.C():
	case <-time.After(time.Second):
		t.Fatal("ticker did not fire")
	}

	ticker.Stop()
	assert.False(t, ticker.IsRunning())
}

func TestManualTicker(t *testing.T) {
	ticker := NewManualTicker(FrameDuration())
	at := time.Unix(100, 0)

	assert.False(t, ticker.Fire(at), "stopped ticker does not fire")

	ticker.Start()
	received := make(chan time.Time, 1)
	go func() { received <- <-ticker.C() }()

	assert.True(t, ticker.Fire(at))
	assert.Equal(t, at, <-received)
}

func TestNoOpLimiter(t *testing.T) {
	l := NewNoOpLimiter()
	start := time.Now()
	for i := 0; i < 100; i++ {
		l.WaitForNextFrame()
	}
	l.Reset()
	assert.Less(t, time.Since(start), 100*time.Millisecond)
}
