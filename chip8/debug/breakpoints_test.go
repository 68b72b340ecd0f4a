package debug

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBreakpointsAdd(t *testing.T) {
	tests := []struct {
		name    string
		address uint16
		ok      bool
	}{
		{"program start", 0x200, true},
		{"last instruction", 0x208, true},
		{"odd address", 0x201, false},
		{"before program", 0x1FE, false},
		{"past program", 0x20A, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBreakpoints()
			bp, ok := b.Add(tt.address, 0x200, 10)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				require.NotNil(t, bp)
				assert.Equal(t, tt.address, bp.Address())
				assert.Equal(t, 0, bp.HitCount())
				assert.False(t, bp.IsActive())
			} else {
				assert.Nil(t, bp)
			}
		})
	}
}

func TestBreakpointsRejectDuplicates(t *testing.T) {
	b := NewBreakpoints()
	_, ok := b.Add(0x202, 0x200, 10)
	require.True(t, ok)

	_, ok = b.Add(0x202, 0x200, 10)
	assert.False(t, ok)
	assert.Equal(t, 1, b.Len())
}

func TestBreakpointsRemove(t *testing.T) {
	b := NewBreakpoints()
	added, _ := b.Add(0x204, 0x200, 10)

	removed, ok := b.Remove(0x204)
	assert.True(t, ok)
	assert.Same(t, added, removed)

	_, ok = b.Remove(0x204)
	assert.False(t, ok)
	_, ok = b.Get(0x204)
	assert.False(t, ok)
}

func TestBreakpointsCheckToggles(t *testing.T) {
	b := NewBreakpoints()
	bp, _ := b.Add(0x200, 0x200, 4)

	hit, halt := b.Check(0x202)
	assert.Nil(t, hit)
	assert.False(t, halt, "no breakpoint at address")

	for visit := 1; visit <= 6; visit++ {
		hit, halt = b.Check(0x200)
		if visit%2 == 1 {
			assert.True(t, halt, "visit %d pauses", visit)
			assert.Same(t, bp, hit)
			assert.True(t, bp.IsActive())
		} else {
			assert.False(t, halt, "visit %d executes", visit)
			assert.False(t, bp.IsActive())
		}
	}

	assert.Equal(t, 3, bp.HitCount())
}

func TestBreakpointsDisarm(t *testing.T) {
	b := NewBreakpoints()
	bp, _ := b.Add(0x200, 0x200, 4)
	b.Check(0x200)
	require.True(t, bp.IsActive())

	b.Disarm()

	assert.False(t, bp.IsActive())
	assert.Equal(t, 1, bp.HitCount())
}

func TestBreakpointNotify(t *testing.T) {
	b := NewBreakpoints()
	bp, _ := b.Add(0x200, 0x200, 4)

	var calls []int
	bp.OnHit(func(hit *Breakpoint) { calls = append(calls, hit.HitCount()) })
	bp.OnHit(func(hit *Breakpoint) { calls = append(calls, -hit.HitCount()) })

	b.Check(0x200)
	bp.NotifyHit()

	assert.Equal(t, []int{1, -1}, calls)
}

func TestBreakpointsAddresses(t *testing.T) {
	b := NewBreakpoints()
	for _, addr := range []uint16{0x206, 0x200, 0x204} {
		_, ok := b.Add(addr, 0x200, 8)
		require.True(t, ok)
	}

	assert.Equal(t, []uint16{0x200, 0x204, 0x206}, b.Addresses())
}
