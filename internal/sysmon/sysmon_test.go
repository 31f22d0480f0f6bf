package sysmon

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotHasCoreSections(t *testing.T) {
	m := NewMonitor()
	s := m.Snapshot(context.Background())
	require.NotNil(t, s)

	assert.NotZero(t, s.RAM.Total, "RAM total should be readable")
	assert.Positive(t, s.CPU.Cores)
	assert.NotEmpty(t, s.Runtime)
}

func TestSimpleMatchesSnapshotTotals(t *testing.T) {
	m := NewMonitor()
	full := m.Snapshot(context.Background())
	simple := m.Simple(context.Background())

	assert.Equal(t, full.RAM.Total, simple.RAM.Total)
	assert.Equal(t, full.CPU.Cores, simple.CPU.Cores)
}

func TestNetRatesFirstSampleIsZero(t *testing.T) {
	m := NewMonitor()
	rx, tx := m.netRates(context.Background())
	assert.Zero(t, rx)
	assert.Zero(t, tx)
}

func TestConcurrentSamplingIsSafe(t *testing.T) {
	m := NewMonitor()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.netRates(context.Background())
		}()
	}
	wg.Wait()

	// The baseline exists after the stampede; the next sample computes a
	// rate instead of re-seeding.
	assert.True(t, m.haveBase)
}
