package player

import (
	"context"
	"errors"
	"math"
	"sync/atomic"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openSimulated(t *testing.T, d time.Duration) *SimulatedSource {
	t.Helper()
	src, err := NewSimulated(d).Open(context.Background(), "https://cdn.example.com/lesson.mp3")
	require.NoError(t, err)
	return src.(*SimulatedSource)
}

func TestSimulatedSource_AdvancesWithClock(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		src := openSimulated(t, time.Minute)
		assert.Equal(t, Stopped, src.State())
		assert.Equal(t, "lesson.mp3", src.Info().Title)

		require.NoError(t, src.Play())
		time.Sleep(3 * time.Second)
		assert.Equal(t, 3*time.Second, src.Position())

		src.SetRate(2)
		time.Sleep(time.Second)
		assert.Equal(t, 5*time.Second, src.Position())

		src.Pause()
		time.Sleep(10 * time.Second)
		assert.Equal(t, 5*time.Second, src.Position())
		assert.Equal(t, Paused, src.State())

		require.NoError(t, src.Close())
	})
}

func TestSimulatedSource_FinishesOnce(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		src := openSimulated(t, 10*time.Second)
		var calls atomic.Int32
		src.OnFinished(func() { calls.Add(1) })

		require.NoError(t, src.Play())
		time.Sleep(4 * time.Second)
		require.NoError(t, src.Seek(8*time.Second))
		time.Sleep(time.Minute)
		synctest.Wait()

		assert.Equal(t, int32(1), calls.Load())
		assert.Equal(t, Stopped, src.State())
		assert.Equal(t, 10*time.Second, src.Position())

		// Play after the end restarts from the beginning.
		require.NoError(t, src.Play())
		assert.Equal(t, time.Duration(0), src.Position())
		require.NoError(t, src.Close())
	})
}

func TestSimulatedSource_PausedDoesNotFinish(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		src := openSimulated(t, 2*time.Second)
		var calls atomic.Int32
		src.OnFinished(func() { calls.Add(1) })

		require.NoError(t, src.Play())
		time.Sleep(time.Second)
		src.Pause()
		time.Sleep(time.Minute)
		synctest.Wait()

		assert.Zero(t, calls.Load())
	})
}

func TestSimulatedSource_SeekClampsAndRecords(t *testing.T) {
	src := openSimulated(t, 30*time.Second)

	require.NoError(t, src.Seek(-time.Second))
	assert.Equal(t, time.Duration(0), src.Position())

	require.NoError(t, src.Seek(time.Hour))
	assert.Equal(t, 30*time.Second, src.Position())

	boom := errors.New("transport rejected seek")
	src.FailSeeks(boom)
	assert.ErrorIs(t, src.Seek(5*time.Second), boom)
	assert.Equal(t, 30*time.Second, src.Position())

	assert.Equal(t, []time.Duration{-time.Second, time.Hour, 5 * time.Second}, src.Seeks())
}

func TestSimulatedSource_ClosedRejectsPlay(t *testing.T) {
	src := openSimulated(t, time.Second)
	require.NoError(t, src.Close())
	assert.ErrorIs(t, src.Play(), ErrClosed)
	assert.True(t, src.Closed())
}

func TestSimulated_OpenHonorsCancel(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		sim := NewSimulated(time.Minute)
		sim.Delay = time.Second

		ctx, cancel := context.WithCancel(context.Background())
		errCh := make(chan error, 1)
		go func() {
			_, err := sim.Open(ctx, "a.mp3")
			errCh <- err
		}()

		synctest.Wait()
		cancel()
		assert.ErrorIs(t, <-errCh, context.Canceled)
		assert.Empty(t, sim.Sources())
	})
}

func TestSimulatedSource_VolumeIgnoresNaN(t *testing.T) {
	src := openSimulated(t, time.Second)
	src.SetVolume(0.4)
	src.SetVolume(math.NaN())
	assert.InDelta(t, 0.4, src.Volume(), 1e-9)
}
