package audio

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConstantWav(t *testing.T, path string, samples int, value float64) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	remaining := samples
	src := beep.StreamerFunc(func(buf [][2]float64) (int, bool) {
		if remaining == 0 {
			return 0, false
		}
		n := min(len(buf), remaining)
		for i := range n {
			buf[i] = [2]float64{value, value}
		}
		remaining -= n
		return n, true
	})
	format := beep.Format{SampleRate: 8000, NumChannels: 1, Precision: 2}
	require.NoError(t, wav.Encode(f, src, format))
}

func TestFileBackendPlaysToEnd(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tone.wav")
	writeConstantWav(t, path, 800, 0.5)

	backend := NewFileBackend(path, WithChunkDuration(5*time.Millisecond), WithLoop(false))
	assert.Equal(t, "tone.wav", backend.DeviceName())

	var (
		mu       sync.Mutex
		received []float32
	)
	stopped := make(chan error, 1)
	stream, err := backend.Open(func(samples []float32, rate int) {
		mu.Lock()
		defer mu.Unlock()
		assert.Equal(t, 8000, rate)
		received = append(received, samples...)
	}, func(err error) {
		stopped <- err
	})
	require.NoError(t, err)
	defer stream.Close()
	assert.Equal(t, 8000, stream.SampleRate())

	select {
	case err := <-stopped:
		assert.ErrorIs(t, err, ErrStreamStopped)
	case <-time.After(5 * time.Second):
		t.Fatal("file stream did not finish")
	}

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, received, 800)
	assert.InDelta(t, 0.5, received[0], 1e-3)
	assert.InDelta(t, 0.5, received[799], 1e-3)
}

func TestFileBackendLoopsUntilClosed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "loop.wav")
	writeConstantWav(t, path, 80, 0.25)

	var (
		mu    sync.Mutex
		count int
	)
	backend := NewFileBackend(path, WithChunkDuration(time.Millisecond))
	stream, err := backend.Open(func(samples []float32, _ int) {
		mu.Lock()
		count += len(samples)
		mu.Unlock()
	}, func(err error) {
		t.Errorf("unexpected stop: %v", err)
	})
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return count > 240
	}, 5*time.Second, time.Millisecond)
	require.NoError(t, stream.Close())
	require.NoError(t, stream.Close())
}

func TestFileBackendMissingFile(t *testing.T) {
	backend := NewFileBackend(filepath.Join(t.TempDir(), "missing.wav"))
	_, err := backend.Open(func([]float32, int) {}, func(error) {})
	assert.ErrorIs(t, err, ErrDeviceUnavailable)
}

func TestNewSourceFallsBackToZeroedBuffers(t *testing.T) {
	src := NewSource(filepath.Join(t.TempDir(), "missing.wav"), 128)
	defer src.Close()

	wave, spectrum := src.WaveAndSpectrum()
	assert.Len(t, wave, 128)
	assert.Len(t, spectrum, 128)
	assert.False(t, src.Info().Connected)
	assert.Equal(t, "missing.wav", src.Info().DeviceName)
}
