package audio

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStream struct {
	rate   int
	closed atomic.Bool
}

func (s *fakeStream) SampleRate() int { return s.rate }
func (s *fakeStream) Close() error    { s.closed.Store(true); return nil }

type fakeBackend struct {
	mu        sync.Mutex
	failNext  int
	opens     int
	onSamples SampleHandler
	onStop    StopHandler
	streams   []*fakeStream
}

func (b *fakeBackend) DeviceName() string { return "fake" }

func (b *fakeBackend) Open(onSamples SampleHandler, onStop StopHandler) (Stream, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.opens++
	if b.failNext > 0 {
		b.failNext--
		return nil, ErrDeviceUnavailable
	}
	b.onSamples = onSamples
	b.onStop = onStop
	s := &fakeStream{rate: 16384}
	b.streams = append(b.streams, s)
	return s, nil
}

func (b *fakeBackend) openCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.opens
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func TestWaveStreamStartsZeroed(t *testing.T) {
	backend := &fakeBackend{failNext: 1}
	ws := NewWaveStream(backend, 256, WithClock(newClock().Now))

	wave, spectrum := ws.WaveAndSpectrum()
	assert.Len(t, wave, 256)
	assert.Len(t, spectrum, 256)
	for _, v := range wave {
		assert.Zero(t, v)
	}
	assert.False(t, ws.Info().Connected)
}

func TestWaveStreamReconnectCooldown(t *testing.T) {
	clock := newClock()
	backend := &fakeBackend{failNext: 2}
	ws := NewWaveStream(backend, 64, WithClock(clock.Now))
	require.Equal(t, 1, backend.openCount())

	clock.Advance(time.Second)
	ws.WaveAndSpectrum()
	assert.Equal(t, 1, backend.openCount())

	clock.Advance(ReconnectCooldown - time.Second)
	ws.WaveAndSpectrum()
	assert.Equal(t, 1, backend.openCount(), "retry must wait strictly longer than the cooldown")

	clock.Advance(time.Millisecond)
	ws.WaveAndSpectrum()
	assert.Equal(t, 2, backend.openCount())

	ws.WaveAndSpectrum()
	assert.Equal(t, 2, backend.openCount())

	clock.Advance(ReconnectCooldown + time.Millisecond)
	ws.WaveAndSpectrum()
	assert.Equal(t, 3, backend.openCount())
	assert.True(t, ws.Info().Connected)
	assert.Equal(t, 16384, ws.Info().SampleRate)
}

func TestWaveStreamDeliversLatestSamples(t *testing.T) {
	backend := &fakeBackend{}
	ws := NewWaveStream(backend, 4, WithClock(newClock().Now))
	require.True(t, ws.Info().Connected)

	backend.onSamples([]float32{1, 2}, 16384)
	backend.onSamples([]float32{3, 4, 5}, 16384)

	wave, spectrum := ws.WaveAndSpectrum()
	assert.Equal(t, []float32{2, 3, 4, 5}, wave)
	assert.Len(t, spectrum, BinCount(4, 16384))

	again, _ := ws.WaveAndSpectrum()
	assert.Equal(t, wave, again)
}

func TestWaveStreamRecoversAfterStop(t *testing.T) {
	clock := newClock()
	backend := &fakeBackend{}
	ws := NewWaveStream(backend, 16, WithClock(clock.Now))

	backend.onStop(errors.New("unplugged"))
	assert.False(t, ws.Info().Connected)
	assert.Eventually(t, backend.streams[0].closed.Load, time.Second, time.Millisecond)

	clock.Advance(ReconnectCooldown + time.Millisecond)
	ws.WaveAndSpectrum()
	assert.Equal(t, 2, backend.openCount())
	assert.True(t, ws.Info().Connected)
}

func TestWaveStreamIgnoresStaleStop(t *testing.T) {
	clock := newClock()
	backend := &fakeBackend{}
	ws := NewWaveStream(backend, 16, WithClock(clock.Now))
	staleStop := backend.onStop

	staleStop(ErrStreamStopped)
	clock.Advance(ReconnectCooldown + time.Millisecond)
	ws.WaveAndSpectrum()
	require.True(t, ws.Info().Connected)

	staleStop(ErrStreamStopped)
	assert.True(t, ws.Info().Connected)
}

func TestWaveStreamClose(t *testing.T) {
	clock := newClock()
	backend := &fakeBackend{}
	ws := NewWaveStream(backend, 16, WithClock(clock.Now))

	require.NoError(t, ws.Close())
	assert.True(t, backend.streams[0].closed.Load())

	clock.Advance(time.Minute)
	ws.WaveAndSpectrum()
	assert.Equal(t, 1, backend.openCount())
}
