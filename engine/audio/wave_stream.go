package audio

import (
	"log"
	"sync"
	"time"
)

// ReconnectCooldown is the minimum time between two attempts to reopen a stream that is down.
const ReconnectCooldown = 5 * time.Second

// WaveStream is a Source over a Backend. Samples are analysed on the backend goroutine and handed
// to the render thread through two mailboxes. When the stream is down the last buffers keep being
// returned, and a reconnect is attempted at most once per cooldown.
type WaveStream struct {
	backend    Backend
	bufferSize int
	cooldown   time.Duration
	now        func() time.Time

	wave     *Mailbox[[]float32]
	spectrum *Mailbox[[]float32]

	mu          sync.Mutex
	stream      Stream
	generation  int
	sampleRate  int
	lastAttempt time.Time
	closed      bool

	// Touched only by the render thread.
	lastWave     []float32
	lastSpectrum []float32
}

var _ Source = &WaveStream{}

// NewWaveStream creates a WaveStream and tries to open the backend immediately. A failed open is
// logged and retried after the cooldown.
//
// Parameters:
//   - backend: the sample source
//   - bufferSize: the waveform length and FFT size
//   - options: optional configuration
//
// Returns:
//   - *WaveStream: the stream
func NewWaveStream(backend Backend, bufferSize int, options ...WaveStreamBuilderOption) *WaveStream {
	ws := &WaveStream{
		backend:    backend,
		bufferSize: bufferSize,
		cooldown:   ReconnectCooldown,
		now:        time.Now,
	}
	for _, option := range options {
		option(ws)
	}

	zeros := make([]float32, bufferSize)
	ws.wave = NewMailbox(zeros)
	ws.spectrum = NewMailbox(zeros)
	ws.lastWave = zeros
	ws.lastSpectrum = zeros

	ws.mu.Lock()
	ws.connectLocked()
	ws.mu.Unlock()
	return ws
}

// WaveAndSpectrum returns the newest buffers and retries a dead stream when the cooldown expired.
func (ws *WaveStream) WaveAndSpectrum() (wave, spectrum []float32) {
	ws.mu.Lock()
	if ws.stream == nil && !ws.closed && ws.now().Sub(ws.lastAttempt) > ws.cooldown {
		ws.connectLocked()
	}
	ws.mu.Unlock()

	if w, ok := ws.wave.Load(); ok {
		ws.lastWave = w
	}
	if s, ok := ws.spectrum.Load(); ok {
		ws.lastSpectrum = s
	}
	return ws.lastWave, ws.lastSpectrum
}

// Info describes the backend and whether a stream is open.
func (ws *WaveStream) Info() Info {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	return Info{
		DeviceName: ws.backend.DeviceName(),
		SampleRate: ws.sampleRate,
		Connected:  ws.stream != nil,
	}
}

// Close stops the stream. Further reconnects are not attempted.
func (ws *WaveStream) Close() error {
	ws.mu.Lock()
	stream := ws.stream
	ws.stream = nil
	ws.closed = true
	ws.generation++
	ws.mu.Unlock()

	if stream == nil {
		return nil
	}
	return stream.Close()
}

// connectLocked opens the backend. Callbacks carry the generation they were opened with so a
// late callback from a previous stream cannot touch the new one.
func (ws *WaveStream) connectLocked() {
	ws.lastAttempt = ws.now()
	ws.generation++
	gen := ws.generation

	var analyzer *Analyzer
	onSamples := func(samples []float32, sampleRate int) {
		if analyzer == nil || analyzer.SampleRate() != sampleRate {
			analyzer = NewAnalyzer(ws.bufferSize, sampleRate)
		}
		analyzer.Push(samples)
		ws.wave.Store(analyzer.Wave())
		ws.spectrum.Store(analyzer.Spectrum())
	}
	onStop := func(err error) {
		ws.mu.Lock()
		defer ws.mu.Unlock()
		if ws.generation != gen || ws.stream == nil {
			return
		}
		log.Printf("[Audio] stream from %s stopped: %v", ws.backend.DeviceName(), err)
		stale := ws.stream
		ws.stream = nil
		ws.lastAttempt = ws.now()
		go stale.Close()
	}

	stream, err := ws.backend.Open(onSamples, onStop)
	if err != nil {
		log.Printf("[Audio] failed to open %s, retrying in %s: %v", ws.backend.DeviceName(), ws.cooldown, err)
		return
	}
	ws.stream = stream
	ws.sampleRate = stream.SampleRate()
	log.Printf("[Audio] streaming from %s at %d Hz", ws.backend.DeviceName(), ws.sampleRate)
}
