package audio

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/wav"
)

// DefaultChunkDuration is how much audio a file stream delivers per tick.
const DefaultChunkDuration = time.Second / 60

// FileBackendOption is a functional option for configuring a file backend.
type FileBackendOption func(b *fileBackend)

// WithChunkDuration sets how much audio is delivered per tick. Ticks follow wall-clock time so
// the file plays at its natural speed.
//
// Parameters:
//   - d: the chunk duration
//
// Returns:
//   - FileBackendOption: option function to apply
func WithChunkDuration(d time.Duration) FileBackendOption {
	return func(b *fileBackend) {
		if d > 0 {
			b.chunk = d
		}
	}
}

// WithLoop sets whether playback restarts at the end of the file. Defaults to true. When false
// the stream stops at the end and reports ErrStreamStopped.
//
// Parameters:
//   - loop: whether to loop
//
// Returns:
//   - FileBackendOption: option function to apply
func WithLoop(loop bool) FileBackendOption {
	return func(b *fileBackend) {
		b.loop = loop
	}
}

type fileBackend struct {
	path  string
	chunk time.Duration
	loop  bool
}

var _ Backend = &fileBackend{}

// NewFileBackend creates a Backend that plays a .wav file as if it were a live input.
//
// Parameters:
//   - path: the .wav file
//   - options: optional configuration
//
// Returns:
//   - Backend: the file backend
func NewFileBackend(path string, options ...FileBackendOption) Backend {
	b := &fileBackend{
		path:  path,
		chunk: DefaultChunkDuration,
		loop:  true,
	}
	for _, option := range options {
		option(b)
	}
	return b
}

func (b *fileBackend) DeviceName() string {
	return filepath.Base(b.path)
}

func (b *fileBackend) Open(onSamples SampleHandler, onStop StopHandler) (Stream, error) {
	f, err := os.Open(b.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}
	streamer, format, err := wav.Decode(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: failed to decode %s: %v", ErrDeviceUnavailable, b.path, err)
	}

	s := &fileStream{
		streamer:   streamer,
		sampleRate: int(format.SampleRate),
		done:       make(chan struct{}),
	}
	frames := format.SampleRate.N(b.chunk)
	if frames < 1 {
		frames = 1
	}
	s.wg.Add(1)
	go s.run(frames, b.chunk, b.loop, onSamples, onStop)
	return s, nil
}

type fileStream struct {
	streamer   beep.StreamSeekCloser
	sampleRate int

	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

var _ Stream = &fileStream{}

func (s *fileStream) SampleRate() int {
	return s.sampleRate
}

func (s *fileStream) Close() error {
	s.closeOnce.Do(func() {
		close(s.done)
	})
	s.wg.Wait()
	return nil
}

func (s *fileStream) run(frames int, tick time.Duration, loop bool, onSamples SampleHandler, onStop StopHandler) {
	defer s.wg.Done()
	defer s.streamer.Close()

	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	stereo := make([][2]float64, frames)
	mono := make([]float32, frames)
	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
		}

		n, ok := s.streamer.Stream(stereo)
		if n > 0 {
			for i := range n {
				mono[i] = float32((stereo[i][0] + stereo[i][1]) / 2)
			}
			onSamples(mono[:n], s.sampleRate)
		}
		if ok && n == len(stereo) {
			continue
		}
		if err := s.streamer.Err(); err != nil {
			onStop(fmt.Errorf("%w: %v", ErrStreamStopped, err))
			return
		}
		if !loop || s.streamer.Len() == 0 {
			onStop(ErrStreamStopped)
			return
		}
		if err := s.streamer.Seek(0); err != nil {
			onStop(fmt.Errorf("%w: %v", ErrStreamStopped, err))
			return
		}
	}
}
