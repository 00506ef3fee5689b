// Package audio turns a live sample stream into the waveform and spectrum buffers the renderer
// uploads every frame. Streams come from a capture device (malgo) or a looping .wav file (beep).
package audio

import (
	"errors"
	"fmt"
)

var (
	// ErrDeviceUnavailable is returned when no capture device can be opened.
	ErrDeviceUnavailable = errors.New("audio device unavailable")

	// ErrStreamStopped is reported to the stop handler when a running stream ends unexpectedly.
	ErrStreamStopped = errors.New("audio stream stopped")
)

// Info describes the stream feeding a Source.
type Info struct {
	DeviceName string
	SampleRate int
	Connected  bool
}

func (i Info) String() string {
	if !i.Connected {
		return fmt.Sprintf("%s (disconnected)", i.DeviceName)
	}
	return fmt.Sprintf("%s @ %d Hz", i.DeviceName, i.SampleRate)
}

// Source provides the latest waveform and spectrum. Implementations never block and always return
// buffers, zeroed when no stream is connected. Lengths may change between calls.
type Source interface {
	// WaveAndSpectrum returns the newest waveform and spectrum. Callers must not modify them.
	WaveAndSpectrum() (wave, spectrum []float32)

	// Info describes the current stream.
	Info() Info

	// Close stops the stream.
	Close() error
}

// SampleHandler receives mono float32 samples and the stream sample rate from a backend goroutine.
type SampleHandler func(samples []float32, sampleRate int)

// StopHandler is called at most once when a stream ends on its own.
type StopHandler func(err error)

// Stream is an open backend stream.
type Stream interface {
	SampleRate() int
	Close() error
}

// Backend opens sample streams. A backend can be opened again after its stream stops.
type Backend interface {
	// DeviceName names the device or file the backend reads.
	DeviceName() string

	// Open starts a stream that delivers samples to onSamples until it is closed or fails.
	// Open must not wait on either handler.
	//
	// Parameters:
	//   - onSamples: called from the backend goroutine for every chunk
	//   - onStop: called if the stream ends without Close
	//
	// Returns:
	//   - Stream: the running stream
	//   - error: error if the stream cannot be started
	Open(onSamples SampleHandler, onStop StopHandler) (Stream, error)
}

// CaptureSourceName selects the default capture device in NewSource.
const CaptureSourceName = "capture"

// NewSource creates the Source named by the audio.source setting: CaptureSourceName for the
// default input device, otherwise a path to a .wav file that is looped.
//
// Parameters:
//   - name: CaptureSourceName or a .wav path
//   - bufferSize: the waveform length and FFT size
//   - options: optional WaveStream configuration
//
// Returns:
//   - Source: the source
func NewSource(name string, bufferSize int, options ...WaveStreamBuilderOption) Source {
	var backend Backend
	if name == "" || name == CaptureSourceName {
		backend = NewCaptureBackend()
	} else {
		backend = NewFileBackend(name)
	}
	return NewWaveStream(backend, bufferSize, options...)
}
