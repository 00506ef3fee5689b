package audio

import (
	"encoding/binary"
	"fmt"
	"math"
	"sync"

	"github.com/gen2brain/malgo"
)

// DefaultCaptureDevice is the name reported before a capture device has been opened.
const DefaultCaptureDevice = "default input"

type captureBackend struct {
	mu   sync.Mutex
	name string
}

var _ Backend = &captureBackend{}

// NewCaptureBackend creates a Backend that records from the system default input device.
//
// Returns:
//   - Backend: the capture backend
func NewCaptureBackend() Backend {
	return &captureBackend{name: DefaultCaptureDevice}
}

func (b *captureBackend) DeviceName() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.name
}

func (b *captureBackend) Open(onSamples SampleHandler, onStop StopHandler) (Stream, error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}

	if name := defaultCaptureName(ctx); name != "" {
		b.mu.Lock()
		b.name = name
		b.mu.Unlock()
	}

	cfg := malgo.DefaultDeviceConfig(malgo.Capture)
	cfg.Capture.Format = malgo.FormatF32
	cfg.Capture.Channels = 1
	cfg.Alsa.NoMMap = 1

	s := &captureStream{ctx: ctx}
	var samples []float32
	callbacks := malgo.DeviceCallbacks{
		Data: func(_, input []byte, frameCount uint32) {
			n := int(frameCount)
			if len(input) < n*4 {
				n = len(input) / 4
			}
			if cap(samples) < n {
				samples = make([]float32, n)
			}
			samples = samples[:n]
			for i := range samples {
				samples[i] = math.Float32frombits(binary.LittleEndian.Uint32(input[i*4:]))
			}
			onSamples(samples, s.sampleRate)
		},
		Stop: func() {
			if !s.closing() {
				onStop(ErrStreamStopped)
			}
		},
	}

	device, err := malgo.InitDevice(ctx.Context, cfg, callbacks)
	if err != nil {
		s.freeContext()
		return nil, fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}
	s.device = device
	s.sampleRate = int(device.SampleRate())

	if err := device.Start(); err != nil {
		device.Uninit()
		s.freeContext()
		return nil, fmt.Errorf("%w: failed to start capture: %v", ErrDeviceUnavailable, err)
	}
	return s, nil
}

func defaultCaptureName(ctx *malgo.AllocatedContext) string {
	infos, err := ctx.Devices(malgo.Capture)
	if err != nil {
		return ""
	}
	for i := range infos {
		if infos[i].IsDefault != 0 {
			return infos[i].Name()
		}
	}
	if len(infos) > 0 {
		return infos[0].Name()
	}
	return ""
}

type captureStream struct {
	ctx        *malgo.AllocatedContext
	device     *malgo.Device
	sampleRate int

	mu     sync.Mutex
	closed bool
}

var _ Stream = &captureStream{}

func (s *captureStream) SampleRate() int {
	return s.sampleRate
}

func (s *captureStream) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	s.device.Uninit()
	s.freeContext()
	return nil
}

func (s *captureStream) closing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *captureStream) freeContext() {
	_ = s.ctx.Uninit()
	s.ctx.Free()
}
