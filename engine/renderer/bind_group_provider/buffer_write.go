package bind_group_provider

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/cubensis-go/engine/renderer/gpu"
)

// BufferWrite describes a single GPU buffer write operation targeting a specific binding
// on a BindGroupProvider at a given byte offset.
type BufferWrite struct {
	Provider BindGroupProvider
	Binding  uint32
	Offset   uint64
	Data     []byte
}

// WriteBuffers queues every write on dev. Writes whose binding has no buffer are skipped and
// reported in the returned error; the remaining writes still happen.
//
// Parameters:
//   - dev: the device to write through
//   - writes: the writes to perform
//
// Returns:
//   - error: the joined errors of every skipped or failed write
func WriteBuffers(dev gpu.Device, writes ...BufferWrite) error {
	var errs []error
	for _, w := range writes {
		buf := w.Provider.Buffer(w.Binding)
		if buf == nil {
			errs = append(errs, fmt.Errorf("%s: no buffer at binding %d", w.Provider.Label(), w.Binding))
			continue
		}
		if err := dev.WriteBuffer(buf, w.Offset, w.Data); err != nil {
			errs = append(errs, fmt.Errorf("%s: write to binding %d: %w", w.Provider.Label(), w.Binding, err))
		}
	}
	return errors.Join(errs...)
}
