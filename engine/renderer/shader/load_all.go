package shader

import (
	"errors"
	"runtime"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
)

// LoadAll loads and validates every path on a worker pool. Results are positionally aligned
// with paths. Every failure is returned, joined, so one bad pass does not hide another.
//
// Parameters:
//   - paths: the shader files to load
//   - pp: the pre-processor shared by all loads
//
// Returns:
//   - []*Module: the modules, nil where loading failed
//   - error: the joined *ValidationError values, or nil
func LoadAll(paths []string, pp PreProcessor) ([]*Module, error) {
	modules := make([]*Module, len(paths))
	if len(paths) == 0 {
		return modules, nil
	}
	if len(paths) == 1 {
		m, err := Load(paths[0], pp)
		modules[0] = m
		return modules, err
	}

	errs := make([]error, len(paths))
	pool := worker.NewDynamicWorkerPool(min(runtime.NumCPU(), len(paths)), len(paths), 1*time.Second)
	var wg sync.WaitGroup
	for i, path := range paths {
		wg.Add(1)
		pool.SubmitTask(worker.Task{
			ID:      i,
			Payload: path,
			Do: func() (any, error) {
				defer wg.Done()
				m, err := Load(path, pp)
				modules[i], errs[i] = m, err
				return m, err
			},
		})
	}
	wg.Wait()
	pool.Stop()
	return modules, errors.Join(errs...)
}
