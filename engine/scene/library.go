package scene

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/cubensis-go/common"
)

// DefaultMaxDepth is how many directory levels below the library root are searched for scenes.
const DefaultMaxDepth = 5

var (
	// ErrSceneNotFound is returned when a scene name is not in the library.
	ErrSceneNotFound = errors.New("scene not found")

	// ErrEmptyLibrary is returned when no scene file could be loaded and no fallback was configured.
	ErrEmptyLibrary = errors.New("scene library is empty")
)

// Library is the set of scenes discovered in a directory tree, grouped by name.
// When two files declare the same name, the first one in walk order wins.
// Safe for concurrent use.
type Library interface {
	// Dir returns the library root directory.
	Dir() string

	// CurrentName returns the name of the current scene.
	CurrentName() string

	// CurrentScene returns a copy of the current scene.
	CurrentScene() Scene

	// SetCurrent selects the scene with the given name.
	//
	// Parameters:
	//   - name: the scene name
	//
	// Returns:
	//   - error: ErrSceneNotFound if no scene has that name
	SetCurrent(name string) error

	// Scene returns a copy of the named scene.
	//
	// Parameters:
	//   - name: the scene name
	//
	// Returns:
	//   - Scene: the scene
	//   - bool: false if no scene has that name
	Scene(name string) (Scene, bool)

	// SceneNames returns every scene name in sorted order.
	SceneNames() []string

	// ResolvePath resolves a scene-relative asset path against the library root.
	// Absolute paths are returned cleaned.
	//
	// Parameters:
	//   - path: the path as written in the scene file
	//
	// Returns:
	//   - string: the resolved path
	ResolvePath(path string) string

	// Reload walks the library directory again. The current scene name is kept when it still exists.
	//
	// Returns:
	//   - error: ErrEmptyLibrary if nothing could be loaded
	Reload() error
}

type library struct {
	mu          sync.RWMutex
	dir         string
	workers     int
	maxDepth    int
	fallback    *Scene
	scenes      map[string][]Scene
	currentName string
}

var _ Library = &library{}

// LoadLibrary walks dir for scene files and builds a Library from them.
// Unreadable or malformed files are logged and skipped.
// The current scene is preferredName if present, then the default scene name, then the first
// name in sorted order.
//
// Parameters:
//   - dir: the library root directory
//   - preferredName: the scene to select initially
//   - options: optional configuration
//
// Returns:
//   - Library: the loaded library
//   - error: ErrEmptyLibrary if no scene was found and no fallback was configured
func LoadLibrary(dir, preferredName string, options ...LibraryBuilderOption) (Library, error) {
	l := &library{
		dir:      filepath.Clean(dir),
		workers:  runtime.NumCPU(),
		maxDepth: DefaultMaxDepth,
	}
	for _, option := range options {
		option(l)
	}

	scenes, err := l.load()
	if err != nil {
		return nil, err
	}
	l.scenes = scenes
	l.currentName = pickCurrent(scenes, preferredName)
	log.Printf("[Library] loaded %d scene(s) from %s, current %q", len(scenes), l.dir, l.currentName)
	return l, nil
}

func (l *library) Dir() string {
	return l.dir
}

func (l *library) CurrentName() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.currentName
}

func (l *library) CurrentScene() Scene {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.scenes[l.currentName][0].Clone()
}

func (l *library) SetCurrent(name string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.scenes[name]; !ok {
		return fmt.Errorf("%w: %q", ErrSceneNotFound, name)
	}
	l.currentName = name
	return nil
}

func (l *library) Scene(name string) (Scene, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	group, ok := l.scenes[name]
	if !ok {
		return Scene{}, false
	}
	return group[0].Clone(), true
}

func (l *library) SceneNames() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return sortedNames(l.scenes)
}

func (l *library) ResolvePath(path string) string {
	if path == "" {
		return ""
	}
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(l.dir, filepath.FromSlash(path))
}

func (l *library) Reload() error {
	scenes, err := l.load()
	if err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.scenes = scenes
	l.currentName = pickCurrent(scenes, l.currentName)
	return nil
}

// load discovers scene files and decodes them on a worker pool. Results keep walk order so the
// first file of a duplicated name wins deterministically.
func (l *library) load() (map[string][]Scene, error) {
	files, err := l.discover()
	if err != nil {
		if l.fallback == nil || !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
		files = nil
	}

	results := make([]*Scene, len(files))
	if len(files) > 0 {
		pool := worker.NewDynamicWorkerPool(l.workers, len(files), 1*time.Second)
		var wg sync.WaitGroup
		for i, path := range files {
			wg.Add(1)
			pool.SubmitTask(worker.Task{
				ID:      i,
				Payload: path,
				Do: func() (any, error) {
					defer wg.Done()
					s, err := Load(path)
					if err != nil {
						log.Printf("[Library] skipping %s: %v", path, err)
						return nil, err
					}
					results[i] = &s
					return s, nil
				},
			})
		}
		wg.Wait()
		pool.Stop()
	}

	scenes := make(map[string][]Scene)
	for _, s := range results {
		if s == nil {
			continue
		}
		common.Debugf("[Library] importing scene %q from %s", s.Name, s.SourcePath)
		scenes[s.Name] = append(scenes[s.Name], *s)
	}

	if len(scenes) == 0 {
		if l.fallback == nil {
			return nil, fmt.Errorf("%w: %s", ErrEmptyLibrary, l.dir)
		}
		log.Printf("[Library] no scenes found in %s, using %q", l.dir, l.fallback.Name)
		scenes[l.fallback.Name] = []Scene{l.fallback.Clone()}
	}
	return scenes, nil
}

// discover returns every scene file under the root within maxDepth, in lexical walk order.
// Symlinked files are followed.
func (l *library) discover() ([]string, error) {
	var files []string
	err := filepath.WalkDir(l.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == l.dir {
				return err
			}
			common.Debugf("[Library] cannot inspect %s: %v", path, err)
			return nil
		}
		depth := pathDepth(l.dir, path)
		if d.IsDir() {
			if path != l.dir && depth >= l.maxDepth {
				return filepath.SkipDir
			}
			return nil
		}
		if depth > l.maxDepth || !strings.HasSuffix(d.Name(), FileExtension) {
			return nil
		}
		if d.Type()&fs.ModeSymlink != 0 {
			info, err := os.Stat(path)
			if err != nil || !info.Mode().IsRegular() {
				return nil
			}
		} else if !d.Type().IsRegular() {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk scene library %s: %w", l.dir, err)
	}
	return files, nil
}

// pathDepth counts the path elements of path below root. Files directly in root have depth 1.
func pathDepth(root, path string) int {
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == "." {
		return 0
	}
	return len(strings.Split(rel, string(filepath.Separator)))
}

func pickCurrent(scenes map[string][]Scene, preferred string) string {
	if _, ok := scenes[preferred]; ok {
		return preferred
	}
	if _, ok := scenes[Default().Name]; ok {
		return Default().Name
	}
	return sortedNames(scenes)[0]
}

func sortedNames(scenes map[string][]Scene) []string {
	names := make([]string, 0, len(scenes))
	for name := range scenes {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
