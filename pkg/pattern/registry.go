package pattern

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/fsnotify.v1"
	"gopkg.in/yaml.v3"
)

// Registry manages a collection of outline pattern sets.
type Registry interface {
	// Register adds a pattern set to the registry.
	Register(outlinePattern *OutlinePattern) error

	// Unregister removes a pattern set from the registry.
	Unregister(formatID string) error

	// Get returns a pattern set by its format ID.
	Get(formatID string) (*OutlinePattern, bool)

	// List returns all registered pattern sets.
	List() []*OutlinePattern

	// Reload reloads all pattern sets from the configured directory.
	Reload() error

	// Watch starts watching the pattern directory for changes.
	Watch() error

	// StopWatch stops watching the pattern directory.
	StopWatch()

	// LoadDirectory loads all pattern files from a directory.
	LoadDirectory(dir string) error

	// LoadFile loads a single pattern file.
	LoadFile(path string) error
}

// DefaultRegistry is the default implementation of Registry. It always
// contains the built-in Default pattern set; directory loads layer
// additional or overriding sets on top.
type DefaultRegistry struct {
	mu       sync.RWMutex
	patterns map[string]*OutlinePattern
	dir      string
	watcher  *fsnotify.Watcher
	stopChan chan struct{}
	onChange func(event string, outlinePattern *OutlinePattern)
}

// NewRegistry creates a registry seeded with the built-in default pattern.
func NewRegistry() *DefaultRegistry {
	registry := &DefaultRegistry{
		patterns: make(map[string]*OutlinePattern),
	}
	defaultPattern := Default()
	registry.patterns[defaultPattern.FormatID] = defaultPattern
	return registry
}

// NewRegistryWithDirectory creates a registry and loads pattern files from
// the directory on top of the built-in default.
func NewRegistryWithDirectory(dir string) (*DefaultRegistry, error) {
	registry := NewRegistry()
	registry.dir = dir

	if err := registry.LoadDirectory(dir); err != nil {
		return nil, err
	}

	return registry, nil
}

// Register validates, compiles and adds a pattern set. An already
// registered format ID is replaced, which is how directory reloads push
// updated pattern files into a running process.
func (registry *DefaultRegistry) Register(outlinePattern *OutlinePattern) error {
	if outlinePattern == nil {
		return fmt.Errorf("pattern cannot be nil")
	}

	if err := outlinePattern.Validate(); err != nil {
		return fmt.Errorf("invalid pattern: %w", err)
	}

	if !outlinePattern.IsCompiled() {
		if err := outlinePattern.Compile(); err != nil {
			return fmt.Errorf("compiling pattern %q: %w", outlinePattern.FormatID, err)
		}
	}

	registry.mu.Lock()
	defer registry.mu.Unlock()
	registry.patterns[outlinePattern.FormatID] = outlinePattern
	return nil
}

// Unregister removes a pattern set from the registry.
func (registry *DefaultRegistry) Unregister(formatID string) error {
	registry.mu.Lock()
	defer registry.mu.Unlock()

	if _, ok := registry.patterns[formatID]; !ok {
		return fmt.Errorf("pattern %q not found", formatID)
	}

	delete(registry.patterns, formatID)
	return nil
}

// Get returns a pattern set by its format ID.
func (registry *DefaultRegistry) Get(formatID string) (*OutlinePattern, bool) {
	registry.mu.RLock()
	defer registry.mu.RUnlock()

	outlinePattern, ok := registry.patterns[formatID]
	return outlinePattern, ok
}

// List returns all registered pattern sets.
func (registry *DefaultRegistry) List() []*OutlinePattern {
	registry.mu.RLock()
	defer registry.mu.RUnlock()

	patterns := make([]*OutlinePattern, 0, len(registry.patterns))
	for _, outlinePattern := range registry.patterns {
		patterns = append(patterns, outlinePattern)
	}
	return patterns
}

// Count returns the number of registered pattern sets.
func (registry *DefaultRegistry) Count() int {
	registry.mu.RLock()
	defer registry.mu.RUnlock()
	return len(registry.patterns)
}

// LoadDirectory loads all YAML pattern files from a directory. A missing
// directory is not an error: the built-in default still applies.
func (registry *DefaultRegistry) LoadDirectory(dir string) error {
	registry.dir = dir

	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("checking directory %s: %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("reading directory %s: %w", dir, err)
	}

	var loadErrors []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()
		if !strings.HasSuffix(name, ".yaml") && !strings.HasSuffix(name, ".yml") {
			continue
		}

		path := filepath.Join(dir, name)
		if err := registry.LoadFile(path); err != nil {
			loadErrors = append(loadErrors, fmt.Sprintf("%s: %v", name, err))
		}
	}

	if len(loadErrors) > 0 {
		return fmt.Errorf("errors loading patterns: %s", strings.Join(loadErrors, "; "))
	}

	return nil
}

// LoadFile loads a single YAML pattern file.
func (registry *DefaultRegistry) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading file: %w", err)
	}

	var outlinePattern OutlinePattern
	if err := yaml.Unmarshal(data, &outlinePattern); err != nil {
		return fmt.Errorf("parsing YAML: %w", err)
	}

	if err := registry.Register(&outlinePattern); err != nil {
		return fmt.Errorf("registering pattern: %w", err)
	}

	return nil
}

// Reload resets the registry to the built-in default plus the configured
// directory's current contents.
func (registry *DefaultRegistry) Reload() error {
	if registry.dir == "" {
		return fmt.Errorf("no directory configured for reload")
	}

	registry.mu.Lock()
	registry.patterns = make(map[string]*OutlinePattern)
	defaultPattern := Default()
	registry.patterns[defaultPattern.FormatID] = defaultPattern
	registry.mu.Unlock()

	return registry.LoadDirectory(registry.dir)
}

// SetOnChange sets a callback invoked when a watched pattern file changes.
func (registry *DefaultRegistry) SetOnChange(fn func(event string, outlinePattern *OutlinePattern)) {
	registry.onChange = fn
}

// Watch starts watching the pattern directory for changes.
func (registry *DefaultRegistry) Watch() error {
	if registry.dir == "" {
		return fmt.Errorf("no directory configured for watching")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}

	registry.watcher = watcher
	registry.stopChan = make(chan struct{})

	go registry.watchLoop()

	if err := watcher.Add(registry.dir); err != nil {
		registry.watcher.Close()
		return fmt.Errorf("watching directory %s: %w", registry.dir, err)
	}

	return nil
}

// watchLoop handles file system events until StopWatch.
func (registry *DefaultRegistry) watchLoop() {
	for {
		select {
		case <-registry.stopChan:
			return

		case event, ok := <-registry.watcher.Events:
			if !ok {
				return
			}

			if !strings.HasSuffix(event.Name, ".yaml") && !strings.HasSuffix(event.Name, ".yml") {
				continue
			}

			switch {
			case event.Op&fsnotify.Create == fsnotify.Create:
				registry.handleFileChange(event.Name, "create")

			case event.Op&fsnotify.Write == fsnotify.Write:
				registry.handleFileChange(event.Name, "modify")

			case event.Op&fsnotify.Remove == fsnotify.Remove:
				registry.handleFileRemove()

			case event.Op&fsnotify.Rename == fsnotify.Rename:
				registry.handleFileRemove()
			}

		case _, ok := <-registry.watcher.Errors:
			if !ok {
				return
			}
		}
	}
}

// handleFileChange handles creation or modification of a pattern file.
func (registry *DefaultRegistry) handleFileChange(path string, eventType string) {
	if err := registry.LoadFile(path); err != nil {
		return
	}

	if registry.onChange != nil {
		if outlinePattern, ok := registry.getPatternByFile(path); ok {
			registry.onChange(eventType, outlinePattern)
		}
	}
}

// handleFileRemove handles removal of a pattern file. The registry does
// not track file-to-pattern mapping, so a removal triggers a full reload.
func (registry *DefaultRegistry) handleFileRemove() {
	if err := registry.Reload(); err != nil {
		return
	}

	if registry.onChange != nil {
		registry.onChange("remove", nil)
	}
}

// getPatternByFile finds the pattern loaded from the given file, using the
// filename as the format ID heuristic.
func (registry *DefaultRegistry) getPatternByFile(path string) (*OutlinePattern, bool) {
	base := filepath.Base(path)
	formatID := strings.TrimSuffix(strings.TrimSuffix(base, ".yaml"), ".yml")

	return registry.Get(formatID)
}

// StopWatch stops watching the pattern directory.
func (registry *DefaultRegistry) StopWatch() {
	if registry.stopChan != nil {
		close(registry.stopChan)
	}
	if registry.watcher != nil {
		registry.watcher.Close()
	}
}
