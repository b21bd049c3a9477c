package facelandmarker

import (
	"context"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"

	"github.com/edgevision/facemark/logging"
)

// EngineBuilder constructs an Engine from validated options. Builders are
// registered by engine packages at init time.
type EngineBuilder func(ctx context.Context, opts *Options, logger logging.Logger) (Engine, error)

var (
	registryMu     sync.RWMutex
	engineRegistry = map[string]EngineBuilder{}
	extensionIndex = map[string]string{}
)

// RegisterEngine associates a named engine builder with the model file
// extensions it can load (e.g. ".tflite"). Programs select an engine
// implicitly by model extension or explicitly with Options.EngineName.
func RegisterEngine(name string, extensions []string, builder EngineBuilder) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if name == "" || builder == nil {
		panic(errors.New("engine registration needs a name and a builder"))
	}
	if _, ok := engineRegistry[name]; ok {
		panic(errors.Errorf("trying to register two engines with same name %s", name))
	}
	engineRegistry[name] = builder
	for _, ext := range extensions {
		ext = strings.ToLower(ext)
		if owner, ok := extensionIndex[ext]; ok {
			panic(errors.Errorf("trying to register two engines for same model extension %s (already owned by %s)", ext, owner))
		}
		extensionIndex[ext] = name
	}
}

// RegisteredEngines returns the names of all registered engines, sorted.
func RegisteredEngines() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(engineRegistry))
	for name := range engineRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// engineBuilderFor resolves a builder by explicit name when given, else by
// the model file extension.
func engineBuilderFor(name, modelPath string) (EngineBuilder, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	if name != "" {
		builder, ok := engineRegistry[name]
		if !ok {
			return nil, errors.Errorf("no engine named %q is registered", name)
		}
		return builder, nil
	}
	ext := strings.ToLower(filepath.Ext(modelPath))
	owner, ok := extensionIndex[ext]
	if !ok {
		return nil, errors.Errorf("no registered engine can load model files with extension %q", ext)
	}
	return engineRegistry[owner], nil
}
