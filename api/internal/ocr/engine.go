package ocr

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// Engine extracts plain text from an encoded image (PNG or JPEG).
type Engine interface {
	Name() string
	Extract(ctx context.Context, image []byte) (string, error)
}

// Engines holds the configured OCR engines by name.
type Engines struct {
	byName map[string]Engine
	def    string
}

func NewEngines(def string, engines ...Engine) *Engines {
	e := &Engines{byName: make(map[string]Engine, len(engines)), def: strings.ToLower(def)}
	for _, eng := range engines {
		if eng != nil {
			e.byName[strings.ToLower(eng.Name())] = eng
		}
	}
	return e
}

// GetEngine resolves name, falling back to the default when name is empty.
func (e *Engines) GetEngine(name string) (Engine, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = e.def
	}
	if eng, ok := e.byName[name]; ok {
		return eng, nil
	}
	return nil, fmt.Errorf("unknown ocr engine %q; available: %s", name, strings.Join(e.Names(), ", "))
}

func (e *Engines) Default() (Engine, error) { return e.GetEngine("") }

func (e *Engines) Names() []string {
	out := make([]string, 0, len(e.byName))
	for n := range e.byName {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
