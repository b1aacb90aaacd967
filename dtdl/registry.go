package dtdl

import (
	"errors"
	"fmt"
	"io/fs"
)

// A Registry holds parsed models indexed by their DTMI and preserves the
// order in which they were added.
//
// The zero value is not ready for use; call NewRegistry.
type Registry struct {
	models map[string]*Model
	order  []string
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{models: make(map[string]*Model)}
}

// Add registers the given model, replacing any previously registered model
// with the same DTMI.
func (r *Registry) Add(m *Model) {
	if _, exists := r.models[m.ID]; !exists {
		r.order = append(r.order, m.ID)
	}
	r.models[m.ID] = m
}

// Load parses every *.json document at the root of the given filesystem and
// registers the resulting models. Documents that fail to parse are skipped;
// their errors are joined into the returned error while the remaining
// documents still load. The returned count is the number of models loaded.
func (r *Registry) Load(fsys fs.FS) (int, error) {
	names, err := fs.Glob(fsys, "*.json")
	if err != nil {
		return 0, fmt.Errorf("glob model documents: %w", err)
	}

	var loaded int
	var errs []error
	for _, name := range names {
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			errs = append(errs, fmt.Errorf("read %s: %w", name, err))
			continue
		}
		m, err := ParseModel(data)
		if err != nil {
			errs = append(errs, fmt.Errorf("parse %s: %w", name, err))
			continue
		}
		r.Add(m)
		loaded++
	}
	return loaded, errors.Join(errs...)
}

// Model returns the model registered under the given DTMI.
func (r *Registry) Model(id string) (*Model, bool) {
	m, ok := r.models[id]
	return m, ok
}

// DisplayName resolves a DTMI to the model's display name. It implements
// the renderer's ModelLookup interface.
func (r *Registry) DisplayName(id string) (string, bool) {
	m, ok := r.models[id]
	if !ok {
		return "", false
	}
	return m.DisplayName, true
}

// Models returns all registered models in registration order.
func (r *Registry) Models() []*Model {
	models := make([]*Model, len(r.order))
	for i, id := range r.order {
		models[i] = r.models[id]
	}
	return models
}

// Len returns the number of registered models.
func (r *Registry) Len() int { return len(r.models) }
