package prompt

import (
	"cmp"
	"context"
	"maps"
	"slices"
	"strings"
	"sync"

	goerrors "github.com/kbukum/vidprofile/errors"
)

// Store is a source of named prompt templates.
type Store interface {
	// Get returns the template or a TEMPLATE_NOT_FOUND error.
	Get(ctx context.Context, name string) (Template, error)
	// Update replaces (or creates) the text of a template. Variables are
	// recomputed from the placeholders in text.
	Update(ctx context.Context, name, text string) (Template, error)
	// List returns all templates sorted by name.
	List(ctx context.Context) ([]Template, error)
	// Reset restores the built-in text of name, or of every template when
	// name is empty. Non-default templates are removed.
	Reset(ctx context.Context, name string) error
}

// MemoryStore is an in-process Store seeded with the defaults.
type MemoryStore struct {
	mu        sync.RWMutex
	templates map[string]Template
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates a MemoryStore holding the default templates.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{templates: Defaults()}
}

// Get returns the template by name.
func (s *MemoryStore) Get(_ context.Context, name string) (Template, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.templates[name]
	if !ok {
		return Template{}, goerrors.TemplateNotFound(name)
	}
	return t.clone(), nil
}

// Update replaces the text of name.
func (s *MemoryStore) Update(_ context.Context, name, text string) (Template, error) {
	existing, found := s.lookup(name)
	t, err := updated(existing, found, name, text)
	if err != nil {
		return Template{}, err
	}
	s.mu.Lock()
	s.templates[name] = t
	s.mu.Unlock()
	return t.clone(), nil
}

// List returns all templates sorted by name.
func (s *MemoryStore) List(_ context.Context) ([]Template, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Template, 0, len(s.templates))
	for _, t := range s.templates {
		out = append(out, t.clone())
	}
	sortByName(out)
	return out, nil
}

// Reset restores defaults for name, or for all templates when name is empty.
func (s *MemoryStore) Reset(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if name == "" {
		s.templates = Defaults()
		return nil
	}
	if d, ok := Default(name); ok {
		s.templates[name] = d
		return nil
	}
	if _, ok := s.templates[name]; !ok {
		return goerrors.TemplateNotFound(name)
	}
	delete(s.templates, name)
	return nil
}

func (s *MemoryStore) lookup(name string) (Template, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.templates[name]
	return t, ok
}

// updated builds the replacement for an existing (or default) template.
func updated(existing Template, found bool, name, text string) (Template, error) {
	if strings.TrimSpace(name) == "" {
		return Template{}, goerrors.MissingField("name")
	}
	if strings.TrimSpace(text) == "" {
		return Template{}, goerrors.InvalidInput("template", "must not be empty")
	}
	t := Template{Name: name}
	if found {
		t.Description = existing.Description
	} else if d, ok := Default(name); ok {
		t.Description = d.Description
	}
	t.Template = text
	t.Variables = Placeholders(text)
	return t, nil
}

func sortByName(ts []Template) {
	slices.SortFunc(ts, func(a, b Template) int { return cmp.Compare(a.Name, b.Name) })
}

// defaultNames returns the built-in template names, sorted.
func defaultNames() []string {
	return slices.Sorted(maps.Keys(Defaults()))
}
