package symtab

import (
	"fmt"
	"sync"

	"github.com/sunholo/ailang/internal/atom"
)

// Model owns every Module in a run and designates the root "main" module.
type Model struct {
	mu      sync.Mutex
	modules map[*atom.Atom]*Module
	main    *Module
}

// NewModel creates an empty model.
func NewModel() *Model {
	return &Model{modules: make(map[*atom.Atom]*Module)}
}

// ErrDuplicateModule is returned by AddModule when the name is already used.
type ErrDuplicateModule struct{ Name *atom.Atom }

func (e *ErrDuplicateModule) Error() string {
	return fmt.Sprintf("duplicate module name %q", e.Name)
}

// AddModule registers mod in the model. The first module named "main"
// becomes the model's root, matching the modelling language's
// convention of a distinguished top-level module.
func (m *Model) AddModule(mod *Module) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.modules[mod.Name]; ok {
		return &ErrDuplicateModule{Name: mod.Name}
	}
	m.modules[mod.Name] = mod
	if mod.Name.String() == "main" {
		m.main = mod
	}
	return nil
}

// Module looks up a module by name.
func (m *Model) Module(name *atom.Atom) (*Module, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	mod, ok := m.modules[name]
	return mod, ok
}

// Main returns the root module, or nil if none was registered as "main".
func (m *Model) Main() *Module {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.main
}

// Modules returns every registered module, in no particular order.
func (m *Model) Modules() []*Module {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Module, 0, len(m.modules))
	for _, mod := range m.modules {
		out = append(out, mod)
	}
	return out
}
