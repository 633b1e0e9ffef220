package testutil

import "github.com/vk/musicscripts/internal/registry"

// SimpleModule is a test helper registering a single handler.
type SimpleModule struct {
	Kind    registry.Kind
	Name    string
	Handler registry.Handler
}

// Register implements the registry.Module interface.
func (m *SimpleModule) Register(s *registry.Set) {
	if m.Name != "" && m.Handler != nil {
		s.Of(m.Kind).Register(m.Name, m.Handler)
	}
}
