// Package legal implements jurisdiction-specific tax constraint enforcement.
// Each jurisdiction is a pure module: the same candidate and situation always
// produce the same corrections, and re-applying a module to its own output
// yields no further violations.
package legal

import (
	"fmt"
	"sort"

	"github.com/steuerflow/steuerflow/internal/common"
	"github.com/steuerflow/steuerflow/internal/service"
)

// Registry resolves jurisdiction modules by ISO code.
type Registry struct {
	modules map[string]service.JurisdictionModule
}

// NewRegistry creates a registry with the given modules.
func NewRegistry(modules ...service.JurisdictionModule) *Registry {
	r := &Registry{modules: make(map[string]service.JurisdictionModule, len(modules))}
	for _, m := range modules {
		r.modules[m.Code()] = m
	}
	return r
}

// DefaultRegistry returns a registry with all built-in jurisdictions.
func DefaultRegistry() *Registry {
	return NewRegistry(NewGermany())
}

// Lookup returns the module for a jurisdiction code. An unknown code is a
// configuration error: it means a situation references a jurisdiction this
// build does not support.
func (r *Registry) Lookup(code string) (service.JurisdictionModule, error) {
	m, ok := r.modules[code]
	if !ok {
		return nil, fmt.Errorf("%w: %q", common.ErrUnknownJurisdiction, code)
	}
	return m, nil
}

// Codes lists the registered jurisdiction codes in sorted order.
func (r *Registry) Codes() []string {
	codes := make([]string, 0, len(r.modules))
	for code := range r.modules {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}
