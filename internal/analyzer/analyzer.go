package analyzer

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Result is the cleaned output of one analysis.
type Result struct {
	Prompt       string // cleaned description or tag list
	AnalysisType string // variant identifier, e.g. "enhanced_comprehensive"
}

// Analyzer sends image bytes plus an instructional prompt to the vision API
// and post-processes the textual response.
type Analyzer interface {
	// Name is the stable identifier used in config and API requests.
	Name() string
	// Configured reports whether the underlying vision client is usable.
	Configured() bool
	// AnalyzeImage describes the given image bytes.
	AnalyzeImage(ctx context.Context, data []byte, mimeType string) (Result, error)
}

// Analyzer names, in ascending capability order.
const (
	NameBasic         = "basic"
	NameTags          = "tags"
	NameComprehensive = "comprehensive"
	NameEnhanced      = "enhanced"
)

// priority lists analyzers from most to least preferred when the caller does
// not choose one.
var priority = []string{NameEnhanced, NameComprehensive, NameTags, NameBasic}

// Registry holds the configured analyzers by name.
type Registry struct {
	mu        sync.RWMutex
	analyzers map[string]Analyzer
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{analyzers: make(map[string]Analyzer)}
}

// Add registers an analyzer under its name, replacing any previous entry.
func (r *Registry) Add(a Analyzer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.analyzers[a.Name()] = a
}

// Get returns the analyzer with the given name.
func (r *Registry) Get(name string) (Analyzer, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.analyzers[name]
	return a, ok
}

// Names returns the registered analyzer names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.analyzers))
	for name := range r.analyzers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Pick resolves which analyzer should serve a request. A non-empty preferred
// name wins if registered and configured; otherwise the first configured
// analyzer in priority order is used.
func (r *Registry) Pick(preferred string) (Analyzer, error) {
	if preferred != "" {
		a, ok := r.Get(preferred)
		if !ok {
			return nil, fmt.Errorf("unknown analyzer %q", preferred)
		}
		if !a.Configured() {
			return nil, fmt.Errorf("analyzer %q is not configured", preferred)
		}
		return a, nil
	}
	for _, name := range priority {
		if a, ok := r.Get(name); ok && a.Configured() {
			return a, nil
		}
	}
	return nil, fmt.Errorf("no configured analyzer available")
}
