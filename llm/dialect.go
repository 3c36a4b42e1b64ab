package llm

import (
	"fmt"
	"sort"
	"sync"
)

// Dialect maps universal LLM types to/from a specific provider's HTTP format.
//
// Each provider family has its own Dialect that handles the request and
// response structure. Register dialects at startup using [RegisterDialect],
// or pass one directly to [NewWithDialect].
type Dialect interface {
	// Name returns the dialect identifier (e.g., "gemini").
	Name() string

	// ChatPath returns the endpoint path for a completion request. Providers
	// that put the model in the URL derive it from req.Model.
	ChatPath(req CompletionRequest) string

	// HealthPath returns the health-check endpoint path. Empty means no health endpoint.
	HealthPath() string

	// BuildRequest maps a universal CompletionRequest to the provider's JSON request body.
	BuildRequest(req CompletionRequest) (any, error)

	// ParseResponse maps the provider's JSON response body to a universal CompletionResponse.
	ParseResponse(body []byte) (*CompletionResponse, error)
}

var (
	dialectsMu sync.RWMutex
	dialects   = map[string]Dialect{}
)

// RegisterDialect adds a dialect to the global registry.
// Typically called from init() in dialect packages:
//
//	func init() {
//	    llm.RegisterDialect("gemini", Dialect{})
//	}
func RegisterDialect(name string, d Dialect) {
	dialectsMu.Lock()
	defer dialectsMu.Unlock()
	dialects[name] = d
}

// GetDialect retrieves a dialect by name from the global registry.
func GetDialect(name string) (Dialect, error) {
	dialectsMu.RLock()
	defer dialectsMu.RUnlock()
	d, ok := dialects[name]
	if !ok {
		return nil, fmt.Errorf("llm: unknown dialect %q (forgot to import driver?)", name)
	}
	return d, nil
}

// Dialects returns the sorted names of all registered dialects.
func Dialects() []string {
	dialectsMu.RLock()
	defer dialectsMu.RUnlock()
	names := make([]string, 0, len(dialects))
	for name := range dialects {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
