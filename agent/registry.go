package agent

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/anyagent/anyagent/config"
)

// Loader builds an agent for one framework from the common config.
type Loader func(ctx context.Context, cfg config.AgentConfig) (Agent, error)

var (
	loadersMu sync.RWMutex
	loaders   = make(map[string]Loader)
)

// Register installs a framework loader. Adapter packages call this from
// their init; importing an adapter is what makes its framework available.
func Register(framework string, loader Loader) {
	loadersMu.Lock()
	defer loadersMu.Unlock()
	if _, dup := loaders[framework]; dup {
		panic(fmt.Sprintf("agent: framework %s registered twice", framework))
	}
	loaders[framework] = loader
}

// Frameworks returns the registered framework ids, sorted.
func Frameworks() []string {
	loadersMu.RLock()
	defer loadersMu.RUnlock()

	ids := make([]string, 0, len(loaders))
	for id := range loaders {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Create builds an agent on the named framework. The config is validated as
// given, then defaulted on a copy; the caller's copy is never mutated.
func Create(ctx context.Context, framework string, cfg config.AgentConfig) (Agent, error) {
	loadersMu.RLock()
	loader, ok := loaders[framework]
	loadersMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unsupported framework %q (supported: %s)",
			framework, strings.Join(Frameworks(), ", "))
	}

	// Validation runs before defaulting so bad values are rejected rather
	// than silently normalized.
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", framework, err)
	}
	cfg = cfg.WithDefaults()

	a, err := loader(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", framework, err)
	}
	return a, nil
}
