package session

import (
	"sort"
	"sync"
)

// Context identifies what kind of interactive session is wanted, commonly a
// content category such as a filetype.
type Context string

// Definition is an immutable recipe for starting a session: the argv to
// launch and the format rule applied to every payload sent to it.
type Definition struct {
	// Command is the argv of the repl executable.
	Command []string
	// Format transforms captured lines into the lines actually submitted.
	// nil means passthrough.
	Format Format
}

// Labeled pairs a definition with its catalog label.
type Labeled struct {
	Label      string
	Definition Definition
}

// Catalog maps contexts to labeled launch definitions. Definitions are only
// ever added or overwritten, never removed; per-context registration order is
// preserved and is the authoritative fallback order for selection. A Catalog
// is safe for concurrent use; hosts may register definitions while a manager
// is selecting from it.
type Catalog struct {
	mu    sync.Mutex
	order map[Context][]string
	defs  map[Context]map[string]Definition
}

func NewCatalog() *Catalog {
	return &Catalog{
		order: make(map[Context][]string),
		defs:  make(map[Context]map[string]Definition),
	}
}

// Register adds or overwrites the labeled definition for a context.
// Overwriting keeps the label's original position in the fallback order.
func (c *Catalog) Register(ctx Context, label string, def Definition) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.registerLocked(ctx, label, def)
}

func (c *Catalog) registerLocked(ctx Context, label string, def Definition) {
	if _, ok := c.defs[ctx]; !ok {
		c.defs[ctx] = make(map[string]Definition)
	}
	if _, exists := c.defs[ctx][label]; !exists {
		c.order[ctx] = append(c.order[ctx], label)
	}
	c.defs[ctx][label] = def
}

// Merge registers every definition of other into c, overwriting same-labeled
// entries. Contexts new to c take other's registration order.
func (c *Catalog) Merge(other *Catalog) {
	if other == nil || other == c {
		return
	}
	for _, ctx := range other.Contexts() {
		defs, err := other.Definitions(ctx)
		if err != nil {
			continue
		}
		c.mu.Lock()
		for _, ld := range defs {
			c.registerLocked(ctx, ld.Label, ld.Definition)
		}
		c.mu.Unlock()
	}
}

// Lookup returns the definition registered under the given label.
func (c *Catalog) Lookup(ctx Context, label string) (Definition, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	def, ok := c.defs[ctx][label]
	return def, ok
}

// Contexts returns all registered context keys, sorted.
func (c *Catalog) Contexts() []Context {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Context, 0, len(c.defs))
	for ctx := range c.defs {
		out = append(out, ctx)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Definitions returns the context's definitions in registration order, or
// ErrUnknownContext if none are registered.
func (c *Catalog) Definitions(ctx Context) ([]Labeled, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	labels, ok := c.order[ctx]
	if !ok || len(labels) == 0 {
		return nil, ErrUnknownContext
	}
	out := make([]Labeled, 0, len(labels))
	for _, l := range labels {
		out = append(out, Labeled{Label: l, Definition: c.defs[ctx][l]})
	}
	return out, nil
}
