// Package glue maps engine kinds to the providers installed into them.
//
// The table replaces annotation-driven code generation: every provider the
// mod declares is listed here by hand together with the engine kind that
// receives it.
package glue

import (
	"context"
	"sort"

	"github.com/dayo05/aris-extension-template/aris"
	"github.com/dayo05/aris-extension-template/arisentity/functions"
	"github.com/dayo05/aris-extension-template/binding"
)

// Entry installs one provider into engines of one kind.
type Entry struct {
	registry *binding.Registry
	Provider string
	Kind     aris.EngineKind
}

// EntityInitProviderGenerated installs the init provider into init engines.
var EntityInitProviderGenerated = Entry{
	Provider: functions.ProviderName,
	Kind:     aris.KindInit,
}

var table = map[aris.EngineKind]Entry{
	aris.KindInit: EntityInitProviderGenerated,
}

// For returns the entry for kind.
func For(kind aris.EngineKind) (Entry, bool) {
	e, ok := table[kind]
	return e, ok
}

// Entries returns every entry ordered by engine kind start-up order.
func Entries() []Entry {
	order := make(map[aris.EngineKind]int)
	for i, k := range aris.Kinds() {
		order[k] = i
	}
	out := make([]Entry, 0, len(table))
	for _, e := range table {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return order[out[i].Kind] < order[out[j].Kind] })
	return out
}

// WithRegistry returns a copy of e that installs from r instead of binding.Default.
func (e Entry) WithRegistry(r *binding.Registry) Entry {
	e.registry = r
	return e
}

// InitEngine installs the entry's provider into engine.
func (e Entry) InitEngine(ctx context.Context, engine binding.Engine) error {
	r := e.registry
	if r == nil {
		r = binding.Default
	}
	return r.InstallInto(ctx, e.Provider, engine)
}
