// Package probe holds the host inspection units and their registry. Each
// probe inspects one security/health dimension and returns a normalized
// report; probes never call each other and never mutate host state.
package probe

import (
	"context"
	"errors"
	"fmt"

	"github.com/hamed0406/hostsentry/internal/domain"
)

// Probe runs one check. Expected absence of a subsystem (no sshd, no GPU)
// is a normal pass/info report; a returned error is reserved for unexpected
// failures and is converted by the aggregator into an error report.
type Probe interface {
	Run(ctx context.Context) (domain.Report, error)
}

// Entry binds a probe to its identity. The registry, not the probe, owns
// id, name, description and category.
type Entry struct {
	ID          string
	Name        string
	Description string
	Category    domain.Category
	Probe       Probe
}

// ErrUnknownCheck is returned for ids not present in the registry.
var ErrUnknownCheck = errors.New("unknown check")

// Registry is the fixed, ordered check set. Built once at startup; duplicate
// ids are a programming error and rejected there, not at lookup time.
type Registry struct {
	entries []Entry
	byID    map[string]Entry
}

func NewRegistry(entries ...Entry) (*Registry, error) {
	r := &Registry{byID: make(map[string]Entry, len(entries))}
	for _, e := range entries {
		if e.ID == "" || e.Probe == nil {
			return nil, fmt.Errorf("registry entry %q is incomplete", e.ID)
		}
		if _, dup := r.byID[e.ID]; dup {
			return nil, fmt.Errorf("duplicate check id %q", e.ID)
		}
		r.byID[e.ID] = e
		r.entries = append(r.entries, e)
	}
	return r, nil
}

// Entries returns the checks in registration order.
func (r *Registry) Entries() []Entry { return r.entries }

func (r *Registry) Len() int { return len(r.entries) }

func (r *Registry) Get(id string) (Entry, error) {
	e, ok := r.byID[id]
	if !ok {
		return Entry{}, fmt.Errorf("%w: %s", ErrUnknownCheck, id)
	}
	return e, nil
}

// Stamp writes the registry-owned identity onto a probe's report.
func (e Entry) Stamp(r *domain.Report) {
	r.ID = e.ID
	r.Name = e.Name
	r.Description = e.Description
	r.Category = e.Category
}
