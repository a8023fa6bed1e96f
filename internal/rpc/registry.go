package rpc

import (
	"context"
	"fmt"
	"sort"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/agrilink/agrilink/internal/apperr"
	"github.com/agrilink/agrilink/internal/users"
)

// Kind distinguishes read procedures from writes. Queries may also be invoked
// over GET; mutations are POST only.
type Kind string

const (
	Query    Kind = "query"
	Mutation Kind = "mutation"
)

// Ctx is the per-call context handed to guards and handlers.
type Ctx struct {
	context.Context

	// Caller is the resolved signed-in user, or nil for anonymous calls.
	Caller *users.User

	// ClearSession asks the transport to drop the caller's session
	// credential. Set by the HTTP layer; nil elsewhere.
	ClearSession func()
}

// Handler executes a procedure after its schema and guards have passed.
type Handler func(ctx *Ctx, in Input) (any, error)

// Procedure is one named operation of the API surface.
type Procedure struct {
	Name    string
	Kind    Kind
	Schema  Schema
	Guards  []Guard
	Handler Handler
}

var dispatchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "agrilink_rpc_dispatch_total",
	Help: "Procedure dispatches by outcome.",
}, []string{"procedure", "outcome"})

// Registry holds the procedure surface and dispatches calls through the fixed
// pipeline: resolve, validate, guards, handler.
type Registry struct {
	procedures map[string]*Procedure
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{procedures: make(map[string]*Procedure)}
}

// Register adds a procedure. Registering the same name twice is a programming
// error and panics.
func (r *Registry) Register(p *Procedure) {
	if p.Name == "" || p.Handler == nil {
		panic("rpc: procedure needs a name and a handler")
	}
	if _, dup := r.procedures[p.Name]; dup {
		panic(fmt.Sprintf("rpc: duplicate procedure %q", p.Name))
	}
	r.procedures[p.Name] = p
}

// Lookup returns the named procedure, or nil.
func (r *Registry) Lookup(name string) *Procedure {
	return r.procedures[name]
}

// Names returns every registered procedure name, sorted.
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.procedures))
	for name := range r.procedures {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Dispatch runs the named procedure against raw decoded input. Failures keep
// a strict precedence: unknown procedure, then input validation, then guards
// in order, then the handler.
func (r *Registry) Dispatch(ctx *Ctx, name string, raw map[string]any) (any, error) {
	p := r.procedures[name]
	if p == nil {
		dispatchTotal.WithLabelValues(name, "unknown").Inc()
		return nil, apperr.Newf(apperr.CodeNotFound, "unknown procedure %q", name)
	}

	in, err := p.Schema.Validate(raw)
	if err != nil {
		dispatchTotal.WithLabelValues(name, "invalid").Inc()
		return nil, err
	}

	for _, g := range p.Guards {
		if err := g(ctx); err != nil {
			dispatchTotal.WithLabelValues(name, "denied").Inc()
			return nil, err
		}
	}

	out, err := p.Handler(ctx, in)
	if err != nil {
		dispatchTotal.WithLabelValues(name, "error").Inc()
		return nil, err
	}
	dispatchTotal.WithLabelValues(name, "ok").Inc()
	return out, nil
}
