// Package preparation holds the setup/teardown pairs that mutate shared
// environment state before checks run, and the registry that builds them
// from the requests checks declare.
package preparation

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/wpcheck/plugin-check/internal/environment"
)

// Kind identifies a preparation implementation.
type Kind string

const (
	KindUniversalRuntime Kind = "universal_runtime"
	KindDemoTables       Kind = "demo_tables"
	KindCommand          Kind = "command"
)

// Cleanup reverts every effect of one Prepare call.
type Cleanup func() error

// NoopCleanup is returned when a preparation had nothing to revert.
func NoopCleanup() error { return nil }

// Preparation sets up shared state and returns the matching teardown.
type Preparation interface {
	Prepare(ctx context.Context) (Cleanup, error)
}

// Request is a check's declaration that it needs a preparation of Kind,
// constructed with Args.
type Request struct {
	Kind Kind  `json:"kind" yaml:"kind"`
	Args []any `json:"args,omitempty" yaml:"args,omitempty"`
}

// Key identifies equivalent requests: same kind and same canonical
// serialization of the arguments. encoding/json writes map keys in sorted
// order, so argument maps built in different orders produce the same key.
func (r Request) Key() (string, error) {
	args := r.Args
	if args == nil {
		args = []any{}
	}
	raw, err := json.Marshal(args)
	if err != nil {
		return "", fmt.Errorf("serializing %s preparation args: %w", r.Kind, err)
	}
	sum := sha256.Sum256(raw)
	return string(r.Kind) + "::" + hex.EncodeToString(sum[:]), nil
}

// Factory builds a preparation from request arguments.
type Factory func(env *environment.Environment, args []any) (Preparation, error)

// Registry maps kinds to factories. It is populated at startup.
type Registry struct {
	env       *environment.Environment
	factories map[Kind]Factory
}

// NewRegistry returns an empty registry bound to env.
func NewRegistry(env *environment.Environment) *Registry {
	return &Registry{env: env, factories: map[Kind]Factory{}}
}

// Default returns a registry with every built-in kind registered.
func Default(env *environment.Environment) *Registry {
	r := NewRegistry(env)
	r.Register(KindUniversalRuntime, func(env *environment.Environment, _ []any) (Preparation, error) {
		return NewUniversalRuntime(env), nil
	})
	r.Register(KindDemoTables, newDemoTablesFromArgs)
	r.Register(KindCommand, newCommandFromArgs)
	return r
}

// Register adds or replaces the factory for kind.
func (r *Registry) Register(kind Kind, f Factory) {
	r.factories[kind] = f
}

// Kinds lists the registered kinds in sorted order.
func (r *Registry) Kinds() []Kind {
	kinds := make([]Kind, 0, len(r.factories))
	for k := range r.factories {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// New instantiates the preparation for req.
func (r *Registry) New(req Request) (Preparation, error) {
	f, ok := r.factories[req.Kind]
	if !ok {
		return nil, fmt.Errorf("unknown preparation kind %q", req.Kind)
	}
	p, err := f(r.env, req.Args)
	if err != nil {
		return nil, fmt.Errorf("building %s preparation: %w", req.Kind, err)
	}
	return p, nil
}
