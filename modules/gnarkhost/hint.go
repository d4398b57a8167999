// Package gnarkhost runs deferred generators inside gnark circuits and maps
// digest shapes to gnark variables.
package gnarkhost

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"DeferredWitnessCircuit/modules/circuit"

	"github.com/consensys/gnark/constraint/solver"
)

func init() {
	solver.RegisterHint(GeneratorHint)
}

// Generators used in a circuit definition are kept in a process-wide arena
// and referenced from the constraint system by their arena key, passed as
// the first hint input. A circuit must therefore be solved by the process
// that defined it, and before its Scope is released.
var (
	arenaMu sync.RWMutex
	arena   = map[uint64]circuit.Generator{}
	nextKey uint64
)

// Scope owns the arena entries of the bridges created with it. Release drops
// them once the constraint systems defined in the scope are no longer solved.
// Bridges created without a scope keep their generators for the life of the
// process.
type Scope struct {
	mu   sync.Mutex
	keys []uint64
}

func NewScope() *Scope {
	return &Scope{}
}

// Release removes every generator registered in the scope from the arena.
// Hints referring to them fail afterwards.
func (s *Scope) Release() {
	s.mu.Lock()
	keys := s.keys
	s.keys = nil
	s.mu.Unlock()

	arenaMu.Lock()
	defer arenaMu.Unlock()
	for _, k := range keys {
		delete(arena, k)
	}
}

// Len is the number of generators the scope holds in the arena.
func (s *Scope) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.keys)
}

func registerGenerator(scope *Scope, g circuit.Generator) uint64 {
	arenaMu.Lock()
	nextKey++
	key := nextKey
	arena[key] = g
	arenaMu.Unlock()

	if scope != nil {
		scope.mu.Lock()
		scope.keys = append(scope.keys, key)
		scope.mu.Unlock()
	}
	return key
}

func lookupGenerator(key *big.Int) (circuit.Generator, error) {
	if !key.IsUint64() {
		return nil, fmt.Errorf("gnarkhost: invalid generator key %s", key)
	}
	arenaMu.RLock()
	defer arenaMu.RUnlock()
	g, ok := arena[key.Uint64()]
	if !ok {
		return nil, fmt.Errorf("gnarkhost: no generator with key %d in this process", key.Uint64())
	}
	return g, nil
}

// GeneratorHint runs the generator named by inputs[0] on the dependency
// values inputs[1:] and returns its outputs in declaration order.
func GeneratorHint(field *big.Int, inputs []*big.Int, outputs []*big.Int) error {
	if len(inputs) == 0 {
		return errors.New("gnarkhost: generator hint called without a key")
	}
	g, err := lookupGenerator(inputs[0])
	if err != nil {
		return err
	}

	deps, outs := g.Dependencies(), g.Outputs()
	if len(inputs)-1 != len(deps) {
		return circuit.WrapDecodeLengthMismatch(g.ID()+" hint inputs", len(deps), len(inputs)-1)
	}
	if len(outputs) != len(outs) {
		return circuit.WrapDecodeLengthMismatch(g.ID()+" hint outputs", len(outs), len(outputs))
	}

	nbSlots := 0
	for _, slots := range [][]circuit.Slot{deps, outs} {
		for _, s := range slots {
			if int(s) >= nbSlots {
				nbSlots = int(s) + 1
			}
		}
	}

	w := circuit.NewWitness(field, nbSlots)
	for i, s := range deps {
		if w.IsSet(s) {
			continue
		}
		if err := w.Set(s, inputs[i+1]); err != nil {
			return err
		}
	}
	// hints carry no context; cancellation is up to the source
	if err := circuit.RunGenerator(context.Background(), g, w); err != nil {
		return err
	}

	for i, s := range outs {
		v, err := w.Get(s)
		if err != nil {
			return err
		}
		outputs[i].Set(v)
	}
	return nil
}
