package circuit

import (
	"context"
	"fmt"
	"math/big"
	"sync"
)

// Generator is a deferred witness computation. It declares the slots it
// reads and the slots it produces, and is run once per resolution pass
// after every dependency holds a value.
type Generator interface {
	// ID is a stable identifier for the generator kind, used in diagnostics
	// and to find the decoder of its serialized form.
	ID() string

	// Dependencies are the slots that must be populated before RunOnce.
	Dependencies() []Slot

	// Outputs are the slots RunOnce writes. Each must be written exactly once.
	Outputs() []Slot

	// RunOnce reads the dependency values, computes the outputs and stages
	// them in out. It may block on I/O.
	RunOnce(ctx context.Context, witness WitnessReader, out *GeneratedValues) error

	// Serialize encodes the static configuration of the generator, not its
	// result. Generators without a persistent form return an error wrapping
	// ErrUnimplementedPersistence.
	Serialize() ([]byte, error)
}

// GeneratorDecoder rebuilds a generator from the output of its Serialize.
type GeneratorDecoder func(data []byte) (Generator, error)

var (
	decodersMu sync.RWMutex
	decoders   = map[string]GeneratorDecoder{}
)

// RegisterGenerator makes the decoder for a generator id known to ReadCircuit.
// Registering the same id twice panics.
func RegisterGenerator(id string, decoder GeneratorDecoder) {
	decodersMu.Lock()
	defer decodersMu.Unlock()
	if _, ok := decoders[id]; ok {
		panic(fmt.Sprintf("circuit: generator %q registered twice", id))
	}
	decoders[id] = decoder
}

// DeserializeGenerator decodes data with the decoder registered for id.
func DeserializeGenerator(id string, data []byte) (Generator, error) {
	decodersMu.RLock()
	decoder, ok := decoders[id]
	decodersMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownGenerator, id)
	}
	return decoder(data)
}

// GeneratedValues stages the outputs of one generator run. Nothing reaches
// the witness unless the run succeeds and every declared output is written.
type GeneratedValues struct {
	generatorID string
	index       map[Slot]int
	values      []*big.Int
}

func newGeneratedValues(g Generator) *GeneratedValues {
	outputs := g.Outputs()
	gv := &GeneratedValues{
		generatorID: g.ID(),
		index:       make(map[Slot]int, len(outputs)),
		values:      make([]*big.Int, len(outputs)),
	}
	for i, s := range outputs {
		gv.index[s] = i
	}
	return gv
}

// Set stages v for slot s. Writing outside the declared outputs is a logic
// error and panics.
func (gv *GeneratedValues) Set(s Slot, v *big.Int) error {
	i, ok := gv.index[s]
	if !ok {
		panic(fmt.Sprintf("circuit: generator %s wrote slot %d outside its declared outputs", gv.generatorID, s))
	}
	if gv.values[i] != nil {
		return fmt.Errorf("%w: %d (generator %s)", ErrSlotAlreadySet, s, gv.generatorID)
	}
	if v == nil {
		return fmt.Errorf("circuit: generator %s staged nil for slot %d", gv.generatorID, s)
	}
	gv.values[i] = new(big.Int).Set(v)
	return nil
}

// Len is the number of staged values.
func (gv *GeneratedValues) Len() int {
	n := 0
	for _, v := range gv.values {
		if v != nil {
			n++
		}
	}
	return n
}

func (gv *GeneratedValues) commit(outputs []Slot, w WitnessWriter) error {
	for i, v := range gv.values {
		if v == nil {
			return fmt.Errorf("%w: generator=%s slot=%d", ErrIncompleteOutput, gv.generatorID, outputs[i])
		}
	}
	for i, v := range gv.values {
		if err := w.Set(outputs[i], v); err != nil {
			return err
		}
	}
	return nil
}

// RunGenerator runs g once against w: it checks every dependency is
// populated, calls RunOnce and commits the staged outputs.
func RunGenerator(ctx context.Context, g Generator, w *Witness) error {
	for _, s := range g.Dependencies() {
		if !w.IsSet(s) {
			return WrapDependencyUnresolved(g.ID(), s)
		}
	}

	out := newGeneratedValues(g)
	if err := g.RunOnce(ctx, w, out); err != nil {
		return err
	}
	return out.commit(g.Outputs(), w)
}
