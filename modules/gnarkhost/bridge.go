package gnarkhost

import (
	"fmt"

	"DeferredWitnessCircuit/modules/circuit"
	"DeferredWitnessCircuit/modules/vars"

	"github.com/consensys/gnark/frontend"
)

// Bridge lets circuit construction code written against circuit.API run
// inside a gnark Define. Slots are local to the bridge and map to gnark
// variables; each generator becomes one solver hint.
type Bridge struct {
	api   frontend.API
	scope *Scope

	nbSlots     int
	variables   map[circuit.Slot]frontend.Variable
	ran         map[circuit.Slot]int
	nbGenerated int

	err error
}

// NewBridge returns a bridge over api. A nil scope keeps the generators it
// registers for the life of the process.
func NewBridge(api frontend.API, scope *Scope) *Bridge {
	return &Bridge{
		api:       api,
		scope:     scope,
		variables: make(map[circuit.Slot]frontend.Variable),
		ran:       make(map[circuit.Slot]int),
	}
}

func (b *Bridge) AllocateSlots(n int) []circuit.Slot {
	slots := make([]circuit.Slot, n)
	for i := range slots {
		slots[i] = circuit.Slot(b.nbSlots + i)
	}
	b.nbSlots += n
	return slots
}

// Bind lays existing gnark variables out as a typed variable.
func Bind[V any, T vars.Variable](b *Bridge, l vars.Layout[V, T], values ...frontend.Variable) T {
	slots := b.AllocateSlots(len(values))
	for i, s := range slots {
		b.variables[s] = values[i]
	}
	return l.FromSlots(slots)
}

// AddGenerator runs g as a hint unless it already ran on this bridge, and
// returns its index. Errors are kept and reported by Err.
func (b *Bridge) AddGenerator(g circuit.Generator) int {
	idx, err := b.run(g)
	if err != nil {
		b.fail(err)
	}
	return idx
}

func (b *Bridge) run(g circuit.Generator) (int, error) {
	outs := g.Outputs()
	if len(outs) == 0 {
		return -1, nil
	}
	if idx, ok := b.ran[outs[0]]; ok {
		return idx, nil
	}

	// constants need no hint
	if cg, ok := g.(*circuit.ConstantGenerator); ok {
		for i, s := range cg.Slots {
			b.variables[s] = cg.Values[i]
		}
		return b.markRan(outs), nil
	}

	deps := g.Dependencies()
	inputs := make([]frontend.Variable, 0, len(deps)+1)
	inputs = append(inputs, registerGenerator(b.scope, g))
	for _, s := range deps {
		v, ok := b.variables[s]
		if !ok {
			return -1, circuit.WrapDependencyUnresolved(g.ID(), s)
		}
		inputs = append(inputs, v)
	}

	results, err := b.api.Compiler().NewHint(GeneratorHint, len(outs), inputs...)
	if err != nil {
		return -1, fmt.Errorf("gnarkhost: hint for %s: %w", g.ID(), err)
	}
	for i, s := range outs {
		b.variables[s] = results[i]
	}
	return b.markRan(outs), nil
}

func (b *Bridge) markRan(outs []circuit.Slot) int {
	idx := b.nbGenerated
	b.nbGenerated++
	b.ran[outs[0]] = idx
	return idx
}

// Variables returns the gnark variables behind t.
func (b *Bridge) Variables(t vars.Variable) ([]frontend.Variable, error) {
	slots := t.Slots()
	res := make([]frontend.Variable, len(slots))
	for i, s := range slots {
		v, err := b.variable(s)
		if err != nil {
			return nil, err
		}
		res[i] = v
	}
	return res, nil
}

func (b *Bridge) variable(s circuit.Slot) (frontend.Variable, error) {
	v, ok := b.variables[s]
	if !ok {
		return nil, fmt.Errorf("%w: slot %d has no gnark variable yet", circuit.ErrSlotUnset, s)
	}
	return v, nil
}

func (b *Bridge) AssertRange(s circuit.Slot, bits int) {
	v, err := b.variable(s)
	if err != nil {
		b.fail(err)
		return
	}
	b.api.ToBinary(v, bits)
}

func (b *Bridge) AssertEqual(x, y circuit.Slot) {
	vx, err := b.variable(x)
	if err != nil {
		b.fail(err)
		return
	}
	vy, err := b.variable(y)
	if err != nil {
		b.fail(err)
		return
	}
	b.api.AssertIsEqual(vx, vy)
}

// Err returns the first error met while adding generators or constraints.
func (b *Bridge) Err() error {
	return b.err
}

func (b *Bridge) fail(err error) {
	if b.err == nil {
		b.err = err
	}
}
