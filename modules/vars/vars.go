// Package vars defines typed views over fixed-size lists of circuit slots.
package vars

import (
	"fmt"
	"math/big"

	"DeferredWitnessCircuit/modules/circuit"
)

// Variable is anything laid out over an ordered list of slots.
type Variable interface {
	Slots() []circuit.Slot
}

// Layout describes how a value of type V is laid out over the slots of a
// variable of type T. NbElements is fixed per layout; FromElements is the
// inverse of Elements for every valid value.
type Layout[V any, T Variable] interface {
	NbElements() int
	Elements(v V) []*big.Int
	FromElements(elements []*big.Int) (V, error)
	FromSlots(slots []circuit.Slot) T
	AssertIsValid(api circuit.ConstraintAPI, t T)
}

// Init allocates fresh slots for a variable whose value is supplied later,
// typically by a generator.
func Init[V any, T Variable](alloc circuit.Allocator, l Layout[V, T]) T {
	return l.FromSlots(alloc.AllocateSlots(l.NbElements()))
}

// Input allocates a caller-supplied variable and constrains it to be valid.
func Input[V any, T Variable](b *circuit.Builder, l Layout[V, T]) T {
	t := l.FromSlots(b.AddInput(l.NbElements()))
	l.AssertIsValid(b, t)
	return t
}

// Constant allocates a variable fixed to v.
func Constant[V any, T Variable](api circuit.API, l Layout[V, T], v V) T {
	slots := api.AllocateSlots(l.NbElements())
	elements := l.Elements(v)
	api.AddGenerator(circuit.NewConstantGenerator(slots, elements))

	t := l.FromSlots(slots)
	l.AssertIsValid(api, t)
	return t
}

// Value reads t back from a witness.
func Value[V any, T Variable](r circuit.WitnessReader, l Layout[V, T], t T) (V, error) {
	slots := t.Slots()
	elements := make([]*big.Int, len(slots))
	for i, s := range slots {
		e, err := r.Get(s)
		if err != nil {
			var zero V
			return zero, err
		}
		elements[i] = e
	}
	return l.FromElements(elements)
}

// Set writes v into the slots of t.
func Set[V any, T Variable](w circuit.WitnessWriter, l Layout[V, T], t T, v V) error {
	slots := t.Slots()
	elements := l.Elements(v)
	if len(elements) != len(slots) {
		return circuit.WrapDecodeLengthMismatch(fmt.Sprintf("%T", t), len(slots), len(elements))
	}
	for i, s := range slots {
		if err := w.Set(s, elements[i]); err != nil {
			return err
		}
	}
	return nil
}

// CheckLength fails with circuit.ErrDecodeLengthMismatch unless there are
// exactly want elements.
func CheckLength(what string, want int, elements []*big.Int) error {
	if len(elements) != want {
		return circuit.WrapDecodeLengthMismatch(what, want, len(elements))
	}
	return nil
}

// MustHaveSlots panics unless there are exactly want slots.
func MustHaveSlots(what string, want int, slots []circuit.Slot) {
	if len(slots) != want {
		panic(fmt.Sprintf("vars: %s laid out over %d slots, got %d", what, want, len(slots)))
	}
}
