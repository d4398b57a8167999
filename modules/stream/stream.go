package stream

import (
	"math/big"

	"DeferredWitnessCircuit/modules/circuit"
	"DeferredWitnessCircuit/modules/vars"
)

// VariableStream lays typed variables out as a flat slot sequence. It is
// used while a circuit is declared.
type VariableStream struct {
	Cursor[circuit.Slot]
}

func NewVariableStream(slots ...circuit.Slot) *VariableStream {
	return &VariableStream{Cursor[circuit.Slot]{Elems: slots}}
}

// ValueStream is the concrete counterpart of VariableStream, over field
// elements. Generators use it to decode fetched data.
type ValueStream struct {
	Cursor[*big.Int]
}

func NewValueStream(values ...*big.Int) *ValueStream {
	return &ValueStream{Cursor[*big.Int]{Elems: values}}
}

// ReadVariable consumes l.NbElements() slots.
func ReadVariable[V any, T vars.Variable](s *VariableStream, l vars.Layout[V, T]) (T, error) {
	slots, err := s.ReadN(l.NbElements())
	if err != nil {
		var zero T
		return zero, err
	}
	return l.FromSlots(slots), nil
}

// WriteVariable appends the slots of t.
func WriteVariable[T vars.Variable](s *VariableStream, t T) int {
	return s.Append(t.Slots()...)
}

// ReadValue consumes l.NbElements() elements and decodes them.
func ReadValue[V any, T vars.Variable](s *ValueStream, l vars.Layout[V, T]) (V, error) {
	elements, err := s.ReadN(l.NbElements())
	if err != nil {
		var zero V
		return zero, err
	}
	return l.FromElements(elements)
}

// WriteValue appends the elements of v.
func WriteValue[V any, T vars.Variable](s *ValueStream, l vars.Layout[V, T], v V) int {
	return s.Append(l.Elements(v)...)
}

// Assign pairs the remaining values with the remaining target slots and
// writes them to w. Both streams must hold exactly the same number of
// remaining elements; nothing is written otherwise.
func Assign(w circuit.WitnessWriter, targets *VariableStream, values *ValueStream) error {
	if targets.Remaining() != values.Remaining() {
		return circuit.WrapDecodeLengthMismatch("output stream", targets.Remaining(), values.Remaining())
	}
	for targets.Remaining() > 0 {
		s, _ := targets.Next()
		v, _ := values.Next()
		if err := w.Set(s, v); err != nil {
			return err
		}
	}
	return nil
}
