// Package hash models the data shapes of Merkle commitments: digests,
// digest sets (caps) and authentication paths. The hash function itself is
// not part of this package.
package hash

import (
	"fmt"
	"math/big"

	"DeferredWitnessCircuit/modules/circuit"
	"DeferredWitnessCircuit/modules/vars"
)

// NumHashOutElts is the number of field elements in a digest.
const NumHashOutElts = 4

// HashOut is a concrete digest.
type HashOut struct {
	Elements [NumHashOutElts]*big.Int
}

// NewHashOut builds a digest from small integers, mostly for tests.
func NewHashOut(elements ...int64) HashOut {
	if len(elements) != NumHashOutElts {
		panic(fmt.Sprintf("hash: digest takes %d elements, got %d", NumHashOutElts, len(elements)))
	}
	var h HashOut
	for i, e := range elements {
		h.Elements[i] = big.NewInt(e)
	}
	return h
}

func (h HashOut) Equal(other HashOut) bool {
	for i := range h.Elements {
		if h.Elements[i].Cmp(other.Elements[i]) != 0 {
			return false
		}
	}
	return true
}

// HashOutVariable is a digest laid out over four slots.
type HashOutVariable struct {
	Elements [NumHashOutElts]circuit.Slot
}

func (v HashOutVariable) Slots() []circuit.Slot { return v.Elements[:] }

type hashOutLayout struct{}

// HashOutType lays a digest over four unconstrained slots.
var HashOutType vars.Layout[HashOut, HashOutVariable] = hashOutLayout{}

func (hashOutLayout) NbElements() int { return NumHashOutElts }

func (hashOutLayout) Elements(h HashOut) []*big.Int {
	res := make([]*big.Int, NumHashOutElts)
	for i, e := range h.Elements {
		res[i] = new(big.Int).Set(e)
	}
	return res
}

func (hashOutLayout) FromElements(elements []*big.Int) (HashOut, error) {
	var h HashOut
	if err := vars.CheckLength("HashOutVariable", NumHashOutElts, elements); err != nil {
		return h, err
	}
	for i, e := range elements {
		h.Elements[i] = new(big.Int).Set(e)
	}
	return h, nil
}

func (hashOutLayout) FromSlots(slots []circuit.Slot) HashOutVariable {
	vars.MustHaveSlots("HashOutVariable", NumHashOutElts, slots)
	var v HashOutVariable
	copy(v.Elements[:], slots)
	return v
}

// AssertIsValid is a no-op: any field element is a valid digest limb.
func (hashOutLayout) AssertIsValid(circuit.ConstraintAPI, HashOutVariable) {}
