package vars

import (
	"fmt"
	"math/big"

	"DeferredWitnessCircuit/modules/circuit"

	"github.com/ethereum/go-ethereum/common"
)

// ElementVariable is a single unconstrained field element.
type ElementVariable struct {
	Slot circuit.Slot
}

func (v ElementVariable) Slots() []circuit.Slot { return []circuit.Slot{v.Slot} }

type elementLayout struct{}

// ElementType lays a field element over one slot.
var ElementType Layout[*big.Int, ElementVariable] = elementLayout{}

func (elementLayout) NbElements() int { return 1 }

func (elementLayout) Elements(v *big.Int) []*big.Int {
	return []*big.Int{new(big.Int).Set(v)}
}

func (elementLayout) FromElements(elements []*big.Int) (*big.Int, error) {
	if err := CheckLength("ElementVariable", 1, elements); err != nil {
		return nil, err
	}
	return new(big.Int).Set(elements[0]), nil
}

func (elementLayout) FromSlots(slots []circuit.Slot) ElementVariable {
	MustHaveSlots("ElementVariable", 1, slots)
	return ElementVariable{Slot: slots[0]}
}

func (elementLayout) AssertIsValid(circuit.ConstraintAPI, ElementVariable) {}

// BoolVariable is a slot holding 0 or 1.
type BoolVariable struct {
	Slot circuit.Slot
}

func (v BoolVariable) Slots() []circuit.Slot { return []circuit.Slot{v.Slot} }

type boolLayout struct{}

var BoolType Layout[bool, BoolVariable] = boolLayout{}

func (boolLayout) NbElements() int { return 1 }

func (boolLayout) Elements(v bool) []*big.Int {
	if v {
		return []*big.Int{big.NewInt(1)}
	}
	return []*big.Int{big.NewInt(0)}
}

func (boolLayout) FromElements(elements []*big.Int) (bool, error) {
	if err := CheckLength("BoolVariable", 1, elements); err != nil {
		return false, err
	}
	switch {
	case elements[0].Sign() == 0:
		return false, nil
	case elements[0].Cmp(big.NewInt(1)) == 0:
		return true, nil
	default:
		return false, fmt.Errorf("vars: %s is not a boolean", elements[0])
	}
}

func (boolLayout) FromSlots(slots []circuit.Slot) BoolVariable {
	MustHaveSlots("BoolVariable", 1, slots)
	return BoolVariable{Slot: slots[0]}
}

func (boolLayout) AssertIsValid(api circuit.ConstraintAPI, v BoolVariable) {
	api.AssertRange(v.Slot, 1)
}

const (
	// U64Limbs is the number of limbs of a U64Variable.
	U64Limbs = 4
	// U64LimbBits is the width of each limb. 16 bits keeps every limb
	// inside the Mersenne31 field.
	U64LimbBits = 16
)

// U64Variable is a 64-bit unsigned integer as little-endian 16-bit limbs.
type U64Variable struct {
	Limbs [U64Limbs]circuit.Slot
}

func (v U64Variable) Slots() []circuit.Slot { return v.Limbs[:] }

type u64Layout struct{}

var U64Type Layout[uint64, U64Variable] = u64Layout{}

func (u64Layout) NbElements() int { return U64Limbs }

func (u64Layout) Elements(v uint64) []*big.Int {
	res := make([]*big.Int, U64Limbs)
	for i := range res {
		res[i] = new(big.Int).SetUint64((v >> (i * U64LimbBits)) & (1<<U64LimbBits - 1))
	}
	return res
}

func (u64Layout) FromElements(elements []*big.Int) (uint64, error) {
	if err := CheckLength("U64Variable", U64Limbs, elements); err != nil {
		return 0, err
	}
	var v uint64
	for i, e := range elements {
		if e.Sign() < 0 || e.BitLen() > U64LimbBits {
			return 0, fmt.Errorf("vars: u64 limb %d out of range: %s", i, e)
		}
		v |= e.Uint64() << (i * U64LimbBits)
	}
	return v, nil
}

func (u64Layout) FromSlots(slots []circuit.Slot) U64Variable {
	MustHaveSlots("U64Variable", U64Limbs, slots)
	var v U64Variable
	copy(v.Limbs[:], slots)
	return v
}

func (u64Layout) AssertIsValid(api circuit.ConstraintAPI, v U64Variable) {
	for _, s := range v.Limbs {
		api.AssertRange(s, U64LimbBits)
	}
}

// Bytes32Variable is 32 bytes, one byte per slot, most significant first.
type Bytes32Variable [common.HashLength]circuit.Slot

func (v Bytes32Variable) Slots() []circuit.Slot { return v[:] }

type bytes32Layout struct{}

var Bytes32Type Layout[common.Hash, Bytes32Variable] = bytes32Layout{}

func (bytes32Layout) NbElements() int { return common.HashLength }

func (bytes32Layout) Elements(v common.Hash) []*big.Int {
	res := make([]*big.Int, common.HashLength)
	for i, b := range v {
		res[i] = big.NewInt(int64(b))
	}
	return res
}

func (bytes32Layout) FromElements(elements []*big.Int) (common.Hash, error) {
	var h common.Hash
	if err := CheckLength("Bytes32Variable", common.HashLength, elements); err != nil {
		return h, err
	}
	for i, e := range elements {
		if e.Sign() < 0 || e.BitLen() > 8 {
			return common.Hash{}, fmt.Errorf("vars: byte %d out of range: %s", i, e)
		}
		h[i] = byte(e.Uint64())
	}
	return h, nil
}

func (bytes32Layout) FromSlots(slots []circuit.Slot) Bytes32Variable {
	MustHaveSlots("Bytes32Variable", common.HashLength, slots)
	var v Bytes32Variable
	copy(v[:], slots)
	return v
}

func (bytes32Layout) AssertIsValid(api circuit.ConstraintAPI, v Bytes32Variable) {
	for _, s := range v {
		api.AssertRange(s, 8)
	}
}
