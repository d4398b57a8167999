package circuit

import (
	"fmt"
	"math/big"
	"sync"

	"DeferredWitnessCircuit/modules/fields"

	"github.com/bits-and-blooms/bitset"
)

// WitnessReader is the read side of a witness buffer, handed to generators.
type WitnessReader interface {
	Get(s Slot) (*big.Int, error)
}

// WitnessWriter is the write side of a witness buffer.
type WitnessWriter interface {
	Set(s Slot, v *big.Int) error
}

// Witness maps every slot of a circuit to its concrete value for one
// resolution pass. Every slot is written at most once. Values are kept
// reduced modulo the field.
//
// Witness is safe for concurrent use. The lock is only held for the
// duration of a single Get or Set.
type Witness struct {
	modulus *big.Int

	mu     sync.RWMutex
	values []*big.Int
	set    *bitset.BitSet
}

// NewWitness creates an empty witness with nbSlots slots over the field
// with the given modulus.
func NewWitness(modulus *big.Int, nbSlots int) *Witness {
	return &Witness{
		modulus: new(big.Int).Set(modulus),
		values:  make([]*big.Int, nbSlots),
		set:     bitset.New(uint(nbSlots)),
	}
}

// Modulus returns the field modulus values are reduced by.
func (w *Witness) Modulus() *big.Int {
	return new(big.Int).Set(w.modulus)
}

// NbSlots is the number of slots the witness holds.
func (w *Witness) NbSlots() int {
	return len(w.values)
}

// Get returns a copy of the value held by s.
func (w *Witness) Get(s Slot) (*big.Int, error) {
	if int(s) >= len(w.values) {
		return nil, fmt.Errorf("%w: %d", ErrUnknownSlot, s)
	}

	w.mu.RLock()
	defer w.mu.RUnlock()
	if !w.set.Test(uint(s)) {
		return nil, fmt.Errorf("%w: %d", ErrSlotUnset, s)
	}
	return new(big.Int).Set(w.values[s]), nil
}

// Set assigns v (reduced) to s. A slot can only be assigned once.
func (w *Witness) Set(s Slot, v *big.Int) error {
	if int(s) >= len(w.values) {
		return fmt.Errorf("%w: %d", ErrUnknownSlot, s)
	}
	if v == nil {
		return fmt.Errorf("circuit: nil value for slot %d", s)
	}
	reduced := fields.Reduce(w.modulus, v)

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.set.Test(uint(s)) {
		return fmt.Errorf("%w: %d", ErrSlotAlreadySet, s)
	}
	w.values[s] = reduced
	w.set.Set(uint(s))
	return nil
}

// IsSet reports whether s holds a value.
func (w *Witness) IsSet(s Slot) bool {
	if int(s) >= len(w.values) {
		return false
	}
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.set.Test(uint(s))
}

// NbSet is the number of populated slots.
func (w *Witness) NbSet() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return int(w.set.Count())
}

// FirstUnset returns the lowest slot without a value, if any.
func (w *Witness) FirstUnset() (Slot, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	i, ok := w.set.NextClear(0)
	if !ok || int(i) >= len(w.values) {
		return 0, false
	}
	return Slot(i), true
}

// Values returns every slot value in slot order. It fails if the witness is
// not fully populated.
func (w *Witness) Values() ([]*big.Int, error) {
	if s, ok := w.FirstUnset(); ok {
		return nil, fmt.Errorf("%w: slot %d unset (%d/%d populated)", ErrWitnessIncomplete, s, w.NbSet(), w.NbSlots())
	}

	w.mu.RLock()
	defer w.mu.RUnlock()
	res := make([]*big.Int, len(w.values))
	for i, v := range w.values {
		res[i] = new(big.Int).Set(v)
	}
	return res, nil
}
