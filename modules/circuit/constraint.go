package circuit

import (
	"fmt"
)

// ConstraintKind tags the constraint records a Builder collects.
type ConstraintKind uint8

const (
	// RangeCheck asserts a slot value fits in Bits bits.
	RangeCheck ConstraintKind = iota + 1
	// Equality asserts two slots hold the same value.
	Equality
)

// Constraint is a validity relation over witness slots. Constraints are
// checked by Circuit.IsSolved, never during resolution.
type Constraint struct {
	Kind ConstraintKind
	A    Slot
	B    Slot
	Bits int
}

func (c Constraint) String() string {
	switch c.Kind {
	case RangeCheck:
		return fmt.Sprintf("range(%d, %d bits)", c.A, c.Bits)
	case Equality:
		return fmt.Sprintf("eq(%d, %d)", c.A, c.B)
	default:
		return fmt.Sprintf("constraint(kind=%d)", c.Kind)
	}
}

// Check evaluates the constraint against r.
func (c Constraint) Check(r WitnessReader) error {
	a, err := r.Get(c.A)
	if err != nil {
		return err
	}

	switch c.Kind {
	case RangeCheck:
		if a.BitLen() > c.Bits {
			return fmt.Errorf("%w: %s, value has %d bits", ErrConstraintViolated, c, a.BitLen())
		}
	case Equality:
		b, err := r.Get(c.B)
		if err != nil {
			return err
		}
		if a.Cmp(b) != 0 {
			return fmt.Errorf("%w: %s", ErrConstraintViolated, c)
		}
	default:
		return fmt.Errorf("%w: unknown constraint kind %d", ErrInvalidCircuitState, c.Kind)
	}
	return nil
}

func (c Constraint) slots() []Slot {
	if c.Kind == Equality {
		return []Slot{c.A, c.B}
	}
	return []Slot{c.A}
}
