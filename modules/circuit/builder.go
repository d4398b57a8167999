package circuit

import (
	"fmt"

	"DeferredWitnessCircuit/modules/fields"
)

// Allocator hands out fresh slots.
type Allocator interface {
	AllocateSlots(n int) []Slot
}

// ConstraintAPI records validity constraints over slots.
type ConstraintAPI interface {
	AssertRange(s Slot, bits int)
	AssertEqual(a, b Slot)
}

// API is what circuit construction code needs from a host: slots,
// constraints and a place to register generators.
type API interface {
	Allocator
	ConstraintAPI
	AddGenerator(g Generator) int
}

// Builder collects slots, generators and constraints while a circuit is
// declared. It is not safe for concurrent use. Build freezes it.
type Builder struct {
	field fields.ECCFieldEnum

	nbSlots     int
	inputs      []Slot
	generators  []Generator
	producers   map[Slot]int
	constraints []Constraint

	built bool
}

// NewBuilder starts an empty circuit over field.
func NewBuilder(field fields.ECCFieldEnum) *Builder {
	return &Builder{
		field:     field,
		producers: make(map[Slot]int),
	}
}

// Field is the field the circuit is declared over.
func (b *Builder) Field() fields.ECCFieldEnum {
	return b.field
}

// AllocateSlots returns n fresh slots with no producer.
func (b *Builder) AllocateSlots(n int) []Slot {
	b.mustBeOpen()
	if n < 0 {
		panic(fmt.Sprintf("circuit: negative slot count %d", n))
	}
	slots := make([]Slot, n)
	for i := range slots {
		slots[i] = Slot(b.nbSlots + i)
	}
	b.nbSlots += n
	return slots
}

// AddInput allocates n slots whose values are supplied by the caller
// before resolution.
func (b *Builder) AddInput(n int) []Slot {
	slots := b.AllocateSlots(n)
	b.inputs = append(b.inputs, slots...)
	return slots
}

// AddGenerator places g in the generator arena and returns its index, which
// stays stable for the life of the circuit. Every output slot must be
// allocated and may have only one producer.
func (b *Builder) AddGenerator(g Generator) int {
	b.mustBeOpen()
	idx := len(b.generators)
	for _, s := range g.Outputs() {
		b.mustBeAllocated(s)
		if other, ok := b.producers[s]; ok {
			panic(fmt.Sprintf("circuit: slot %d produced by both generator %d (%s) and %d (%s)",
				s, other, b.generators[other].ID(), idx, g.ID()))
		}
		b.producers[s] = idx
	}
	for _, s := range g.Dependencies() {
		b.mustBeAllocated(s)
	}
	b.generators = append(b.generators, g)
	return idx
}

// AssertRange constrains s to fit in bits bits.
func (b *Builder) AssertRange(s Slot, bits int) {
	b.mustBeOpen()
	b.mustBeAllocated(s)
	if bits <= 0 || bits >= b.field.FieldBits() {
		panic(fmt.Sprintf("circuit: cannot range check %d bits over %s", bits, b.field))
	}
	b.constraints = append(b.constraints, Constraint{Kind: RangeCheck, A: s, Bits: bits})
}

// AssertEqual constrains two slots to hold the same value.
func (b *Builder) AssertEqual(x, y Slot) {
	b.mustBeOpen()
	b.mustBeAllocated(x)
	b.mustBeAllocated(y)
	b.constraints = append(b.constraints, Constraint{Kind: Equality, A: x, B: y})
}

// Build freezes the builder into a Circuit.
func (b *Builder) Build() (*Circuit, error) {
	b.mustBeOpen()
	c, err := newCircuit(b.field, b.nbSlots, b.inputs, b.generators, b.constraints)
	if err != nil {
		return nil, err
	}
	b.built = true
	return c, nil
}

func (b *Builder) mustBeOpen() {
	if b.built {
		panic("circuit: builder already built")
	}
}

func (b *Builder) mustBeAllocated(s Slot) {
	if int(s) >= b.nbSlots {
		panic(fmt.Sprintf("circuit: slot %d was never allocated", s))
	}
}
