package circuit

import (
	"fmt"
	"sort"

	"DeferredWitnessCircuit/modules/fields"
	"DeferredWitnessCircuit/modules/logger"
)

// Circuit is a frozen slot graph: slots, caller inputs, the generator arena
// and the constraints the witness must satisfy.
type Circuit struct {
	Field       fields.ECCFieldEnum
	NbSlots     int
	Inputs      []Slot
	Generators  []Generator
	Constraints []Constraint

	// producers maps an output slot to the arena index of its generator.
	producers map[Slot]int
	// levels groups arena indices so that every generator only depends on
	// outputs of earlier levels.
	levels [][]int
}

func newCircuit(
	field fields.ECCFieldEnum,
	nbSlots int,
	inputs []Slot,
	generators []Generator,
	constraints []Constraint,
) (*Circuit, error) {
	if !field.Valid() {
		return nil, fmt.Errorf("%w: unknown field %s", ErrIncompatibleFormat, field)
	}
	if nbSlots < 0 {
		return nil, fmt.Errorf("%w: negative slot count %d", ErrInvalidCircuitState, nbSlots)
	}

	c := &Circuit{
		Field:       field,
		NbSlots:     nbSlots,
		Inputs:      append([]Slot(nil), inputs...),
		Generators:  append([]Generator(nil), generators...),
		Constraints: append([]Constraint(nil), constraints...),
		producers:   make(map[Slot]int),
	}

	checkSlot := func(s Slot) error {
		if int(s) >= nbSlots {
			return fmt.Errorf("%w: slot %d out of %d", ErrInvalidCircuitState, s, nbSlots)
		}
		return nil
	}

	isInput := make(map[Slot]bool, len(inputs))
	for _, s := range inputs {
		if err := checkSlot(s); err != nil {
			return nil, err
		}
		isInput[s] = true
	}
	for i, g := range c.Generators {
		for _, s := range g.Outputs() {
			if err := checkSlot(s); err != nil {
				return nil, err
			}
			if isInput[s] {
				return nil, fmt.Errorf("%w: input slot %d is produced by generator %d (%s)", ErrInvalidCircuitState, s, i, g.ID())
			}
			if other, ok := c.producers[s]; ok {
				return nil, fmt.Errorf("%w: slot %d produced by generators %d and %d", ErrInvalidCircuitState, s, other, i)
			}
			c.producers[s] = i
		}
		for _, s := range g.Dependencies() {
			if err := checkSlot(s); err != nil {
				return nil, err
			}
		}
	}
	for i, k := range c.Constraints {
		switch k.Kind {
		case RangeCheck:
			if k.Bits <= 0 || k.Bits >= field.FieldBits() {
				return nil, fmt.Errorf("%w: constraint %d checks %d bits over %s", ErrInvalidCircuitState, i, k.Bits, field)
			}
		case Equality:
		default:
			return nil, fmt.Errorf("%w: constraint %d has unknown kind %d", ErrInvalidCircuitState, i, k.Kind)
		}
		for _, s := range k.slots() {
			if err := checkSlot(s); err != nil {
				return nil, err
			}
		}
	}

	levels, err := c.computeLevels()
	if err != nil {
		return nil, err
	}
	c.levels = levels
	return c, nil
}

// computeLevels layers the generator arena by longest producer chain.
func (c *Circuit) computeLevels() ([][]int, error) {
	nbGenerators := len(c.Generators)
	indegree := make([]int, nbGenerators)
	dependents := make([][]int, nbGenerators)
	for i, g := range c.Generators {
		seen := make(map[int]bool)
		for _, s := range g.Dependencies() {
			p, ok := c.producers[s]
			if !ok || seen[p] {
				continue
			}
			seen[p] = true
			indegree[i]++
			dependents[p] = append(dependents[p], i)
		}
	}

	var levels [][]int
	var current []int
	for i := range indegree {
		if indegree[i] == 0 {
			current = append(current, i)
		}
	}
	placed := 0
	for len(current) > 0 {
		sort.Ints(current)
		levels = append(levels, current)
		placed += len(current)

		var next []int
		for _, i := range current {
			for _, d := range dependents[i] {
				indegree[d]--
				if indegree[d] == 0 {
					next = append(next, d)
				}
			}
		}
		current = next
	}

	if placed != nbGenerators {
		for i, n := range indegree {
			if n > 0 {
				return nil, fmt.Errorf("%w: generator %d (%s) is part of a dependency cycle",
					ErrDependencyUnresolved, i, c.Generators[i].ID())
			}
		}
	}
	return levels, nil
}

// NewWitness returns an empty witness sized for the circuit.
func (c *Circuit) NewWitness() *Witness {
	return NewWitness(c.Field.FieldModulus(), c.NbSlots)
}

// Producer returns the arena index of the generator producing s.
func (c *Circuit) Producer(s Slot) (int, bool) {
	i, ok := c.producers[s]
	return i, ok
}

// NbLevels is the number of sequential scheduling rounds of a resolution.
func (c *Circuit) NbLevels() int {
	return len(c.levels)
}

// IsSolved checks that w is fully populated and satisfies every constraint.
func (c *Circuit) IsSolved(w *Witness) error {
	if w.NbSlots() != c.NbSlots {
		return fmt.Errorf("%w: witness has %d slots, circuit has %d", ErrInvalidCircuitState, w.NbSlots(), c.NbSlots)
	}
	if s, ok := w.FirstUnset(); ok {
		return fmt.Errorf("%w: slot %d unset", ErrWitnessIncomplete, s)
	}
	for i, k := range c.Constraints {
		if err := k.Check(w); err != nil {
			return fmt.Errorf("constraint %d: %w", i, err)
		}
	}
	return nil
}

func (c *Circuit) PrintStats() {
	log := logger.Logger()
	log.Info().
		Str("field", c.Field.String()).
		Int("nbSlots", c.NbSlots).
		Int("nbInputs", len(c.Inputs)).
		Int("nbGenerators", len(c.Generators)).
		Int("nbLevels", len(c.levels)).
		Int("nbConstraints", len(c.Constraints)).
		Msg("circuit stats")
}
