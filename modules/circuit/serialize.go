package circuit

import (
	"fmt"
	"io"

	"DeferredWitnessCircuit/modules/fields"

	"github.com/blang/semver/v4"
	"github.com/fxamacker/cbor/v2"
)

type serializedGenerator struct {
	ID   string `cbor:"1,keyasint"`
	Data []byte `cbor:"2,keyasint"`
}

type serializedCircuit struct {
	Magic       uint64                `cbor:"1,keyasint"`
	Version     string                `cbor:"2,keyasint"`
	Field       uint64                `cbor:"3,keyasint"`
	NbSlots     int                   `cbor:"4,keyasint"`
	Inputs      []Slot                `cbor:"5,keyasint"`
	Constraints []Constraint          `cbor:"6,keyasint"`
	Generators  []serializedGenerator `cbor:"7,keyasint"`
}

// WriteTo encodes the circuit, including the static configuration of every
// generator. It fails if any generator has no persistent form, since the
// circuit could not be replayed from the result.
func (c *Circuit) WriteTo(w io.Writer) (int64, error) {
	doc := serializedCircuit{
		Magic:       MAGIC_NUM,
		Version:     FormatVersion.String(),
		Field:       uint64(c.Field),
		NbSlots:     c.NbSlots,
		Inputs:      c.Inputs,
		Constraints: c.Constraints,
		Generators:  make([]serializedGenerator, len(c.Generators)),
	}
	for i, g := range c.Generators {
		data, err := g.Serialize()
		if err != nil {
			return 0, fmt.Errorf("serialize generator %d (%s): %w", i, g.ID(), err)
		}
		doc.Generators[i] = serializedGenerator{ID: g.ID(), Data: data}
	}

	buf, err := cbor.Marshal(doc)
	if err != nil {
		return 0, err
	}
	n, err := w.Write(buf)
	return int64(n), err
}

// ReadCircuit decodes a circuit written by WriteTo. Generators are rebuilt
// through the decoders registered with RegisterGenerator.
func ReadCircuit(r io.Reader) (*Circuit, error) {
	buf, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var doc serializedCircuit
	if err := cbor.Unmarshal(buf, &doc); err != nil {
		return nil, fmt.Errorf("circuit: decode: %w", err)
	}
	if doc.Magic != MAGIC_NUM {
		return nil, fmt.Errorf("%w: bad magic %d", ErrIncompatibleFormat, doc.Magic)
	}
	version, err := semver.Parse(doc.Version)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIncompatibleFormat, err)
	}
	if version.Major != FormatVersion.Major {
		return nil, fmt.Errorf("%w: version %s, reader supports %d.x", ErrIncompatibleFormat, version, FormatVersion.Major)
	}

	generators := make([]Generator, len(doc.Generators))
	for i, sg := range doc.Generators {
		g, err := DeserializeGenerator(sg.ID, sg.Data)
		if err != nil {
			return nil, fmt.Errorf("deserialize generator %d (%s): %w", i, sg.ID, err)
		}
		generators[i] = g
	}

	return newCircuit(fields.ECCFieldEnum(doc.Field), doc.NbSlots, doc.Inputs, generators, doc.Constraints)
}
