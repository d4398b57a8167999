package fields

import (
	"fmt"
	"math/big"
	"strings"

	eccFields "github.com/PolyhedraZK/ExpanderCompilerCollection/ecgo/field"
)

// ECCFieldEnum is the enum value indicating the field that slots take values in
type ECCFieldEnum uint64

// The enum assignment is aligning with the ones on ECGO side.
const (
	// ECCBN254 is the ECCFieldEnum for BN254 field
	ECCBN254 ECCFieldEnum = 2
	// ECCM31 is the ECCFieldEnum for Mersenne31 field
	ECCM31 ECCFieldEnum = 1
	// ECCGF2 is the ECCFieldEnum for Galois2 field
	ECCGF2 ECCFieldEnum = 3
)

// Valid reports whether f names a field this module knows.
func (f ECCFieldEnum) Valid() bool {
	switch f {
	case ECCBN254, ECCM31, ECCGF2:
		return true
	}
	return false
}

func (f ECCFieldEnum) GetFieldEngine() eccFields.Field {
	return eccFields.GetFieldById(uint64(f))
}

// FieldModulus finds the modulus for the base field tied to the ECC field enum
func (f ECCFieldEnum) FieldModulus() *big.Int {
	fieldEngine := f.GetFieldEngine()
	return fieldEngine.Field()
}

// FieldBytes stand for the number of bytes of the base field modulus
// tied to the ECC field enum
func (f ECCFieldEnum) FieldBytes() uint {
	return modulusBytes(f.FieldModulus())
}

// FieldBits is the bit length of the field modulus.
func (f ECCFieldEnum) FieldBits() int {
	return f.FieldModulus().BitLen()
}

func (f ECCFieldEnum) String() string {
	switch f {
	case ECCBN254:
		return "bn254"
	case ECCM31:
		return "m31"
	case ECCGF2:
		return "gf2"
	default:
		return fmt.Sprintf("ECCFieldEnum(%d)", uint64(f))
	}
}

// ParseFieldEnum maps a field name (bn254, m31, gf2) to its enum.
func ParseFieldEnum(name string) (ECCFieldEnum, error) {
	switch strings.ToLower(name) {
	case "bn254":
		return ECCBN254, nil
	case "m31", "mersenne31":
		return ECCM31, nil
	case "gf2":
		return ECCGF2, nil
	default:
		return 0, fmt.Errorf("fields: unknown field %q", name)
	}
}

// Reduce returns the canonical representative of v, in [0, modulus).
func Reduce(modulus, v *big.Int) *big.Int {
	return new(big.Int).Mod(v, modulus)
}

func modulusBytes(modulus *big.Int) uint {
	return (uint(modulus.BitLen()) + 8 - 1) / 8
}
