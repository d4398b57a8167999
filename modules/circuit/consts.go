package circuit

import "github.com/blang/semver/v4"

// MAGIC_NUM opens every serialized circuit.
const MAGIC_NUM uint64 = 5639992527026537796 // b'DEFERGEN'

// FormatVersion is the version of the serialized circuit layout. Readers
// accept any document with the same major version.
var FormatVersion = semver.MustParse("1.0.0")

// Slot is the identifier of one field-element-valued wire. Slots are dense
// indices handed out by a Builder, starting at zero.
type Slot uint32
