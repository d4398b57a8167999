package circuit

import (
	"errors"
	"fmt"
)

var (
	// ErrDependencyUnresolved is returned when a generator is about to run
	// while one of its dependency slots has no value and nothing will produce one.
	ErrDependencyUnresolved = errors.New("circuit: dependency unresolved")

	// ErrExternalFetchFailed wraps any failure of an external data source.
	ErrExternalFetchFailed = errors.New("circuit: external fetch failed")

	// ErrDecodeLengthMismatch is returned when a flat element list does not have
	// exactly the length the decoding layout expects.
	ErrDecodeLengthMismatch = errors.New("circuit: decode length mismatch")

	// ErrUnimplementedPersistence is returned by generators with no persistent form.
	ErrUnimplementedPersistence = errors.New("circuit: generator persistence not implemented")

	ErrSlotAlreadySet      = errors.New("circuit: slot already set")
	ErrSlotUnset           = errors.New("circuit: slot unset")
	ErrUnknownSlot         = errors.New("circuit: unknown slot")
	ErrIncompleteOutput    = errors.New("circuit: generator left declared output unset")
	ErrWitnessIncomplete   = errors.New("circuit: witness incomplete")
	ErrConstraintViolated  = errors.New("circuit: constraint not satisfied")
	ErrUnknownGenerator    = errors.New("circuit: unknown generator id")
	ErrIncompatibleFormat  = errors.New("circuit: incompatible serialized format")
	ErrInvalidCircuitState = errors.New("circuit: invalid circuit")
)

// WrapDependencyUnresolved names the generator and the slot it is waiting on.
func WrapDependencyUnresolved(generatorID string, slot Slot) error {
	return fmt.Errorf("%w: generator=%s slot=%d", ErrDependencyUnresolved, generatorID, slot)
}

// WrapExternalFetchFailed keeps both the kind and the underlying source error
// reachable through errors.Is.
func WrapExternalFetchFailed(generatorID string, err error) error {
	return fmt.Errorf("%w: generator=%s: %w", ErrExternalFetchFailed, generatorID, err)
}

func WrapDecodeLengthMismatch(what string, want, got int) error {
	return fmt.Errorf("%w: %s wants %d elements, got %d", ErrDecodeLengthMismatch, what, want, got)
}

func WrapUnimplementedPersistence(generatorID string) error {
	return fmt.Errorf("%w: generator=%s", ErrUnimplementedPersistence, generatorID)
}
