// Package stream reads and writes typed values strictly left to right over
// flat element sequences, either symbolic slots or concrete field elements.
package stream

import (
	"fmt"

	"DeferredWitnessCircuit/modules/circuit"
)

// Cursor is a left-to-right reader and appender over a flat sequence.
type Cursor[E any] struct {
	Idx   int
	Elems []E
}

// NewCursor reads elems from the start.
func NewCursor[E any](elems []E) *Cursor[E] {
	return &Cursor[E]{Elems: elems}
}

// Next consumes one element.
func (c *Cursor[E]) Next() (E, error) {
	if c.Idx >= len(c.Elems) {
		var zero E
		return zero, fmt.Errorf("%w: stream exhausted at %d", circuit.ErrDecodeLengthMismatch, c.Idx)
	}
	e := c.Elems[c.Idx]
	c.Idx++
	return e, nil
}

// ReadN consumes exactly n elements, or none if fewer remain.
func (c *Cursor[E]) ReadN(n int) ([]E, error) {
	if n < 0 || c.Remaining() < n {
		return nil, fmt.Errorf("%w: need %d elements at %d, %d remaining",
			circuit.ErrDecodeLengthMismatch, n, c.Idx, c.Remaining())
	}
	res := c.Elems[c.Idx : c.Idx+n : c.Idx+n]
	c.Idx += n
	return res, nil
}

// Append adds elements at the end and returns how many were added.
func (c *Cursor[E]) Append(elems ...E) int {
	c.Elems = append(c.Elems, elems...)
	return len(elems)
}

// Remaining is the number of unread elements.
func (c *Cursor[E]) Remaining() int {
	return len(c.Elems) - c.Idx
}

// Len is the total number of elements, read or not.
func (c *Cursor[E]) Len() int {
	return len(c.Elems)
}

// Finalize fails unless every element has been read.
func (c *Cursor[E]) Finalize() error {
	if r := c.Remaining(); r != 0 {
		return fmt.Errorf("%w: %d of %d elements left unread", circuit.ErrDecodeLengthMismatch, r, len(c.Elems))
	}
	return nil
}

func (c *Cursor[E]) Reset() {
	c.Idx = 0
}
