package twinview

import (
	"fmt"
	"strings"
)

// A ValidationError reports a connection that violates the caller contract:
// an edge whose source or target identifier is blank. Blank identifiers are
// rejected (instead of silently dropped) because a silent drop would hide
// data-entry mistakes in the connections document.
type ValidationError struct {
	Index int  // position of the offending edge in the input sequence
	Edge  Edge // the offending edge
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid edge at index %d: %q -> %q: blank identifier", e.Index, e.Edge.Source, e.Edge.Target)
}

// A StructuralError reports a cycle discovered while rendering: a node that
// is its own ancestor. The forest builder does not verify acyclicity, so a
// connections document that cycles back to a root would otherwise recurse
// without bound.
//
// Path lists the identifiers on the recursion path from the root up to, and
// including, the revisited node.
type StructuralError struct {
	ID   string   // identifier of the revisited node
	Path []string // recursion path that led back to it
}

func (e *StructuralError) Error() string {
	return fmt.Sprintf("cycle through %q: %s", e.ID, strings.Join(e.Path, " -> "))
}
