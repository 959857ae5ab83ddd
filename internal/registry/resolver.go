package registry

import (
	"errors"
	"fmt"
)

// ErrUnknownIdentifier marks a requested sample that is absent from the registry.
var ErrUnknownIdentifier = errors.New("unknown sample identifier")

// UnknownIdentifierError reports the first requested identifier that could
// not be resolved. Resolution fails fast: no partial grouping is returned.
type UnknownIdentifierError struct {
	ID string
}

func (e *UnknownIdentifierError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %q", ErrUnknownIdentifier.Error(), e.ID)
}

func (e *UnknownIdentifierError) Unwrap() error { return ErrUnknownIdentifier }

// PathGroup is the set of requested identifiers backed by one file.
//
// Identifiers keep request order; groups keep the order in which their path
// was first encountered. Two groups never share a path.
type PathGroup struct {
	Path string
	IDs  []string
}

// Reporter receives resolution observability events. The resolver reports
// but does not decide what, if anything, the caller does with them.
type Reporter interface {
	Infof(format string, args ...any)
}

// Resolve looks up every requested identifier, in input order, and groups
// identifiers sharing a backing path into a single PathGroup so the query
// tool is invoked once per file rather than once per sample.
//
// The first identifier absent from the registry aborts resolution with an
// UnknownIdentifierError and no groups.
func Resolve(reg Registry, requested []string, report Reporter) ([]PathGroup, error) {
	// Explicit ordered map: the slice owns group order, the index map only
	// locates a path's slot. Avoids the aliasing hazards of sharing slices
	// between a hash and an output list.
	groups := make([]PathGroup, 0, len(requested))
	byPath := make(map[string]int, len(requested))

	for _, id := range requested {
		path, ok := reg[id]
		if !ok {
			return nil, &UnknownIdentifierError{ID: id}
		}
		if report != nil {
			report.Infof("resolved sample %s -> %s", id, path)
		}
		if i, seen := byPath[path]; seen {
			groups[i].IDs = append(groups[i].IDs, id)
			continue
		}
		byPath[path] = len(groups)
		groups = append(groups, PathGroup{Path: path, IDs: []string{id}})
	}

	return groups, nil
}
