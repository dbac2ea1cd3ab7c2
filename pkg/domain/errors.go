package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidParameter is returned when a constructor argument is out of range.
	ErrInvalidParameter = errors.New("invalid parameter")
	// ErrDegenerate is returned for geometry with no interior (flat tetrahedra,
	// zero-length axes, polygons with too few points).
	ErrDegenerate = errors.New("degenerate geometry")
	// ErrNoChildren is returned by combinators given an empty child list.
	ErrNoChildren = errors.New("no child domains")
)

func invalidf(shape, format string, args ...any) error {
	return fmt.Errorf("%s: %s: %w", shape, fmt.Sprintf(format, args...), ErrInvalidParameter)
}

func degeneratef(shape, format string, args ...any) error {
	return fmt.Errorf("%s: %s: %w", shape, fmt.Sprintf(format, args...), ErrDegenerate)
}

// Must panics if err is non-nil and returns d otherwise. It is meant for
// scenes whose parameters are known to be valid at compile time.
func Must[T Domain](d T, err error) T {
	if err != nil {
		panic(err)
	}
	return d
}
