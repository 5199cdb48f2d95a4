package geoviz

import (
	"fmt"

	"github.com/beetlebugorg/geoviz/internal/proj"
	"github.com/cockroachdb/errors"
)

// Error kinds returned by this package. Match them with errors.Is; concrete
// errors such as *GeometryError wrap one of these.
var (
	// ErrInvalidGeometry marks geometry that violates structural rules
	// (unclosed ring, too few coordinates, non-finite or out of range values).
	ErrInvalidGeometry = errors.New("invalid geometry")

	// ErrEmptyGeometry marks a geometry with no coordinates.
	ErrEmptyGeometry = errors.New("empty geometry")

	// ErrProjectionSingularity marks a coordinate that cannot be projected,
	// such as a pole in Web Mercator.
	ErrProjectionSingularity = proj.ErrSingularity

	// ErrIndexQuery marks a spatial index that cannot answer for the
	// collection it is used with.
	ErrIndexQuery = errors.New("index query failed")

	// ErrUnknownCRS marks an unsupported coordinate reference system.
	ErrUnknownCRS = proj.ErrUnknownCRS

	// ErrCRSMismatch marks a geometry whose reference system differs from
	// the collection it is added to.
	ErrCRSMismatch = errors.New("coordinate reference system mismatch")

	// ErrDuplicateID marks a feature ID already present in the collection.
	ErrDuplicateID = errors.New("duplicate feature id")

	// ErrUnsupportedAttribute marks an attribute value that is not a
	// string, number or boolean.
	ErrUnsupportedAttribute = errors.New("unsupported attribute value")

	// ErrInvalidViewport marks a viewport with an inverted or non-finite box
	// or a negative zoom.
	ErrInvalidViewport = errors.New("invalid viewport")
)

// GeometryError describes why a geometry was rejected.
type GeometryError struct {
	Kind   Kind   // Geometry kind, zero when the type itself is unsupported
	Reason string // Human readable cause
	Err    error  // ErrInvalidGeometry or ErrEmptyGeometry
}

func (e *GeometryError) Error() string {
	if e.Kind != 0 {
		return fmt.Sprintf("%v (%v): %s", e.Err, e.Kind, e.Reason)
	}
	return fmt.Sprintf("%v: %s", e.Err, e.Reason)
}

// Unwrap exposes the error kind to errors.Is.
func (e *GeometryError) Unwrap() error { return e.Err }

func invalidGeometry(k Kind, format string, args ...any) error {
	return &GeometryError{Kind: k, Reason: fmt.Sprintf(format, args...), Err: ErrInvalidGeometry}
}

func emptyGeometry(k Kind, reason string) error {
	return &GeometryError{Kind: k, Reason: reason, Err: ErrEmptyGeometry}
}
