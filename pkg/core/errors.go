package core

import "errors"

var (
	// ErrCapacityExhausted is raised (as a panic value) when a fixed-size
	// node or record pool overflows. Pools are sized from the scene, so
	// this is a sizing bug rather than a runtime condition.
	ErrCapacityExhausted = errors.New("capacity exhausted")

	// ErrDegenerateRecord is returned when no octree level can hold a
	// record of the given radius
	ErrDegenerateRecord = errors.New("degenerate irradiance record")

	// ErrBusy is returned when a render is requested while one is running
	ErrBusy = errors.New("renderer busy")
)
