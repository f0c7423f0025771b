package rtview

import "errors"

// Errors returned by resource construction and frame recording.
var (
	// ErrNilDevice is returned when a nil device is passed to a constructor.
	ErrNilDevice = errors.New("rtview: device is nil")

	// ErrResourceCreation wraps every GPU object creation failure. It
	// means no valid rendering path exists and the caller should abort.
	ErrResourceCreation = errors.New("rtview: GPU resource creation failed")

	// ErrInvalidCapacity is returned for a zero or oversized output texture.
	ErrInvalidCapacity = errors.New("rtview: invalid output texture capacity")

	// ErrClosed is returned when a closed Resources bundle is used.
	ErrClosed = errors.New("rtview: resources closed")

	// ErrTimingReadback is returned when the timing staging buffer could
	// not be mapped for a reason other than a timeout.
	ErrTimingReadback = errors.New("rtview: timing read-back failed")
)
