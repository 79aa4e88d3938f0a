package partition

import "github.com/cockroachdb/errors"

var (
	// ErrNotFound is returned when a track, genre or partition does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput is returned for missing fields or malformed requests.
	ErrInvalidInput = errors.New("invalid input")
)

// IsNotFound reports whether err is (or wraps) ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsInvalidInput reports whether err is (or wraps) ErrInvalidInput.
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

func notFoundf(format string, args ...any) error {
	return errors.Wrapf(ErrNotFound, format, args...)
}

func invalidf(format string, args ...any) error {
	return errors.Wrapf(ErrInvalidInput, format, args...)
}
