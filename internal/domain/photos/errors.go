package photos

import "errors"

var (
	// ErrNotFound is returned for missing records and for records owned by someone else.
	ErrNotFound = errors.New("photo not found")
	// ErrNotImage indicates the upload is not declared as an image.
	ErrNotImage = errors.New("upload is not an image")
	// ErrInvalidImage indicates the upload could not be decoded.
	ErrInvalidImage = errors.New("image could not be decoded")
)
