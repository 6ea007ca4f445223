package store

import "errors"

var (
	// ErrNotFound is returned when the requested key does not exist.
	ErrNotFound = errors.New("object not found")

	// ErrNotAnObjectKey is returned by the layout parser for keys that do
	// not match the uploads/{principal}/{uuid}/... template.
	ErrNotAnObjectKey = errors.New("key does not match the object layout")
)
