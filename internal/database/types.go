package database

import "errors"

var (
	// ErrNotFound is returned when a requested row does not exist.
	ErrNotFound = errors.New("database: not found")
	// ErrVersionConflict is returned by ProgressRepository.Save when the
	// stored record changed since it was read.
	ErrVersionConflict = errors.New("database: progress was modified concurrently")
)
