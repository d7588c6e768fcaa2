package adapter

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a path segment does not resolve to a folder.
	ErrNotFound = errors.New("resource not found")

	// ErrUpstream is returned when the storage provider call fails
	// (network, quota, auth or any non-success status).
	ErrUpstream = errors.New("upstream fetch failed")

	// ErrConfiguration is returned when required provider configuration is absent.
	ErrConfiguration = errors.New("gateway is not configured")
)

// PathNotFoundError names the segment that failed to resolve and the full path.
type PathNotFoundError struct {
	Segment string
	Path    string
}

func (e *PathNotFoundError) Error() string {
	return fmt.Sprintf("folder %q not found in path %q", e.Segment, e.Path)
}

func (e *PathNotFoundError) Unwrap() error {
	return ErrNotFound
}
