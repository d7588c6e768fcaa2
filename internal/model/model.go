package model

import (
	"fmt"
	"time"
)

// ContentType selects which children of a folder a listing contains.
type ContentType string

const (
	Folders ContentType = "folders"
	Files   ContentType = "files"
)

// ParseContentType validates a "type" query value. Empty means folders.
func ParseContentType(s string) (ContentType, error) {
	switch ContentType(s) {
	case "", Folders:
		return Folders, nil
	case Files:
		return Files, nil
	}
	return "", fmt.Errorf("invalid content type %q (want %q or %q)", s, Folders, Files)
}

// Item describes one folder or file in a listing.
// Folders only carry ID, Name and ModifiedTime.
type Item struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	ModifiedTime   time.Time `json:"modifiedTime,omitzero"`
	Size           *int64    `json:"size,omitempty"`
	WebViewLink    string    `json:"webViewLink,omitempty"`
	WebContentLink string    `json:"webContentLink,omitempty"`
}

// BrowseResponse is the body of a successful GET /browse.
type BrowseResponse struct {
	Path      string      `json:"path"`
	Type      ContentType `json:"type"`
	Data      []Item      `json:"data"`
	Cached    bool        `json:"cached"`
	Timestamp int64       `json:"timestamp"` // unix milliseconds
}

// ErrorResponse is the body of every non-2xx gateway response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Path    string `json:"path,omitempty"`
	Segment string `json:"segment,omitempty"`
}
