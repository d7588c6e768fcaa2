package adapter

import (
	"context"
	"time"
)

// FolderMimeType is the Drive MIME type for folders.
const FolderMimeType = "application/vnd.google-apps.folder"

// DocumentMimeType is the only file type exposed in listings.
const DocumentMimeType = "application/pdf"

// FileMetadata represents one child of a folder as reported by the provider.
type FileMetadata struct {
	ID             string
	Name           string
	MIMEType       string
	ModifiedTime   time.Time
	Size           int64
	HasSize        bool
	WebViewLink    string
	WebContentLink string
}

// Provider lists the immediate children of a provider folder.
// Implementations return children ordered by name.
type Provider interface {
	// ListFolders lists the child folders of parentID.
	ListFolders(ctx context.Context, parentID string) ([]FileMetadata, error)

	// ListFiles lists the child documents of parentID.
	ListFiles(ctx context.Context, parentID string) ([]FileMetadata, error)
}
