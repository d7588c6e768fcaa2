package googledrive

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/culpastquestions-arch/caleb-university-resource-bank-project/internal/adapter"
	"github.com/culpastquestions-arch/caleb-university-resource-bank-project/internal/logging"
	"github.com/culpastquestions-arch/caleb-university-resource-bank-project/internal/metrics"
)

const (
	pageSize     = 1000
	folderFields = "nextPageToken, files(id, name, mimeType, modifiedTime)"
	fileFields   = "nextPageToken, files(id, name, mimeType, modifiedTime, size, webViewLink, webContentLink)"
)

// DriveAdapter implements adapter.Provider for Google Drive.
type DriveAdapter struct {
	service *drive.Service
	limiter *rate.Limiter
}

// NewDriveAdapter creates a new DriveAdapter.
// opts carry the credentials (API key or token source) and, in tests, the endpoint.
// A nil limiter disables throttling.
func NewDriveAdapter(ctx context.Context, limiter *rate.Limiter, opts ...option.ClientOption) (*DriveAdapter, error) {
	srv, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve Drive client: %w", err)
	}
	return &DriveAdapter{service: srv, limiter: limiter}, nil
}

// ListFolders lists the child folders of parentID.
func (d *DriveAdapter) ListFolders(ctx context.Context, parentID string) ([]adapter.FileMetadata, error) {
	clause := fmt.Sprintf("mimeType = '%s'", adapter.FolderMimeType)
	return d.listChildren(ctx, "list_folders", parentID, clause, folderFields)
}

// ListFiles lists the child PDF documents of parentID.
func (d *DriveAdapter) ListFiles(ctx context.Context, parentID string) ([]adapter.FileMetadata, error) {
	clause := fmt.Sprintf("mimeType = '%s'", adapter.DocumentMimeType)
	return d.listChildren(ctx, "list_files", parentID, clause, fileFields)
}

func (d *DriveAdapter) listChildren(ctx context.Context, op, parentID, mimeClause, fields string) ([]adapter.FileMetadata, error) {
	if err := d.wait(ctx); err != nil {
		return nil, err
	}

	q := fmt.Sprintf("'%s' in parents and %s and trashed = false", escapeQuery(parentID), mimeClause)
	start := time.Now()

	files := []adapter.FileMetadata{}
	err := d.service.Files.List().
		Q(q).
		Fields(googleapi.Field(fields)).
		OrderBy("name").
		PageSize(pageSize).
		SupportsAllDrives(true).
		IncludeItemsFromAllDrives(true).
		Pages(ctx, func(r *drive.FileList) error {
			for _, f := range r.Files {
				files = append(files, toMetadata(f))
			}
			if r.NextPageToken != "" {
				return d.wait(ctx)
			}
			return nil
		})
	metrics.RecordProviderCall(op, err, time.Since(start))
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("folder %q: %w", parentID, adapter.ErrNotFound)
		}
		return nil, fmt.Errorf("unable to list children of %q: %w", parentID, err)
	}
	return files, nil
}

func (d *DriveAdapter) wait(ctx context.Context) error {
	if d.limiter == nil {
		return nil
	}
	if err := d.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("drive rate limiter: %w", err)
	}
	return nil
}

// toMetadata converts a Drive file. Drive reports a size for every binary
// upload, so documents always carry one, zero included.
func toMetadata(f *drive.File) adapter.FileMetadata {
	modTime, err := time.Parse(time.RFC3339, f.ModifiedTime)
	if err != nil && f.ModifiedTime != "" {
		logging.L().Warn("drive returned malformed modifiedTime",
			zap.String("id", f.Id), zap.String("modifiedTime", f.ModifiedTime), zap.Error(err))
	}
	return adapter.FileMetadata{
		ID:             f.Id,
		Name:           f.Name,
		MIMEType:       f.MimeType,
		ModifiedTime:   modTime,
		Size:           f.Size,
		HasSize:        f.MimeType == adapter.DocumentMimeType || f.Size > 0,
		WebViewLink:    f.WebViewLink,
		WebContentLink: f.WebContentLink,
	}
}

// escapeQuery escapes a value for use inside a single-quoted Drive query string.
func escapeQuery(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `'`, `\'`)
}

func isNotFound(err error) bool {
	var gErr *googleapi.Error
	if errors.As(err, &gErr) {
		return gErr.Code == 404
	}
	return false
}

var _ adapter.Provider = (*DriveAdapter)(nil)
