package file

import (
	"time"

	"github.com/nekogravitycat/codriving-backend/internal/pkg/apperror"
)

var (
	ErrNotFound          = apperror.NotFound("file not found")
	ErrThumbnailNotFound = apperror.NotFound("thumbnail not available for this file")
	ErrTooLarge          = apperror.InvalidRequest("file is too large")
	ErrUnsupportedType   = apperror.InvalidRequest("unsupported file type")
	ErrNotAnImage        = apperror.InvalidRequest("file is not a valid image")
)

// File is an uploaded binary owned by a user. Profile pictures are the only producer today.
type File struct {
	ID            string
	UserID        string
	Filename      string
	StoragePath   string
	ThumbnailPath *string
	ContentType   string
	Size          int64
	CreatedAt     time.Time
}

// FileURL returns the public URL for accessing a file by its ID.
func FileURL(id string) string {
	return "/v1/files/" + id
}

// ThumbnailURL returns the public URL for a file's thumbnail.
func ThumbnailURL(id string) string {
	return "/v1/files/" + id + "/thumbnail"
}
