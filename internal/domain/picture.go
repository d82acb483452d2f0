package domain

import (
	"strings"

	"github.com/google/uuid"
)

const (
	PhotoWidth      = 500
	PhotoHeight     = 600
	ThumbnailWidth  = 75
	ThumbnailHeight = 90
)

type CustomerPhoto struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	CustomerID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`
	Content    []byte    `gorm:"type:bytea"`
	MimeType   string    `gorm:"size:255"`
}

type CustomerThumbnail struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	CustomerID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`
	Content    []byte    `gorm:"type:bytea"`
	MimeType   string    `gorm:"size:255"`
}

// Upload is a file received from a form, already read into memory.
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// IsImage reports whether the upload carries something worth resizing.
func (u *Upload) IsImage() bool {
	if u == nil || len(u.Data) == 0 || u.ContentType == "" {
		return false
	}
	return strings.HasPrefix(strings.ToLower(u.ContentType), "image/")
}

// PictureOp tells the gateway what to do with the photo pair on update.
type PictureOp int

const (
	PictureKeep PictureOp = iota
	PictureReplace
	PictureClear
)

// Resizer produces a fixed-size rendition of an encoded image.
type Resizer interface {
	Resize(data []byte, width, height int) ([]byte, error)
	MimeType() string
}
