package usecase

import (
	"github.com/google/uuid"

	"github.com/phenrril/catering/internal/domain"
)

// PictureUC keeps the photo and thumbnail of a customer in step.
type PictureUC struct {
	Resizer domain.Resizer
}

// Attach renders both variants from up and stores them on c. Nil, empty or
// non-image uploads leave c untouched and report false.
func (uc *PictureUC) Attach(c *domain.Customer, up *domain.Upload) (bool, error) {
	if c == nil || !up.IsImage() {
		return false, nil
	}
	photo, err := uc.Resizer.Resize(up.Data, domain.PhotoWidth, domain.PhotoHeight)
	if err != nil {
		return false, domain.NewValidationError("Picture", "The uploaded file could not be read as an image.")
	}
	thumb, err := uc.Resizer.Resize(up.Data, domain.ThumbnailWidth, domain.ThumbnailHeight)
	if err != nil {
		return false, domain.NewValidationError("Picture", "The uploaded file could not be read as an image.")
	}
	mime := uc.Resizer.MimeType()

	if c.Photo != nil {
		c.Photo.Content, c.Photo.MimeType = photo, mime
	} else {
		c.Photo = &domain.CustomerPhoto{ID: uuid.New(), CustomerID: c.ID, Content: photo, MimeType: mime}
	}
	if c.Thumbnail != nil {
		c.Thumbnail.Content, c.Thumbnail.MimeType = thumb, mime
	} else {
		c.Thumbnail = &domain.CustomerThumbnail{ID: uuid.New(), CustomerID: c.ID, Content: thumb, MimeType: mime}
	}
	return true, nil
}

// Clear drops both variants from c. The gateway removes both rows by
// customer id, so it does not matter which variant was loaded.
func (uc *PictureUC) Clear(c *domain.Customer) {
	if c == nil {
		return
	}
	c.Photo = nil
	c.Thumbnail = nil
}
