package service

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/itchan-dev/imagestore/shared/domain"
	"github.com/itchan-dev/imagestore/shared/errors"
	"github.com/itchan-dev/imagestore/shared/logger"
	"github.com/itchan-dev/imagestore/shared/utils"
)

const (
	flowPlace  = "place"
	flowMember = "member"
)

// to mock service in tests
type ImageService interface {
	// UploadForPlace stores a new image. Nothing is replaced.
	UploadForPlace(ctx context.Context, data io.Reader, contentType string, placeId domain.OwnerId) (string, error)
	// UploadForMember stores a new image and then removes the image previously kept under memberId.
	UploadForMember(ctx context.Context, data io.Reader, contentType string, memberId domain.OwnerId) (string, error)
	// Download opens the stored file. A nil file with a nil error means there is no such record.
	Download(ctx context.Context, id string) (*domain.ImageFile, error)
	// Delete removes the file and then the record. Unknown ids are a no-op.
	Delete(ctx context.Context, id string) error
}

// Image owns both the image records and the files they point at.
// Row and file are not updated atomically: on create the file is copied before the row
// is inserted, on delete the file is removed before the row.
type Image struct {
	images ImageStorage
	files  FileStorage
	newId  func() uuid.UUID
	log    *slog.Logger
}

var _ ImageService = (*Image)(nil)

func NewImage(images ImageStorage, files FileStorage) *Image {
	return &Image{
		images: images,
		files:  files,
		newId:  uuid.New,
		log:    logger.For("image_service"),
	}
}

func (s *Image) UploadForPlace(ctx context.Context, data io.Reader, contentType string, placeId domain.OwnerId) (string, error) {
	mediaType, err := parseMediaType(contentType)
	if err != nil {
		return "", err
	}

	img, err := s.store(ctx, data, mediaType, flowPlace)
	if err != nil {
		return "", err
	}
	s.log.Info("image stored", "flow", flowPlace, "owner_id", placeId, "image_id", img.Id, "name", img.Name)
	return img.Id.String(), nil
}

func (s *Image) UploadForMember(ctx context.Context, data io.Reader, contentType string, memberId domain.OwnerId) (string, error) {
	mediaType, err := parseMediaType(contentType)
	if err != nil {
		return "", err
	}

	old, found, err := s.find(ctx, memberId)
	if err != nil {
		return "", err
	}

	img, err := s.store(ctx, data, mediaType, flowMember)
	if err != nil {
		return "", err
	}
	s.log.Info("image stored", "flow", flowMember, "owner_id", memberId, "image_id", img.Id, "name", img.Name)

	if found {
		s.removeFile(old.Name)
		// The new image is committed at this point, a leftover old row is only logged.
		switch err := s.images.DeleteByID(ctx, old.Id); {
		case err == nil:
			imagesDeleted.WithLabelValues("replace").Inc()
		case !stderrors.Is(err, errors.ErrRecordNotFound):
			s.log.Error("failed to delete replaced image record", "image_id", old.Id, "error", err)
		}
	}

	return img.Id.String(), nil
}

func (s *Image) Download(ctx context.Context, rawId string) (*domain.ImageFile, error) {
	id, err := utils.ParseUUID(rawId, "image id")
	if err != nil {
		return nil, err
	}

	img, found, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}

	file, size, err := s.files.Open(img.Name)
	if err != nil {
		if stderrors.Is(err, errors.ErrFileNotFound) {
			s.log.Warn("image record has no file", "image_id", img.Id, "name", img.Name)
		}
		return nil, err
	}

	return &domain.ImageFile{
		Name:        img.Name,
		ContentType: s.contentType(img.Name, file),
		Size:        size,
		Content:     file,
	}, nil
}

func (s *Image) Delete(ctx context.Context, rawId string) error {
	id, err := utils.ParseUUID(rawId, "image id")
	if err != nil {
		return err
	}

	img, found, err := s.find(ctx, id)
	if err != nil || !found {
		return err
	}

	// A crash between these two steps leaves a record without a file.
	s.removeFile(img.Name)
	if err := s.images.DeleteByID(ctx, id); err != nil && !stderrors.Is(err, errors.ErrRecordNotFound) {
		return fmt.Errorf("failed to delete image record %s: %w", id, err)
	}
	imagesDeleted.WithLabelValues("delete").Inc()
	s.log.Info("image deleted", "image_id", id, "name", img.Name)
	return nil
}

// store copies the file under a fresh name and then inserts its record.
// If the insert fails the copied file stays behind unreferenced.
func (s *Image) store(ctx context.Context, data io.Reader, mediaType domain.MediaType, flow string) (domain.Image, error) {
	img := domain.Image{
		Id:   s.newId(),
		Name: s.newId().String() + "." + mediaType.Extension(),
	}

	n, err := s.files.Save(img.Name, data)
	if err != nil {
		return domain.Image{}, err
	}

	if err := s.images.Create(ctx, img); err != nil {
		s.log.Error("image record insert failed, file left orphaned", "name", img.Name, "error", err)
		return domain.Image{}, fmt.Errorf("failed to create image record: %w", err)
	}

	imagesStored.WithLabelValues(flow, mediaType.String()).Inc()
	imageBytesStored.Add(float64(n))
	return img, nil
}

func (s *Image) find(ctx context.Context, id domain.ImageId) (domain.Image, bool, error) {
	img, err := s.images.FindByID(ctx, id)
	if err != nil {
		if stderrors.Is(err, errors.ErrRecordNotFound) {
			return domain.Image{}, false, nil
		}
		return domain.Image{}, false, fmt.Errorf("failed to find image %s: %w", id, err)
	}
	return img, true, nil
}

// removeFile deletes a stored file, logging instead of failing.
func (s *Image) removeFile(name string) {
	if err := s.files.Delete(name); err != nil {
		fileCleanupFailures.Inc()
		s.log.Warn("failed to delete file", "name", name, "error", err)
		return
	}
	s.log.Info("file deleted", "name", name)
}

// contentType guesses the MIME type from the extension, then from the leading bytes.
// content is rewound before returning.
func (s *Image) contentType(name string, content io.ReadSeeker) domain.MimeType {
	if ct := mime.TypeByExtension(filepath.Ext(name)); ct != "" {
		return ct
	}

	mt, err := mimetype.DetectReader(content)
	if _, seekErr := content.Seek(0, io.SeekStart); seekErr != nil && err == nil {
		err = seekErr
	}
	if err != nil {
		s.log.Info("could not determine file type", "name", name, "error", err)
		return domain.OctetStream
	}
	return mt.String()
}

func parseMediaType(contentType string) (domain.MediaType, error) {
	mediaType, ok := domain.ParseMediaType(contentType)
	if !ok {
		return domain.MediaTypeUnknown, fmt.Errorf("%w: %q, expected image/jpeg or image/png", errors.ErrUnsupportedMediaType, contentType)
	}
	return mediaType, nil
}
