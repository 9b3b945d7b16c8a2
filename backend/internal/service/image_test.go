package service

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/itchan-dev/imagestore/shared/domain"
	"github.com/itchan-dev/imagestore/shared/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Mocks ---

// MockImageStorage keeps records in a map unless a func field overrides the behavior.
type MockImageStorage struct {
	records map[domain.ImageId]domain.Image

	CreateFunc     func(ctx context.Context, img domain.Image) error
	FindByIDFunc   func(ctx context.Context, id domain.ImageId) (domain.Image, error)
	DeleteByIDFunc func(ctx context.Context, id domain.ImageId) error
}

func newMockImageStorage() *MockImageStorage {
	return &MockImageStorage{records: make(map[domain.ImageId]domain.Image)}
}

func (m *MockImageStorage) Create(ctx context.Context, img domain.Image) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, img)
	}
	m.records[img.Id] = img
	return nil
}

func (m *MockImageStorage) FindByID(ctx context.Context, id domain.ImageId) (domain.Image, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, id)
	}
	img, ok := m.records[id]
	if !ok {
		return domain.Image{}, errors.ErrRecordNotFound
	}
	return img, nil
}

func (m *MockImageStorage) DeleteByID(ctx context.Context, id domain.ImageId) error {
	if m.DeleteByIDFunc != nil {
		return m.DeleteByIDFunc(ctx, id)
	}
	if _, ok := m.records[id]; !ok {
		return errors.ErrRecordNotFound
	}
	delete(m.records, id)
	return nil
}

// MockFileStorage keeps file contents in memory and records the order of calls.
type MockFileStorage struct {
	files map[string][]byte
	calls []string

	SaveFunc   func(name string, data io.Reader) (int64, error)
	DeleteFunc func(name string) error
}

func newMockFileStorage() *MockFileStorage {
	return &MockFileStorage{files: make(map[string][]byte)}
}

type nopSeekCloser struct{ *bytes.Reader }

func (nopSeekCloser) Close() error { return nil }

func (m *MockFileStorage) Save(name string, data io.Reader) (int64, error) {
	m.calls = append(m.calls, "save:"+name)
	if m.SaveFunc != nil {
		return m.SaveFunc(name, data)
	}
	b, err := io.ReadAll(data)
	if err != nil {
		return 0, err
	}
	m.files[name] = b
	return int64(len(b)), nil
}

func (m *MockFileStorage) Open(name string) (io.ReadSeekCloser, int64, error) {
	b, ok := m.files[name]
	if !ok {
		return nil, 0, fmt.Errorf("%w: %s", errors.ErrFileNotFound, name)
	}
	return nopSeekCloser{bytes.NewReader(b)}, int64(len(b)), nil
}

func (m *MockFileStorage) Delete(name string) error {
	m.calls = append(m.calls, "delete:"+name)
	if m.DeleteFunc != nil {
		return m.DeleteFunc(name)
	}
	if _, ok := m.files[name]; !ok {
		return fmt.Errorf("%w: %s", errors.ErrFileNotFound, name)
	}
	delete(m.files, name)
	return nil
}

// --- Helpers ---

var ownerId = uuid.MustParse("11111111-1111-1111-1111-111111111111")

func setupImageService() (*Image, *MockImageStorage, *MockFileStorage) {
	images := newMockImageStorage()
	files := newMockFileStorage()
	return NewImage(images, files), images, files
}

func readAll(t *testing.T, f *domain.ImageFile) []byte {
	t.Helper()
	defer f.Content.Close()
	b, err := io.ReadAll(f.Content)
	require.NoError(t, err)
	return b
}

// --- Tests ---

func TestUploadForPlace(t *testing.T) {
	t.Run("stores jpeg and png", func(t *testing.T) {
		for _, tc := range []struct {
			contentType string
			ext         string
		}{
			{"image/jpeg", ".jpeg"},
			{"image/png", ".png"},
		} {
			t.Run(tc.contentType, func(t *testing.T) {
				service, images, files := setupImageService()
				content := []byte("image bytes for " + tc.contentType)

				id, err := service.UploadForPlace(context.Background(), bytes.NewReader(content), tc.contentType, ownerId)
				require.NoError(t, err)

				parsed, err := uuid.Parse(id)
				require.NoError(t, err)
				img, ok := images.records[parsed]
				require.True(t, ok, "record should be inserted")
				assert.True(t, strings.HasSuffix(img.Name, tc.ext))
				_, err = uuid.Parse(strings.TrimSuffix(img.Name, tc.ext))
				assert.NoError(t, err, "file name should be <uuid>%s", tc.ext)
				assert.Equal(t, content, files.files[img.Name])
			})
		}
	})

	t.Run("unsupported content type writes nothing", func(t *testing.T) {
		for _, ct := range []string{"text/plain", "image/gif", "", "IMAGE/PNG", "image/jpg"} {
			service, images, files := setupImageService()

			_, err := service.UploadForPlace(context.Background(), strings.NewReader("x"), ct, ownerId)

			assert.ErrorIs(t, err, errors.ErrUnsupportedMediaType, "content type %q", ct)
			assert.Empty(t, images.records)
			assert.Empty(t, files.calls)
		}
	})

	t.Run("copy failure inserts no record", func(t *testing.T) {
		service, images, files := setupImageService()
		diskFull := fmt.Errorf("%w: no space left on device", errors.ErrStorageIO)
		files.SaveFunc = func(name string, data io.Reader) (int64, error) { return 0, diskFull }

		_, err := service.UploadForPlace(context.Background(), strings.NewReader("x"), "image/png", ownerId)

		assert.ErrorIs(t, err, errors.ErrStorageIO)
		assert.Empty(t, images.records)
	})

	t.Run("insert failure leaves file orphaned", func(t *testing.T) {
		service, images, files := setupImageService()
		dbErr := stderrors.New("connection reset")
		images.CreateFunc = func(ctx context.Context, img domain.Image) error { return dbErr }

		_, err := service.UploadForPlace(context.Background(), strings.NewReader("x"), "image/png", ownerId)

		assert.ErrorIs(t, err, dbErr)
		assert.Len(t, files.files, 1, "file is not rolled back")
	})

	t.Run("identical uploads get distinct ids and names", func(t *testing.T) {
		service, images, _ := setupImageService()
		content := []byte("same bytes")

		id1, err := service.UploadForPlace(context.Background(), bytes.NewReader(content), "image/jpeg", ownerId)
		require.NoError(t, err)
		id2, err := service.UploadForPlace(context.Background(), bytes.NewReader(content), "image/jpeg", ownerId)
		require.NoError(t, err)

		assert.NotEqual(t, id1, id2)
		img1 := images.records[uuid.MustParse(id1)]
		img2 := images.records[uuid.MustParse(id2)]
		assert.NotEqual(t, img1.Name, img2.Name)
	})

	t.Run("does not replace anything", func(t *testing.T) {
		service, images, files := setupImageService()
		images.records[ownerId] = domain.Image{Id: ownerId, Name: "old.png"}
		files.files["old.png"] = []byte("old")

		_, err := service.UploadForPlace(context.Background(), strings.NewReader("new"), "image/png", ownerId)
		require.NoError(t, err)

		assert.Contains(t, images.records, ownerId)
		assert.Contains(t, files.files, "old.png")
	})
}

func TestUploadForMember(t *testing.T) {
	t.Run("replaces previous image after new one is stored", func(t *testing.T) {
		service, images, files := setupImageService()
		images.records[ownerId] = domain.Image{Id: ownerId, Name: "old.png"}
		files.files["old.png"] = []byte("old")

		id, err := service.UploadForMember(context.Background(), strings.NewReader("new"), "image/png", ownerId)
		require.NoError(t, err)

		assert.NotContains(t, images.records, ownerId)
		assert.NotContains(t, files.files, "old.png")
		newImg, ok := images.records[uuid.MustParse(id)]
		require.True(t, ok)
		assert.Equal(t, []byte("new"), files.files[newImg.Name])

		// new file written before old file removed
		require.Len(t, files.calls, 2)
		assert.Equal(t, "save:"+newImg.Name, files.calls[0])
		assert.Equal(t, "delete:old.png", files.calls[1])
	})

	t.Run("no previous image behaves like create", func(t *testing.T) {
		service, images, files := setupImageService()

		id, err := service.UploadForMember(context.Background(), strings.NewReader("new"), "image/jpeg", ownerId)
		require.NoError(t, err)

		assert.Contains(t, images.records, uuid.MustParse(id))
		assert.Len(t, files.calls, 1)
	})

	t.Run("old file delete failure does not fail upload", func(t *testing.T) {
		service, images, files := setupImageService()
		images.records[ownerId] = domain.Image{Id: ownerId, Name: "old.png"}
		files.DeleteFunc = func(name string) error {
			return fmt.Errorf("%w: permission denied", errors.ErrStorageIO)
		}

		id, err := service.UploadForMember(context.Background(), strings.NewReader("new"), "image/png", ownerId)

		require.NoError(t, err)
		assert.Contains(t, images.records, uuid.MustParse(id))
		assert.NotContains(t, images.records, ownerId, "old row is still removed")
	})

	t.Run("old row delete failure is logged only", func(t *testing.T) {
		service, images, files := setupImageService()
		images.records[ownerId] = domain.Image{Id: ownerId, Name: "old.png"}
		files.files["old.png"] = []byte("old")
		images.DeleteByIDFunc = func(ctx context.Context, id domain.ImageId) error {
			return stderrors.New("db down")
		}

		id, err := service.UploadForMember(context.Background(), strings.NewReader("new"), "image/png", ownerId)

		require.NoError(t, err)
		assert.NotEmpty(t, id)
	})

	t.Run("unsupported type leaves previous image alone", func(t *testing.T) {
		service, images, files := setupImageService()
		images.records[ownerId] = domain.Image{Id: ownerId, Name: "old.png"}
		files.files["old.png"] = []byte("old")

		_, err := service.UploadForMember(context.Background(), strings.NewReader("new"), "application/pdf", ownerId)

		assert.ErrorIs(t, err, errors.ErrUnsupportedMediaType)
		assert.Contains(t, images.records, ownerId)
		assert.Contains(t, files.files, "old.png")
	})

	t.Run("failed store keeps previous image", func(t *testing.T) {
		service, images, files := setupImageService()
		images.records[ownerId] = domain.Image{Id: ownerId, Name: "old.png"}
		files.files["old.png"] = []byte("old")
		files.SaveFunc = func(name string, data io.Reader) (int64, error) {
			return 0, fmt.Errorf("%w: disk full", errors.ErrStorageIO)
		}

		_, err := service.UploadForMember(context.Background(), strings.NewReader("new"), "image/png", ownerId)

		assert.ErrorIs(t, err, errors.ErrStorageIO)
		assert.Contains(t, images.records, ownerId)
		assert.Contains(t, files.files, "old.png")
	})

	t.Run("lookup failure aborts before writing", func(t *testing.T) {
		service, images, files := setupImageService()
		dbErr := stderrors.New("db down")
		images.FindByIDFunc = func(ctx context.Context, id domain.ImageId) (domain.Image, error) {
			return domain.Image{}, dbErr
		}

		_, err := service.UploadForMember(context.Background(), strings.NewReader("new"), "image/png", ownerId)

		assert.ErrorIs(t, err, dbErr)
		assert.Empty(t, files.calls)
	})
}

func TestDownload(t *testing.T) {
	t.Run("returns stored content", func(t *testing.T) {
		service, images, _ := setupImageService()
		content := bytes.Repeat([]byte{0xff, 0xd8, 0xff}, 100)

		id, err := service.UploadForPlace(context.Background(), bytes.NewReader(content), "image/jpeg", ownerId)
		require.NoError(t, err)

		file, err := service.Download(context.Background(), id)
		require.NoError(t, err)
		require.NotNil(t, file)

		assert.Equal(t, images.records[uuid.MustParse(id)].Name, file.Name)
		assert.Equal(t, "image/jpeg", file.ContentType)
		assert.Equal(t, int64(len(content)), file.Size)
		assert.Equal(t, content, readAll(t, file))
	})

	t.Run("png content type", func(t *testing.T) {
		service, _, _ := setupImageService()
		id, err := service.UploadForPlace(context.Background(), strings.NewReader("png"), "image/png", ownerId)
		require.NoError(t, err)

		file, err := service.Download(context.Background(), id)
		require.NoError(t, err)
		defer file.Content.Close()

		assert.Equal(t, "image/png", file.ContentType)
	})

	t.Run("unknown id is not an error", func(t *testing.T) {
		service, _, _ := setupImageService()

		file, err := service.Download(context.Background(), uuid.NewString())

		assert.NoError(t, err)
		assert.Nil(t, file)
	})

	t.Run("malformed id", func(t *testing.T) {
		service, _, _ := setupImageService()

		_, err := service.Download(context.Background(), "not-a-uuid")

		assert.ErrorIs(t, err, errors.ErrInvalidIdentifier)
	})

	t.Run("record without file", func(t *testing.T) {
		service, _, files := setupImageService()
		id, err := service.UploadForPlace(context.Background(), strings.NewReader("png"), "image/png", ownerId)
		require.NoError(t, err)
		for name := range files.files {
			delete(files.files, name)
		}

		_, err = service.Download(context.Background(), id)

		assert.ErrorIs(t, err, errors.ErrFileNotFound)
	})

	t.Run("lookup failure is surfaced", func(t *testing.T) {
		service, images, _ := setupImageService()
		dbErr := stderrors.New("db down")
		images.FindByIDFunc = func(ctx context.Context, id domain.ImageId) (domain.Image, error) {
			return domain.Image{}, dbErr
		}

		_, err := service.Download(context.Background(), uuid.NewString())

		assert.ErrorIs(t, err, dbErr)
	})

	t.Run("unknown extension falls back to content sniffing", func(t *testing.T) {
		service, images, files := setupImageService()
		id := uuid.New()
		images.records[id] = domain.Image{Id: id, Name: "legacy"}
		png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
		files.files["legacy"] = png

		file, err := service.Download(context.Background(), id.String())
		require.NoError(t, err)

		assert.Equal(t, "image/png", file.ContentType)
		assert.Equal(t, png, readAll(t, file), "content is rewound after sniffing")
	})

	t.Run("unrecognised content is octet-stream", func(t *testing.T) {
		service, images, files := setupImageService()
		id := uuid.New()
		images.records[id] = domain.Image{Id: id, Name: "legacy"}
		files.files["legacy"] = []byte{0x00, 0x01, 0x02, 0x03}

		file, err := service.Download(context.Background(), id.String())
		require.NoError(t, err)
		defer file.Content.Close()

		assert.Equal(t, domain.OctetStream, file.ContentType)
	})
}

func TestDelete(t *testing.T) {
	t.Run("removes file then record", func(t *testing.T) {
		service, images, files := setupImageService()
		id, err := service.UploadForPlace(context.Background(), strings.NewReader("png"), "image/png", ownerId)
		require.NoError(t, err)
		name := images.records[uuid.MustParse(id)].Name

		var fileGoneBeforeRow bool
		images.DeleteByIDFunc = func(ctx context.Context, imgId domain.ImageId) error {
			_, stillThere := files.files[name]
			fileGoneBeforeRow = !stillThere
			delete(images.records, imgId)
			return nil
		}

		require.NoError(t, service.Delete(context.Background(), id))

		assert.True(t, fileGoneBeforeRow)
		assert.Empty(t, images.records)
		assert.Empty(t, files.files)

		file, err := service.Download(context.Background(), id)
		assert.NoError(t, err)
		assert.Nil(t, file)
	})

	t.Run("unknown id is a no-op", func(t *testing.T) {
		service, _, files := setupImageService()

		err := service.Delete(context.Background(), uuid.NewString())

		assert.NoError(t, err)
		assert.Empty(t, files.calls)
	})

	t.Run("malformed id", func(t *testing.T) {
		service, _, _ := setupImageService()

		err := service.Delete(context.Background(), "1234")

		assert.ErrorIs(t, err, errors.ErrInvalidIdentifier)
	})

	t.Run("file delete failure still removes record", func(t *testing.T) {
		service, images, files := setupImageService()
		id, err := service.UploadForPlace(context.Background(), strings.NewReader("png"), "image/png", ownerId)
		require.NoError(t, err)
		files.DeleteFunc = func(name string) error {
			return fmt.Errorf("%w: permission denied", errors.ErrStorageIO)
		}

		require.NoError(t, service.Delete(context.Background(), id))

		assert.Empty(t, images.records)
	})

	t.Run("record delete failure is returned", func(t *testing.T) {
		service, images, _ := setupImageService()
		id, err := service.UploadForPlace(context.Background(), strings.NewReader("png"), "image/png", ownerId)
		require.NoError(t, err)
		dbErr := stderrors.New("db down")
		images.DeleteByIDFunc = func(ctx context.Context, id domain.ImageId) error { return dbErr }

		err = service.Delete(context.Background(), id)

		assert.ErrorIs(t, err, dbErr)
	})
}
