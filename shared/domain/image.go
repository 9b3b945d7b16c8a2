package domain

import "io"

// Image binds a generated identifier to the name of the file kept in the storage directory.
type Image struct {
	Id   ImageId   `json:"id"`
	Name ImageName `json:"name"`
}

// ImageFile is an opened stored file ready to be sent to a client.
// Caller must close Content.
type ImageFile struct {
	Name        ImageName
	ContentType MimeType
	Size        int64
	Content     io.ReadSeekCloser
}

// MediaType enumerates the accepted upload formats.
type MediaType int

const (
	MediaTypeUnknown MediaType = iota
	MediaTypeJPEG
	MediaTypePNG
)

const OctetStream MimeType = "application/octet-stream"

var mediaTypes = map[MimeType]MediaType{
	"image/jpeg": MediaTypeJPEG,
	"image/png":  MediaTypePNG,
}

var extensions = map[MediaType]string{
	MediaTypeJPEG: "jpeg",
	MediaTypePNG:  "png",
}

// ParseMediaType matches a declared Content-Type against the allow-list.
// Only the exact values "image/jpeg" and "image/png" are accepted.
func ParseMediaType(contentType string) (MediaType, bool) {
	t, ok := mediaTypes[contentType]
	return t, ok
}

// Extension returns the file extension (without dot) stored files of this type get.
func (t MediaType) Extension() string {
	return extensions[t]
}

func (t MediaType) String() string {
	for mime, mt := range mediaTypes {
		if mt == t {
			return mime
		}
	}
	return OctetStream
}
