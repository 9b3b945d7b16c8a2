package validation

import (
	stderrors "errors"
	"fmt"
	"mime/multipart"
	"net/http"
)

// multipartOverhead is added on top of the file limit for boundaries and plain form fields.
const multipartOverhead = 1 << 20

// ValidateAndParseMultipart validates request size and parses the multipart form.
// MaxBytesReader stops reading once the limit is hit, so an oversized upload ends in a
// connection reset for clients that ignore the error response.
func ValidateAndParseMultipart(r *http.Request, w http.ResponseWriter, maxFileSize int64) error {
	maxSize := CalculateMaxRequestSize(maxFileSize, multipartOverhead)
	r.Body = http.MaxBytesReader(w, r.Body, maxSize)

	if err := r.ParseMultipartForm(maxSize); err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) || r.ContentLength > maxSize {
			return fmt.Errorf("%w: limit is %.0f MB", ErrPayloadTooLarge, FormatSizeMB(maxFileSize))
		}
		return fmt.Errorf("%w: failed to parse multipart form", ErrMissingFile)
	}

	return nil
}

// FormFile returns the uploaded part stored under field together with its declared
// Content-Type. The declared type is taken as sent; no sniffing is done here.
func FormFile(r *http.Request, field string) (multipart.File, *multipart.FileHeader, string, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		return nil, nil, "", fmt.Errorf("%w: form field %q", ErrMissingFile, field)
	}
	return file, header, header.Header.Get("Content-Type"), nil
}

// CalculateMaxRequestSize returns the maximum request size including overhead buffer.
func CalculateMaxRequestSize(maxFileSize int64, bufferSize int64) int64 {
	return maxFileSize + bufferSize
}

// FormatSizeMB converts bytes to megabytes for user-friendly error messages.
func FormatSizeMB(bytes int64) float64 {
	return float64(bytes) / (1024 * 1024)
}
