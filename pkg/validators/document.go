package validators

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/spf13/viper"
)

var (
	ErrFileTooLarge        = errors.New("file too large")
	ErrFileNameTooLong     = errors.New("file name is too long")
	ErrFileTypeUnsupported = errors.New("unsupported file type")
	ErrNoFile              = errors.New("no file provided")
)

const maxFileNameSize = 255

var defaultDocumentTypes = []string{"application/pdf", "image/png", "image/jpeg"}

// DocumentValidator checks an uploaded verification document against the
// configured size and mime type limits. On success the returned file is
// rewound and ready to be stored.
func DocumentValidator(fh *multipart.FileHeader) (int, multipart.File, *mimetype.MIME, error) {
	if fh == nil {
		return http.StatusBadRequest, nil, nil, ErrNoFile
	}

	if len(fh.Filename) > maxFileNameSize {
		return http.StatusBadRequest, nil, nil, ErrFileNameTooLong
	}

	maxFileSize := viper.GetInt64("upload.max_size")
	if maxFileSize > 0 && fh.Size > maxFileSize {
		return http.StatusRequestEntityTooLarge, nil, nil, ErrFileTooLarge
	}

	f, err := fh.Open()
	if err != nil {
		return http.StatusInternalServerError, nil, nil, err
	}

	// Don't trust the header, sniff the actual content
	mime, err := mimetype.DetectReader(f)
	if err != nil {
		f.Close()
		return http.StatusInternalServerError, nil, nil, err
	}

	if !mimeAllowed(mime) {
		f.Close()
		return http.StatusBadRequest, nil, nil, ErrFileTypeUnsupported
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		f.Close()
		return http.StatusInternalServerError, nil, nil, err
	}

	return 0, f, mime, nil
}

func mimeAllowed(m *mimetype.MIME) bool {
	allowed := viper.GetStringSlice("upload.allowed_types")
	if len(allowed) == 0 {
		allowed = defaultDocumentTypes
	}

	for _, a := range allowed {
		if m.Is(strings.TrimSpace(a)) {
			return true
		}
	}

	return false
}
