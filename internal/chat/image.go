package chat

import (
	"encoding/base64"
	"mime"
	"os"
	"path/filepath"
	"strings"

	apierrors "github.com/diogo/techsolve/internal/errors"
)

// LoadImage reads an image file and returns it as a base64 data URI.
// Only the extension is checked; size is not limited.
func LoadImage(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", apierrors.NewImageError(path, "no file given")
	}

	mimeType := mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = mimeType[:i]
	}
	if !strings.HasPrefix(mimeType, "image/") {
		return "", apierrors.NewImageError(path, "not an image file")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", apierrors.NewImageError(path, err.Error())
	}
	if len(data) == 0 {
		return "", apierrors.NewImageError(path, "file is empty")
	}

	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}
