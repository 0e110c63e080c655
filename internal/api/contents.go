package api

import (
	"encoding/base64"
	"strings"

	"google.golang.org/genai"

	apierrors "github.com/diogo/techsolve/internal/errors"
	"github.com/diogo/techsolve/internal/models"
)

// ImageMIMEType is the MIME type declared for every attachment
const ImageMIMEType = "image/jpeg"

// buildContents maps history and the new turn into genai contents.
// Prior turns are sent as text only.
func buildContents(history []models.Message, text, image string) ([]*genai.Content, error) {
	contents := make([]*genai.Content, 0, len(history)+1)
	for _, m := range history {
		contents = append(contents, genai.NewContentFromText(m.Content, roleFor(m.Role)))
	}

	parts := []*genai.Part{genai.NewPartFromText(text)}
	if image != "" {
		data, err := decodeDataURI(image)
		if err != nil {
			return nil, err
		}
		parts = append(parts, genai.NewPartFromBytes(data, ImageMIMEType))
	}

	return append(contents, genai.NewContentFromParts(parts, genai.RoleUser)), nil
}

func roleFor(role models.Role) genai.Role {
	if role == models.RoleUser {
		return genai.RoleUser
	}
	return genai.RoleModel
}

// decodeDataURI returns the payload after the first comma of a data URI.
// A bare base64 string is accepted as well.
func decodeDataURI(uri string) ([]byte, error) {
	payload := uri
	if _, after, found := strings.Cut(uri, ","); found {
		payload = after
	}
	if payload == "" {
		return nil, apierrors.NewImageError("", "empty image payload")
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, apierrors.NewImageError("", "image payload is not valid base64")
	}
	return data, nil
}
