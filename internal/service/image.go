package service

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png"  // Register PNG decoder
	"mime"
	"strings"

	"chronicle/internal/models"

	_ "golang.org/x/image/webp" // Register WebP decoder
)

const DefaultMaxUploadSizeMB = 5

// UploadedImageInput is an inline image sent with a create or update request.
type UploadedImageInput struct {
	// Data is the base64 encoded file, optionally as a data: URL.
	Data        string `json:"data"`
	Filename    string `json:"filename"`
	ContentType string `json:"contentType"`
}

type decodedImage struct {
	data        []byte
	filename    *string
	contentType string
}

var formatMIME = map[string]string{
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"gif":  "image/gif",
	"webp": "image/webp",
}

// decodeUploadedImage validates the payload and sniffs its real format.
func decodeUploadedImage(in *UploadedImageInput, maxBytes int64) (*decodedImage, error) {
	raw := strings.TrimSpace(in.Data)
	if i := strings.Index(raw, ","); strings.HasPrefix(raw, "data:") && i >= 0 {
		raw = raw[i+1:]
	}
	if raw == "" {
		return nil, models.NewInvalidInputError("uploadedImage", "Uploaded image is empty")
	}

	data, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return nil, models.NewInvalidInputError("uploadedImage", "Uploaded image is not valid base64")
	}
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return nil, models.NewInvalidInputError("uploadedImage",
			fmt.Sprintf("File too large (max %dMB)", maxBytes/(1024*1024)))
	}

	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, models.NewInvalidInputError("uploadedImage", "Invalid image file")
	}
	detected, ok := formatMIME[format]
	if !ok {
		return nil, models.NewInvalidInputError("uploadedImage", "Unsupported image format")
	}

	if provided := normalizeContentType(in.ContentType); provided != "" && provided != detected {
		return nil, models.NewInvalidInputError("uploadedImage", "Image content type mismatch")
	}

	return &decodedImage{
		data:        data,
		filename:    models.NormalizeOptional(&in.Filename),
		contentType: detected,
	}, nil
}

func normalizeContentType(ct string) string {
	mediaType, _, err := mime.ParseMediaType(strings.TrimSpace(ct))
	if err != nil {
		return ""
	}
	if mediaType == "image/jpg" {
		return "image/jpeg"
	}
	return mediaType
}
