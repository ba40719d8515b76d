package apiclient

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"path/filepath"
	"strings"
)

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/heic": true,
	"image/webp": true,
}

// Image is a photo picked from the camera or gallery.
type Image struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Detection is one classified food item.
type Detection struct {
	ClassName  string
	Confidence float64
}

type predictWire struct {
	Detections []struct {
		ClassName  Text   `json:"class_name"`
		Confidence Number `json:"confidence"`
	} `json:"detections"`
}

type uploadWire struct {
	ImageID Text `json:"image_id"`
}

// Predict classifies the foods in img.
func (c *Client) Predict(ctx context.Context, img Image) ([]Detection, error) {
	req, err := c.multipartRequest("/predict", img)
	if err != nil {
		return nil, err
	}

	var wire predictWire
	if err := c.doJSON(ctx, req, &wire); err != nil {
		return nil, err
	}

	detections := make([]Detection, 0, len(wire.Detections))
	for _, d := range wire.Detections {
		name := strings.TrimSpace(d.ClassName.String())
		if name == "" {
			continue
		}
		detections = append(detections, Detection{ClassName: name, Confidence: d.Confidence.Float()})
	}
	return detections, nil
}

// UploadPredicted stores img on the backend and returns its image id.
func (c *Client) UploadPredicted(ctx context.Context, img Image) (string, error) {
	req, err := c.multipartRequest("/images/upload-predict", img)
	if err != nil {
		return "", err
	}

	var wire uploadWire
	if err := c.doJSON(ctx, req, &wire); err != nil {
		return "", err
	}

	id := strings.TrimSpace(wire.ImageID.String())
	if id == "" {
		return "", malformed("upload response has no image_id")
	}
	return id, nil
}

func (c *Client) multipartRequest(path string, img Image) (request, error) {
	if len(img.Data) == 0 {
		return request{}, &ValidationError{Field: "image", Message: "사진을 선택해 주세요."}
	}
	if c.uploadMaxBytes > 0 && int64(len(img.Data)) > c.uploadMaxBytes {
		return request{}, &ValidationError{Field: "image", Message: fmt.Sprintf("사진 용량은 %dMB 이하여야 합니다.", c.uploadMaxBytes>>20)}
	}

	contentType := strings.ToLower(strings.TrimSpace(img.ContentType))
	if contentType == "" {
		contentType = http.DetectContentType(img.Data)
	}
	if !allowedImageTypes[contentType] {
		return request{}, &ValidationError{Field: "image", Message: "지원하지 않는 이미지 형식입니다."}
	}

	filename := filepath.Base(strings.TrimSpace(img.Filename))
	if filename == "" || filename == "." || filename == "/" {
		filename = "meal.jpg"
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
	header.Set("Content-Type", contentType)
	part, err := w.CreatePart(header)
	if err != nil {
		return request{}, err
	}
	if _, err := part.Write(img.Data); err != nil {
		return request{}, err
	}
	if err := w.Close(); err != nil {
		return request{}, err
	}

	return request{
		method:      http.MethodPost,
		path:        path,
		body:        &buf,
		contentType: w.FormDataContentType(),
		auth:        true,
	}, nil
}
