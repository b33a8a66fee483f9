// Package attachment parses and compresses data-URI attachments.
package attachment

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/disintegration/imaging"
)

var (
	// ErrMalformed is returned for strings that are not base64 data URIs.
	ErrMalformed = errors.New("malformed data URI")
	// ErrUnsupported is returned for MIME types other than images and audio.
	ErrUnsupported = errors.New("unsupported attachment type")
)

// Attachment is a decoded inline file.
type Attachment struct {
	MIMEType string
	Data     []byte
}

// IsImage reports whether the attachment is an image.
func (a Attachment) IsImage() bool {
	return strings.HasPrefix(a.MIMEType, "image/")
}

// DataURI encodes the attachment back to a data URI.
func (a Attachment) DataURI() string {
	return "data:" + a.MIMEType + ";base64," + base64.StdEncoding.EncodeToString(a.Data)
}

// Parse decodes a "data:<mime>;base64,<payload>" string.
func Parse(uri string) (Attachment, error) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(uri), "data:")
	if !ok {
		return Attachment{}, ErrMalformed
	}
	header, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return Attachment{}, ErrMalformed
	}
	mimeType, params, _ := strings.Cut(header, ";")
	if !strings.Contains(params, "base64") || mimeType == "" {
		return Attachment{}, ErrMalformed
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return Attachment{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return Attachment{MIMEType: strings.ToLower(mimeType), Data: data}, nil
}

// Compressor validates attachments and shrinks images before storage.
type Compressor struct {
	MaxWidth    int
	JPEGQuality int
}

// DefaultCompressor matches the resize the web client applied before upload.
func DefaultCompressor() Compressor {
	return Compressor{MaxWidth: 800, JPEGQuality: 70}
}

// Prepare parses uri, rejects non image/audio payloads and re-encodes
// decodable images as JPEG no wider than MaxWidth. Images the decoder does
// not understand are passed through unchanged.
func (c Compressor) Prepare(uri string) (Attachment, error) {
	att, err := Parse(uri)
	if err != nil {
		return Attachment{}, err
	}
	if !att.IsImage() && !strings.HasPrefix(att.MIMEType, "audio/") {
		return Attachment{}, fmt.Errorf("%w: %s", ErrUnsupported, att.MIMEType)
	}
	if !att.IsImage() {
		return att, nil
	}

	img, err := imaging.Decode(bytes.NewReader(att.Data), imaging.AutoOrientation(true))
	if err != nil {
		return att, nil
	}
	if c.MaxWidth > 0 && img.Bounds().Dx() > c.MaxWidth {
		img = imaging.Resize(img, c.MaxWidth, 0, imaging.Lanczos)
	}

	quality := c.JPEGQuality
	if quality <= 0 || quality > 100 {
		quality = 70
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return Attachment{}, fmt.Errorf("encode image: %w", err)
	}
	return Attachment{MIMEType: "image/jpeg", Data: buf.Bytes()}, nil
}
