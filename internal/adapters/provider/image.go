package provider

import (
	"encoding/base64"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

const defaultImageMIME = "image/jpeg"

var whitespace = strings.NewReplacer("\n", "", "\r", "", "\t", "", " ", "")

// StripBase64 removes the line breaks and spaces browsers and clipboard
// tools insert into base64 text. It is idempotent.
func StripBase64(s string) string {
	return whitespace.Replace(s)
}

// ImageDataURL turns a client-supplied image into a data URL. A payload
// that already is a data URL passes through; otherwise the MIME type is
// sniffed from the decoded header bytes and falls back to JPEG.
func ImageDataURL(image string) string {
	image = StripBase64(image)
	if strings.HasPrefix(image, "data:") {
		return image
	}
	return "data:" + sniffImageMIME(image) + ";base64," + image
}

func sniffImageMIME(b64 string) string {
	// 64 base64 chars decode to 48 bytes, enough for every image signature.
	head := b64
	if len(head) > 64 {
		head = head[:64]
	}
	head = head[:len(head)-len(head)%4]
	raw, err := base64.StdEncoding.DecodeString(head)
	if err != nil || len(raw) == 0 {
		return defaultImageMIME
	}
	mt := mimetype.Detect(raw)
	for m := mt; m != nil; m = m.Parent() {
		if strings.HasPrefix(m.String(), "image/") {
			return m.String()
		}
	}
	return defaultImageMIME
}
