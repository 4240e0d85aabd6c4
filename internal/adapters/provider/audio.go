package provider

import (
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

const (
	defaultAudioName = "audio.webm"
	defaultAudioMIME = "audio/webm"
)

// audioUpload names the clip for the transcription upload. The endpoint
// picks its decoder from the file extension, so the container is sniffed
// rather than trusted from the client.
func audioUpload(audio []byte) (name, contentType string) {
	mt := mimetype.Detect(audio)
	ext := mt.Extension()
	if ext == "" || mt.Is("application/octet-stream") {
		return defaultAudioName, defaultAudioMIME
	}
	ct := mt.String()
	if strings.HasPrefix(ct, "video/") {
		// A voice recording in a webm/mp4 container sniffs as video.
		ct = "audio/" + strings.TrimPrefix(ct, "video/")
	}
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = ct[:i]
	}
	return "audio" + ext, ct
}
