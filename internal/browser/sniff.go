package browser

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"net/http"
	"net/url"
	"strings"
)

var pngSignature = []byte("\x89PNG\r\n\x1a\n")

// sniffImage classifies an image body by its content and reports whether it
// can carry transparency. Unknown bodies return an empty format.
func sniffImage(b []byte) (format string, alpha bool) {
	switch {
	case bytes.HasPrefix(b, pngSignature):
		return "png", pngHasAlpha(b)
	case len(b) >= 3 && b[0] == 0xFF && b[1] == 0xD8 && b[2] == 0xFF:
		return "jpeg", false
	case bytes.HasPrefix(b, []byte("GIF87a")), bytes.HasPrefix(b, []byte("GIF89a")):
		return "gif", gifHasTransparency(b)
	case len(b) >= 12 && string(b[0:4]) == "RIFF" && string(b[8:12]) == "WEBP":
		return "webp", webpHasAlpha(b)
	case isAVIF(b):
		return "avif", false
	case bytes.HasPrefix(b, []byte{0, 0, 1, 0}):
		return "ico", true
	case isSVG(b):
		return "svg", true
	}

	switch http.DetectContentType(b) {
	case "image/bmp":
		return "bmp", false
	case "image/x-icon":
		return "ico", true
	}
	return "", false
}

// pngHasAlpha reads IHDR's colour type and looks for a tRNS chunk before IDAT
func pngHasAlpha(b []byte) bool {
	if len(b) < 26 {
		return false
	}
	colorType := b[25]
	if colorType == 4 || colorType == 6 {
		return true
	}
	for off := 8; off+8 <= len(b); {
		length := int(binary.BigEndian.Uint32(b[off : off+4]))
		chunk := string(b[off+4 : off+8])
		switch chunk {
		case "tRNS":
			return true
		case "IDAT", "IEND":
			return false
		}
		off += 12 + length
	}
	return false
}

// gifHasTransparency looks for a graphic control extension with the transparency flag set
func gifHasTransparency(b []byte) bool {
	marker := []byte{0x21, 0xF9, 0x04}
	for i := bytes.Index(b, marker); i >= 0 && i+3 < len(b); {
		if b[i+3]&0x01 == 1 {
			return true
		}
		next := bytes.Index(b[i+3:], marker)
		if next < 0 {
			break
		}
		i += 3 + next
	}
	return false
}

func webpHasAlpha(b []byte) bool {
	if len(b) < 21 {
		return false
	}
	switch string(b[12:16]) {
	case "VP8X":
		return b[20]&0x10 != 0
	case "VP8L":
		if len(b) < 25 || b[20] != 0x2F {
			return false
		}
		header := binary.LittleEndian.Uint32(b[21:25])
		return (header>>28)&1 == 1
	}
	return false
}

func isAVIF(b []byte) bool {
	if len(b) < 16 || string(b[4:8]) != "ftyp" {
		return false
	}
	size := int(binary.BigEndian.Uint32(b[0:4]))
	if size < 16 || size > len(b) {
		size = len(b)
	}
	// major brand then compatible brands, four bytes each
	for off := 8; off+4 <= size; off += 4 {
		if off == 12 {
			continue // minor version
		}
		switch string(b[off : off+4]) {
		case "avif", "avis":
			return true
		}
	}
	return false
}

func isSVG(b []byte) bool {
	head := b
	if len(head) > 1024 {
		head = head[:1024]
	}
	s := strings.ToLower(strings.TrimSpace(string(head)))
	return (strings.HasPrefix(s, "<svg") || strings.HasPrefix(s, "<?xml") || strings.HasPrefix(s, "<!doctype svg")) &&
		strings.Contains(s, "<svg")
}

// decodeDataURI returns the payload of a data: URI, or nil for any other URL
func decodeDataURI(raw string) []byte {
	if !strings.HasPrefix(raw, "data:") {
		return nil
	}
	comma := strings.IndexByte(raw, ',')
	if comma < 0 {
		return nil
	}
	meta, payload := raw[5:comma], raw[comma+1:]
	if strings.HasSuffix(meta, ";base64") {
		data, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return nil
		}
		return data
	}
	text, err := url.PathUnescape(payload)
	if err != nil {
		return nil
	}
	return []byte(text)
}
