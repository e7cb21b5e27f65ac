package docxtpl

import (
	"bytes"
	"encoding/binary"
	"strings"
)

// DetectImageFormat identifies an image's format in priority order: an
// explicit MIME hint (from a data URI), then magic-byte sniffing, then the
// source's file extension. Returns one of "png", "jpeg", "gif", "bmp",
// "tiff".
func DetectImageFormat(data []byte, mimeHint, extHint string) (string, error) {
	if f, ok := formatFromMime(mimeHint); ok {
		return f, nil
	}
	if f, ok := sniffMagic(data); ok {
		return f, nil
	}
	if f, ok := formatFromExt(extHint); ok {
		return f, nil
	}
	return "", &UnknownImageFormatError{}
}

func formatFromMime(mime string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(mime)) {
	case "image/png":
		return "png", true
	case "image/jpeg", "image/jpg":
		return "jpeg", true
	case "image/gif":
		return "gif", true
	case "image/bmp", "image/x-bmp", "image/x-ms-bmp":
		return "bmp", true
	case "image/tiff":
		return "tiff", true
	}
	return "", false
}

func formatFromExt(ext string) (string, bool) {
	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "png":
		return "png", true
	case "jpg", "jpeg":
		return "jpeg", true
	case "gif":
		return "gif", true
	case "bmp":
		return "bmp", true
	case "tif", "tiff":
		return "tiff", true
	}
	return "", false
}

var (
	pngMagic   = []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}
	jpegMagic  = []byte{0xFF, 0xD8, 0xFF}
	bmpMagic   = []byte{0x42, 0x4D}
	tiffLEMagc = []byte{'I', 'I', 0x2A, 0x00}
	tiffBEMagc = []byte{'M', 'M', 0x00, 0x2A}
)

func sniffMagic(data []byte) (string, bool) {
	switch {
	case bytes.HasPrefix(data, pngMagic):
		return "png", true
	case bytes.HasPrefix(data, jpegMagic):
		return "jpeg", true
	case bytes.HasPrefix(data, []byte("GIF87a")), bytes.HasPrefix(data, []byte("GIF89a")):
		return "gif", true
	case bytes.HasPrefix(data, bmpMagic):
		return "bmp", true
	case bytes.HasPrefix(data, tiffLEMagc), bytes.HasPrefix(data, tiffBEMagc):
		return "tiff", true
	default:
		return "", false
	}
}

// MimeTypeFor returns the content type registered for a detected format.
func MimeTypeFor(format string) string {
	switch format {
	case "png":
		return "image/png"
	case "jpeg":
		return "image/jpeg"
	case "gif":
		return "image/gif"
	case "bmp":
		return "image/bmp"
	case "tiff":
		return "image/tiff"
	default:
		return "application/octet-stream"
	}
}

// IntrinsicSize reads pixel dimensions straight out of the image bytes for
// PNG, GIF, and JPEG. BMP and TIFF report !ok: both support multiple valid
// header layouts this package doesn't infer from, so those formats require
// an explicit width/height instead of a guessed one.
func IntrinsicSize(format string, data []byte) (width, height int, ok bool) {
	switch format {
	case "png":
		return pngSize(data)
	case "gif":
		return gifSize(data)
	case "jpeg":
		return jpegSize(data)
	default:
		return 0, 0, false
	}
}

func pngSize(data []byte) (int, int, bool) {
	if len(data) < 24 {
		return 0, 0, false
	}
	w := int(binary.BigEndian.Uint32(data[16:20]))
	h := int(binary.BigEndian.Uint32(data[20:24]))
	return w, h, true
}

func gifSize(data []byte) (int, int, bool) {
	if len(data) < 10 {
		return 0, 0, false
	}
	w := int(binary.LittleEndian.Uint16(data[6:8]))
	h := int(binary.LittleEndian.Uint16(data[8:10]))
	return w, h, true
}

// jpegSize walks JFIF segments from offset 2 looking for a Start-of-Frame
// marker (C0..CF, excluding C4/C8/CC), reading height/width as big-endian
// u16 at +3/+4 and +5/+6 from the segment's length field.
func jpegSize(data []byte) (int, int, bool) {
	i, n := 2, len(data)
	for i < n {
		if data[i] != 0xFF {
			i++
			continue
		}
		i++
		for i < n && data[i] == 0xFF {
			i++
		}
		if i >= n {
			break
		}
		marker := data[i]
		i++

		if marker == 0xD8 || marker == 0xD9 || marker == 0x01 || (marker >= 0xD0 && marker <= 0xD7) {
			continue
		}
		if i+2 > n {
			break
		}
		segLen := int(binary.BigEndian.Uint16(data[i : i+2]))

		if marker >= 0xC0 && marker <= 0xCF && marker != 0xC4 && marker != 0xC8 && marker != 0xCC {
			if i+7 > n {
				break
			}
			height := int(binary.BigEndian.Uint16(data[i+3 : i+5]))
			width := int(binary.BigEndian.Uint16(data[i+5 : i+7]))
			return width, height, true
		}
		if segLen < 2 || i+segLen > n {
			break
		}
		i += segLen
	}
	return 0, 0, false
}
