package docxtpl

import (
	"encoding/base64"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/docxmerge/docxtemplate/value"
)

// ImagePayload is the normalized result of resolving one image directive's
// value: raw bytes plus the computed placement size.
type ImagePayload struct {
	Bytes    []byte
	MimeType string
	Ext      string
	WidthPx  int
	HeightPx int
}

var dataURIPattern = regexp.MustCompile(`(?s)^data:([^;,]*)(;base64)?,(.*)$`)

// ResolveMany resolves an image directive's value into zero or more
// payloads: an Array yields one payload per non-null element, Null yields
// none, and any other value yields exactly one payload.
func ResolveMany(v value.Value) ([]ImagePayload, error) {
	switch v.Kind() {
	case value.KindArray:
		arr, _ := v.AsArray()
		var out []ImagePayload
		for _, item := range arr {
			if item.IsNull() {
				continue
			}
			p, err := ResolveOne(item)
			if err != nil {
				return nil, err
			}
			out = append(out, p)
		}
		return out, nil
	case value.KindNull:
		return nil, nil
	default:
		p, err := ResolveOne(v)
		if err != nil {
			return nil, err
		}
		return []ImagePayload{p}, nil
	}
}

// ResolveOne resolves a single Value (string or object) into an ImagePayload.
func ResolveOne(v value.Value) (ImagePayload, error) {
	src, opts, err := extractImageSpec(v)
	if err != nil {
		return ImagePayload{}, err
	}

	data, mimeHint, extHint, err := acquireBytes(src)
	if err != nil {
		return ImagePayload{}, err
	}

	format, err := DetectImageFormat(data, mimeHint, extHint)
	if err != nil {
		return ImagePayload{}, err
	}

	ow, oh, known := IntrinsicSize(format, data)
	w, h, err := resolveSize(opts, ow, oh, known)
	if err != nil {
		return ImagePayload{}, err
	}

	return ImagePayload{
		Bytes:    data,
		MimeType: MimeTypeFor(format),
		Ext:      format,
		WidthPx:  w,
		HeightPx: h,
	}, nil
}

type imageOptions struct {
	width, height, maxWidth, maxHeight *int
	scale                              *float64
	preserveAspectRatio                *bool
}

// extractImageSpec reads the source string and sizing options out of a
// string or object Value, matching several accepted field-name aliases.
func extractImageSpec(v value.Value) (string, imageOptions, error) {
	var opts imageOptions

	if s, ok := v.AsString(); ok {
		if strings.TrimSpace(s) == "" {
			return "", opts, &InvalidImageSourceError{Msg: "empty source string"}
		}
		return s, opts, nil
	}

	if v.Kind() != value.KindObject {
		return "", opts, &InvalidImageSourceError{Msg: "image value must be a string or object"}
	}

	var src string
	for _, key := range []string{"src", "data", "base64", "path", "value"} {
		if f, ok := v.GetCI(key); ok && !f.IsNull() {
			if s, isStr := f.AsString(); isStr && strings.TrimSpace(s) != "" {
				src = s
				break
			}
		}
	}
	if src == "" {
		return "", opts, &InvalidImageSourceError{Msg: "no src/data/base64/path/value field found"}
	}

	var err error
	if opts.width, err = getIntOpt(v, "width", "widthPx"); err != nil {
		return "", opts, err
	}
	if opts.height, err = getIntOpt(v, "height", "heightPx"); err != nil {
		return "", opts, err
	}
	if opts.maxWidth, err = getIntOpt(v, "maxWidth"); err != nil {
		return "", opts, err
	}
	if opts.maxHeight, err = getIntOpt(v, "maxHeight"); err != nil {
		return "", opts, err
	}
	opts.scale = getFloatOpt(v, "scale")
	opts.preserveAspectRatio = getBoolOpt(v, "preserveAspectRatio", "keepAspectRatio", "lockAspectRatio")

	return src, opts, nil
}

func getIntOpt(v value.Value, keys ...string) (*int, error) {
	for _, k := range keys {
		f, ok := v.GetCI(k)
		if !ok || f.IsNull() {
			continue
		}
		fl, isNum := f.AsFloat()
		if !isNum {
			continue
		}
		n := int(fl)
		if n <= 0 {
			return nil, &InvalidImageSizeError{Msg: fmt.Sprintf("%s must be > 0", k)}
		}
		return &n, nil
	}
	return nil, nil
}

func getFloatOpt(v value.Value, keys ...string) *float64 {
	for _, k := range keys {
		if f, ok := v.GetCI(k); ok && !f.IsNull() {
			if fl, isNum := f.AsFloat(); isNum {
				return &fl
			}
		}
	}
	return nil
}

func getBoolOpt(v value.Value, keys ...string) *bool {
	for _, k := range keys {
		if f, ok := v.GetCI(k); ok && !f.IsNull() {
			if b, isBool := f.AsBool(); isBool {
				return &b
			}
		}
	}
	return nil
}

// acquireBytes tries, in order, a data URI, an existing file path, then raw
// base64. A source in data URI form is only decoded as one: a non-base64 or
// undecodable data URI is an error, not a fall-through to the later forms.
func acquireBytes(src string) (data []byte, mimeHint, extHint string, err error) {
	if m := dataURIPattern.FindStringSubmatch(src); m != nil {
		mime, isBase64, payload := m[1], m[2] == ";base64", m[3]
		if !isBase64 {
			return nil, "", "", &InvalidImageSourceError{Msg: "non-base64 data URI is not supported"}
		}
		decoded, derr := decodeBase64(payload)
		if derr != nil {
			return nil, "", "", &InvalidImageSourceError{Msg: "invalid base64 payload in data URI"}
		}
		return decoded, mime, "", nil
	}

	if info, statErr := os.Stat(src); statErr == nil && !info.IsDir() {
		raw, readErr := os.ReadFile(src)
		if readErr != nil {
			return nil, "", "", &InvalidImageSourceError{Msg: fmt.Sprintf("read file %q: %s", src, readErr)}
		}
		return raw, "", filepath.Ext(src), nil
	}

	decoded, derr := decodeBase64(src)
	if derr != nil {
		return nil, "", "", &InvalidImageSourceError{Msg: "source is neither a data URI, an existing file, nor valid base64"}
	}
	return decoded, "", "", nil
}

func decodeBase64(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if data, err := base64.StdEncoding.DecodeString(s); err == nil {
		return data, nil
	}
	return base64.RawStdEncoding.DecodeString(s)
}

// resolveSize computes a final pixel size from explicit width/height,
// intrinsic size, and aspect-ratio preference, then applies scale and
// maxWidth/maxHeight clamping in turn.
func resolveSize(opts imageOptions, ow, oh int, knownIntrinsic bool) (int, int, error) {
	keepAspect := opts.scale != nil || opts.maxWidth != nil || opts.maxHeight != nil ||
		((opts.width != nil) != (opts.height != nil))
	if opts.preserveAspectRatio != nil {
		keepAspect = *opts.preserveAspectRatio
	}

	var w, h int
	switch {
	case opts.width != nil && opts.height != nil:
		w, h = *opts.width, *opts.height
		if keepAspect && knownIntrinsic {
			w, h = fitIntoBox(ow, oh, w, h, true)
		}
	case opts.width != nil:
		w = *opts.width
		switch {
		case keepAspect && knownIntrinsic:
			h = roundHalfAwayFromZero(float64(oh) * float64(w) / float64(ow))
		case knownIntrinsic:
			h = oh
		default:
			h = 120
		}
	case opts.height != nil:
		h = *opts.height
		switch {
		case keepAspect && knownIntrinsic:
			w = roundHalfAwayFromZero(float64(ow) * float64(h) / float64(oh))
		case knownIntrinsic:
			w = ow
		default:
			w = 120
		}
	default:
		if knownIntrinsic {
			w, h = ow, oh
		} else {
			w, h = 120, 120
		}
	}

	if opts.scale != nil {
		s := *opts.scale
		w = maxInt(1, roundHalfAwayFromZero(float64(w)*s))
		h = maxInt(1, roundHalfAwayFromZero(float64(h)*s))
	}

	if opts.maxWidth != nil || opts.maxHeight != nil {
		if keepAspect {
			ratio := 1.0
			if opts.maxWidth != nil {
				ratio = math.Min(ratio, float64(*opts.maxWidth)/float64(w))
			}
			if opts.maxHeight != nil {
				ratio = math.Min(ratio, float64(*opts.maxHeight)/float64(h))
			}
			w = maxInt(1, roundHalfAwayFromZero(float64(w)*ratio))
			h = maxInt(1, roundHalfAwayFromZero(float64(h)*ratio))
		} else {
			if opts.maxWidth != nil && w > *opts.maxWidth {
				w = *opts.maxWidth
			}
			if opts.maxHeight != nil && h > *opts.maxHeight {
				h = *opts.maxHeight
			}
		}
	}

	if w <= 0 || h <= 0 {
		return 0, 0, &InvalidImageSizeError{Msg: "resolved size is non-positive"}
	}
	return w, h, nil
}

// fitIntoBox scales (srcW,srcH) to fit within (boxW,boxH), optionally
// allowing upscale.
func fitIntoBox(srcW, srcH, boxW, boxH int, allowUpscale bool) (int, int) {
	r := math.Min(float64(boxW)/float64(srcW), float64(boxH)/float64(srcH))
	if !allowUpscale {
		r = math.Min(r, 1)
	}
	w := maxInt(1, roundHalfAwayFromZero(float64(srcW)*r))
	h := maxInt(1, roundHalfAwayFromZero(float64(srcH)*r))
	return w, h
}

func roundHalfAwayFromZero(f float64) int { return int(math.Round(f)) }

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
