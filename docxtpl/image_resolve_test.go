package docxtpl

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/docxmerge/docxtemplate/value"
)

// the PNG signature plus a 2x1 IHDR chunk (width=2 height=1), enough for
// format sniffing and size inference; it is not a complete PNG file.
var tinyPNG = []byte{
	0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A,
	0, 0, 0, 13, 'I', 'H', 'D', 'R',
	0, 0, 0, 2, 0, 0, 0, 1, // width=2, height=1
	8, 6, 0, 0, 0,
	0, 0, 0, 0, // fake crc, not validated by this engine
}

func TestDetectImageFormat_Magic(t *testing.T) {
	f, err := DetectImageFormat(tinyPNG, "", "")
	require.NoError(t, err)
	require.Equal(t, "png", f)
}

func TestIntrinsicSize_PNG(t *testing.T) {
	w, h, ok := IntrinsicSize("png", tinyPNG)
	require.True(t, ok)
	require.Equal(t, 2, w)
	require.Equal(t, 1, h)
}

func TestResolveOne_DataURI(t *testing.T) {
	b64 := base64.StdEncoding.EncodeToString(tinyPNG)
	v := value.String("data:image/png;base64," + b64)
	p, err := ResolveOne(v)
	require.NoError(t, err)
	require.Equal(t, "png", p.Ext)
	require.Equal(t, 2, p.WidthPx)
	require.Equal(t, 1, p.HeightPx)
}

func TestResolveOne_ScaleFromObject(t *testing.T) {
	b64 := base64.StdEncoding.EncodeToString(tinyPNG)
	v := mustParse(t, `{"src":"`+"data:image/png;base64,"+b64+`","scale":4}`)
	p, err := ResolveOne(v)
	require.NoError(t, err)
	require.Equal(t, 8, p.WidthPx)
	require.Equal(t, 4, p.HeightPx)
}

func TestResolveOne_MaxWidthPreservesAspect(t *testing.T) {
	b64 := base64.StdEncoding.EncodeToString(tinyPNG)
	v := mustParse(t, `{"src":"`+"data:image/png;base64,"+b64+`","maxWidth":100,"preserveAspectRatio":true}`)
	p, err := ResolveOne(v)
	require.NoError(t, err)
	require.LessOrEqual(t, p.WidthPx, 100)
	require.Equal(t, p.WidthPx, 2*p.HeightPx)
}

func TestResolveMany_ArrayDropsNulls(t *testing.T) {
	b64 := base64.StdEncoding.EncodeToString(tinyPNG)
	v := mustParse(t, `["`+"data:image/png;base64,"+b64+`", null]`)
	payloads, err := ResolveMany(v)
	require.NoError(t, err)
	require.Len(t, payloads, 1)
}

func TestResolveOne_InvalidSourceErrors(t *testing.T) {
	_, err := ResolveOne(value.String("not base64 and not a file !!"))
	require.Error(t, err)
	var srcErr *InvalidImageSourceError
	require.ErrorAs(t, err, &srcErr)
}
