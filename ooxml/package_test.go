package ooxml

import (
	"archive/zip"
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func buildTestDocx(t *testing.T, bodyXML string, extraRels string) []byte {
	t.Helper()
	contentTypes := `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>
<Default Extension="xml" ContentType="application/xml"/>
<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>
</Types>`
	rels := `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` + extraRels + `</Relationships>`
	document := `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:body>` + bodyXML + `</w:body>
</w:document>`

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	files := map[string]string{
		"[Content_Types].xml":          contentTypes,
		"word/document.xml":            document,
		"word/_rels/document.xml.rels": rels,
	}
	for name, content := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func readZipPart(t *testing.T, data []byte, name string) string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		require.NoError(t, err)
		defer rc.Close()
		var sb strings.Builder
		buf := make([]byte, 4096)
		for {
			n, rerr := rc.Read(buf)
			sb.Write(buf[:n])
			if rerr != nil {
				break
			}
		}
		return sb.String()
	}
	t.Fatalf("part %s not found", name)
	return ""
}

func TestOpen_ParsesBodyAndRejectsInvalidDocument(t *testing.T) {
	data := buildTestDocx(t, "<w:p><w:r><w:t>hi</w:t></w:r></w:p>", "")
	pkg, err := Open(data)
	require.NoError(t, err)
	require.NotNil(t, pkg.Body())
	require.Equal(t, "hi", ParagraphText(pkg.Body().ChildElements()[0]))

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte("not xml"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	_, err = Open(buf.Bytes())
	require.Error(t, err)
}

func TestRegisterImagePart_AssignsSequentialIDsAndExtendsContentTypes(t *testing.T) {
	data := buildTestDocx(t, "<w:p/>", `<Relationship Id="rId1" Type="x" Target="styles.xml"/>`)
	pkg, err := Open(data)
	require.NoError(t, err)

	relID1, err := pkg.RegisterImagePart("png", "image/png", []byte{1, 2, 3})
	require.NoError(t, err)
	require.Equal(t, "rId2", relID1)

	relID2, err := pkg.RegisterImagePart("png", "image/png", []byte{4, 5, 6})
	require.NoError(t, err)
	require.Equal(t, "rId3", relID2)

	out, err := pkg.Bytes()
	require.NoError(t, err)

	relsXML := readZipPart(t, out, "word/_rels/document.xml.rels")
	require.Contains(t, relsXML, `Id="rId2"`)
	require.Contains(t, relsXML, `Target="media/image1.png"`)
	require.Contains(t, relsXML, `Id="rId3"`)
	require.Contains(t, relsXML, `Target="media/image2.png"`)

	ctXML := readZipPart(t, out, "[Content_Types].xml")
	require.Contains(t, ctXML, `Extension="png"`)

	zr, err := zip.NewReader(bytes.NewReader(out), int64(len(out)))
	require.NoError(t, err)
	var mediaNames []string
	for _, f := range zr.File {
		if strings.HasPrefix(f.Name, "word/media/") {
			mediaNames = append(mediaNames, f.Name)
		}
	}
	require.ElementsMatch(t, []string{"word/media/image1.png", "word/media/image2.png"}, mediaNames)
}

func TestRegisterImagePart_ContentTypeDefaultAddedOncePerExtension(t *testing.T) {
	data := buildTestDocx(t, "<w:p/>", "")
	pkg, err := Open(data)
	require.NoError(t, err)

	_, err = pkg.RegisterImagePart("jpeg", "image/jpeg", []byte{1})
	require.NoError(t, err)
	_, err = pkg.RegisterImagePart("jpeg", "image/jpeg", []byte{2})
	require.NoError(t, err)

	out, err := pkg.Bytes()
	require.NoError(t, err)
	ctXML := readZipPart(t, out, "[Content_Types].xml")
	require.Equal(t, 1, strings.Count(ctXML, `Extension="jpeg"`))
}

func TestBytes_PreservesUnrelatedParts(t *testing.T) {
	data := buildTestDocx(t, "<w:p/>", "")

	var buf bytes.Buffer
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	zw := zip.NewWriter(&buf)
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		w, err := zw.Create(f.Name)
		require.NoError(t, err)
		_, err = io.Copy(w, rc)
		require.NoError(t, err)
		rc.Close()
	}
	w, err := zw.Create("word/styles.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte("<w:styles/>"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	pkg, err := Open(buf.Bytes())
	require.NoError(t, err)
	out, err := pkg.Bytes()
	require.NoError(t, err)
	require.Equal(t, "<w:styles/>", readZipPart(t, out, "word/styles.xml"))
}
