// Package ooxml provides a minimal WordprocessingML (.docx) package
// reader/writer: it opens the zip container, parses the content-types,
// relationships, and document parts, and re-serializes them after
// rendering. The document tree (word/document.xml) is parsed and rewritten
// with github.com/beevik/etree, since the renderer needs node-level
// insert/remove/clone operations on it that encoding/xml doesn't provide
// directly; every other part is kept and round-tripped as raw bytes.
package ooxml

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/beevik/etree"
)

const (
	documentPartName      = "word/document.xml"
	documentRelsPartName  = "word/_rels/document.xml.rels"
	contentTypesPartName  = "[Content_Types].xml"
	relImageType          = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/image"
	mediaDir              = "word/media"
)

// Package is an opened .docx container. The document part is held as a
// parsed *etree.Document; every other zip entry is kept as raw bytes and
// copied through unmodified by Bytes, except the relationships and
// content-types parts, which gain new entries as images are registered.
type Package struct {
	doc          *etree.Document
	mainBody     *etree.Element
	rels         *relationshipsPart
	contentTypes *contentTypesPart
	otherParts   map[string][]byte // zip name -> raw bytes, preserves all non-rewritten parts
	partOrder    []string          // preserves original zip entry order for deterministic output
	mediaFiles   map[string][]byte // new media parts added during this render
	nextRelSeq   int
	nextImageSeq int
}

// Open parses a .docx byte stream into a mutable Package.
func Open(data []byte) (*Package, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("ooxml: open zip: %w", err)
	}

	pkg := &Package{
		otherParts: make(map[string][]byte),
		mediaFiles: make(map[string][]byte),
	}

	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("ooxml: open part %s: %w", f.Name, err)
		}
		raw, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("ooxml: read part %s: %w", f.Name, err)
		}

		switch f.Name {
		case documentPartName:
			doc := etree.NewDocument()
			if err := doc.ReadFromBytes(raw); err != nil {
				return nil, fmt.Errorf("ooxml: parse document.xml: %w", err)
			}
			pkg.doc = doc
		case documentRelsPartName:
			rels, err := parseRelationships(raw)
			if err != nil {
				return nil, fmt.Errorf("ooxml: parse document rels: %w", err)
			}
			pkg.rels = rels
		case contentTypesPartName:
			ct, err := parseContentTypes(raw)
			if err != nil {
				return nil, fmt.Errorf("ooxml: parse content types: %w", err)
			}
			pkg.contentTypes = ct
		default:
			pkg.otherParts[f.Name] = raw
			pkg.partOrder = append(pkg.partOrder, f.Name)
		}
	}

	if pkg.doc == nil {
		return nil, fmt.Errorf("ooxml: missing %s", documentPartName)
	}
	if pkg.rels == nil {
		pkg.rels = newRelationshipsPart()
	}
	if pkg.contentTypes == nil {
		pkg.contentTypes = newContentTypesPart()
	}

	root := pkg.doc.SelectElement("w:document")
	if root == nil {
		return nil, fmt.Errorf("ooxml: document.xml has no w:document root")
	}
	body := root.SelectElement("w:body")
	if body == nil {
		return nil, fmt.Errorf("ooxml: document.xml has no w:body")
	}
	pkg.mainBody = body
	pkg.nextRelSeq = pkg.rels.maxNumericID() + 1

	return pkg, nil
}

// Body returns the w:body element, the root composite the renderer walks.
func (p *Package) Body() *etree.Element { return p.mainBody }

// RegisterImagePart adds a new image media part for the given bytes and
// detected format (extension without the dot, e.g. "png"), wires it into
// word/_rels/document.xml.rels with the image relationship type, and
// ensures [Content_Types].xml declares a Default for the extension.
// Returns the new relationship id (e.g. "rId42").
func (p *Package) RegisterImagePart(ext, mimeType string, data []byte) (string, error) {
	p.nextImageSeq++
	name := fmt.Sprintf("image%d.%s", p.nextImageSeq, ext)
	target := "media/" + name
	partPath := mediaDir + "/" + name

	p.mediaFiles[partPath] = data

	relID := fmt.Sprintf("rId%d", p.nextRelSeq)
	p.nextRelSeq++
	p.rels.add(relationship{ID: relID, Type: relImageType, Target: target})

	p.contentTypes.ensureDefault(ext, mimeType)

	return relID, nil
}

// Bytes serializes the package back to a .docx byte stream. All parts
// untouched by rendering are copied through verbatim; document.xml,
// the document relationships, content types, and any newly registered
// media parts are (re)written.
func (p *Package) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	docBytes, err := p.doc.WriteToBytes()
	if err != nil {
		return nil, fmt.Errorf("ooxml: serialize document.xml: %w", err)
	}
	if err := writeZipEntry(zw, documentPartName, docBytes); err != nil {
		return nil, err
	}

	relsBytes, err := p.rels.marshal()
	if err != nil {
		return nil, fmt.Errorf("ooxml: serialize document rels: %w", err)
	}
	if err := writeZipEntry(zw, documentRelsPartName, relsBytes); err != nil {
		return nil, err
	}

	ctBytes, err := p.contentTypes.marshal()
	if err != nil {
		return nil, fmt.Errorf("ooxml: serialize content types: %w", err)
	}
	if err := writeZipEntry(zw, contentTypesPartName, ctBytes); err != nil {
		return nil, err
	}

	for _, name := range p.partOrder {
		if err := writeZipEntry(zw, name, p.otherParts[name]); err != nil {
			return nil, err
		}
	}

	mediaNames := make([]string, 0, len(p.mediaFiles))
	for name := range p.mediaFiles {
		mediaNames = append(mediaNames, name)
	}
	sort.Strings(mediaNames)
	for _, name := range mediaNames {
		if err := writeZipEntry(zw, name, p.mediaFiles[name]); err != nil {
			return nil, err
		}
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("ooxml: close zip: %w", err)
	}
	return buf.Bytes(), nil
}

func writeZipEntry(zw *zip.Writer, name string, data []byte) error {
	w, err := zw.Create(name)
	if err != nil {
		return fmt.Errorf("ooxml: create zip entry %s: %w", name, err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("ooxml: write zip entry %s: %w", name, err)
	}
	return nil
}

// relationship models a single <Relationship> in a .rels part.
type relationship struct {
	ID     string `xml:"Id,attr"`
	Type   string `xml:"Type,attr"`
	Target string `xml:"Target,attr"`
}

type relationshipsXML struct {
	XMLName       xml.Name       `xml:"http://schemas.openxmlformats.org/package/2006/relationships Relationships"`
	Relationships []relationship `xml:"Relationship"`
}

type relationshipsPart struct {
	items []relationship
}

func newRelationshipsPart() *relationshipsPart { return &relationshipsPart{} }

func parseRelationships(data []byte) (*relationshipsPart, error) {
	var parsed relationshipsXML
	if err := xml.Unmarshal(data, &parsed); err != nil {
		return nil, err
	}
	return &relationshipsPart{items: parsed.Relationships}, nil
}

func (r *relationshipsPart) add(rel relationship) {
	r.items = append(r.items, rel)
}

func (r *relationshipsPart) maxNumericID() int {
	max := 0
	for _, rel := range r.items {
		id := strings.TrimPrefix(rel.ID, "rId")
		n := 0
		for _, c := range id {
			if c < '0' || c > '9' {
				n = 0
				break
			}
			n = n*10 + int(c-'0')
		}
		if n > max {
			max = n
		}
	}
	return max
}

func (r *relationshipsPart) marshal() ([]byte, error) {
	out := relationshipsXML{Relationships: r.items}
	body, err := xml.Marshal(out)
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), body...), nil
}

// contentTypesPart models [Content_Types].xml: a set of per-extension
// Default entries plus per-part Overrides. New image formats get a Default
// entry added the first time that extension is registered.
type contentTypesPart struct {
	defaults  []ctDefault
	overrides []ctOverride
	seenExt   map[string]bool
}

type ctDefault struct {
	Extension   string `xml:"Extension,attr"`
	ContentType string `xml:"ContentType,attr"`
}

type ctOverride struct {
	PartName    string `xml:"PartName,attr"`
	ContentType string `xml:"ContentType,attr"`
}

type contentTypesXML struct {
	XMLName   xml.Name     `xml:"http://schemas.openxmlformats.org/package/2006/content-types Types"`
	Defaults  []ctDefault  `xml:"Default"`
	Overrides []ctOverride `xml:"Override"`
}

func newContentTypesPart() *contentTypesPart {
	return &contentTypesPart{seenExt: make(map[string]bool)}
}

func parseContentTypes(data []byte) (*contentTypesPart, error) {
	var parsed contentTypesXML
	if err := xml.Unmarshal(data, &parsed); err != nil {
		return nil, err
	}
	ct := &contentTypesPart{
		defaults:  parsed.Defaults,
		overrides: parsed.Overrides,
		seenExt:   make(map[string]bool),
	}
	for _, d := range ct.defaults {
		ct.seenExt[strings.ToLower(d.Extension)] = true
	}
	return ct, nil
}

func (c *contentTypesPart) ensureDefault(ext, mimeType string) {
	ext = strings.ToLower(ext)
	if c.seenExt[ext] {
		return
	}
	c.seenExt[ext] = true
	c.defaults = append(c.defaults, ctDefault{Extension: ext, ContentType: mimeType})
}

func (c *contentTypesPart) marshal() ([]byte, error) {
	out := contentTypesXML{Defaults: c.defaults, Overrides: c.overrides}
	body, err := xml.Marshal(out)
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), body...), nil
}
