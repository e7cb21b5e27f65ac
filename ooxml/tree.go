package ooxml

import (
	"strconv"
	"strings"

	"github.com/beevik/etree"
)

// Element tag names the renderer classifies and builds. The package part's
// root lookups ("w:document", "w:body") and attribute names are spelled out
// where they are used.
const (
	TagParagraph = "w:p"
	TagRun       = "w:r"
	TagText      = "w:t"
	TagTable     = "w:tbl"
	TagRow       = "w:tr"
	TagCell      = "w:tc"
	TagParaProps = "w:pPr"
	TagJustify   = "w:jc"
	TagDrawing   = "w:drawing"
)

// IsComposite reports whether e is one of the container element types the
// tree walker recurses into (body, table, row, cell, paragraph).
func IsComposite(e *etree.Element) bool {
	switch e.Tag {
	case "body", TagTable, TagRow, TagCell, TagParagraph:
		return true
	default:
		return false
	}
}

func tagIs(e *etree.Element, tag string) bool {
	return e != nil && e.Tag == tag
}

func IsParagraph(e *etree.Element) bool { return tagIs(e, TagParagraph) }
func IsTable(e *etree.Element) bool     { return tagIs(e, TagTable) }
func IsRow(e *etree.Element) bool       { return tagIs(e, TagRow) }
func IsCell(e *etree.Element) bool      { return tagIs(e, TagCell) }

// ChildElements returns e's direct child elements, skipping char data,
// comments, and processing instructions.
func ChildElements(e *etree.Element) []*etree.Element {
	return e.ChildElements()
}

// ClearChildren detaches every child token from e, the first step of the
// tree walker's "snapshot then clear then rebuild" rewrite.
func ClearChildren(e *etree.Element) {
	for _, child := range append([]etree.Token{}, e.Child...) {
		e.RemoveChild(child)
	}
}

// TextNodes returns every w:t element nested under a paragraph, in document
// order, regardless of how many w:r runs they're split across. This is the
// node set inline substitution operates on.
func TextNodes(paragraph *etree.Element) []*etree.Element {
	return paragraph.FindElements(".//" + TagText)
}

// NodeText returns the literal text content of a w:t element.
func NodeText(t *etree.Element) string {
	return t.Text()
}

// SetNodeText replaces a w:t element's text content.
func SetNodeText(t *etree.Element, s string) {
	t.SetText(s)
	if strings.TrimSpace(s) != s && s != "" {
		t.CreateAttr("xml:space", "preserve")
	}
}

// ParagraphText concatenates the paragraph's text nodes in document order.
// Control-tag classification and inline substitution both operate on this
// concatenated text rather than on any single run.
func ParagraphText(paragraph *etree.Element) string {
	var sb strings.Builder
	for _, t := range TextNodes(paragraph) {
		sb.WriteString(NodeText(t))
	}
	return sb.String()
}

// ClearRuns removes every child element of a paragraph except w:pPr (runs,
// hyperlinks, and any other content), keeping w:pPr intact. Used before rendering an image directive,
// which replaces all paragraph content with inline drawings.
func ClearRuns(paragraph *etree.Element) {
	for _, child := range ChildElements(paragraph) {
		if child.Tag != TagParaProps {
			paragraph.RemoveChild(child)
		}
	}
}

// ParagraphProps returns the paragraph's w:pPr element, creating one as the
// first child if absent.
func ParagraphProps(paragraph *etree.Element) *etree.Element {
	if pPr := paragraph.SelectElement(TagParaProps); pPr != nil {
		return pPr
	}
	pPr := etree.NewElement(TagParaProps)
	paragraph.InsertChild(firstChildOrNil(paragraph), pPr)
	return pPr
}

func firstChildOrNil(e *etree.Element) etree.Token {
	if len(e.Child) == 0 {
		return nil
	}
	return e.Child[0]
}

// SetJustificationCenter sets (or replaces) the paragraph's w:jc to center.
func SetJustificationCenter(paragraph *etree.Element) {
	pPr := ParagraphProps(paragraph)
	if jc := pPr.SelectElement(TagJustify); jc != nil {
		pPr.RemoveChild(jc)
	}
	jc := pPr.CreateElement(TagJustify)
	jc.CreateAttr("w:val", "center")
}

// CloneElement deep-copies e, detached from any parent, so loop bodies
// rendered on separate iterations never share mutable OOXML nodes.
func CloneElement(e *etree.Element) *etree.Element {
	return e.Copy()
}

// NewRunWithText builds a standalone w:r run containing a single w:t text
// node, ready to be appended to a paragraph.
func NewRunWithText(text string) *etree.Element {
	run := etree.NewElement(TagRun)
	t := run.CreateElement(TagText)
	SetNodeText(t, text)
	return run
}

// drawingEMUPerPixel converts a pixel dimension to English Metric Units at
// 96 DPI (1 px = 9525 EMU).
const drawingEMUPerPixel = 9525

// EMU converts a pixel dimension to English Metric Units.
func EMU(px int) int64 { return int64(px) * drawingEMUPerPixel }

// InlineImageRun builds a w:r run containing a w:drawing/wp:inline subtree
// for one image: extent in EMU, non-visual ids from the caller's monotone
// counter, NoChangeAspect=true, preset rectangle geometry.
func InlineImageRun(relID string, widthPx, heightPx int, docPrID, cNvPrID int, name string) *etree.Element {
	cx := EMU(widthPx)
	cy := EMU(heightPx)
	docPrIDStr := strconv.Itoa(docPrID)
	cNvPrIDStr := strconv.Itoa(cNvPrID)

	run := etree.NewElement(TagRun)
	drawing := run.CreateElement(TagDrawing)
	inline := drawing.CreateElement("wp:inline")
	inline.CreateAttr("distT", "0")
	inline.CreateAttr("distB", "0")
	inline.CreateAttr("distL", "0")
	inline.CreateAttr("distR", "0")

	extent := inline.CreateElement("wp:extent")
	extent.CreateAttr("cx", strconv.FormatInt(cx, 10))
	extent.CreateAttr("cy", strconv.FormatInt(cy, 10))

	effectExtent := inline.CreateElement("wp:effectExtent")
	effectExtent.CreateAttr("l", "0")
	effectExtent.CreateAttr("t", "0")
	effectExtent.CreateAttr("r", "0")
	effectExtent.CreateAttr("b", "0")

	docPr := inline.CreateElement("wp:docPr")
	docPr.CreateAttr("id", docPrIDStr)
	docPr.CreateAttr("name", name)

	graphic := inline.CreateElement("a:graphic")
	graphic.CreateAttr("xmlns:a", "http://schemas.openxmlformats.org/drawingml/2006/main")
	graphicData := graphic.CreateElement("a:graphicData")
	graphicData.CreateAttr("uri", "http://schemas.openxmlformats.org/drawingml/2006/picture")

	pic := graphicData.CreateElement("pic:pic")
	pic.CreateAttr("xmlns:pic", "http://schemas.openxmlformats.org/drawingml/2006/picture")

	nvPicPr := pic.CreateElement("pic:nvPicPr")
	cNvPr := nvPicPr.CreateElement("pic:cNvPr")
	cNvPr.CreateAttr("id", cNvPrIDStr)
	cNvPr.CreateAttr("name", name)
	nvPicPr.CreateElement("pic:cNvPicPr")

	blipFill := pic.CreateElement("pic:blipFill")
	blip := blipFill.CreateElement("a:blip")
	blip.CreateAttr("r:embed", relID)
	blip.CreateAttr("xmlns:r", "http://schemas.openxmlformats.org/officeDocument/2006/relationships")
	stretch := blipFill.CreateElement("a:stretch")
	stretch.CreateElement("a:fillRect")

	spPr := pic.CreateElement("pic:spPr")
	xfrm := spPr.CreateElement("a:xfrm")
	off := xfrm.CreateElement("a:off")
	off.CreateAttr("x", "0")
	off.CreateAttr("y", "0")
	ext := xfrm.CreateElement("a:ext")
	ext.CreateAttr("cx", strconv.FormatInt(cx, 10))
	ext.CreateAttr("cy", strconv.FormatInt(cy, 10))
	prstGeom := spPr.CreateElement("a:prstGeom")
	prstGeom.CreateAttr("prst", "rect")
	prstGeom.CreateElement("a:avLst")

	cNvPicPr := nvPicPr.SelectElement("pic:cNvPicPr")
	picLocks := cNvPicPr.CreateElement("a:picLocks")
	picLocks.CreateAttr("noChangeAspect", "1")
	picLocks.CreateAttr("noChangeArrowheads", "1")

	return run
}
