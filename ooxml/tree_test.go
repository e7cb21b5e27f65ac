package ooxml

import (
	"testing"

	"github.com/beevik/etree"
	"github.com/stretchr/testify/require"
)

func TestParagraphText_ConcatenatesAcrossRuns(t *testing.T) {
	p := etree.NewElement(TagParagraph)
	p.AddChild(NewRunWithText("Hello, "))
	p.AddChild(NewRunWithText("{name}"))
	require.Equal(t, "Hello, {name}", ParagraphText(p))
}

func TestClearRuns_KeepsParagraphProps(t *testing.T) {
	p := etree.NewElement(TagParagraph)
	pPr := ParagraphProps(p)
	pPr.CreateElement(TagJustify).CreateAttr("w:val", "center")
	p.AddChild(NewRunWithText("body text"))

	ClearRuns(p)

	require.Equal(t, "", ParagraphText(p))
	require.NotNil(t, p.SelectElement(TagParaProps))
}

func TestSetJustificationCenter_ReplacesExisting(t *testing.T) {
	p := etree.NewElement(TagParagraph)
	SetJustificationCenter(p)
	SetJustificationCenter(p)

	pPr := p.SelectElement(TagParaProps)
	require.Len(t, pPr.SelectElements(TagJustify), 1)
	require.Equal(t, "center", pPr.SelectElement(TagJustify).SelectAttrValue("w:val", ""))
}

func TestCloneElement_DeepCopyIsIndependent(t *testing.T) {
	p := etree.NewElement(TagParagraph)
	p.AddChild(NewRunWithText("original"))

	clone := CloneElement(p)
	SetNodeText(TextNodes(clone)[0], "mutated")

	require.Equal(t, "original", ParagraphText(p))
	require.Equal(t, "mutated", ParagraphText(clone))
}

func TestEMU_PixelConversion(t *testing.T) {
	require.Equal(t, int64(9525), EMU(1))
	require.Equal(t, int64(952500), EMU(100))
}

func TestInlineImageRun_SharesIDBetweenDocPrAndCNvPr(t *testing.T) {
	run := InlineImageRun("rId5", 200, 100, 7, 7, "Picture 7")
	docPr := run.FindElement(".//wp:docPr")
	cNvPr := run.FindElement(".//pic:cNvPr")
	require.Equal(t, "7", docPr.SelectAttrValue("id", ""))
	require.Equal(t, "7", cNvPr.SelectAttrValue("id", ""))

	extent := run.FindElement(".//wp:extent")
	require.Equal(t, "1905000", extent.SelectAttrValue("cx", ""))
	require.Equal(t, "952500", extent.SelectAttrValue("cy", ""))

	blip := run.FindElement(".//a:blip")
	require.Equal(t, "rId5", blip.SelectAttrValue("r:embed", ""))
}

func TestIsComposite_ClassifiesKnownTags(t *testing.T) {
	require.True(t, IsComposite(etree.NewElement(TagParagraph)))
	require.True(t, IsComposite(etree.NewElement(TagTable)))
	require.False(t, IsComposite(etree.NewElement(TagRun)))
	require.True(t, IsParagraph(etree.NewElement(TagParagraph)))
	require.True(t, IsTable(etree.NewElement(TagTable)))
	require.True(t, IsRow(etree.NewElement(TagRow)))
	require.True(t, IsCell(etree.NewElement(TagCell)))
}
