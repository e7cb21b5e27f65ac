package docxtpl

import (
	"testing"

	"github.com/beevik/etree"
	"github.com/stretchr/testify/require"

	"github.com/docxmerge/docxtemplate/ooxml"
)

func newParagraph(texts ...string) *etree.Element {
	p := etree.NewElement(ooxml.TagParagraph)
	for _, t := range texts {
		p.AddChild(ooxml.NewRunWithText(t))
	}
	return p
}

func newBody(children ...*etree.Element) *etree.Element {
	body := etree.NewElement("body")
	for _, c := range children {
		body.AddChild(c)
	}
	return body
}

func TestRenderContainer_BasicPathAndIndex(t *testing.T) {
	root := mustParse(t, `{"patient":{"name":"Alice"},"report":{"items":[{"code":"A1"},{"code":"B2"}]}}`)
	body := newBody(
		newParagraph("Patient: {patient.name}"),
		newParagraph("First code: {report.items[0].code}"),
	)

	r := NewTemplateRenderer(nil, nil)
	require.NoError(t, r.RenderContainer(body, NewRootContext(root)))

	paras := body.ChildElements()
	require.Len(t, paras, 2)
	require.Equal(t, "Patient: Alice", ooxml.ParagraphText(paras[0]))
	require.Equal(t, "First code: A1", ooxml.ParagraphText(paras[1]))
}

func TestRenderContainer_Conditional(t *testing.T) {
	body := newBody(
		newParagraph("{?flags.showVip}"),
		newParagraph("VIP Section"),
		newParagraph("{/?flags.showVip}"),
	)

	r := NewTemplateRenderer(nil, nil)
	require.NoError(t, r.RenderContainer(body, NewRootContext(mustParse(t, `{"flags":{"showVip":true}}`))))
	require.Equal(t, "VIP Section", ooxml.ParagraphText(body.ChildElements()[0]))

	body2 := newBody(
		newParagraph("{?flags.showVip}"),
		newParagraph("VIP Section"),
		newParagraph("{/?flags.showVip}"),
	)
	require.NoError(t, r.RenderContainer(body2, NewRootContext(mustParse(t, `{"flags":{"showVip":false}}`))))
	require.Empty(t, body2.ChildElements())
}

func TestRenderContainer_LoopSortTakeFormat(t *testing.T) {
	root := mustParse(t, `{"orders":[
		{"id":"ORD-001","amount":12.5},
		{"id":"ORD-002","amount":100},
		{"id":"ORD-003","amount":66.2}
	]}`)
	body := newBody(
		newParagraph("{#orders|sort:amount:desc|take:2}"),
		newParagraph("{id} -> {amount|format:number:0.00}"),
		newParagraph("{/orders|sort:amount:desc|take:2}"),
	)

	r := NewTemplateRenderer(nil, nil)
	require.NoError(t, r.RenderContainer(body, NewRootContext(root)))

	paras := body.ChildElements()
	require.Len(t, paras, 2)
	require.Equal(t, "ORD-002 -> 100.00", ooxml.ParagraphText(paras[0]))
	require.Equal(t, "ORD-003 -> 66.20", ooxml.ParagraphText(paras[1]))
}

func TestRenderContainer_UnmatchedTagError(t *testing.T) {
	body := newBody(
		newParagraph("{#a}"),
		newParagraph("x"),
		newParagraph("{/b}"),
	)
	r := NewTemplateRenderer(nil, nil)
	err := r.RenderContainer(body, NewRootContext(mustParse(t, `{"a":[1]}`)))
	require.Error(t, err)
	var unmatched *UnmatchedTagError
	require.ErrorAs(t, err, &unmatched)
}

func TestRenderContainer_UnclosedTagError(t *testing.T) {
	body := newBody(
		newParagraph("{#a}"),
		newParagraph("x"),
	)
	r := NewTemplateRenderer(nil, nil)
	err := r.RenderContainer(body, NewRootContext(mustParse(t, `{"a":[1]}`)))
	require.Error(t, err)
	var unclosed *UnclosedTagError
	require.ErrorAs(t, err, &unclosed)
}

func TestRenderContainer_SplitRunDirective(t *testing.T) {
	body := newBody(newParagraph("{createdAt|for", "mat:date:yyyy-MM-", "dd}"))
	root := mustParse(t, `{"createdAt":"2026-02-24T10:11:12Z"}`)

	r := NewTemplateRenderer(nil, nil)
	require.NoError(t, r.RenderContainer(body, NewRootContext(root)))
	require.Equal(t, "2026-02-24", ooxml.ParagraphText(body.ChildElements()[0]))
}

func TestRenderContainer_ControlTokenOutsideWholeParagraphIsDropped(t *testing.T) {
	body := newBody(newParagraph("prefix {#notAMarkerHere} suffix"))
	r := NewTemplateRenderer(nil, nil)
	require.NoError(t, r.RenderContainer(body, NewRootContext(mustParse(t, `{}`))))
	require.Equal(t, "prefix  suffix", ooxml.ParagraphText(body.ChildElements()[0]))
}

func TestRenderContainer_NoResidueOnLiteralTemplate(t *testing.T) {
	body := newBody(newParagraph("nothing to see here"))
	r := NewTemplateRenderer(nil, nil)
	require.NoError(t, r.RenderContainer(body, NewRootContext(mustParse(t, `{}`))))
	require.Equal(t, "nothing to see here", ooxml.ParagraphText(body.ChildElements()[0]))
}
