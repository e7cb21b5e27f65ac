// Package docxtpl implements the directive language and tree rewriter that
// turns a WordprocessingML body plus a scoped data context into rendered
// output: path resolution, pipe-operator expressions, loop/conditional
// block expansion, inline text substitution, and inline image rendering.
package docxtpl

import (
	"log/slog"
	"strings"

	"github.com/beevik/etree"

	"github.com/docxmerge/docxtemplate/ooxml"
	"github.com/docxmerge/docxtemplate/value"
)

// TemplateRenderer is the tree walker: it owns the package being mutated,
// the expression evaluator, and the monotone image-id counter, all scoped
// to a single Render call.
type TemplateRenderer struct {
	pkg         *ooxml.Package
	eval        *ExpressionEvaluator
	logger      *slog.Logger
	nextImageID int
}

// NewTemplateRenderer constructs a renderer for one render call. logger may
// be nil, in which case slog.Default() is used.
func NewTemplateRenderer(pkg *ooxml.Package, logger *slog.Logger) *TemplateRenderer {
	if logger == nil {
		logger = slog.Default()
	}
	return &TemplateRenderer{pkg: pkg, eval: NewExpressionEvaluator(), logger: logger}
}

// RenderContainer rewrites composite's children in place: snapshot, clear,
// walk the snapshot expanding control blocks and rendering ordinary
// content, then rebuild from the results.
func (r *TemplateRenderer) RenderContainer(composite *etree.Element, ctx *Context) error {
	children := ooxml.ChildElements(composite)
	ooxml.ClearChildren(composite)

	rendered, err := r.renderChildren(children, ctx)
	if err != nil {
		return err
	}
	for _, c := range rendered {
		composite.AddChild(c)
	}
	return nil
}

func (r *TemplateRenderer) renderChildren(children []*etree.Element, ctx *Context) ([]*etree.Element, error) {
	var out []*etree.Element
	i := 0
	for i < len(children) {
		child := children[i]
		marker, isMarker := ClassifyControl(ooxml.ParagraphText(child))

		if isMarker && isStartMarker(marker.Kind) {
			blockChildren, endIdx, err := r.findMatchingEnd(children, i, marker)
			if err != nil {
				return nil, err
			}

			switch marker.Kind {
			case MarkerLoopStart:
				items, err := r.loopItems(ctx, marker.Expression)
				if err != nil {
					return nil, err
				}
				r.logger.Debug("expanding loop", "expr", marker.Expression, "items", len(items))
				for _, item := range items {
					childCtx := ctx.Spawn(item)
					rendered, err := r.renderChildren(cloneElements(blockChildren), childCtx)
					if err != nil {
						return nil, err
					}
					out = append(out, rendered...)
				}
			case MarkerIfStart:
				cond, err := r.eval.Evaluate(ctx, marker.Expression)
				if err != nil {
					return nil, err
				}
				truthy := value.Truthy(cond)
				r.logger.Debug("evaluating conditional", "expr", marker.Expression, "truthy", truthy)
				if truthy {
					rendered, err := r.renderChildren(cloneElements(blockChildren), ctx)
					if err != nil {
						return nil, err
					}
					out = append(out, rendered...)
				}
			}
			i = endIdx + 1
			continue
		}

		if isMarker && isEndMarker(marker.Kind) {
			// a stray end marker with no matching start at this depth; skip it.
			i++
			continue
		}

		cloned := ooxml.CloneElement(child)
		if err := r.renderNode(cloned, ctx); err != nil {
			return nil, err
		}
		out = append(out, cloned)
		i++
	}
	return out, nil
}

// findMatchingEnd scans forward from a start marker at index i for the end
// marker of the same category (loop vs. if) at the same nesting depth,
// returning the block's interior children and the end marker's index.
func (r *TemplateRenderer) findMatchingEnd(children []*etree.Element, i int, start ControlMarker) ([]*etree.Element, int, error) {
	category := categoryOf(start.Kind)
	depth := 1
	for j := i + 1; j < len(children); j++ {
		cand, isMarker := ClassifyControl(ooxml.ParagraphText(children[j]))
		if !isMarker || categoryOf(cand.Kind) != category {
			continue
		}
		if isStartMarker(cand.Kind) {
			depth++
			continue
		}
		depth--
		if depth == 0 {
			if cand.Expression != start.Expression {
				return nil, 0, &UnmatchedTagError{Open: start.Expression, Close: cand.Expression}
			}
			return children[i+1 : j], j, nil
		}
	}
	kind := "loop"
	if category == categoryIf {
		kind = "if"
	}
	return nil, 0, &UnclosedTagError{Expr: start.Expression, Kind: kind}
}

// loopItems resolves a loop directive's expression into the list of items
// to iterate: an Array yields its elements; other truthy values yield a
// single-item list; null/falsy yields none.
func (r *TemplateRenderer) loopItems(ctx *Context, expression string) ([]value.Value, error) {
	v, err := r.eval.Evaluate(ctx, expression)
	if err != nil {
		return nil, err
	}
	if arr, ok := v.AsArray(); ok {
		return arr, nil
	}
	if value.Truthy(v) {
		return []value.Value{v}, nil
	}
	return nil, nil
}

func cloneElements(children []*etree.Element) []*etree.Element {
	out := make([]*etree.Element, len(children))
	for i, c := range children {
		out[i] = ooxml.CloneElement(c)
	}
	return out
}

// renderNode dispatches ordinary (non-marker) content: paragraphs get
// inline/image handling, other composites recurse, everything else
// (run-level and property elements reached as nested children) is left as
// already cloned.
func (r *TemplateRenderer) renderNode(node *etree.Element, ctx *Context) error {
	switch {
	case ooxml.IsParagraph(node):
		return r.renderParagraph(node, ctx)
	case ooxml.IsComposite(node):
		return r.RenderContainer(node, ctx)
	default:
		return nil
	}
}

// renderParagraph checks the paragraph for an image directive first; if it
// doesn't consume the paragraph, it falls back to inline substitution
// across the paragraph's text runs.
func (r *TemplateRenderer) renderParagraph(p *etree.Element, ctx *Context) error {
	consumed, err := r.renderImageParagraph(p, ctx)
	if err != nil {
		return err
	}
	if consumed {
		return nil
	}
	return r.replaceInlineTagsInParagraph(p, ctx)
}

// replaceInlineTagsInParagraph substitutes directives across a paragraph's
// text nodes. Word often splits one `{...}` across adjacent runs, so a
// double-render comparison decides whether per-node replacement is safe or
// whether the result must be flattened into the first text node.
func (r *TemplateRenderer) replaceInlineTagsInParagraph(p *etree.Element, ctx *Context) error {
	nodes := ooxml.TextNodes(p)
	if len(nodes) == 0 {
		return nil
	}
	if len(nodes) == 1 {
		out, err := r.replaceInline(ooxml.NodeText(nodes[0]), ctx)
		if err != nil {
			return err
		}
		ooxml.SetNodeText(nodes[0], out)
		return nil
	}

	combined := ooxml.ParagraphText(p)
	if !strings.ContainsAny(combined, "{}") {
		return nil
	}

	combinedOut, err := r.replaceInline(combined, ctx)
	if err != nil {
		return err
	}

	perNodeOut := make([]string, len(nodes))
	var perNodeConcat strings.Builder
	for i, n := range nodes {
		out, err := r.replaceInline(ooxml.NodeText(n), ctx)
		if err != nil {
			return err
		}
		perNodeOut[i] = out
		perNodeConcat.WriteString(out)
	}

	if perNodeConcat.String() == combinedOut {
		for i, n := range nodes {
			ooxml.SetNodeText(n, perNodeOut[i])
		}
		return nil
	}

	r.logger.Warn("directive spans multiple runs, flattening into first text node", "paragraph_text", combined)
	ooxml.SetNodeText(nodes[0], combinedOut)
	for _, n := range nodes[1:] {
		ooxml.SetNodeText(n, "")
	}
	return nil
}

// replaceInline substitutes every `{...}` token in a plain string: a
// control-token match is deleted, an image-token match is left verbatim,
// and anything else is evaluated as an expression and rendered with ToText.
func (r *TemplateRenderer) replaceInline(text string, ctx *Context) (string, error) {
	matches := inlineTagPattern.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return text, nil
	}

	var sb strings.Builder
	last := 0
	for _, m := range matches {
		start, end := m[0], m[1]
		inner := text[m[2]:m[3]]
		sb.WriteString(text[last:start])

		switch {
		case isControlPrefix(inner):
			// a stray control token inside inline text: drop it.
		case isImagePrefix(inner):
			sb.WriteString(text[start:end])
		default:
			v, err := r.eval.Evaluate(ctx, inner)
			if err != nil {
				return "", err
			}
			sb.WriteString(value.ToText(v))
		}
		last = end
	}
	sb.WriteString(text[last:])
	return sb.String(), nil
}
