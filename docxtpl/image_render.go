package docxtpl

import (
	"fmt"

	"github.com/beevik/etree"

	"github.com/docxmerge/docxtemplate/ooxml"
)

// renderImageParagraph rewrites a whole-paragraph image directive into one
// or more inline drawings. It returns consumed=true when the paragraph's
// whole text was a pure image directive and has been rewritten;
// consumed=false leaves the paragraph untouched for normal inline
// substitution.
func (r *TemplateRenderer) renderImageParagraph(paragraph *etree.Element, ctx *Context) (bool, error) {
	text := ooxml.ParagraphText(paragraph)
	expression, centered, ok := ClassifyImage(text)
	if !ok {
		return false, nil
	}

	result, err := r.eval.Evaluate(ctx, expression)
	if err != nil {
		return false, err
	}
	payloads, err := ResolveMany(result)
	if err != nil {
		return false, err
	}

	ooxml.ClearRuns(paragraph)
	if centered {
		ooxml.SetJustificationCenter(paragraph)
	}

	for _, payload := range payloads {
		relID, err := r.pkg.RegisterImagePart(payload.Ext, payload.MimeType, payload.Bytes)
		if err != nil {
			return false, err
		}
		r.nextImageID++
		id := r.nextImageID
		run := ooxml.InlineImageRun(relID, payload.WidthPx, payload.HeightPx, id, id, fmt.Sprintf("Picture %d", id))
		paragraph.AddChild(run)
		r.logger.Debug("rendered inline image", "rel_id", relID, "width_px", payload.WidthPx, "height_px", payload.HeightPx)
	}

	return true, nil
}
