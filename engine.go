// Package docxtemplate wires the OOXML package reader/writer, the
// JSON-backed value tree, and the docxtpl tree renderer into a single
// Render/RenderStream entry point.
package docxtemplate

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"

	"github.com/docxmerge/docxtemplate/docxtpl"
	"github.com/docxmerge/docxtemplate/ooxml"
	"github.com/docxmerge/docxtemplate/value"
)

// Engine renders .docx templates against JSON data. The zero value is
// ready to use; Logger may be set to route diagnostic output through a
// caller-chosen slog.Logger. An Engine holds no state between calls and is
// safe for concurrent use across distinct instances; a single instance's
// fields should not be mutated concurrently with a Render call.
type Engine struct {
	Logger *slog.Logger
}

// NewEngine returns a ready-to-use Engine with the default logger.
func NewEngine() *Engine {
	return &Engine{}
}

// Render merges templateBytes (a .docx file) with jsonData (a JSON
// document) and returns the rendered .docx bytes.
func (e *Engine) Render(templateBytes, jsonData []byte) ([]byte, error) {
	if templateBytes == nil {
		return nil, &docxtpl.ArgumentError{Name: "templateBytes", Msg: "must not be nil"}
	}
	if jsonData == nil {
		return nil, &docxtpl.ArgumentError{Name: "jsonData", Msg: "must not be nil"}
	}

	root, err := value.Parse(jsonData)
	if err != nil {
		return nil, &docxtpl.InvalidJSONError{Err: err}
	}
	if root.IsNull() {
		return nil, &docxtpl.InvalidJSONError{}
	}

	pkg, err := ooxml.Open(templateBytes)
	if err != nil {
		return nil, fmt.Errorf("docxtemplate: open template: %w", err)
	}

	renderer := docxtpl.NewTemplateRenderer(pkg, e.Logger)
	ctx := docxtpl.NewRootContext(root)
	if err := renderer.RenderContainer(pkg.Body(), ctx); err != nil {
		return nil, err
	}

	out, err := pkg.Bytes()
	if err != nil {
		return nil, fmt.Errorf("docxtemplate: save rendered package: %w", err)
	}
	return out, nil
}

// RenderStream is the streaming variant of Render: it reads the whole
// template from templateStream, renders it, and writes the result to
// outputStream, which must be seekable; its position is reset to 0 before
// writing and left at 0 on return.
func (e *Engine) RenderStream(templateStream io.Reader, outputStream io.WriteSeeker, jsonData []byte) error {
	if templateStream == nil {
		return &docxtpl.ArgumentError{Name: "templateStream", Msg: "must not be nil"}
	}
	if outputStream == nil {
		return &docxtpl.ArgumentError{Name: "outputStream", Msg: "must not be nil"}
	}
	if jsonData == nil {
		return &docxtpl.ArgumentError{Name: "jsonData", Msg: "must not be nil"}
	}

	templateBytes, err := io.ReadAll(templateStream)
	if err != nil {
		return fmt.Errorf("docxtemplate: read template stream: %w", err)
	}

	rendered, err := e.Render(templateBytes, jsonData)
	if err != nil {
		return err
	}

	if _, err := outputStream.Seek(0, io.SeekStart); err != nil {
		return &docxtpl.ArgumentError{Name: "outputStream", Msg: "must be seekable: " + err.Error()}
	}
	if _, err := io.Copy(outputStream, bytes.NewReader(rendered)); err != nil {
		return fmt.Errorf("docxtemplate: write output stream: %w", err)
	}
	if _, err := outputStream.Seek(0, io.SeekStart); err != nil {
		return &docxtpl.ArgumentError{Name: "outputStream", Msg: "must be seekable: " + err.Error()}
	}
	return nil
}
