package main

import (
	"flag"
	"log/slog"
	"os"

	docxtemplate "github.com/docxmerge/docxtemplate"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))

	templatePath := flag.String("template", "", "path to the .docx template")
	dataPath := flag.String("data", "", "path to the JSON data file")
	outPath := flag.String("out", "rendered.docx", "path to write the rendered .docx")
	flag.Parse()

	if *templatePath == "" || *dataPath == "" {
		logger.Error("usage: docxtemplate -template template.docx -data data.json -out rendered.docx")
		os.Exit(2)
	}

	templateBytes, err := os.ReadFile(*templatePath)
	if err != nil {
		logger.Error("read template", "error", err)
		os.Exit(1)
	}

	jsonData, err := os.ReadFile(*dataPath)
	if err != nil {
		logger.Error("read data", "error", err)
		os.Exit(1)
	}

	engine := &docxtemplate.Engine{Logger: logger}
	out, err := engine.Render(templateBytes, jsonData)
	if err != nil {
		logger.Error("render", "error", err)
		os.Exit(1)
	}

	if err := os.WriteFile(*outPath, out, 0o644); err != nil {
		logger.Error("write output", "error", err)
		os.Exit(1)
	}

	logger.Info("rendered template", "template", *templatePath, "data", *dataPath, "out", *outPath)
}
