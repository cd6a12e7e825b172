package convert

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// placeholderPage is the pdfcpu create-JSON description of the single
// placeholder page.
type placeholderPage struct {
	Pages map[string]struct {
		Content struct {
			Text []placeholderText `json:"text"`
		} `json:"content"`
	} `json:"pages"`
}

type placeholderText struct {
	Value  string          `json:"value"`
	Anchor string          `json:"anchor"`
	Dx     float64         `json:"dx"`
	Dy     float64         `json:"dy"`
	Font   placeholderFont `json:"font"`
}

type placeholderFont struct {
	Name string  `json:"name"`
	Size float64 `json:"size"`
}

// Placeholder produces a minimal single-page PDF in dstDir documenting that
// src could not be converted, with the original file embedded as an
// attachment. The embedding is mandatory: the attachment is the only
// surviving copy of the content in the output tree.
func Placeholder(src, dstDir string) (string, error) {
	if _, err := os.Stat(src); err != nil {
		return "", fmt.Errorf("placeholder source: %w", err)
	}
	if err := os.MkdirAll(dstDir, 0755); err != nil {
		return "", fmt.Errorf("create output dir %s: %w", dstDir, err)
	}

	dst := filepath.Join(dstDir, stem(src)+".pdf")

	desc := placeholderPage{}
	desc.Pages = map[string]struct {
		Content struct {
			Text []placeholderText `json:"text"`
		} `json:"content"`
	}{
		"1": {},
	}
	page := desc.Pages["1"]
	lines := []struct {
		text string
		dy   float64
	}{
		{fmt.Sprintf("Original file: %s", filepath.Base(src)), 72},
		{fmt.Sprintf("File type: %s", filepath.Ext(src)), 92},
		{"This file type cannot be converted to PDF.", 122},
		{"The original file is attached to this PDF.", 142},
	}
	for _, l := range lines {
		page.Content.Text = append(page.Content.Text, placeholderText{
			Value:  l.text,
			Anchor: "tl",
			Dx:     72,
			Dy:     -l.dy,
			Font:   placeholderFont{Name: "Helvetica", Size: 12},
		})
	}
	desc.Pages["1"] = page

	data, err := json.Marshal(desc)
	if err != nil {
		return "", fmt.Errorf("marshal page description: %w", err)
	}

	tmpJSON, err := os.CreateTemp(dstDir, ".placeholder-*.json")
	if err != nil {
		return "", fmt.Errorf("create temp: %w", err)
	}
	jsonName := tmpJSON.Name()
	defer os.Remove(jsonName)
	if _, err := tmpJSON.Write(data); err != nil {
		tmpJSON.Close()
		return "", fmt.Errorf("write page description: %w", err)
	}
	tmpJSON.Close()

	// Render to a temp name first so a failed create never leaves a partial
	// or stale file at the destination.
	tmpPDF := filepath.Join(dstDir, "."+stem(src)+".placeholder.pdf")
	defer os.Remove(tmpPDF)

	if err := api.CreateFile("", jsonName, tmpPDF, model.NewDefaultConfiguration()); err != nil {
		return "", fmt.Errorf("create placeholder: %w", err)
	}
	if err := os.Rename(tmpPDF, dst); err != nil {
		return "", fmt.Errorf("rename to %s: %w", dst, err)
	}

	if err := AttachOriginal(dst, src); err != nil {
		return "", err
	}
	return dst, nil
}
