// CLAUDE:SUMMARY Defines Category, the extension-to-category mapping, and conversion error types.
package convert

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Category identifies the handler group for a file format.
type Category string

const (
	CategoryPDF   Category = "pdf"
	CategoryWord  Category = "word"
	CategoryExcel Category = "excel"
	CategoryPPT   Category = "ppt"
	CategoryImage Category = "image"
	CategoryHTML  Category = "html"
	CategoryMSG   Category = "msg"
	CategoryEML   Category = "eml"

	// CategoryAttachment is the catch-all bucket for extensions outside the
	// supported set. It is a bookkeeping category only: the dispatcher never
	// routes it to a renderer, the placeholder path handles it.
	CategoryAttachment Category = "attachment"
)

// extCategories maps lowercase extensions (with leading dot) to categories.
var extCategories = map[string]Category{
	".pdf": CategoryPDF,

	".doc":  CategoryWord,
	".docx": CategoryWord,
	".rtf":  CategoryWord,
	".odt":  CategoryWord,
	".txt":  CategoryWord,
	".dot":  CategoryWord,

	".xls":  CategoryExcel,
	".xlsx": CategoryExcel,
	".ods":  CategoryExcel,
	".csv":  CategoryExcel,
	".xlsm": CategoryExcel,

	".ppt":  CategoryPPT,
	".pptx": CategoryPPT,
	".odp":  CategoryPPT,

	".jpg":  CategoryImage,
	".jpeg": CategoryImage,
	".png":  CategoryImage,
	".tif":  CategoryImage,
	".tiff": CategoryImage,
	".bmp":  CategoryImage,
	".heic": CategoryImage,

	".html": CategoryHTML,
	".htm":  CategoryHTML,

	".msg": CategoryMSG,
	".eml": CategoryEML,
}

// CategoryForExt returns the handler category for a file extension.
// Case-insensitive and total: unknown extensions map to CategoryAttachment.
func CategoryForExt(ext string) Category {
	if c, ok := extCategories[strings.ToLower(ext)]; ok {
		return c
	}
	return CategoryAttachment
}

// Supported reports whether the extension belongs to a convertible category.
func Supported(ext string) bool {
	_, ok := extCategories[strings.ToLower(ext)]
	return ok
}

// SupportedExtensions returns the sorted list of convertible extensions.
func SupportedExtensions() []string {
	exts := make([]string, 0, len(extCategories))
	for ext := range extCategories {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// ErrNotFound is returned when the source file does not exist.
var ErrNotFound = errors.New("source file not found")

// ErrUnsupportedFormat is returned for extensions outside the supported set.
var ErrUnsupportedFormat = errors.New("unsupported file extension")

// RenderError wraps a renderer failure with enough context for the caller
// to decide on fallback handling.
type RenderError struct {
	Category Category
	Path     string
	Err      error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render %s (%s): %v", e.Path, e.Category, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }
