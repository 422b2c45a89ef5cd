// Package source provides the document pages shown behind the demos.
package source

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/gen2brain/go-fitz"

	"github.com/ivlev/demoreel/internal/demo"
)

// Source is a sequence of renderable pages
type Source interface {
	PageCount() int
	PageSize(index int) (width, height float64, err error)
	RenderPage(index int, dpi int) (image.Image, error)
	Close() error
}

// Open selects a source for path by its extension. PDFs are rendered with
// MuPDF, directories and PNG/JPEG files are decoded directly, and an empty
// path yields generated pages for the scenes of catalog.
func Open(path string, catalog *demo.Catalog) (Source, error) {
	if path == "" {
		return NewStampSource(catalog), nil
	}
	fi, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if fi.IsDir() {
		return NewImageSource(path)
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".pdf":
		return NewFitzPDFSource(path)
	case ".png", ".jpg", ".jpeg":
		return NewImageSource(path)
	default:
		return nil, fmt.Errorf("unsupported backdrop %s: want .pdf, .png, .jpg or a directory", path)
	}
}

func checkIndex(index, count int) error {
	if index < 0 || index >= count {
		return fmt.Errorf("page %d out of range [0, %d)", index, count)
	}
	return nil
}

type FitzPDFSource struct {
	doc  *fitz.Document
	path string
}

func NewFitzPDFSource(path string) (*FitzPDFSource, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf %s: %w", path, err)
	}
	return &FitzPDFSource{doc: doc, path: path}, nil
}

func (f *FitzPDFSource) PageCount() int {
	return f.doc.NumPage()
}

func (f *FitzPDFSource) PageSize(index int) (float64, float64, error) {
	if err := checkIndex(index, f.PageCount()); err != nil {
		return 0, 0, err
	}
	rect, err := f.doc.Bound(index)
	if err != nil {
		return 0, 0, err
	}
	return float64(rect.Dx()), float64(rect.Dy()), nil
}

// RenderPage opens its own document handle so that pages may be rendered
// from several goroutines.
func (f *FitzPDFSource) RenderPage(index int, dpi int) (image.Image, error) {
	if err := checkIndex(index, f.PageCount()); err != nil {
		return nil, err
	}
	workerDoc, err := fitz.New(f.path)
	if err != nil {
		return nil, err
	}
	defer workerDoc.Close()
	return workerDoc.ImageDPI(index, float64(dpi))
}

func (f *FitzPDFSource) Close() error {
	return f.doc.Close()
}
