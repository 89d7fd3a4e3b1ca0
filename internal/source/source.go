package source

import (
	"fmt"
	"image"
	"math"

	"github.com/gen2brain/go-fitz"
)

// Document is vector content (PDF, SVG, XPS) rasterized through MuPDF.
type Document struct {
	doc  *fitz.Document
	path string
}

func OpenDocument(path string) (*Document, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, err
	}
	return &Document{doc: doc, path: path}, nil
}

func (d *Document) PageCount() int {
	return d.doc.NumPage()
}

// PageSize returns the page size in points.
func (d *Document) PageSize(index int) (float64, float64, error) {
	rect, err := d.doc.Bound(index)
	if err != nil {
		return 0, 0, err
	}
	return float64(rect.Dx()), float64(rect.Dy()), nil
}

func (d *Document) Render(index int, dpi float64) (*image.RGBA, error) {
	return d.doc.ImageDPI(index, dpi)
}

// RenderToFit rasterizes a page at the resolution that fits it into a
// w x h pixel box.
func (d *Document) RenderToFit(index, w, h int) (*image.RGBA, error) {
	pw, ph, err := d.PageSize(index)
	if err != nil {
		return nil, err
	}
	if pw <= 0 || ph <= 0 {
		return nil, fmt.Errorf("страница %d документа %s пуста", index, d.path)
	}
	dpi := 72 * math.Min(float64(w)/pw, float64(h)/ph)
	return d.Render(index, dpi)
}

func (d *Document) Close() error {
	return d.doc.Close()
}
