package report

import (
	"bytes"
	"errors"
	"math"
	"net/http"
	"os"

	"github.com/go-pdf/fpdf"
)

// Page geometry in millimeters (A4 portrait).
const (
	pageWidth      = 210.0
	pageMargin     = 18.0
	breakThreshold = 260.0
	imageMaxWidth  = 170.0
	imageMaxHeight = 100.0
)

const utf8FontFamily = "DejaVu"

// document wraps the underlying PDF handle and the font fallback. Status and
// priority labels carry Serbian diacritics, so a unicode font is loaded when
// available; otherwise core Helvetica plus a cp1252 translator approximates
// them.
type document struct {
	pdf    *fpdf.Fpdf
	family string
	tr     func(string) string
}

func newDocument(fontPath string) *document {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(true, pageMargin)

	doc := &document{pdf: pdf, family: "Helvetica"}
	if fontPath != "" {
		if _, err := os.Stat(fontPath); err == nil {
			pdf.AddUTF8Font(utf8FontFamily, "", fontPath)
			if !pdf.Err() {
				doc.family = utf8FontFamily
			} else {
				pdf.ClearError()
			}
		}
	}
	if doc.family == utf8FontFamily {
		doc.tr = func(s string) string { return s }
	} else {
		doc.tr = pdf.UnicodeTranslatorFromDescriptor("")
	}

	pdf.AddPage()
	return doc
}

// header renders the report title and the muted generation-date line.
func (d *document) header(title, dateLine string) {
	d.pdf.SetFont(d.family, "", 20)
	d.pdf.MultiCell(0, 10, d.tr(title), "", "L", false)
	d.pdf.Ln(1)
	d.pdf.SetFont(d.family, "", 10)
	d.pdf.SetTextColor(68, 68, 68)
	d.pdf.MultiCell(0, 5, d.tr(dateLine), "", "L", false)
	d.pdf.SetTextColor(0, 0, 0)
	d.pdf.Ln(5)
}

// blockTitle renders the underlined per-record heading.
func (d *document) blockTitle(s string) {
	d.pdf.SetFont(d.family, "U", 14)
	d.pdf.MultiCell(0, 7, d.tr(s), "", "L", false)
	d.pdf.Ln(2)
	d.pdf.SetFont(d.family, "", 11)
}

func (d *document) bodyLine(s string) {
	d.pdf.SetFont(d.family, "", 11)
	d.pdf.MultiCell(0, 5.5, d.tr(s), "", "L", false)
}

func (d *document) space(h float64) {
	d.pdf.Ln(h)
}

func (d *document) newPage() {
	d.pdf.AddPage()
}

// pastBreakThreshold reports whether the vertical cursor crossed the
// near-bottom line after which the next record starts on a fresh page.
func (d *document) pastBreakThreshold() bool {
	return d.pdf.GetY() > breakThreshold
}

// embedImage registers and places an image centered on the page, scaled to
// fit the configured box. Returns an error when the data cannot be embedded;
// the document itself stays usable.
func (d *document) embedImage(name string, data []byte) error {
	var imageType string
	switch http.DetectContentType(data) {
	case "image/jpeg":
		imageType = "JPG"
	case "image/png":
		imageType = "PNG"
	case "image/gif":
		imageType = "GIF"
	default:
		return errors.New("unsupported image type")
	}

	opts := fpdf.ImageOptions{ImageType: imageType, ReadDpi: true}
	info := d.pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(data))
	if d.pdf.Err() {
		err := d.pdf.Error()
		d.pdf.ClearError()
		return err
	}

	w, h := info.Extent()
	if w <= 0 || h <= 0 {
		return errors.New("image has no extent")
	}
	scale := math.Min(imageMaxWidth/w, imageMaxHeight/h)
	w, h = w*scale, h*scale

	x := (pageWidth - w) / 2
	d.pdf.ImageOptions(name, x, 0, w, h, true, opts, 0, "")
	if d.pdf.Err() {
		err := d.pdf.Error()
		d.pdf.ClearError()
		return err
	}
	return nil
}

// bytes finalizes the document into one complete buffer.
func (d *document) bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := d.pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
