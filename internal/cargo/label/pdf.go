package label

import (
	"bytes"
	"errors"
	"fmt"
	"regexp"
	"time"
	"unicode/utf8"

	"github.com/go-pdf/fpdf"
)

// A4 纵向，单位 mm
const (
	pageW      = 210.0
	pageH      = 297.0
	margin     = 10.0
	bodyTop    = 48.0
	compactCol = 3
	compactRow = 4

	descLimit        = 60
	compactDescLimit = 34
)

var (
	ErrRender = errors.New("render label")

	unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9_-]+`)
)

// Sheet is everything the assembler lays out for one shipment.
type Sheet struct {
	Code        string
	Client      string
	Destination string
	GeneratedAt time.Time
	Records     []DisplayRecord
	Compact     bool
}

// Document 生成结果
type Document struct {
	Filename string
	Data     []byte
	Pages    int
}

// Assembler lays out rendered QR codes into a printable PDF.
type Assembler struct {
	renderer *Renderer
	Title    string
}

func NewAssembler(r *Renderer) *Assembler {
	if r == nil {
		r = NewRenderer()
	}
	return &Assembler{renderer: r, Title: "888Cargo"}
}

// Filename QR-{code}.pdf，紧凑版加 -compacto
func Filename(code string, compact bool) string {
	safe := unsafeFileChars.ReplaceAllString(code, "_")
	if safe == "" {
		safe = "carga"
	}
	if compact {
		return "QR-" + safe + "-compacto.pdf"
	}
	return "QR-" + safe + ".pdf"
}

func (a *Assembler) Build(s Sheet) (*Document, error) {
	if s.GeneratedAt.IsZero() {
		s.GeneratedAt = time.Now()
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(margin, margin, margin)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetCreationDate(s.GeneratedAt)
	pdf.SetTitle(fmt.Sprintf("QR %s", s.Code), true)
	pdf.SetCreator(a.Title, true)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	var err error
	switch {
	case len(s.Records) == 0:
		a.header(pdf, tr, s, true)
		pdf.SetFont("Helvetica", "I", 12)
		pdf.SetXY(margin, bodyTop+10)
		pdf.CellFormat(pageW-2*margin, 10, tr("Sin códigos QR generados para esta carga"), "", 1, "C", false, 0, "")
	case s.Compact:
		err = a.compact(pdf, tr, s)
	default:
		err = a.single(pdf, tr, s)
	}
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}
	return &Document{
		Filename: Filename(s.Code, s.Compact),
		Data:     buf.Bytes(),
		Pages:    pdf.PageNo(),
	}, nil
}

func (a *Assembler) header(pdf *fpdf.Fpdf, tr func(string) string, s Sheet, full bool) {
	pdf.AddPage()
	pdf.SetXY(margin, margin)
	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(pageW-2*margin, 9, tr(a.Title), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(pageW-2*margin, 6, tr("Carga: "+s.Code), "", 1, "L", false, 0, "")
	if full {
		if s.Client != "" {
			pdf.CellFormat(pageW-2*margin, 6, tr("Cliente: "+s.Client), "", 1, "L", false, 0, "")
		}
		if s.Destination != "" {
			pdf.CellFormat(pageW-2*margin, 6, tr("Destino: "+s.Destination), "", 1, "L", false, 0, "")
		}
		line := fmt.Sprintf("Total de QR: %d   Fecha: %s", len(s.Records), s.GeneratedAt.Format("02/01/2006"))
		pdf.CellFormat(pageW-2*margin, 6, tr(line), "", 1, "L", false, 0, "")
	}
	pdf.SetDrawColor(180, 180, 180)
	pdf.Line(margin, bodyTop-4, pageW-margin, bodyTop-4)
}

func (a *Assembler) image(pdf *fpdf.Fpdf, rec DisplayRecord, px int) (string, error) {
	png, err := a.renderer.PNG(rec.Content(), px)
	if err != nil {
		return "", fmt.Errorf("%w %d: %v", ErrRender, rec.BoxID, err)
	}
	name := fmt.Sprintf("qr-%d", rec.BoxID)
	opts := fpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(png))
	if pdf.Err() {
		return "", fmt.Errorf("%w %d: %v", ErrRender, rec.BoxID, pdf.Error())
	}
	return name, nil
}

// single 每页一个二维码
func (a *Assembler) single(pdf *fpdf.Fpdf, tr func(string) string, s Sheet) error {
	const size = 120.0
	for i, rec := range s.Records {
		a.header(pdf, tr, s, i == 0)
		name, err := a.image(pdf, rec, 600)
		if err != nil {
			return err
		}
		x := (pageW - size) / 2
		pdf.ImageOptions(name, x, bodyTop+4, size, size, false, fpdf.ImageOptions{ImageType: "PNG"}, 0, "")

		y := bodyTop + size + 12
		pdf.SetXY(margin, y)
		pdf.SetFont("Helvetica", "B", 22)
		pdf.CellFormat(pageW-2*margin, 11, tr(fmt.Sprintf("Item %d", rec.ItemNumber)), "", 1, "C", false, 0, "")
		pdf.SetFont("Helvetica", "B", 16)
		pdf.CellFormat(pageW-2*margin, 9, tr(rec.BoxLabel()), "", 1, "C", false, 0, "")
		pdf.SetFont("Helvetica", "", 12)
		pdf.CellFormat(pageW-2*margin, 7, tr(Truncate(rec.Description, descLimit)), "", 1, "C", false, 0, "")
		if rec.Ref != "" && rec.Ref != rec.Description {
			pdf.CellFormat(pageW-2*margin, 7, tr("REF: "+rec.Ref), "", 1, "C", false, 0, "")
		}

		pdf.SetXY(margin, pageH-margin-6)
		pdf.SetFont("Helvetica", "", 9)
		pdf.CellFormat(pageW-2*margin, 6, fmt.Sprintf("QR %d de %d", i+1, len(s.Records)), "", 0, "C", false, 0, "")
	}
	return nil
}

// compact 每页 3x4 网格
func (a *Assembler) compact(pdf *fpdf.Fpdf, tr func(string) string, s Sheet) error {
	perPage := compactCol * compactRow
	cellW := (pageW - 2*margin) / compactCol
	cellH := (pageH - bodyTop - margin) / compactRow
	const size = 38.0

	for i, rec := range s.Records {
		slot := i % perPage
		if slot == 0 {
			a.header(pdf, tr, s, i == 0)
		}
		name, err := a.image(pdf, rec, 300)
		if err != nil {
			return err
		}
		col := slot % compactCol
		row := slot / compactCol
		x := margin + float64(col)*cellW
		y := bodyTop + float64(row)*cellH

		pdf.SetDrawColor(220, 220, 220)
		pdf.Rect(x+1, y+1, cellW-2, cellH-2, "D")
		pdf.ImageOptions(name, x+(cellW-size)/2, y+2, size, size, false, fpdf.ImageOptions{ImageType: "PNG"}, 0, "")

		pdf.SetXY(x+1, y+size+3)
		pdf.SetFont("Helvetica", "B", 8)
		pdf.CellFormat(cellW-2, 4, tr(fmt.Sprintf("Item %d - %s", rec.ItemNumber, rec.BoxLabel())), "", 2, "C", false, 0, "")
		pdf.SetFont("Helvetica", "", 7)
		pdf.CellFormat(cellW-2, 4, tr(Truncate(rec.Description, compactDescLimit)), "", 2, "C", false, 0, "")
	}
	return nil
}

// Truncate 按字符截断
func Truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n-3]) + "..."
}
