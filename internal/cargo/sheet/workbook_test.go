package sheet

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestCheckUpload(t *testing.T) {
	cases := []struct {
		name string
		in   Upload
		want error
	}{
		{"xlsx by mime", Upload{Name: "lista", ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", Size: 100}, nil},
		{"xls by extension", Upload{Name: "LISTA.XLS", ContentType: "application/octet-stream", Size: 100}, nil},
		{"pdf rejected", Upload{Name: "lista.pdf", ContentType: "application/pdf", Size: 100}, ErrUnsupportedType},
		{"empty file", Upload{Name: "lista.xlsx", Size: 0}, ErrEmptyFile},
		{"too large", Upload{Name: "lista.xlsx", Size: MaxUploadBytes + 1}, ErrTooLarge},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := CheckUpload(tc.in, 0)
			if tc.want == nil {
				if err != nil {
					t.Fatalf("Expected no error, got %v", err)
				}
				return
			}
			if !errors.Is(err, tc.want) {
				t.Fatalf("Expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestSizeErrorMessage(t *testing.T) {
	err := CheckUpload(Upload{Name: "a.xlsx", Size: 12 << 20}, 0)
	want := "El archivo es muy grande. Tamaño máximo: 10MB. Tamaño actual: 12.00MB"
	if err == nil || err.Error() != want {
		t.Errorf("Error = %v, want %q", err, want)
	}
}

func TestResolveLayout(t *testing.T) {
	headers := []string{"REF ART", "Descripción Español", "CANT CAJAS", "Largo", "Ancho", "Alto"}
	l := ResolveLayout(headers)
	if l[ColRef] != 0 || l[ColDescription] != 1 || l[ColBoxes] != 2 {
		t.Errorf("Aliases not resolved: ref=%d desc=%d boxes=%d", l[ColRef], l[ColDescription], l[ColBoxes])
	}
	if l[ColLength] != 3 || l[ColWidth] != 4 || l[ColHeight] != 5 {
		t.Errorf("Measure columns not resolved: %d %d %d", l[ColLength], l[ColWidth], l[ColHeight])
	}
	// not present keeps template position
	if l[ColSerial] != ColSerial {
		t.Errorf("Expected serial to stay at %d, got %d", ColSerial, l[ColSerial])
	}

	row := Strings("R-1", "Taza", "4")
	if got := l.Cell(row, ColDescription).String(); got != "Taza" {
		t.Errorf("Cell(description) = %q", got)
	}
}

func TestTemplateRoundTrip(t *testing.T) {
	f, err := Template(5)
	if err != nil {
		t.Fatalf("Template: %v", err)
	}
	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatalf("write template: %v", err)
	}
	f.Close()

	wb, err := ReadWorkbook(&buf, 5)
	if err != nil {
		t.Fatalf("ReadWorkbook: %v", err)
	}
	if wb.Offset != 4 {
		t.Errorf("Expected offset 4, got %d", wb.Offset)
	}
	if len(wb.Grid) != 2 {
		t.Fatalf("Expected header + 1 sample row, got %d rows", len(wb.Grid))
	}

	table := (&Normalizer{Validator: DefaultRules(), Offset: wb.Offset}).Normalize(wb.Grid)
	if table.Headers[ColLength] != "Largo" || table.Headers[ColDescription] != "DESCRIPCION ESPAÑOL" {
		t.Errorf("Unexpected headers %v", table.Headers)
	}
	if table.Stats.ValidRows != 1 {
		t.Fatalf("Expected sample row to be valid, errors: %+v", table.ErrorRows())
	}
	row := table.Valid()[0]
	if n, ok := row.At(ColBoxes).Number(); !ok || n != 2 {
		t.Errorf("Expected 2 boxes, got %v (%v)", n, ok)
	}
	if row.At(ColDescription).Kind() != KindText {
		t.Errorf("Expected description to be text")
	}
}

func TestReadWorkbookRejectsGarbage(t *testing.T) {
	if _, err := ReadWorkbook(strings.NewReader("not a zip"), 1); err == nil {
		t.Error("Expected error for non-xlsx input")
	}
}

func TestWorkbookSetCell(t *testing.T) {
	wb := &Workbook{Grid: Grid{Strings("A", "B"), Strings("1")}}
	wb.SetCell(0, 3, TextCell("http://x/photo.png"))
	if len(wb.Grid[1]) != 4 || wb.Grid[1][3].String() != "http://x/photo.png" {
		t.Errorf("SetCell did not pad row: %v", wb.Grid[1].Values())
	}
	// out of range is ignored
	wb.SetCell(5, 0, TextCell("x"))
}
