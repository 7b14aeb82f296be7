package sheet

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

const templateSheet = "PACKING LIST"

// Template builds an empty packing list with the header on headerRow.
func Template(headerRow int) (*excelize.File, error) {
	if headerRow < 1 {
		headerRow = 1
	}
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", templateSheet); err != nil {
		f.Close()
		return nil, err
	}

	titleStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 14},
	})
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 10},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
	})

	if headerRow > 1 {
		f.SetCellValue(templateSheet, "A1", "888CARGO - PACKING LIST")
		f.SetCellStyle(templateSheet, "A1", "A1", titleStyle)
	}

	for i, h := range TemplateHeaders {
		col, _ := excelize.ColumnNumberToName(i + 1)
		cell := fmt.Sprintf("%s%d", col, headerRow)
		f.SetCellValue(templateSheet, cell, h)
		f.SetCellStyle(templateSheet, cell, cell, headerStyle)
	}

	// 列宽
	widths := map[int]float64{ColDescription: 36, ColDescriptionCN: 24, ColClientMark: 18, ColRef: 16, ColPhoto: 14}
	for i := range TemplateHeaders {
		col, _ := excelize.ColumnNumberToName(i + 1)
		w, ok := widths[i]
		if !ok {
			w = 11
		}
		f.SetColWidth(templateSheet, col, col, w)
	}

	sample := []interface{}{
		"2025-01-15", "ACME", "+57 300 000 0000", "Bogotá", "", "1", "REF-001",
		"Taza de cerámica", "陶瓷杯", "PCS", 1.2, 120, "Cerámica", 12, "ACME", 2, 50, 100,
		40, 30, 25, 0.03, 0.06, 12.5, 25, "SN-0001",
	}
	for j, v := range sample {
		col, _ := excelize.ColumnNumberToName(j + 1)
		f.SetCellValue(templateSheet, fmt.Sprintf("%s%d", col, headerRow+1), v)
	}

	return f, nil
}
