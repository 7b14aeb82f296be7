package sheet

import (
	"fmt"
	"io"
	"sort"

	"github.com/xuri/excelize/v2"
)

// Photo is an image embedded in a data cell.
type Photo struct {
	Row       int // data row index, same numbering as Table.Rows
	Col       int
	Extension string
	Data      []byte
}

// Workbook 解析后的工作簿
type Workbook struct {
	SheetName string
	Grid      Grid
	Offset    int
	Photos    []Photo
}

// ReadWorkbook reads the first sheet. headerRow is 1-based; rows above it are skipped.
func ReadWorkbook(r io.Reader, headerRow int) (*Workbook, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()
	return FromFile(f, headerRow)
}

// FromFile 从已打开的 excelize 文件读取
func FromFile(f *excelize.File, headerRow int) (*Workbook, error) {
	if headerRow < 1 {
		headerRow = 1
	}
	offset := headerRow - 1

	name := f.GetSheetName(0)
	if name == "" {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	rows, err := f.GetRows(name)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", name, err)
	}

	wb := &Workbook{SheetName: name, Offset: offset}
	if len(rows) <= offset {
		return wb, nil
	}

	rows = rows[offset:]
	wb.Grid = make(Grid, len(rows))
	for i, values := range rows {
		if i == 0 {
			// 表头保持文本
			row := make(Row, len(values))
			for j, v := range values {
				row[j] = TextCell(v)
			}
			wb.Grid[i] = row
			continue
		}
		wb.Grid[i] = Strings(values...)
	}

	photos, err := readPhotos(f, name, offset)
	if err != nil {
		return nil, err
	}
	wb.Photos = photos
	return wb, nil
}

func readPhotos(f *excelize.File, sheet string, offset int) ([]Photo, error) {
	cells, err := f.GetPictureCells(sheet)
	if err != nil {
		return nil, fmt.Errorf("list pictures: %w", err)
	}
	var photos []Photo
	for _, cell := range cells {
		col, row, err := excelize.CellNameToCoordinates(cell)
		if err != nil {
			continue
		}
		// 表头及以上的图片忽略
		dataRow := row - offset - 2
		if dataRow < 0 {
			continue
		}
		pics, err := f.GetPictures(sheet, cell)
		if err != nil {
			return nil, fmt.Errorf("read picture %s: %w", cell, err)
		}
		if len(pics) == 0 {
			continue
		}
		photos = append(photos, Photo{
			Row:       dataRow,
			Col:       col - 1,
			Extension: pics[0].Extension,
			Data:      pics[0].File,
		})
	}
	sort.Slice(photos, func(i, j int) bool {
		if photos[i].Row != photos[j].Row {
			return photos[i].Row < photos[j].Row
		}
		return photos[i].Col < photos[j].Col
	})
	return photos, nil
}

// SetCell 替换数据行中的单元格，必要时补齐
func (w *Workbook) SetCell(dataRow, col int, c Cell) {
	i := dataRow + 1
	if i <= 0 || i >= len(w.Grid) || col < 0 {
		return
	}
	for len(w.Grid[i]) <= col {
		w.Grid[i] = append(w.Grid[i], Cell{})
	}
	w.Grid[i][col] = c
}
