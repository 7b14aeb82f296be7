package sheet

import (
	"fmt"
	"iter"
	"unicode/utf8"
)

// Status 行分类
type Status uint8

const (
	StatusValid Status = iota
	StatusError
	StatusEmpty
)

// Stats 导入统计
type Stats struct {
	TotalRows  int `json:"total_rows"`
	ValidRows  int `json:"valid_rows"`
	ErrorRows  int `json:"error_rows"`
	EmptyRows  int `json:"empty_rows"`
	Columns    int `json:"columns"`
	HeaderRows int `json:"header_rows"`
}

// ErrorRow 校验失败的行
type ErrorRow struct {
	Index  int      `json:"index"`
	Line   int      `json:"numero_fila"`
	Errors []string `json:"errores"`
	Values []string `json:"datos"`
}

// Normalizer turns a raw grid into headers plus classified data rows.
type Normalizer struct {
	// Validator may be nil, in which case every non-empty row is valid.
	Validator Validator
	// Offset is the number of sheet rows above the header row.
	Offset int
	// DisplayLength truncates error row values; zero keeps them whole.
	DisplayLength int
}

// Table is the normalized view. Rows and All can be ranged over any number of times.
type Table struct {
	Headers []string
	Stats   Stats

	rows     []Row
	status   []Status
	errors   []ErrorRow
	offset   int
	repaired bool
}

func (n *Normalizer) Normalize(grid Grid) *Table {
	t := &Table{offset: n.Offset}
	if len(grid) == 0 {
		return t
	}

	raw := grid[0].Values()
	t.Headers, t.repaired = repairHeaders(raw)
	t.rows = grid[1:]
	t.status = make([]Status, len(t.rows))

	t.Stats.TotalRows = len(t.rows)
	t.Stats.HeaderRows = n.Offset + 1
	t.Stats.Columns = len(t.Headers)

	for i, row := range t.rows {
		if len(row) > t.Stats.Columns {
			t.Stats.Columns = len(row)
		}
		if row.IsEmpty() {
			t.status[i] = StatusEmpty
			t.Stats.EmptyRows++
			continue
		}
		if errs := n.check(t.Headers, row); len(errs) > 0 {
			t.status[i] = StatusError
			t.Stats.ErrorRows++
			t.errors = append(t.errors, ErrorRow{
				Index:  i,
				Line:   t.Line(i),
				Errors: errs,
				Values: truncate(row.Values(), n.DisplayLength),
			})
			continue
		}
		t.status[i] = StatusValid
		t.Stats.ValidRows++
	}
	return t
}

func (n *Normalizer) check(headers []string, row Row) (errs []string) {
	if n.Validator == nil {
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			errs = []string{fmt.Sprintf("Fila ilegible: %v", r)}
		}
	}()
	return n.Validator.Validate(headers, row)
}

// Repaired reports whether the merged measurement header was rewritten.
func (t *Table) Repaired() bool { return t.repaired }

// Line 数据行在原表中的行号（从1开始）
func (t *Table) Line(i int) int {
	return t.offset + i + 2
}

// Rows yields valid rows with their data index.
func (t *Table) Rows() iter.Seq2[int, Row] {
	return func(yield func(int, Row) bool) {
		for i, row := range t.rows {
			if t.status[i] != StatusValid {
				continue
			}
			if !yield(i, row) {
				return
			}
		}
	}
}

// All yields every data row with its classification.
func (t *Table) All() iter.Seq2[Row, Status] {
	return func(yield func(Row, Status) bool) {
		for i, row := range t.rows {
			if !yield(row, t.status[i]) {
				return
			}
		}
	}
}

// Valid 收集有效行
func (t *Table) Valid() []Row {
	out := make([]Row, 0, t.Stats.ValidRows)
	for _, row := range t.Rows() {
		out = append(out, row)
	}
	return out
}

func (t *Table) ErrorRows() []ErrorRow {
	return t.errors
}

func truncate(values []string, n int) []string {
	if n <= 0 {
		return values
	}
	for i, v := range values {
		if utf8.RuneCountInString(v) > n {
			r := []rune(v)
			values[i] = string(r[:n]) + "…"
		}
	}
	return values
}
