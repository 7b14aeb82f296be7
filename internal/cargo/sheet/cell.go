package sheet

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Kind 单元格类型
type Kind uint8

const (
	KindEmpty Kind = iota
	KindText
	KindNumber
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindNumber:
		return "number"
	default:
		return "empty"
	}
}

// Cell is a spreadsheet value: text, number or empty. The zero value is empty.
type Cell struct {
	kind Kind
	text string
	num  float64
}

// Row 一行数据
type Row []Cell

// Grid 二维表格，第一行为表头
type Grid []Row

func TextCell(s string) Cell {
	if s == "" {
		return Cell{}
	}
	return Cell{kind: KindText, text: s}
}

func NumberCell(f float64) Cell {
	return Cell{kind: KindNumber, num: f}
}

func EmptyCell() Cell {
	return Cell{}
}

// InferCell 从格式化后的字符串推断单元格类型
func InferCell(s string) Cell {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return Cell{}
	}
	if f, err := strconv.ParseFloat(trimmed, 64); err == nil {
		return NumberCell(f)
	}
	return TextCell(s)
}

// Strings 把字符串切片转成一行
func Strings(values ...string) Row {
	row := make(Row, len(values))
	for i, v := range values {
		row[i] = InferCell(v)
	}
	return row
}

func (c Cell) Kind() Kind { return c.kind }

// IsEmpty reports whether the cell carries no visible content.
func (c Cell) IsEmpty() bool {
	switch c.kind {
	case KindEmpty:
		return true
	case KindText:
		return strings.TrimSpace(c.text) == ""
	default:
		return false
	}
}

func (c Cell) String() string {
	switch c.kind {
	case KindText:
		return c.text
	case KindNumber:
		return strconv.FormatFloat(c.num, 'f', -1, 64)
	default:
		return ""
	}
}

// Number 数值；文本单元格尝试解析，支持逗号小数
func (c Cell) Number() (float64, bool) {
	switch c.kind {
	case KindNumber:
		return c.num, true
	case KindText:
		s := strings.TrimSpace(c.text)
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f, true
		}
		if strings.Count(s, ",") == 1 && !strings.Contains(s, ".") {
			if f, err := strconv.ParseFloat(strings.Replace(s, ",", ".", 1), 64); err == nil {
				return f, true
			}
		}
	}
	return 0, false
}

func (c Cell) MarshalJSON() ([]byte, error) {
	switch c.kind {
	case KindText:
		return json.Marshal(c.text)
	case KindNumber:
		return json.Marshal(c.num)
	default:
		return []byte("null"), nil
	}
}

func (c *Cell) UnmarshalJSON(data []byte) error {
	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch x := v.(type) {
	case nil:
		*c = Cell{}
	case string:
		*c = TextCell(x)
	case float64:
		*c = NumberCell(x)
	case bool:
		*c = TextCell(strconv.FormatBool(x))
	default:
		return fmt.Errorf("unsupported cell value %s", string(data))
	}
	return nil
}

// At 越界返回空单元格
func (r Row) At(i int) Cell {
	if i < 0 || i >= len(r) {
		return Cell{}
	}
	return r[i]
}

// IsEmpty 整行无内容
func (r Row) IsEmpty() bool {
	for _, c := range r {
		if !c.IsEmpty() {
			return false
		}
	}
	return true
}

// Values 原始字符串
func (r Row) Values() []string {
	out := make([]string, len(r))
	for i, c := range r {
		out[i] = c.String()
	}
	return out
}
