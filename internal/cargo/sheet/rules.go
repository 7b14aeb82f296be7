package sheet

import (
	"fmt"
	"strings"
)

// Validator checks one data row and returns the violated rules. An empty result means the row is valid.
type Validator interface {
	Validate(headers []string, row Row) []string
}

// ValidatorFunc 函数适配
type ValidatorFunc func(headers []string, row Row) []string

func (f ValidatorFunc) Validate(headers []string, row Row) []string {
	return f(headers, row)
}

// Required 必填列
type Required struct {
	Column  int
	Message string
}

// RuleSet 默认校验规则
type RuleSet struct {
	Required []Required
	Numeric  []int
	// ErrorLiterals are cell texts produced by broken spreadsheet formulas.
	ErrorLiterals []string
}

// DefaultRules 装箱单模板的校验规则
func DefaultRules() *RuleSet {
	return &RuleSet{
		Required: []Required{
			{Column: ColDate, Message: "Fecha faltante"},
			{Column: ColClientMark, Message: "Marca del cliente faltante"},
		},
		Numeric: []int{
			ColUnitPrice, ColTotalPrice, ColBoxes, ColQtyPerBox, ColQtyTotal,
			ColLength, ColWidth, ColHeight, ColCBM, ColCBMTotal, ColWeight, ColWeightTotal,
		},
		ErrorLiterals: []string{"#VALUE!", "#REF!", "#DIV/0!", "#N/A", "#NAME?", "#NUM!", "#NULL!"},
	}
}

// Validate 按表头定位列，列号报告为表格中的实际位置
func (r *RuleSet) Validate(headers []string, row Row) []string {
	l := DefaultLayout()
	if len(headers) > 0 {
		l = ResolveLayout(headers)
	}
	var errs []string
	for _, req := range r.Required {
		if l.Cell(row, req.Column).IsEmpty() {
			errs = append(errs, req.Message)
		}
	}
	for _, col := range r.Numeric {
		c := l.Cell(row, col)
		if c.IsEmpty() {
			continue
		}
		if _, ok := c.Number(); !ok {
			errs = append(errs, fmt.Sprintf("Valor no numérico en columna %d", l[col]+1))
		}
	}
	if len(r.ErrorLiterals) > 0 {
		for i, c := range row {
			if c.Kind() != KindText {
				continue
			}
			v := strings.TrimSpace(c.String())
			for _, lit := range r.ErrorLiterals {
				if v == lit {
					errs = append(errs, fmt.Sprintf("Celda inválida en columna %d: %s", i+1, v))
					break
				}
			}
		}
	}
	return errs
}
