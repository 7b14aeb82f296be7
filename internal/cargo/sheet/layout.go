package sheet

// 装箱单模板列位置（从0开始）
const (
	ColDate = iota
	ColClientMark
	ColPhone
	ColDestination
	ColPhoto
	ColCN
	ColRef
	ColDescription
	ColDescriptionCN
	ColUnit
	ColUnitPrice
	ColTotalPrice
	ColMaterial
	ColPackUnits
	ColBrand
	ColBoxes
	ColQtyPerBox
	ColQtyTotal
	ColLength
	ColWidth
	ColHeight
	ColCBM
	ColCBMTotal
	ColWeight
	ColWeightTotal
	ColSerial

	columnCount
)

// TemplateHeaders 模板表头，顺序与列常量一致
var TemplateHeaders = [columnCount]string{
	"FECHA", "MARCA CLIENTE", "TEL", "CIUDAD", "PHTO", "C/N", "REF ART",
	"DESCRIPCION ESPAÑOL", "DESCRIPCION CHINO", "UNIT", "PRECIO UNIT", "PRECIO TOTAL",
	"MATERIAL", "UNIDADES X EMPAQUE", "MARCA PRODUCTO", "CANT CAJAS", "CANT X CAJA",
	"CANT TOTAL", "Largo", "Ancho", "Alto", "CBM", "CBM TT", "G.W", "G.W TT", "SERIAL",
}

var headerAliases = map[string]int{
	"fecha":               ColDate,
	"marca cliente":       ColClientMark,
	"marca del cliente":   ColClientMark,
	"tel":                 ColPhone,
	"telefono":            ColPhone,
	"ciudad":              ColDestination,
	"destino":             ColDestination,
	"phto":                ColPhoto,
	"foto":                ColPhoto,
	"c/n":                 ColCN,
	"ref art":             ColRef,
	"referencia":          ColRef,
	"descripcion espanol": ColDescription,
	"descripcion":         ColDescription,
	"descripcion chino":   ColDescriptionCN,
	"unit":                ColUnit,
	"unidad":              ColUnit,
	"precio unit":         ColUnitPrice,
	"precio unidad":       ColUnitPrice,
	"precio total":        ColTotalPrice,
	"material":            ColMaterial,
	"unidades x empaque":  ColPackUnits,
	"marca producto":      ColBrand,
	"cant cajas":          ColBoxes,
	"cajas":               ColBoxes,
	"cant x caja":         ColQtyPerBox,
	"cant total":          ColQtyTotal,
	"largo":               ColLength,
	"ancho":               ColWidth,
	"alto":                ColHeight,
	"cbm":                 ColCBM,
	"cbm tt":              ColCBMTotal,
	"g.w":                 ColWeight,
	"gw":                  ColWeight,
	"g.w tt":              ColWeightTotal,
	"serial":              ColSerial,
}

// Layout maps template columns to positions in an actual sheet.
type Layout [columnCount]int

// DefaultLayout 模板默认位置
func DefaultLayout() Layout {
	var l Layout
	for i := range l {
		l[i] = i
	}
	return l
}

// ResolveLayout matches headers by alias; columns it cannot find keep their template position.
func ResolveLayout(headers []string) Layout {
	l := DefaultLayout()
	seen := make(map[int]bool)
	for i, h := range headers {
		col, ok := headerAliases[Fold(h)]
		if !ok || seen[col] {
			continue
		}
		seen[col] = true
		l[col] = i
	}
	return l
}

// Cell 按模板列取值
func (l Layout) Cell(row Row, col int) Cell {
	if col < 0 || col >= len(l) {
		return Cell{}
	}
	return row.At(l[col])
}
