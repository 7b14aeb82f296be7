package label

import (
	"fmt"
	"strings"
)

// Record is a stored box identifier as fetched for a shipment.
type Record struct {
	BoxID       uint64
	ArticleID   uint64
	Number      int
	Total       int
	Code        string
	Content     string
	Description string
	Ref         string
}

// DisplayRecord 带展示序号的二维码记录
type DisplayRecord struct {
	BoxID       uint64 `json:"id_qr"`
	ArticleID   uint64 `json:"id_articulo"`
	ItemNumber  int    `json:"numero_item"`
	Number      int    `json:"numero_caja"`
	Total       int    `json:"total_cajas"`
	Code        string `json:"codigo_qr"`
	Description string `json:"descripcion"`
	Ref         string `json:"ref_art,omitempty"`

	content string
}

// Content is what the QR image encodes: the stored payload, or the code when there is none.
func (d DisplayRecord) Content() string {
	if d.content != "" {
		return d.content
	}
	return d.Code
}

// BoxLabel "Caja X de Y"
func (d DisplayRecord) BoxLabel() string {
	return fmt.Sprintf("Caja %d de %d", d.Number, d.Total)
}

// Renumber assigns item numbers 1, 2, ... to article ids in the order they first appear.
// The input order is preserved and nothing is written back.
func Renumber(records []Record) []DisplayRecord {
	items := make(map[uint64]int)
	out := make([]DisplayRecord, 0, len(records))
	for _, r := range records {
		n, ok := items[r.ArticleID]
		if !ok {
			n = len(items) + 1
			items[r.ArticleID] = n
		}
		out = append(out, DisplayRecord{
			BoxID:       r.BoxID,
			ArticleID:   r.ArticleID,
			ItemNumber:  n,
			Number:      r.Number,
			Total:       r.Total,
			Code:        r.Code,
			Description: Describe(r),
			Ref:         r.Ref,
			content:     r.Content,
		})
	}
	return out
}

// Describe falls back from description to reference to "Caja N".
func Describe(r Record) string {
	if d := strings.TrimSpace(r.Description); d != "" {
		return d
	}
	if ref := strings.TrimSpace(r.Ref); ref != "" {
		return ref
	}
	return fmt.Sprintf("Caja %d", r.Number)
}
