package label

import (
	"errors"
	"fmt"

	qrcode "github.com/skip2/go-qrcode"
)

// 默认尺寸
const (
	DefaultWidth = 300
	MinWidth     = 64
	MaxWidth     = 2048
)

var ErrEmptyContent = errors.New("empty qr content")

// Renderer encodes QR content as PNG. The same content and width always give the same bytes.
type Renderer struct {
	DefaultWidth int
	MinWidth     int
	MaxWidth     int
	Level        qrcode.RecoveryLevel
}

func NewRenderer() *Renderer {
	return &Renderer{
		DefaultWidth: DefaultWidth,
		MinWidth:     MinWidth,
		MaxWidth:     MaxWidth,
		Level:        qrcode.Medium,
	}
}

// Width 0 表示默认尺寸，其余夹到 [Min, Max]
func (r *Renderer) Width(w int) int {
	if w <= 0 {
		return r.DefaultWidth
	}
	if w < r.MinWidth {
		return r.MinWidth
	}
	if r.MaxWidth > 0 && w > r.MaxWidth {
		return r.MaxWidth
	}
	return w
}

func (r *Renderer) PNG(content string, width int) ([]byte, error) {
	if content == "" {
		return nil, ErrEmptyContent
	}
	q, err := qrcode.New(content, r.Level)
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}
	png, err := q.PNG(r.Width(width))
	if err != nil {
		return nil, fmt.Errorf("render qr png: %w", err)
	}
	return png, nil
}
