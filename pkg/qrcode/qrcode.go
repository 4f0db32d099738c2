package qrcode

import (
	"bytes"
	"fmt"
	"image/png"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/qr"
)

const (
	DefaultSize = 300
	MinSize     = 64
	MaxSize     = 1024
)

type Generator struct {
	size int
}

func NewGenerator(size int) *Generator {
	if size < MinSize || size > MaxSize {
		size = DefaultSize
	}
	return &Generator{size: size}
}

func (g *Generator) Size() int {
	return g.size
}

// PNG encodes content as a square QR code image with medium error correction.
func (g *Generator) PNG(content string) ([]byte, error) {
	if content == "" {
		return nil, fmt.Errorf("qr content is empty")
	}

	code, err := qr.Encode(content, qr.M, qr.Auto)
	if err != nil {
		return nil, fmt.Errorf("failed to encode qr code: %w", err)
	}

	code, err = barcode.Scale(code, g.size, g.size)
	if err != nil {
		return nil, fmt.Errorf("failed to scale qr code: %w", err)
	}

	var buffer bytes.Buffer
	if err := png.Encode(&buffer, code); err != nil {
		return nil, fmt.Errorf("failed to write qr png: %w", err)
	}

	return buffer.Bytes(), nil
}
