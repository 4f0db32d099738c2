package qrcode

import (
	"bytes"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeneratorPNG(t *testing.T) {
	g := NewGenerator(256)

	data, err := g.PNG("https://pawtraits.pics/?ref=PTR-ABC234")
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 256, img.Bounds().Dx())
	assert.Equal(t, 256, img.Bounds().Dy())
}

func TestGeneratorRejectsEmptyContent(t *testing.T) {
	_, err := NewGenerator(0).PNG("")
	assert.Error(t, err)
}

func TestNewGeneratorClampsSize(t *testing.T) {
	assert.Equal(t, DefaultSize, NewGenerator(10).Size())
	assert.Equal(t, DefaultSize, NewGenerator(5000).Size())
	assert.Equal(t, 512, NewGenerator(512).Size())
}
