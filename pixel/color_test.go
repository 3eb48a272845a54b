package pixel

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMono(t *testing.T) {
	for y := 0; y < 2; y++ {
		t.Run("", func(it *testing.T) {
			c := Off
			if y > 0 {
				c = On
			}
			r, g, b, a := c.RGBA()
			y *= 0xF
			want := uint32(y | y<<4 | y<<8 | y<<12)
			assert.Equal(it, want, r, "red")
			assert.Equal(it, want, g, "green")
			assert.Equal(it, want, b, "blue")
			assert.Equal(it, uint32(0xffff), a, "alpha")
		})
	}
}

func TestMonoModel(t *testing.T) {
	tests := []struct {
		Name string
		In   color.Color
		Want Mono
	}{
		{"white", color.White, On},
		{"black", color.Black, Off},
		{"dark gray", color.Gray{Y: 0x20}, Off},
		{"light gray", color.Gray{Y: 0xe0}, On},
		{"red", color.RGBA{R: 0xff, A: 0xff}, Off},
		{"yellow", color.RGBA{R: 0xff, G: 0xff, A: 0xff}, On},
		{"transparent", color.Transparent, On},
		{"mono", Off, Off},
	}
	for _, test := range tests {
		t.Run(test.Name, func(it *testing.T) {
			assert.Equal(it, test.Want, MonoModel.Convert(test.In))
		})
	}
}
