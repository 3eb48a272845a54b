package sim

import "github.com/gdamore/tcell/v2"

var (
	colorSet   = tcell.ColorWhite
	colorUnset = tcell.ColorBlack
)

// Draw renders the panel on s with the top-left corner at (x0, y0). Every terminal cell shows two
// pixel rows using a half block glyph.
func (p *Panel) Draw(s tcell.Screen, x0, y0 int) {
	for y := 0; y < p.height; y += 2 {
		for x := 0; x < p.width; x++ {
			style := tcell.StyleDefault.
				Foreground(pixelColor(p.Pixel(x, y))).
				Background(pixelColor(y+1 < p.height && p.Pixel(x, y+1)))
			s.SetContent(x0+x, y0+y/2, '▀', nil, style)
		}
	}
}

func pixelColor(on bool) tcell.Color {
	if on {
		return colorSet
	}
	return colorUnset
}
