package draw

import (
	"image"
	"image/color"
	"sync"

	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/math/fixed"
)

// DefaultFace is a 7x13 pixel bitmap font that stays crisp on 1-bit displays.
var DefaultFace font.Face = basicfont.Face7x13

// Text draws s with its baseline starting at pt and returns the position after the last glyph.
// A nil face uses [DefaultFace].
func Text(dst Image, pt image.Point, face font.Face, s string, c color.Color) image.Point {
	if face == nil {
		face = DefaultFace
	}
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.P(pt.X, pt.Y),
	}
	d.DrawString(s)
	return image.Pt(d.Dot.X.Round(), d.Dot.Y.Round())
}

// TextBounds returns the box s covers when drawn with its baseline at pt.
func TextBounds(pt image.Point, face font.Face, s string) image.Rectangle {
	if face == nil {
		face = DefaultFace
	}
	b, _ := font.BoundString(face, s)
	return image.Rect(
		pt.X+b.Min.X.Floor(), pt.Y+b.Min.Y.Floor(),
		pt.X+b.Max.X.Ceil(), pt.Y+b.Max.Y.Ceil(),
	)
}

var (
	goFont     *truetype.Font
	goFontErr  error
	goFontOnce sync.Once
)

// GoFont returns the parsed Go Regular TrueType font.
func GoFont() (*truetype.Font, error) {
	goFontOnce.Do(func() {
		goFont, goFontErr = freetype.ParseFont(goregular.TTF)
	})
	return goFont, goFontErr
}

// TrueType draws s in the TrueType font f at size points (72 DPI), with its baseline starting
// at pt. Glyph edges are thresholded by the destination color model.
func TrueType(dst Image, pt image.Point, f *truetype.Font, size float64, s string, c color.Color) (image.Point, error) {
	ctx := freetype.NewContext()
	ctx.SetDPI(72)
	ctx.SetFont(f)
	ctx.SetFontSize(size)
	ctx.SetHinting(font.HintingFull)
	ctx.SetClip(dst.Bounds())
	ctx.SetDst(dst)
	ctx.SetSrc(image.NewUniform(c))

	end, err := ctx.DrawString(s, freetype.Pt(pt.X, pt.Y))
	if err != nil {
		return pt, err
	}
	return image.Pt(end.X.Round(), end.Y.Round()), nil
}

// TrueTypeFace returns a font.Face for f at size points, for use with [Text].
func TrueTypeFace(f *truetype.Font, size float64) font.Face {
	return truetype.NewFace(f, &truetype.Options{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
}
