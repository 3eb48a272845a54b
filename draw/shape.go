package draw

import (
	"image"
	"image/color"
)

// Line draws a line between two points, both inclusive.
func Line(dst Image, a, b image.Point, c color.Color) {
	bresenham(dst, a.X, a.Y, b.X, b.Y, c)
}

// HorizontalLine draws w pixels from (x,y) to the right.
func HorizontalLine(dst Image, x, y, w int, c color.Color) {
	for i := 0; i < w; i++ {
		dst.Set(x+i, y, c)
	}
}

// VerticalLine draws h pixels from (x,y) downwards.
func VerticalLine(dst Image, x, y, h int, c color.Color) {
	for i := 0; i < h; i++ {
		dst.Set(x, y+i, c)
	}
}

// Rectangle draws the outline of rect. Max is exclusive, as for [image.Rectangle].
func Rectangle(dst Image, rect image.Rectangle, c color.Color) {
	rect = rect.Canon()
	if rect.Empty() {
		return
	}
	w, h := rect.Dx(), rect.Dy()
	HorizontalLine(dst, rect.Min.X, rect.Min.Y, w, c)
	HorizontalLine(dst, rect.Min.X, rect.Max.Y-1, w, c)
	VerticalLine(dst, rect.Min.X, rect.Min.Y, h, c)
	VerticalLine(dst, rect.Max.X-1, rect.Min.Y, h, c)
}

// Box draws a filled rectangle.
func Box(dst Image, rect image.Rectangle, c color.Color) {
	rect = rect.Canon()
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		HorizontalLine(dst, rect.Min.X, y, rect.Dx(), c)
	}
}

// RoundedRectangle draws the outline of rect with radius pixels rounded corners.
func RoundedRectangle(dst Image, rect image.Rectangle, radius int, c color.Color) {
	rect = rect.Canon()
	r := clampRadius(rect, radius)
	if r == 0 {
		Rectangle(dst, rect, c)
		return
	}

	var (
		x0, y0 = rect.Min.X, rect.Min.Y
		x1, y1 = rect.Max.X - 1, rect.Max.Y - 1
	)
	HorizontalLine(dst, x0+r, y0, rect.Dx()-2*r, c)
	HorizontalLine(dst, x0+r, y1, rect.Dx()-2*r, c)
	VerticalLine(dst, x0, y0+r, rect.Dy()-2*r, c)
	VerticalLine(dst, x1, y0+r, rect.Dy()-2*r, c)
	midpoint(r, func(dx, dy int) {
		dst.Set(x0+r-dx, y0+r-dy, c)
		dst.Set(x1-r+dx, y0+r-dy, c)
		dst.Set(x0+r-dx, y1-r+dy, c)
		dst.Set(x1-r+dx, y1-r+dy, c)
	})
}

// RoundedBox draws a filled rectangle with radius pixels rounded corners.
func RoundedBox(dst Image, rect image.Rectangle, radius int, c color.Color) {
	rect = rect.Canon()
	r := clampRadius(rect, radius)

	var (
		x0, y0 = rect.Min.X, rect.Min.Y
		x1, y1 = rect.Max.X - 1, rect.Max.Y - 1
	)
	Box(dst, image.Rect(x0, y0+r, x1+1, y1-r+1), c)
	midpoint(r, func(dx, dy int) {
		// Each octant point spans the top and bottom caps between the mirrored corners.
		HorizontalLine(dst, x0+r-dx, y0+r-dy, x1-x0-2*r+2*dx+1, c)
		HorizontalLine(dst, x0+r-dx, y1-r+dy, x1-x0-2*r+2*dx+1, c)
	})
}

// Circle draws the outline of a circle.
func Circle(dst Image, center image.Point, radius int, c color.Color) {
	midpoint(radius, func(dx, dy int) {
		dst.Set(center.X+dx, center.Y+dy, c)
		dst.Set(center.X-dx, center.Y+dy, c)
		dst.Set(center.X+dx, center.Y-dy, c)
		dst.Set(center.X-dx, center.Y-dy, c)
	})
}

func clampRadius(rect image.Rectangle, radius int) int {
	r := radius
	if limit := (min(rect.Dx(), rect.Dy()) - 1) / 2; r > limit {
		r = limit
	}
	if r < 0 {
		r = 0
	}
	return r
}

// midpoint walks one quadrant of a circle with the given radius, calling plot with offsets
// (dx, dy) >= 0 from the center. Both octants of the quadrant are visited.
func midpoint(radius int, plot func(dx, dy int)) {
	var (
		x = 0
		y = radius
		f = 1 - radius
	)
	for x <= y {
		plot(x, y)
		plot(y, x)
		x++
		if f < 0 {
			f += 2*x + 1
		} else {
			y--
			f += 2*(x-y) + 1
		}
	}
}

// bresenham draws the line from (x0,y0) to (x1,y1) in any direction.
func bresenham(dst Image, x0, y0, x1, y1 int, c color.Color) {
	var (
		dx = abs(x1 - x0)
		dy = -abs(y1 - y0)
		sx = 1
		sy = 1
	)
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}

	e := dx + dy
	for {
		dst.Set(x0, y0, c)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x0 += sx
		}
		if e2 <= dx {
			e += dx
			y0 += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
