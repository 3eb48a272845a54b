// Package pixel implements the 1-bit color model used by memory LCD panels.
//
// The model is compatible with Go's native [color.Color] and [image.Image] / [draw.Image]
// interfaces, so any drawing code written against those can render into a panel buffer.
package pixel
