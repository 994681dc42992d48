package imaging

import (
	"fmt"
	"image"
	"image/color"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/image/draw"
)

// Fit scales size down to fit inside bounds, keeping the aspect ratio.
func Fit(size, bounds image.Point) image.Point {
	if size.X <= 0 || size.Y <= 0 || bounds.X <= 0 || bounds.Y <= 0 {
		return image.Point{}
	}
	w, h := bounds.X, size.Y*bounds.X/size.X
	if h > bounds.Y {
		w, h = size.X*bounds.Y/size.Y, bounds.Y
	}
	return image.Pt(max(w, 1), max(h, 1))
}

// HalfBlocks renders img into at most cols x rows terminal cells. Each cell
// holds two vertical pixels: the foreground paints the upper one and the
// background the lower one.
func HalfBlocks(img image.Image, cols, rows int) string {
	if img == nil || cols <= 0 || rows <= 0 {
		return ""
	}
	b := img.Bounds()
	size := Fit(image.Pt(b.Dx(), b.Dy()), image.Pt(cols, rows*2))
	if size.X == 0 {
		return ""
	}

	dst := image.NewRGBA(image.Rect(0, 0, size.X, size.Y))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)

	var out strings.Builder
	for y := 0; y < size.Y; y += 2 {
		for x := 0; x < size.X; x++ {
			style := lipgloss.NewStyle().Foreground(hex(dst.RGBAAt(x, y)))
			if y+1 < size.Y {
				style = style.Background(hex(dst.RGBAAt(x, y+1)))
			}
			out.WriteString(style.Render("▀"))
		}
		if y+2 < size.Y {
			out.WriteByte('\n')
		}
	}
	return out.String()
}

func hex(c color.RGBA) lipgloss.Color {
	return lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B))
}
