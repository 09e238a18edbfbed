package viz

import (
	"strings"
)

// Braille cells are 2x4 dots:
//
//	1 4
//	2 5
//	3 6
//	7 8
//
// offset from U+2800.
var pixelMap = [4][2]int{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

// bayer thresholds one 2x4 cell so that denser regions light more dots.
var bayer = [4][2]float64{
	{0.0625, 0.5625},
	{0.8125, 0.3125},
	{0.1875, 0.6875},
	{0.9375, 0.4375},
}

const blank = 0x2800

type Canvas struct {
	Width, Height int
	Grid          [][]rune
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{
		Width:  w,
		Height: h,
		Grid:   make([][]rune, h),
	}
	for i := range c.Grid {
		c.Grid[i] = make([]rune, w)
	}
	c.Clear()
	return c
}

// Dots returns the canvas size in sub-pixels.
func (c *Canvas) Dots() (w, h int) { return c.Width * 2, c.Height * 4 }

// Set lights the sub-pixel (x, y). Out-of-range points are ignored.
func (c *Canvas) Set(x, y int) {
	if x < 0 || y < 0 {
		return
	}
	col, row := x/2, y/4
	if col >= c.Width || row >= c.Height {
		return
	}
	c.Grid[row][col] |= rune(pixelMap[y%4][x%2])
}

// IsSet reports whether the sub-pixel (x, y) is lit.
func (c *Canvas) IsSet(x, y int) bool {
	if x < 0 || y < 0 || x/2 >= c.Width || y/4 >= c.Height {
		return false
	}
	return c.Grid[y/4][x/2]&rune(pixelMap[y%4][x%2]) != 0
}

func (c *Canvas) Clear() {
	for i := range c.Grid {
		for j := range c.Grid[i] {
			c.Grid[i][j] = blank
		}
	}
}

// DrawLine draws a Bresenham line.
func (c *Canvas) DrawLine(x0, y0, x1, y1 int) {
	dx := absInt(x1 - x0)
	dy := absInt(y1 - y0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx - dy

	for {
		c.Set(x0, y0)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x0 += sx
		}
		if e2 < dx {
			err += dx
			y0 += sy
		}
	}
}

// Plot draws values as a polyline across the full width, scaled so that
// top is the upper edge. Non-positive top autoscales to the maximum.
func (c *Canvas) Plot(values []float64, top float64) {
	if len(values) == 0 {
		return
	}
	if top <= 0 {
		top = maxOf(values)
	}
	if top <= 0 {
		top = 1
	}
	w, h := c.Dots()
	px, py := -1, -1
	for x := 0; x < w; x++ {
		i := x * len(values) / w
		y := h - 1 - int(values[i]/top*float64(h-1))
		if y < 0 {
			y = 0
		}
		if px >= 0 {
			c.DrawLine(px, py, x, y)
		} else {
			c.Set(x, y)
		}
		px, py = x, y
	}
}

// Heatmap fills the canvas from a row-major nx×ny field, x across and y
// upwards, using an ordered dither against the field maximum.
func (c *Canvas) Heatmap(values []float64, nx, ny int) {
	if nx*ny == 0 || len(values) < nx*ny {
		return
	}
	top := maxOf(values)
	if top <= 0 {
		return
	}
	w, h := c.Dots()
	for y := 0; y < h; y++ {
		iy := (h - 1 - y) * ny / h
		for x := 0; x < w; x++ {
			ix := x * nx / w
			if values[ix*ny+iy]/top > bayer[y%4][x%2] {
				c.Set(x, y)
			}
		}
	}
}

func (c *Canvas) String() string {
	var b strings.Builder
	for _, row := range c.Grid {
		b.WriteString(string(row))
		b.WriteByte('\n')
	}
	return b.String()
}

func maxOf(v []float64) float64 {
	m := v[0]
	for _, x := range v[1:] {
		if x > m {
			m = x
		}
	}
	return m
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
