package tui

// brailleBuf accumulates micro-pixels (2x4 per terminal cell) into braille
// dot masks.
type brailleBuf struct {
	w, h int       // in cells
	m    [][]uint8 // per-cell 8-bit mask
}

func newBrailleBuf(w, h int) *brailleBuf {
	m := make([][]uint8, h)
	for i := range m {
		m[i] = make([]uint8, w)
	}
	return &brailleBuf{w: w, h: h, m: m}
}

// setPixel sets a micro-pixel at micro coords (2x4 per cell)
func (b *brailleBuf) setPixel(mx, my int) {
	if mx < 0 || my < 0 {
		return
	}
	cx, rx := mx/2, mx%2
	cy, ry := my/4, my%4
	if cy >= b.h || cx >= b.w {
		return
	}
	b.m[cy][cx] |= brailleBit(rx, ry)
}

// brailleBit is the dot for column rx (0..1) and row ry (0..3) of a cell.
func brailleBit(rx, ry int) uint8 {
	if rx == 0 {
		switch ry {
		case 0:
			return 0x01
		case 1:
			return 0x02
		case 2:
			return 0x04
		default:
			return 0x40
		}
	}
	switch ry {
	case 0:
		return 0x08
	case 1:
		return 0x10
	case 2:
		return 0x20
	default:
		return 0x80
	}
}

// glyph returns the braille rune for cell (x, y), or a space when empty.
func (b *brailleBuf) glyph(x, y int) rune {
	mask := b.m[y][x]
	if mask == 0 {
		return ' '
	}
	return rune(0x2800 + int(mask))
}
