package imaging

import "image"

// Canny detects edges with 3x3 Sobel gradients, L1 magnitude, non-maximum
// suppression and hysteresis between low and high. Edge pixels are white.
func Canny(low, high int) Filter {
	if low > high {
		low, high = high, low
	}
	return func(src *image.Gray) *image.Gray {
		w, h := dims(src)
		mag := make([]int, w*h)
		gxs := make([]int, w*h)
		gys := make([]int, w*h)
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				p := func(dx, dy int) int { return int(at(src, x+dx, y+dy)) }
				gx := -p(-1, -1) - 2*p(-1, 0) - p(-1, 1) + p(1, -1) + 2*p(1, 0) + p(1, 1)
				gy := -p(-1, -1) - 2*p(0, -1) - p(1, -1) + p(-1, 1) + 2*p(0, 1) + p(1, 1)
				i := y*w + x
				gxs[i], gys[i] = gx, gy
				mag[i] = abs(gx) + abs(gy)
			}
		}

		magAt := func(x, y int) int {
			if x < 0 || y < 0 || x >= w || y >= h {
				return 0
			}
			return mag[y*w+x]
		}

		const (
			none = iota
			weak
			strong
		)
		class := make([]uint8, w*h)
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				i := y*w + x
				m := mag[i]
				if m <= low {
					continue
				}
				n1, n2 := neighbors(gxs[i], gys[i])
				if m <= magAt(x+n1.X, y+n1.Y) || m < magAt(x+n2.X, y+n2.Y) {
					continue
				}
				if m > high {
					class[i] = strong
				} else {
					class[i] = weak
				}
			}
		}

		dst := newLike(src)
		stack := make([]int, 0, 64)
		for i, c := range class {
			if c == strong {
				stack = append(stack, i)
			}
		}
		for len(stack) > 0 {
			i := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			x, y := i%w, i/w
			if dst.Pix[y*dst.Stride+x] == 255 {
				continue
			}
			dst.Pix[y*dst.Stride+x] = 255
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					nx, ny := x+dx, y+dy
					if nx < 0 || ny < 0 || nx >= w || ny >= h {
						continue
					}
					j := ny*w + nx
					if class[j] != none && dst.Pix[ny*dst.Stride+nx] == 0 {
						stack = append(stack, j)
					}
				}
			}
		}
		return dst
	}
}

// neighbors returns the two pixel offsets along the gradient direction,
// quantized to 0, 45, 90 or 135 degrees. tan(22.5) ~ 0.4142, tan(67.5) ~ 2.4142.
func neighbors(gx, gy int) (image.Point, image.Point) {
	ax, ay := abs(gx), abs(gy)
	switch {
	case ay*10000 <= ax*4142:
		return image.Pt(-1, 0), image.Pt(1, 0)
	case ay*10000 >= ax*24142:
		return image.Pt(0, -1), image.Pt(0, 1)
	case (gx > 0) == (gy > 0):
		return image.Pt(-1, -1), image.Pt(1, 1)
	default:
		return image.Pt(1, -1), image.Pt(-1, 1)
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
