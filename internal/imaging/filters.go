package imaging

import (
	"image"
	"math"

	"golang.org/x/image/draw"
)

// Filter is one grayscale transform. Filters never modify their input; each
// returns a new origin-anchored image of the same size.
type Filter func(src *image.Gray) *image.Gray

// toGray converts a decoded image to 8-bit luma (ITU-R 601 weights, the same
// coefficients OpenCV uses for BGR2GRAY) anchored at the origin.
func toGray(src image.Image) *image.Gray {
	b := src.Bounds()
	dst := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	return dst
}

// upscale enlarges src by an integer factor with the Catmull-Rom kernel.
func upscale(src *image.Gray, factor int) *image.Gray {
	if factor <= 1 {
		return src
	}
	w, h := dims(src)
	dst := image.NewGray(image.Rect(0, 0, w*factor, h*factor))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst
}

func dims(g *image.Gray) (int, int) {
	return g.Rect.Dx(), g.Rect.Dy()
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampByte(v int) uint8 {
	return uint8(clampInt(v, 0, 255))
}

// at reads a pixel with replicated borders.
func at(g *image.Gray, x, y int) uint8 {
	w, h := dims(g)
	x = clampInt(x, 0, w-1)
	y = clampInt(y, 0, h-1)
	return g.Pix[y*g.Stride+x]
}

func newLike(g *image.Gray) *image.Gray {
	w, h := dims(g)
	return image.NewGray(image.Rect(0, 0, w, h))
}

// mapPixels applies fn to every pixel.
func mapPixels(src *image.Gray, fn func(v uint8) uint8) *image.Gray {
	dst := newLike(src)
	w, h := dims(src)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			dst.Pix[y*dst.Stride+x] = fn(src.Pix[y*src.Stride+x])
		}
	}
	return dst
}

// GaussianBlur5 smooths with the separable binomial kernel [1 4 6 4 1]/16.
func GaussianBlur5() Filter {
	kernel := [5]int{1, 4, 6, 4, 1}
	return func(src *image.Gray) *image.Gray {
		w, h := dims(src)
		tmp := make([]int, w*h)
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				sum := 0
				for k := -2; k <= 2; k++ {
					sum += kernel[k+2] * int(at(src, x+k, y))
				}
				tmp[y*w+x] = sum
			}
		}
		dst := newLike(src)
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				sum := 0
				for k := -2; k <= 2; k++ {
					yy := clampInt(y+k, 0, h-1)
					sum += kernel[k+2] * tmp[yy*w+x]
				}
				dst.Pix[y*dst.Stride+x] = uint8((sum + 128) >> 8)
			}
		}
		return dst
	}
}

// Threshold binarizes: values strictly above t become white, the rest black.
func Threshold(t uint8) Filter {
	return func(src *image.Gray) *image.Gray {
		return mapPixels(src, func(v uint8) uint8 {
			if v > t {
				return 255
			}
			return 0
		})
	}
}

// Otsu binarizes at the threshold that maximizes between-class variance.
func Otsu() Filter {
	return func(src *image.Gray) *image.Gray {
		return Threshold(otsuLevel(src))(src)
	}
}

// otsuLevel computes Otsu's threshold over the luma histogram.
func otsuLevel(src *image.Gray) uint8 {
	var hist [256]int
	w, h := dims(src)
	for y := 0; y < h; y++ {
		row := src.Pix[y*src.Stride : y*src.Stride+w]
		for _, v := range row {
			hist[v]++
		}
	}
	total := w * h
	var sum float64
	for i, n := range hist {
		sum += float64(i * n)
	}

	var (
		sumB      float64
		weightB   int
		bestVar   = -1.0
		bestLevel int
	)
	for t := 0; t < 256; t++ {
		weightB += hist[t]
		if weightB == 0 {
			continue
		}
		weightF := total - weightB
		if weightF == 0 {
			break
		}
		sumB += float64(t * hist[t])
		meanB := sumB / float64(weightB)
		meanF := (sum - sumB) / float64(weightF)
		between := float64(weightB) * float64(weightF) * (meanB - meanF) * (meanB - meanF)
		if between > bestVar {
			bestVar = between
			bestLevel = t
		}
	}
	return uint8(bestLevel)
}

// AdaptiveGaussian binarizes each pixel against the gaussian-weighted mean of
// its block x block neighborhood minus c.
func AdaptiveGaussian(block, c int) Filter {
	if block < 3 {
		block = 3
	}
	if block%2 == 0 {
		block++
	}
	weights := gaussianWeights(block)
	radius := block / 2
	return func(src *image.Gray) *image.Gray {
		w, h := dims(src)
		tmp := make([]float64, w*h)
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				var sum float64
				for k := -radius; k <= radius; k++ {
					sum += weights[k+radius] * float64(at(src, x+k, y))
				}
				tmp[y*w+x] = sum
			}
		}
		dst := newLike(src)
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				var sum float64
				for k := -radius; k <= radius; k++ {
					yy := clampInt(y+k, 0, h-1)
					sum += weights[k+radius] * tmp[yy*w+x]
				}
				mean := int(math.Round(sum))
				if int(src.Pix[y*src.Stride+x]) > mean-c {
					dst.Pix[y*dst.Stride+x] = 255
				}
			}
		}
		return dst
	}
}

// gaussianWeights returns a normalized 1-D kernel using OpenCV's default
// sigma for the given size.
func gaussianWeights(size int) []float64 {
	sigma := 0.3*(float64(size-1)*0.5-1) + 0.8
	radius := size / 2
	weights := make([]float64, size)
	var sum float64
	for i := range weights {
		d := float64(i - radius)
		weights[i] = math.Exp(-(d * d) / (2 * sigma * sigma))
		sum += weights[i]
	}
	for i := range weights {
		weights[i] /= sum
	}
	return weights
}

// morph applies a k x k min (erode) or max (dilate) window anchored at the
// kernel center, which for even sizes covers offsets [-k/2, k-1-k/2].
func morph(k int, pick func(a, b uint8) uint8) Filter {
	if k < 1 {
		k = 1
	}
	lo := -(k / 2)
	hi := k - 1 + lo
	return func(src *image.Gray) *image.Gray {
		w, h := dims(src)
		dst := newLike(src)
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				v := at(src, x+lo, y+lo)
				for dy := lo; dy <= hi; dy++ {
					for dx := lo; dx <= hi; dx++ {
						v = pick(v, at(src, x+dx, y+dy))
					}
				}
				dst.Pix[y*dst.Stride+x] = v
			}
		}
		return dst
	}
}

// Erode takes the minimum over a k x k window.
func Erode(k int) Filter {
	return morph(k, func(a, b uint8) uint8 { return min(a, b) })
}

// Dilate takes the maximum over a k x k window.
func Dilate(k int) Filter {
	return morph(k, func(a, b uint8) uint8 { return max(a, b) })
}

// Close is dilation followed by erosion; it fills small gaps in strokes.
func Close(k int) Filter {
	return Chain(Dilate(k), Erode(k))
}

// Contrast scales deviation from the mean luma by factor.
func Contrast(factor float64) Filter {
	return func(src *image.Gray) *image.Gray {
		w, h := dims(src)
		var total int
		for y := 0; y < h; y++ {
			for _, v := range src.Pix[y*src.Stride : y*src.Stride+w] {
				total += int(v)
			}
		}
		mean := 0.0
		if w*h > 0 {
			mean = math.Floor(float64(total)/float64(w*h) + 0.5)
		}
		return mapPixels(src, func(v uint8) uint8 {
			return clampByte(int(math.Round(mean + factor*(float64(v)-mean))))
		})
	}
}

// Median3 replaces each pixel with the median of its 3x3 neighborhood.
func Median3() Filter {
	return func(src *image.Gray) *image.Gray {
		w, h := dims(src)
		dst := newLike(src)
		var window [9]uint8
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				n := 0
				for dy := -1; dy <= 1; dy++ {
					for dx := -1; dx <= 1; dx++ {
						window[n] = at(src, x+dx, y+dy)
						n++
					}
				}
				// insertion sort; nine elements
				for i := 1; i < len(window); i++ {
					for j := i; j > 0 && window[j] < window[j-1]; j-- {
						window[j], window[j-1] = window[j-1], window[j]
					}
				}
				dst.Pix[y*dst.Stride+x] = window[4]
			}
		}
		return dst
	}
}

// Invert maps v to 255-v.
func Invert() Filter {
	return func(src *image.Gray) *image.Gray {
		return mapPixels(src, func(v uint8) uint8 { return 255 - v })
	}
}

// Chain composes filters left to right.
func Chain(filters ...Filter) Filter {
	return func(src *image.Gray) *image.Gray {
		out := src
		for _, f := range filters {
			out = f(out)
		}
		return out
	}
}
