package extract

import (
	"fmt"
	"image"
	"image/color"
	"log"
	"math"
	"sort"

	"github.com/disintegration/imaging"
)

// Preprocessor improves text/background contrast ahead of OCR. The enhanced
// chain (Otsu, deskew, denoise, adaptive threshold) is probed once at
// construction; every failure along it degrades to the unmodified image, so
// preprocessing can never fail a page.
type Preprocessor struct {
	enhanced bool
}

// basicThreshold is the fixed luminance cutoff for the minimum mode.
const basicThreshold = 200

// Skew angles outside this window are treated as estimator noise rather than
// scanner tilt and are not corrected.
const (
	minSkewDeg = 0.5
	maxSkewDeg = 45.0
)

// NewPreprocessor probes the enhanced chain on a small synthetic image and
// caches the outcome; the probe never repeats per page.
func NewPreprocessor() *Preprocessor {
	p := &Preprocessor{}
	p.enhanced = probeEnhanced()
	if !p.enhanced {
		log.Printf("preprocess: enhanced chain unavailable, using basic thresholding")
	}
	return p
}

func probeEnhanced() (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
		}
	}()
	probe := imaging.New(8, 8, color.NRGBA{255, 255, 255, 255})
	gray := imaging.Grayscale(probe)
	bin := binarize(gray, otsuThreshold(gray))
	_ = medianFilter3(bin)
	_ = adaptiveThreshold(bin, 3, 2)
	_ = imaging.Rotate(bin, 1.0, color.NRGBA{255, 255, 255, 255})
	return true
}

// Apply runs the configured preprocessing mode. Enhanced failures fall back
// to the basic result rather than surfacing.
func (p *Preprocessor) Apply(img image.Image) image.Image {
	if !p.enhanced {
		return basicPass(img)
	}
	out, err := enhancedPass(img)
	if err != nil {
		log.Printf("preprocess: enhanced pass degraded: %v", err)
		return basicPass(img)
	}
	return out
}

func basicPass(img image.Image) image.Image {
	gray := imaging.Grayscale(img)
	return binarize(gray, basicThreshold)
}

func enhancedPass(img image.Image) (out image.Image, err error) {
	defer func() {
		if r := recover(); r != nil {
			out, err = nil, errPanic(r)
		}
	}()
	gray := imaging.Grayscale(img)
	bin := binarize(gray, otsuThreshold(gray))

	if angle, ok := estimateSkew(bin); ok {
		bin = imaging.Rotate(bin, -angle, color.NRGBA{255, 255, 255, 255})
	}
	den := medianFilter3(bin)
	return adaptiveThreshold(den, 15, 7), nil
}

type panicErr struct{ v interface{} }

func (e panicErr) Error() string { return fmt.Sprintf("recovered: %v", e.v) }

func errPanic(v interface{}) error { return panicErr{v} }

// binarize performs a global threshold on a grayscale image.
func binarize(img image.Image, threshold uint8) *image.NRGBA {
	b := img.Bounds()
	out := image.NewNRGBA(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bb, _ := img.At(x, y).RGBA()
			gray := uint8((r + g + bb) / 3 >> 8)
			var v uint8 = 255
			if gray <= threshold {
				v = 0
			}
			out.Set(x, y, color.NRGBA{R: v, G: v, B: v, A: 255})
		}
	}
	return out
}

// otsuThreshold picks the luminance cutoff that minimizes intra-class
// variance over the histogram.
func otsuThreshold(img image.Image) uint8 {
	var hist [256]int
	b := img.Bounds()
	total := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bb, _ := img.At(x, y).RGBA()
			hist[uint8((r+g+bb)/3>>8)]++
			total++
		}
	}
	if total == 0 {
		return basicThreshold
	}
	var sum float64
	for i, c := range hist {
		sum += float64(i) * float64(c)
	}
	var sumB, wB float64
	var best float64
	th := basicThreshold
	for i := 0; i < 256; i++ {
		wB += float64(hist[i])
		if wB == 0 {
			continue
		}
		wF := float64(total) - wB
		if wF == 0 {
			break
		}
		sumB += float64(i) * float64(hist[i])
		mB := sumB / wB
		mF := (sum - sumB) / wF
		between := wB * wF * (mB - mF) * (mB - mF)
		if between > best {
			best = between
			th = i
		}
	}
	return uint8(th)
}

// estimateSkew measures page tilt as the median orientation of detected text
// blocks (connected components of dark pixels), via each block's second
// image moments. Returns false when the angle is outside the plausible
// correction window.
func estimateSkew(img *image.NRGBA) (float64, bool) {
	w := img.Bounds().Dx()
	h := img.Bounds().Dy()
	if w < 16 || h < 16 {
		return 0, false
	}

	labels := make([]int32, w*h)
	dark := func(x, y int) bool {
		i := img.PixOffset(x, y)
		return img.Pix[i] < 128
	}

	type blob struct {
		n                      int
		sx, sy                 float64
		sxx, syy, sxy          float64
		minX, maxX, minY, maxY int
	}
	var blobs []*blob
	next := int32(1)

	// Single-pass flood fill with an explicit stack.
	var stack [][2]int
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if !dark(x, y) || labels[y*w+x] != 0 {
				continue
			}
			bl := &blob{minX: x, maxX: x, minY: y, maxY: y}
			stack = stack[:0]
			stack = append(stack, [2]int{x, y})
			labels[y*w+x] = next
			for len(stack) > 0 {
				p := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				px, py := p[0], p[1]
				bl.n++
				fx, fy := float64(px), float64(py)
				bl.sx += fx
				bl.sy += fy
				bl.sxx += fx * fx
				bl.syy += fy * fy
				bl.sxy += fx * fy
				if px < bl.minX {
					bl.minX = px
				}
				if px > bl.maxX {
					bl.maxX = px
				}
				if py < bl.minY {
					bl.minY = py
				}
				if py > bl.maxY {
					bl.maxY = py
				}
				for _, d := range [4][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}} {
					nx, ny := px+d[0], py+d[1]
					if nx < 0 || ny < 0 || nx >= w || ny >= h {
						continue
					}
					if dark(nx, ny) && labels[ny*w+nx] == 0 {
						labels[ny*w+nx] = next
						stack = append(stack, [2]int{nx, ny})
					}
				}
			}
			next++
			blobs = append(blobs, bl)
		}
	}

	var angles []float64
	for _, bl := range blobs {
		// Only wide, text-block-shaped components vote.
		bw := bl.maxX - bl.minX + 1
		bh := bl.maxY - bl.minY + 1
		if bl.n < 50 || bw < 3*bh || bw < w/20 {
			continue
		}
		fn := float64(bl.n)
		mx := bl.sx / fn
		my := bl.sy / fn
		mu20 := bl.sxx/fn - mx*mx
		mu02 := bl.syy/fn - my*my
		mu11 := bl.sxy/fn - mx*my
		theta := 0.5 * math.Atan2(2*mu11, mu20-mu02)
		angles = append(angles, theta*180/math.Pi)
	}
	if len(angles) == 0 {
		return 0, false
	}
	sort.Float64s(angles)
	angle := angles[len(angles)/2]
	if math.Abs(angle) < minSkewDeg || math.Abs(angle) > maxSkewDeg {
		return 0, false
	}
	return angle, true
}

// medianFilter3 applies a 3x3 median filter to knock out salt-and-pepper
// speckle without eroding glyph strokes.
func medianFilter3(img *image.NRGBA) *image.NRGBA {
	w := img.Bounds().Dx()
	h := img.Bounds().Dy()
	out := imaging.New(w, h, color.NRGBA{255, 255, 255, 255})
	var window [9]uint8
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			n := 0
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					nx, ny := x+dx, y+dy
					if nx < 0 || ny < 0 || nx >= w || ny >= h {
						continue
					}
					window[n] = img.Pix[img.PixOffset(nx, ny)]
					n++
				}
			}
			sub := window[:n]
			sort.Slice(sub, func(i, j int) bool { return sub[i] < sub[j] })
			v := sub[n/2]
			out.Set(x, y, color.NRGBA{R: v, G: v, B: v, A: 255})
		}
	}
	return out
}

// adaptiveThreshold performs a mean adaptive threshold using an integral
// image so the window mean is O(1) per pixel.
func adaptiveThreshold(img image.Image, window int, bias int) *image.NRGBA {
	if window < 3 {
		window = 3
	}
	if window%2 == 0 {
		window++
	}
	w := img.Bounds().Dx()
	h := img.Bounds().Dy()
	out := imaging.New(w, h, color.NRGBA{255, 255, 255, 255})
	half := window / 2
	ints := make([]int, w*h)
	for y := 0; y < h; y++ {
		rowSum := 0
		for x := 0; x < w; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			v := int((r + g + b) / 3 >> 8)
			rowSum += v
			idx := y*w + x
			if y == 0 {
				ints[idx] = rowSum
			} else {
				ints[idx] = ints[(y-1)*w+x] + rowSum
			}
		}
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			x0, y0 := x-half, y-half
			x1, y1 := x+half, y+half
			if x0 < 0 {
				x0 = 0
			}
			if y0 < 0 {
				y0 = 0
			}
			if x1 >= w {
				x1 = w - 1
			}
			if y1 >= h {
				y1 = h - 1
			}
			A := ints[y0*w+x0]
			B := ints[y0*w+x1]
			C := ints[y1*w+x0]
			D := ints[y1*w+x1]
			sum := D - B - C + A
			mean := sum / ((x1 - x0 + 1) * (y1 - y0 + 1))
			rv, gv, bv, _ := img.At(x, y).RGBA()
			pix := int((rv + gv + bv) / 3 >> 8)
			th := mean - bias
			if th < 0 {
				th = 0
			}
			var c color.NRGBA
			if pix < th {
				c = color.NRGBA{0, 0, 0, 255}
			} else {
				c = color.NRGBA{255, 255, 255, 255}
			}
			out.Set(x, y, c)
		}
	}
	return out
}
