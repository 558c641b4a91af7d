// Package preprocess turns a picture into a one-pixel-wide skeleton mask.
//
// The pipeline follows the usual line-art recipe: grayscale, optional
// inversion, Gaussian blur for denoising, a threshold that keeps the dark
// pixels, and finally thinning.
package preprocess

import (
	"fmt"
	"image"
	"strings"

	pimage "penplot/internal/image"
	"penplot/internal/skeleton"
	"penplot/pkg/geometry"

	"gocv.io/x/gocv"
)

// Method selects the thinning algorithm.
type Method int

const (
	// ZhangSuen is parallel thinning that preserves connectivity.
	ZhangSuen Method = iota
	// Morphological keeps the union of erosion residues. It is faster on
	// large images but may break thin diagonals.
	Morphological
)

func (m Method) String() string {
	switch m {
	case ZhangSuen:
		return "zhangsuen"
	case Morphological:
		return "morphological"
	default:
		return "unknown"
	}
}

// ParseMethod parses a method name as accepted on the command line.
func ParseMethod(s string) (Method, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "zhangsuen", "zhang-suen":
		return ZhangSuen, nil
	case "morphological", "morph":
		return Morphological, nil
	}
	return 0, fmt.Errorf("unknown thinning method %q", s)
}

// Options controls preprocessing.
type Options struct {
	Blur      float64 // Gaussian sigma in pixels, 0 disables blurring
	Threshold uint8   // Pixels darker than this become foreground
	Invert    bool    // Invert before thresholding, for light lines on dark
	Method    Method
}

// DefaultOptions returns the settings used when nothing is specified.
func DefaultOptions() Options {
	return Options{
		Blur:      1.0,
		Threshold: 128,
		Method:    ZhangSuen,
	}
}

// Settings describes the options for G-code file headers.
func (o Options) Settings() string {
	return fmt.Sprintf("Invert=%t, Blur=%.1f, Threshold=%d, Thinning=%s", o.Invert, o.Blur, o.Threshold, o.Method)
}

// Run converts img to a skeleton mask.
func Run(img image.Image, opts Options) (*skeleton.Mask, error) {
	if img == nil {
		return nil, skeleton.Invalid("image", 0, "nil image")
	}
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return nil, skeleton.Invalid("image width", b.Dx(), "empty image")
	}
	if opts.Blur < 0 {
		return nil, fmt.Errorf("blur must not be negative, got %g", opts.Blur)
	}

	gray := pimage.Grayscale(img)
	mat, err := gocv.NewMatFromBytes(gray.Rect.Dy(), gray.Rect.Dx(), gocv.MatTypeCV8UC1, gray.Pix)
	if err != nil {
		return nil, fmt.Errorf("failed to create mat: %w", err)
	}
	defer mat.Close()

	binary := Binarize(mat, opts)
	defer binary.Close()

	if opts.Method == Morphological {
		thin := skeletonize(binary)
		defer thin.Close()
		return matToMask(thin)
	}

	m, err := matToMask(binary)
	if err != nil {
		return nil, err
	}
	return Thin(m), nil
}

// Binarize applies inversion, blur and threshold to a single-channel 8-bit
// Mat. Foreground pixels of the result are 255.
func Binarize(gray gocv.Mat, opts Options) gocv.Mat {
	work := gray.Clone()

	if opts.Invert {
		gocv.BitwiseNot(work, &work)
	}

	if opts.Blur > 0 {
		blurred := gocv.NewMat()
		gocv.GaussianBlur(work, &blurred, image.Point{}, opts.Blur, opts.Blur, gocv.BorderReflect101)
		work.Close()
		work = blurred
	}

	// Foreground is strictly darker than the threshold, so the inclusive
	// inverse threshold sits one level below it.
	binary := gocv.NewMat()
	gocv.Threshold(work, &binary, float32(opts.Threshold)-1, 255, gocv.ThresholdBinaryInv)
	work.Close()

	return binary
}

// skeletonize reduces a binary mask to single-pixel-wide lines by keeping
// what each erosion step removes beyond an opening.
func skeletonize(mask gocv.Mat) gocv.Mat {
	skel := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), mask.Rows(), mask.Cols(), gocv.MatTypeCV8U)
	temp := mask.Clone()
	defer temp.Close()

	eroded := gocv.NewMat()
	defer eroded.Close()

	element := gocv.GetStructuringElement(gocv.MorphCross, image.Point{3, 3})
	defer element.Close()

	for gocv.CountNonZero(temp) > 0 {
		gocv.Erode(temp, &eroded, element)

		opened := gocv.NewMat()
		gocv.Dilate(eroded, &opened, element)

		residue := gocv.NewMat()
		gocv.Subtract(temp, opened, &residue)
		opened.Close()

		gocv.BitwiseOr(skel, residue, &skel)
		residue.Close()

		eroded.CopyTo(&temp)
	}

	return skel
}

func matToMask(mat gocv.Mat) (*skeleton.Mask, error) {
	data := mat.ToBytes()
	return MaskFromBytes(mat.Cols(), mat.Rows(), data)
}

// MaskFromBytes builds a mask from row-major 8-bit samples; any non-zero
// sample is foreground.
func MaskFromBytes(width, height int, data []byte) (*skeleton.Mask, error) {
	m, err := skeleton.NewMask(width, height)
	if err != nil {
		return nil, err
	}
	if len(data) != width*height {
		return nil, skeleton.Invalid("sample count", len(data), fmt.Sprintf("want %d", width*height))
	}
	for i, v := range data {
		if v != 0 {
			m.Set(geometry.Pt(i%width, i/width), true)
		}
	}
	return m, nil
}
