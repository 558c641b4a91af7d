package image

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/tiff"
)

const boxSVG = `<svg xmlns="http://www.w3.org/2000/svg" width="20" height="10" viewBox="0 0 20 10">
  <rect x="5" y="2" width="10" height="6" fill="black"/>
</svg>`

func writePNG(t *testing.T, img image.Image) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "in.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
	return path
}

func TestLoadPNG(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 4, 3))
	img.Set(1, 1, color.Black)
	path := writePNG(t, img)

	src, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "png", src.Format)
	assert.Equal(t, 4, src.Width())
	assert.Equal(t, 3, src.Height())

	// Fully transparent pixels turn into white paper.
	assert.Equal(t, color.RGBA{255, 255, 255, 255}, src.Image.At(0, 0))
	assert.Equal(t, color.RGBA{0, 0, 0, 255}, src.Image.At(1, 1))

	_, ok := src.PhysicalSize()
	assert.False(t, ok)
}

func TestLoadTIFFReadsDPI(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 72, 144))
	path := filepath.Join(t.TempDir(), "scan.tif")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, tiff.Encode(f, img, nil))
	require.NoError(t, f.Close())

	src, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "tiff", src.Format)
	assert.InDelta(t, 72.0, src.DPI, 1e-9)

	size, ok := src.PhysicalSize()
	require.True(t, ok)
	assert.InDelta(t, 25.4, size.Width, 1e-9)
	assert.InDelta(t, 50.8, size.Height, 1e-9)
}

func TestLoadSVG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "box.svg")
	require.NoError(t, os.WriteFile(path, []byte(boxSVG), 0o644))

	src, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "svg", src.Format)
	assert.Equal(t, 20, src.Width())
	assert.Equal(t, 10, src.Height())

	gray := Grayscale(src.Image)
	assert.Equal(t, uint8(0), gray.GrayAt(10, 5).Y)
	assert.Equal(t, uint8(255), gray.GrayAt(1, 1).Y)
}

func TestRasterizeSVGScales(t *testing.T) {
	img, err := RasterizeSVG(strings.NewReader(boxSVG), 40)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 40, 20), img.Bounds())
	assert.Equal(t, color.RGBA{0, 0, 0, 255}, img.RGBAAt(20, 10))
	assert.Equal(t, color.RGBA{255, 255, 255, 255}, img.RGBAAt(2, 2))
}

func TestLoadErrors(t *testing.T) {
	_, err := Load("drawing.bmp")
	assert.ErrorContains(t, err, "unsupported image format")

	_, err = Load(filepath.Join(t.TempDir(), "missing.png"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	bad := filepath.Join(t.TempDir(), "bad.png")
	require.NoError(t, os.WriteFile(bad, []byte("not a png"), 0o644))
	_, err = Load(bad)
	assert.ErrorContains(t, err, "failed to decode image")
}

func TestSupportedFormats(t *testing.T) {
	assert.True(t, IsSupportedFormat("a/b/Logo.SVG"))
	assert.True(t, IsSupportedFormat("scan.tif"))
	assert.False(t, IsSupportedFormat("notes.txt"))
}

func TestGrayscale(t *testing.T) {
	img := image.NewRGBA(image.Rect(10, 10, 13, 11))
	img.Set(10, 10, color.RGBA{255, 0, 0, 255})
	img.Set(11, 10, color.RGBA{0, 255, 0, 255})
	img.Set(12, 10, color.RGBA{128, 128, 128, 255})

	gray := Grayscale(img)
	assert.Equal(t, image.Rect(0, 0, 3, 1), gray.Bounds())
	assert.Equal(t, []uint8{76, 150, 128}, gray.Pix)
}

func TestFlattenBlendsAlpha(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 1, 1))
	img.SetNRGBA(0, 0, color.NRGBA{0, 0, 0, 128})

	out := Flatten(img, color.White)
	c := out.RGBAAt(0, 0)
	assert.InDelta(t, 127, int(c.R), 1)
	assert.Equal(t, uint8(255), c.A)
}
