// Package image loads the artwork that gets turned into a plot.
package image

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"penplot/pkg/geometry"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
	_ "golang.org/x/image/tiff"
)

// Source is a loaded input picture.
type Source struct {
	Path   string      // Original file path
	Image  image.Image // Decoded or rasterised image, flattened onto white
	Format string      // "png", "jpeg", "tiff" or "svg"
	DPI    float64     // From TIFF metadata, 0 if unknown
}

// Load reads an image file. Raster formats are decoded with the registered
// decoders; SVG files are rasterised at their viewBox size. Transparent
// areas are flattened onto white so they read as paper.
func Load(path string) (*Source, error) {
	if !IsSupportedFormat(path) {
		return nil, fmt.Errorf("unsupported image format: %s", filepath.Ext(path))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}

	src := &Source{Path: path}
	if strings.ToLower(filepath.Ext(path)) == ".svg" {
		img, err := RasterizeSVG(bytes.NewReader(data), 0)
		if err != nil {
			return nil, fmt.Errorf("failed to rasterise svg: %w", err)
		}
		src.Image = img
		src.Format = "svg"
		return src, nil
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	src.Image = Flatten(img, color.White)
	src.Format = format

	if format == "tiff" {
		if dpi, err := extractTIFFDPI(bytes.NewReader(data)); err == nil {
			src.DPI = dpi
		}
	}
	return src, nil
}

// Width returns the image width in pixels.
func (s *Source) Width() int {
	if s.Image == nil {
		return 0
	}
	return s.Image.Bounds().Dx()
}

// Height returns the image height in pixels.
func (s *Source) Height() int {
	if s.Image == nil {
		return 0
	}
	return s.Image.Bounds().Dy()
}

// Size returns the image dimensions.
func (s *Source) Size() geometry.SizeInt {
	return geometry.SizeInt{Width: s.Width(), Height: s.Height()}
}

// PhysicalSize returns the printed size in millimetres if DPI is known.
func (s *Source) PhysicalSize() (geometry.Size, bool) {
	if s.DPI == 0 {
		return geometry.Size{}, false
	}
	return geometry.Size{
		Width:  float64(s.Width()) / s.DPI * 25.4,
		Height: float64(s.Height()) / s.DPI * 25.4,
	}, true
}

// RasterizeSVG renders an SVG document onto a white canvas. With maxSide
// zero the canvas matches the viewBox; otherwise the longer side is scaled
// to maxSide pixels.
func RasterizeSVG(r io.Reader, maxSide int) (*image.RGBA, error) {
	icon, err := oksvg.ReadIconStream(r)
	if err != nil {
		return nil, err
	}

	w, h := icon.ViewBox.W, icon.ViewBox.H
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("empty viewBox %gx%g", w, h)
	}
	if maxSide > 0 {
		scale := float64(maxSide) / math.Max(w, h)
		w, h = w*scale, h*scale
	}
	width, height := int(math.Ceil(w)), int(math.Ceil(h))

	icon.SetTarget(0, 0, w, h)
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), &image.Uniform{color.White}, image.Point{}, draw.Src)

	scanner := rasterx.NewScannerGV(width, height, img, img.Bounds())
	scanner.SetClip(img.Bounds())
	raster := rasterx.NewDasher(width, height, scanner)
	icon.Draw(raster, 1.0)

	return img, nil
}

// extractTIFFDPI reads the resolution tags of the first IFD.
func extractTIFFDPI(r io.ReadSeeker) (float64, error) {
	header := make([]byte, 8)
	if _, err := io.ReadFull(r, header); err != nil {
		return 0, err
	}

	var byteOrder binary.ByteOrder
	if header[0] == 'I' && header[1] == 'I' {
		byteOrder = binary.LittleEndian
	} else if header[0] == 'M' && header[1] == 'M' {
		byteOrder = binary.BigEndian
	} else {
		return 0, fmt.Errorf("not a valid TIFF file")
	}

	ifdOffset := byteOrder.Uint32(header[4:8])
	if _, err := r.Seek(int64(ifdOffset), io.SeekStart); err != nil {
		return 0, err
	}

	var numEntries uint16
	if err := binary.Read(r, byteOrder, &numEntries); err != nil {
		return 0, err
	}

	var xRes, yRes float64
	var resUnit uint16 = 2 // inches

	entry := make([]byte, 12)
	for i := uint16(0); i < numEntries; i++ {
		if _, err := io.ReadFull(r, entry); err != nil {
			return 0, err
		}

		tag := byteOrder.Uint16(entry[0:2])
		fieldType := byteOrder.Uint16(entry[2:4])
		valueOffset := byteOrder.Uint32(entry[8:12])

		switch tag {
		case 282: // XResolution
			if fieldType == 5 {
				xRes = readTIFFRational(r, int64(valueOffset), byteOrder)
			}
		case 283: // YResolution
			if fieldType == 5 {
				yRes = readTIFFRational(r, int64(valueOffset), byteOrder)
			}
		case 296: // ResolutionUnit
			if fieldType == 3 {
				resUnit = byteOrder.Uint16(entry[8:10])
			}
		}
	}

	dpi := xRes
	if dpi == 0 {
		dpi = yRes
	}
	if dpi == 0 {
		return 0, fmt.Errorf("no resolution tags found")
	}
	if resUnit == 3 { // centimetres
		dpi *= 2.54
	}
	return dpi, nil
}

// readTIFFRational reads a RATIONAL value (two uint32s) and restores the
// read position.
func readTIFFRational(r io.ReadSeeker, offset int64, byteOrder binary.ByteOrder) float64 {
	pos, _ := r.Seek(0, io.SeekCurrent)
	defer r.Seek(pos, io.SeekStart)

	if _, err := r.Seek(offset, io.SeekStart); err != nil {
		return 0
	}
	var num, denom uint32
	if binary.Read(r, byteOrder, &num) != nil || binary.Read(r, byteOrder, &denom) != nil {
		return 0
	}
	if denom == 0 {
		return 0
	}
	return float64(num) / float64(denom)
}

// SupportedFormats returns the list of supported image formats.
func SupportedFormats() []string {
	return []string{".png", ".jpg", ".jpeg", ".tiff", ".tif", ".svg"}
}

// IsSupportedFormat checks if the given path has a supported image format.
func IsSupportedFormat(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, format := range SupportedFormats() {
		if ext == format {
			return true
		}
	}
	return false
}
