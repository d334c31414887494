package convert

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"log/slog"
	"path/filepath"

	"golang.org/x/image/draw"

	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
	"git.home.luguber.info/inful/sitebuilder/internal/resource"
)

// Photo output sizes. Images are scaled to fit inside the box with the
// aspect ratio preserved.
const (
	ThumbnailWidth  = 640
	ThumbnailHeight = 360
	FullWidth       = 1280
	FullHeight      = 720

	defaultJPEGQuality = 85
)

// ImageCodec decodes source photos and encodes resized copies.
type ImageCodec interface {
	Decode(data []byte) (image.Image, error)
	Resize(img image.Image, width, height int) ([]byte, error)
}

// JPEGCodec resizes with bilinear interpolation and encodes JPEG.
type JPEGCodec struct {
	Quality int
}

func (c JPEGCodec) Decode(data []byte) (image.Image, error) {
	img, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode jpeg: %w", err)
	}
	return img, nil
}

func (c JPEGCodec) Resize(img image.Image, width, height int) ([]byte, error) {
	w, h := FitWithin(img.Bounds().Dx(), img.Bounds().Dy(), width, height)
	if w == 0 || h == 0 {
		return nil, fmt.Errorf("cannot resize empty image")
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.BiLinear.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)

	quality := c.Quality
	if quality <= 0 {
		quality = defaultJPEGQuality
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// FitWithin returns the largest size with the source aspect ratio that fits
// in maxW x maxH. Both dimensions are at least 1 for a non-empty source.
func FitWithin(srcW, srcH, maxW, maxH int) (int, int) {
	if srcW <= 0 || srcH <= 0 || maxW <= 0 || maxH <= 0 {
		return 0, 0
	}
	// Compare maxW/srcW against maxH/srcH without floating point.
	if maxW*srcH <= maxH*srcW {
		return maxW, max(1, srcH*maxW/srcW)
	}
	return max(1, srcW*maxH/srcH), maxH
}

// Photos writes a thumbnail and a full-size copy of each photo.
type Photos struct {
	codec  ImageCodec
	logger *slog.Logger
}

// NewPhotos creates the photo converter. A nil codec uses JPEGCodec.
func NewPhotos(codec ImageCodec, logger *slog.Logger) *Photos {
	if codec == nil {
		codec = JPEGCodec{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Photos{codec: codec, logger: logger}
}

// Convert always regenerates both sizes.
func (p *Photos) Convert(_ context.Context, res resource.Resource, outRoot string) error {
	p.logger.Info("Reading photo", logfields.Path(res.Path))
	raw, err := readSource(res.Path)
	if err != nil {
		return err
	}
	img, err := p.codec.Decode(raw)
	if err != nil {
		return fmt.Errorf("%s: %w", res.Path, err)
	}

	thumb, err := p.codec.Resize(img, ThumbnailWidth, ThumbnailHeight)
	if err != nil {
		return err
	}
	thumbPath := filepath.Join(outRoot, filepath.FromSlash(resource.ThumbnailLink(res.Name)))
	p.logger.Info("Building photo thumbnail", logfields.Resource(res.Name), logfields.Path(thumbPath))
	if err := writeOutput(thumbPath, thumb); err != nil {
		return err
	}

	full, err := p.codec.Resize(img, FullWidth, FullHeight)
	if err != nil {
		return err
	}
	fullPath := filepath.Join(outRoot, filepath.FromSlash(resource.ImageLink(res.Name)))
	p.logger.Info("Building fullsize photo", logfields.Resource(res.Name), logfields.Path(fullPath))
	return writeOutput(fullPath, full)
}
