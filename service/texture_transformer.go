package service

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"log"

	"github.com/disintegration/imaging"

	"goes-decal-sync/models"
)

const (
	textureFilename = "goes19.png"
	textureMIMEType = "image/png"
)

// TextureTransformer turns the full-disk image into a circular, transparent PNG texture
type TextureTransformer struct {
	maxSize int
}

// NewTextureTransformer creates a TextureTransformer capping both sides at maxSize pixels
func NewTextureTransformer(maxSize int) *TextureTransformer {
	return &TextureTransformer{maxSize: maxSize}
}

// Transform decodes imageData, center-crops it to a square, resizes it down to maxSize,
// masks everything outside the inscribed circle to transparent and encodes PNG
func (t *TextureTransformer) Transform(imageData []byte) (*models.ImagePayload, error) {
	if len(imageData) == 0 {
		return nil, errors.New("failed to transform image: empty input")
	}

	img, format, err := image.Decode(bytes.NewReader(imageData))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	log.Printf("🎨 Image decoded: format=%s, bounds=%v", format, img.Bounds())

	bounds := img.Bounds()
	side := bounds.Dx()
	if bounds.Dy() < side {
		side = bounds.Dy()
	}
	if side == 0 {
		return nil, errors.New("failed to transform image: zero-sized image")
	}

	square := imaging.CropCenter(img, side, side)
	if t.maxSize > 0 && side > t.maxSize {
		log.Printf("📏 Resizing texture: %dx%d -> %dx%d", side, side, t.maxSize, t.maxSize)
		square = imaging.Resize(square, t.maxSize, t.maxSize, imaging.Lanczos)
	}

	masked := circleMask(square)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, masked, imaging.PNG); err != nil {
		return nil, fmt.Errorf("failed to encode to PNG: %w", err)
	}

	log.Printf("✓ Texture ready: %dx%d, %d bytes", masked.Bounds().Dx(), masked.Bounds().Dy(), buf.Len())
	return &models.ImagePayload{
		Data:     buf.Bytes(),
		MIMEType: textureMIMEType,
		Filename: textureFilename,
	}, nil
}

// circleMask clears the alpha of every pixel whose center lies outside the inscribed circle
func circleMask(src *image.NRGBA) *image.NRGBA {
	out := imaging.Clone(src)
	b := out.Bounds()
	w, h := float64(b.Dx()), float64(b.Dy())
	cx, cy := w/2, h/2
	r := cx
	if cy < r {
		r = cy
	}
	r2 := r * r

	transparent := color.NRGBA{}
	for y := 0; y < b.Dy(); y++ {
		dy := float64(y) + 0.5 - cy
		for x := 0; x < b.Dx(); x++ {
			dx := float64(x) + 0.5 - cx
			if dx*dx+dy*dy > r2 {
				out.SetNRGBA(b.Min.X+x, b.Min.Y+y, transparent)
			}
		}
	}
	return out
}
