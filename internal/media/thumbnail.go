package media

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"math"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

const (
	GalleryThumbnailWidth = 400
	ThumbnailQuality      = 80
	ThumbnailContentType  = "image/jpeg"
)

var ErrEmptyImage = errors.New("media: image has no pixels")

// Thumbnail scales src to exactly width pixels wide, keeping the aspect
// ratio, and re-encodes it as JPEG.
func Thumbnail(src []byte, width int) ([]byte, error) {
	if width <= 0 {
		return nil, fmt.Errorf("media: invalid thumbnail width %d", width)
	}

	img, _, err := image.Decode(bytes.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("media: decode image: %w", err)
	}

	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return nil, ErrEmptyImage
	}

	dst := image.NewRGBA(image.Rect(0, 0, width, ThumbnailHeight(b.Dx(), b.Dy(), width)))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: ThumbnailQuality}); err != nil {
		return nil, fmt.Errorf("media: encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}

// ThumbnailHeight is height * (width / srcWidth) rounded half away from
// zero, never below one pixel.
func ThumbnailHeight(srcWidth, srcHeight, width int) int {
	h := int(math.Round(float64(srcHeight) * float64(width) / float64(srcWidth)))
	if h < 1 {
		return 1
	}
	return h
}
