// Package images turns loaded artwork into the cover blobs stored on albums:
// a bounded jpeg thumbnail plus a blurhash placeholder the player can render
// before the blob is decoded.
package images

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif" // Register GIF decoder
	"image/jpeg"
	_ "image/png" // Register PNG decoder
	"io"

	"github.com/bbrks/go-blurhash"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // Register WebP decoder

	"github.com/ariaplayer/aria-core/internal/domain"
)

const (
	// coverSize bounds the stored thumbnail's longer edge. Desktop UI renders
	// covers at 300px or less; 512 leaves headroom for high-dpi displays.
	coverSize = 512

	// blurHashSize is the working size for blurhash computation. The hash is
	// a low-resolution placeholder, so a small thumbnail produces nearly
	// identical results at a fraction of the cost.
	blurHashSize = 64

	jpegQuality = 85
)

// Decode reads an image in any registered format.
func Decode(r io.Reader) (image.Image, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}

// Process converts loaded artwork into a cover blob. The image is scaled
// down to fit coverSize (never scaled up), re-encoded as jpeg, and hashed
// into a blurhash placeholder.
func Process(img image.Image) (*domain.CoverImage, error) {
	thumb := scaleToFit(img, coverSize)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, thumb, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("encode cover: %w", err)
	}

	// 4x3 components: compact (~28 chars) yet detailed enough for covers.
	hash, err := blurhash.Encode(4, 3, scaleToFit(thumb, blurHashSize))
	if err != nil {
		return nil, fmt.Errorf("encode blurhash: %w", err)
	}

	return &domain.CoverImage{
		Format:   "jpeg",
		BlurHash: hash,
		Data:     buf.Bytes(),
	}, nil
}

// scaleToFit scales img down so its longer edge is at most size, keeping
// aspect ratio. Images already within bounds pass through untouched.
func scaleToFit(img image.Image, size int) image.Image {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= size && h <= size {
		return img
	}

	var dw, dh int
	if w > h {
		dw = size
		dh = max(1, (h*size)/w)
	} else {
		dh = size
		dw = max(1, (w*size)/h)
	}

	dst := image.NewRGBA(image.Rect(0, 0, dw, dh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	return dst
}
