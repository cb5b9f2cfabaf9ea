// Package texture loads image files into RGBA textures ready for upload.
//
// The file type is sniffed from content, not the extension. PNG, JPEG,
// GIF, BMP, TIFF and WebP are supported. Images whose sides are not
// powers of two are rescaled up to the next power of two, since the
// fixed-function pipelines the scene format targets require it.
package texture

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"io"
	"os"

	// Registered image decoders.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/gogpu/gputypes"
	"github.com/h2non/filetype"
	xdraw "golang.org/x/image/draw"

	"github.com/gogpu/xscene"
)

// sniffLen is how many leading bytes the type matcher needs.
const sniffLen = 262

var errNotImage = errors.New("not a supported image")

// Texture is a decoded RGBA image.
type Texture struct {
	Path   string
	Image  *image.RGBA
	Format gputypes.TextureFormat
	Size   gputypes.Extent3D
	// Kind is the sniffed file type extension (png, jpg, ...).
	Kind string
}

// Decode reads an image from r and converts it to a power-of-two RGBA
// texture.
func Decode(r io.Reader) (*Texture, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	head := data[:min(len(data), sniffLen)]
	if !filetype.IsImage(head) {
		return nil, errNotImage
	}
	kind, err := filetype.Match(head)
	if err != nil {
		return nil, err
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", kind.Extension, err)
	}

	rgba := toPOT(img)
	b := rgba.Bounds()
	return &Texture{
		Image:  rgba,
		Format: gputypes.TextureFormatRGBA8Unorm,
		Size:   gputypes.NewExtent2D(uint32(b.Dx()), uint32(b.Dy())),
		Kind:   kind.Extension,
	}, nil
}

// Load reads the image file at path. Failures are *xscene.ResourceError.
func Load(path string) (*Texture, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &xscene.ResourceError{Op: "load texture", Path: path, Err: err}
	}
	defer f.Close()

	t, err := Decode(f)
	if err != nil {
		return nil, &xscene.ResourceError{Op: "load texture", Path: path, Err: err}
	}
	t.Path = path
	return t, nil
}

// toPOT converts img to RGBA, rescaling it when a side is not a power of
// two.
func toPOT(img image.Image) *image.RGBA {
	src := img.Bounds()
	w, h := nextPOT(src.Dx()), nextPOT(src.Dy())
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	if w == src.Dx() && h == src.Dy() {
		draw.Draw(dst, dst.Bounds(), img, src.Min, draw.Src)
		return dst
	}
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, src, xdraw.Src, nil)
	return dst
}

func nextPOT(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}
