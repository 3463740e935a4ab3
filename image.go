package ormpack

import (
	"fmt"
	"image"
	"image/color"
)

// SourceFromImage copies img into a SourceImage.
// *image.Gray becomes G8, *image.Gray16 becomes G16 (its Pix is big-endian, so the
// high byte of pixel i sits at i*2), anything else becomes BGRA8.
func SourceFromImage(img image.Image) *SourceImage {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	switch src := img.(type) {
	case *image.Gray:
		pix := make([]byte, w*h)
		for y := range h {
			off := src.PixOffset(b.Min.X, b.Min.Y+y)
			copy(pix[y*w:(y+1)*w], src.Pix[off:off+w])
		}
		return &SourceImage{Width: w, Height: h, Format: FormatG8, Pix: pix}
	case *image.Gray16:
		pix := make([]byte, w*h*2)
		for y := range h {
			off := src.PixOffset(b.Min.X, b.Min.Y+y)
			copy(pix[y*w*2:(y+1)*w*2], src.Pix[off:off+w*2])
		}
		return &SourceImage{Width: w, Height: h, Format: FormatG16, Pix: pix}
	default:
		pix := make([]byte, w*h*4)
		for y := range h {
			for x := range w {
				c := color.NRGBAModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA)
				o := (y*w + x) * 4
				pix[o+0] = c.B
				pix[o+1] = c.G
				pix[o+2] = c.R
				pix[o+3] = c.A
			}
		}
		return &SourceImage{Width: w, Height: h, Format: FormatBGRA8, Pix: pix}
	}
}

// Image returns the packed texture as NRGBA (R=roughness, G=metallic, B=occlusion).
func (c *CombinedImage) Image() *image.NRGBA {
	out := image.NewNRGBA(image.Rect(0, 0, c.Width, c.Height))
	for i := range c.Width * c.Height {
		s := c.Pix[i*4 : i*4+4 : i*4+4]
		d := out.Pix[i*4 : i*4+4 : i*4+4]
		d[0] = s[ChannelRoughness]
		d[1] = s[ChannelMetallic]
		d[2] = s[ChannelOcclusion]
		d[3] = s[ChannelAlpha]
	}
	return out
}

// CombinedFromImage reads a previously packed texture back into BGRA8 layout.
func CombinedFromImage(img image.Image) (*CombinedImage, error) {
	b := img.Bounds()
	if b.Empty() {
		return nil, fmt.Errorf("%w: empty image", ErrInvalidInput)
	}
	src := SourceFromImage(img)
	if src.Format == FormatBGRA8 {
		return &CombinedImage{Width: src.Width, Height: src.Height, Pix: src.Pix}, nil
	}
	// A grayscale file still decodes to a valid, if uniform, ORM texture.
	out := &CombinedImage{Width: src.Width, Height: src.Height, Pix: make([]byte, src.pixels()*4)}
	packRows(out, src, src, src, 0, src.Height)
	return out, nil
}

// Unpack splits a packed texture back into its three grayscale maps.
func Unpack(c *CombinedImage) (roughness, metallic, occlusion *image.Gray, err error) {
	if c == nil || c.Width <= 0 || c.Height <= 0 {
		return nil, nil, nil, fmt.Errorf("%w: empty combined image", ErrInvalidInput)
	}
	if len(c.Pix) != c.Width*c.Height*4 {
		return nil, nil, nil, fmt.Errorf("%w: combined image holds %d bytes, want %d",
			ErrInvalidInput, len(c.Pix), c.Width*c.Height*4)
	}
	rect := image.Rect(0, 0, c.Width, c.Height)
	roughness = image.NewGray(rect)
	metallic = image.NewGray(rect)
	occlusion = image.NewGray(rect)
	for i := range c.Width * c.Height {
		roughness.Pix[i] = c.Pix[i*4+ChannelRoughness]
		metallic.Pix[i] = c.Pix[i*4+ChannelMetallic]
		occlusion.Pix[i] = c.Pix[i*4+ChannelOcclusion]
	}
	return roughness, metallic, occlusion, nil
}
