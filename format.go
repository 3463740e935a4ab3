package ormpack

import "fmt"

// PixelFormat tags the byte layout of a SourceImage.
type PixelFormat int

const (
	FormatInvalid PixelFormat = iota
	FormatG8
	FormatG16
	FormatBGRA8
	// FormatBGRE8 is BGRA8 with a shared exponent in alpha. Sampled like BGRA8.
	FormatBGRE8
	FormatRGBA16
	FormatRGBA16F
	FormatRGBA32F
	FormatR16F
	FormatR32F
)

func (f PixelFormat) String() string {
	switch f {
	case FormatG8:
		return "G8"
	case FormatG16:
		return "G16"
	case FormatBGRA8:
		return "BGRA8"
	case FormatBGRE8:
		return "BGRE8"
	case FormatRGBA16:
		return "RGBA16"
	case FormatRGBA16F:
		return "RGBA16F"
	case FormatRGBA32F:
		return "RGBA32F"
	case FormatR16F:
		return "R16F"
	case FormatR32F:
		return "R32F"
	case FormatInvalid:
		return "invalid"
	default:
		return fmt.Sprintf("PixelFormat(%d)", int(f))
	}
}

// ParsePixelFormat is the inverse of PixelFormat.String for named formats.
func ParsePixelFormat(s string) (PixelFormat, error) {
	for f := FormatG8; f <= FormatR32F; f++ {
		if f.String() == s {
			return f, nil
		}
	}
	return FormatInvalid, fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
}

// Sampled reports whether SampleGray has a dedicated extraction rule for f.
func (f PixelFormat) Sampled() bool {
	switch f {
	case FormatG8, FormatG16, FormatBGRA8, FormatBGRE8:
		return true
	default:
		return false
	}
}

// BytesPerPixel returns the stride of one pixel in f.
// Unrecognized formats report 1, matching the fallback sampler.
func (f PixelFormat) BytesPerPixel() int {
	switch f {
	case FormatG16, FormatR16F:
		return 2
	case FormatBGRA8, FormatBGRE8, FormatR32F:
		return 4
	case FormatRGBA16, FormatRGBA16F:
		return 8
	case FormatRGBA32F:
		return 16
	default:
		return 1
	}
}

// SourceImage is a read-only view over one single-channel (or
// channel-extractable) texture. The packer never retains it.
type SourceImage struct {
	Width  int
	Height int
	Format PixelFormat
	Pix    []byte
}

// CombinedImage is a packed ORM texture in BGRA8 byte order:
// B=occlusion, G=metallic, R=roughness, A=255.
// len(Pix) == Width*Height*4.
type CombinedImage struct {
	Width  int
	Height int
	Pix    []byte
}

// CombinedFormat is the fixed layout of every CombinedImage.
const CombinedFormat = FormatBGRA8

// Channel offsets inside one CombinedImage pixel.
const (
	ChannelOcclusion = 0
	ChannelMetallic  = 1
	ChannelRoughness = 2
	ChannelAlpha     = 3
)

func (s *SourceImage) pixels() int { return s.Width * s.Height }
