package ormpack

import (
	"fmt"
	"image"
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"
)

type Options struct {
	// Goroutines used for the pixel loop. Rows are split into contiguous bands,
	// one per worker. Values below 2 run the loop on the calling goroutine.
	// Output does not depend on this value.
	Workers int
	// Reject sources whose format has no extraction rule instead of sampling
	// their first byte per pixel.
	StrictFormats bool
}

func DefaultOptions() Options {
	return Options{
		Workers:       1,
		StrictFormats: false,
	}
}

// OptionsFromSize picks a worker count for a texture of the given size.
// Small textures stay on one goroutine; the split only pays off past ~1MP.
func OptionsFromSize(size image.Point) Options {
	opt := DefaultOptions()
	if size.X <= 0 || size.Y <= 0 {
		return opt
	}
	pixels := size.X * size.Y
	cpus := runtime.NumCPU()
	switch {
	case pixels <= 1024*1024:
		opt.Workers = 1
	case pixels <= 2048*2048:
		opt.Workers = min(4, cpus)
	default:
		opt.Workers = cpus
	}
	return opt
}

// SampleGray extracts the grayscale byte of pixel i from pix.
//
//	G8           pix[i]
//	G16          pix[i*2]    high byte, low byte dropped
//	BGRA8/BGRE8  pix[i*4+2]  red
//	other        pix[i]
func SampleGray(pix []byte, format PixelFormat, i int) byte {
	switch format {
	case FormatG8:
		return pix[i]
	case FormatG16:
		return pix[i*2]
	case FormatBGRA8, FormatBGRE8:
		return pix[i*4+2]
	default:
		return pix[i]
	}
}

// PackChannels packs roughness, metallic and occlusion into one BGRA8 texture
// (R=roughness, G=metallic, B=occlusion, A=255), with options derived from
// the source size.
func PackChannels(roughness, metallic, occlusion *SourceImage) (*CombinedImage, error) {
	var size image.Point
	if roughness != nil {
		size = image.Pt(roughness.Width, roughness.Height)
	}
	return Pack(roughness, metallic, occlusion, OptionsFromSize(size))
}

// Pack is PackChannels with explicit options.
// All validation happens before the output buffer is allocated.
func Pack(roughness, metallic, occlusion *SourceImage, opt Options) (*CombinedImage, error) {
	sources := [...]struct {
		name string
		img  *SourceImage
	}{
		{"roughness", roughness},
		{"metallic", metallic},
		{"occlusion", occlusion},
	}
	for _, s := range sources {
		if err := validateSource(s.name, s.img); err != nil {
			return nil, err
		}
	}
	w, h := roughness.Width, roughness.Height
	for _, s := range sources[1:] {
		if s.img.Width != w || s.img.Height != h {
			return nil, fmt.Errorf("%w: %s is %dx%d, roughness is %dx%d",
				ErrDimensionMismatch, s.name, s.img.Width, s.img.Height, w, h)
		}
	}
	if opt.StrictFormats {
		for _, s := range sources {
			if !s.img.Format.Sampled() {
				return nil, fmt.Errorf("%w: %s is %s", ErrUnsupportedFormat, s.name, s.img.Format)
			}
		}
	}

	out := &CombinedImage{
		Width:  w,
		Height: h,
		Pix:    make([]byte, w*h*4),
	}

	workers := min(opt.Workers, h)
	if workers < 2 {
		packRows(out, roughness, metallic, occlusion, 0, h)
		return out, nil
	}

	band := (h + workers - 1) / workers
	var g errgroup.Group
	g.SetLimit(workers)
	for y0 := 0; y0 < h; y0 += band {
		y1 := min(y0+band, h)
		g.Go(func() error {
			packRows(out, roughness, metallic, occlusion, y0, y1)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// packRows fills rows [y0, y1) of out. Bands never overlap, so concurrent
// calls on distinct bands write disjoint parts of out.Pix.
func packRows(out *CombinedImage, roughness, metallic, occlusion *SourceImage, y0, y1 int) {
	for i := y0 * out.Width; i < y1*out.Width; i++ {
		o := i * 4
		out.Pix[o+ChannelOcclusion] = SampleGray(occlusion.Pix, occlusion.Format, i)
		out.Pix[o+ChannelMetallic] = SampleGray(metallic.Pix, metallic.Format, i)
		out.Pix[o+ChannelRoughness] = SampleGray(roughness.Pix, roughness.Format, i)
		out.Pix[o+ChannelAlpha] = 0xFF
	}
}

func validateSource(name string, s *SourceImage) error {
	if s == nil {
		return fmt.Errorf("%w: %s is nil", ErrInvalidInput, name)
	}
	if s.Width <= 0 || s.Height <= 0 {
		return fmt.Errorf("%w: %s has size %dx%d", ErrInvalidInput, name, s.Width, s.Height)
	}
	if len(s.Pix) == 0 {
		return fmt.Errorf("%w: %s has no pixel data", ErrInvalidInput, name)
	}
	// The output takes w*h*4 bytes; wider source layouts take w*h*bpp.
	if s.Width > math.MaxInt/max(4, s.Format.BytesPerPixel())/s.Height {
		return fmt.Errorf("%w: %s size %dx%d overflows", ErrInvalidInput, name, s.Width, s.Height)
	}
	need := s.pixels() * s.Format.BytesPerPixel()
	if len(s.Pix) < need {
		return fmt.Errorf("%w: %s holds %d bytes, %dx%d %s needs %d",
			ErrInvalidInput, name, len(s.Pix), s.Width, s.Height, s.Format, need)
	}
	return nil
}
