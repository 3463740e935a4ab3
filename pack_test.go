package ormpack

import (
	"bytes"
	"errors"
	"image"
	"math"
	"testing"
)

func gray8(w, h int, vals ...byte) *SourceImage {
	return &SourceImage{Width: w, Height: h, Format: FormatG8, Pix: vals}
}

func TestPackChannelsScenario(t *testing.T) {
	rough := gray8(2, 2, 10, 20, 30, 40)
	metal := gray8(2, 2, 1, 2, 3, 4)
	ao := gray8(2, 2, 100, 110, 120, 130)

	got, err := PackChannels(rough, metal, ao)
	if err != nil {
		t.Fatalf("pack: %v", err)
	}
	want := []byte{100, 1, 10, 255, 110, 2, 20, 255, 120, 3, 30, 255, 130, 4, 40, 255}
	if !bytes.Equal(got.Pix, want) {
		t.Fatalf("pix = %v, want %v", got.Pix, want)
	}
	if got.Width != 2 || got.Height != 2 {
		t.Fatalf("size = %dx%d, want 2x2", got.Width, got.Height)
	}
}

func TestPackChannelsDimensionMismatch(t *testing.T) {
	rough := gray8(4, 4, make([]byte, 16)...)
	metal := gray8(2, 2, 1, 2, 3, 4)
	ao := gray8(2, 2, 5, 6, 7, 8)

	got, err := PackChannels(rough, metal, ao)
	if !errors.Is(err, ErrDimensionMismatch) {
		t.Fatalf("err = %v, want %v", err, ErrDimensionMismatch)
	}
	if got != nil {
		t.Fatalf("expected no output on failure")
	}

	// Same pixel count, different shape.
	_, err = PackChannels(gray8(4, 1, 1, 2, 3, 4), gray8(2, 2, 1, 2, 3, 4), gray8(2, 2, 1, 2, 3, 4))
	if !errors.Is(err, ErrDimensionMismatch) {
		t.Fatalf("err = %v, want %v", err, ErrDimensionMismatch)
	}
}

func TestPackChannelsInvalidInput(t *testing.T) {
	ok := gray8(2, 2, 1, 2, 3, 4)
	cases := []struct {
		name string
		r    *SourceImage
		m    *SourceImage
		o    *SourceImage
	}{
		{"nil roughness", nil, ok, ok},
		{"nil metallic", ok, nil, ok},
		{"nil occlusion", ok, ok, nil},
		{"empty buffer", ok, &SourceImage{Width: 2, Height: 2, Format: FormatG8}, ok},
		{"zero size", ok, ok, &SourceImage{Format: FormatG8, Pix: []byte{1}}},
		{"short g16", ok, &SourceImage{Width: 2, Height: 2, Format: FormatG16, Pix: []byte{1, 2, 3, 4}}, ok},
		{"short bgra", &SourceImage{Width: 2, Height: 2, Format: FormatBGRA8, Pix: make([]byte, 15)}, ok, ok},
		{"wrapping size", &SourceImage{Width: math.MaxInt/2 + 1, Height: 2, Format: FormatG8, Pix: []byte{1}}, ok, ok},
		{"oversized width", ok, &SourceImage{Width: math.MaxInt/4 + 1, Height: 1, Format: FormatBGRA8, Pix: make([]byte, 4)}, ok},
		{"oversized float", ok, ok, &SourceImage{Width: math.MaxInt / 8, Height: 1, Format: FormatRGBA32F, Pix: make([]byte, 16)}},
	}
	for _, tc := range cases {
		got, err := PackChannels(tc.r, tc.m, tc.o)
		if !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("%s: err = %v, want %v", tc.name, err, ErrInvalidInput)
		}
		if got != nil {
			t.Fatalf("%s: expected no output", tc.name)
		}
	}
}

func TestPackInvalidInputCheckedBeforeDimensions(t *testing.T) {
	_, err := PackChannels(gray8(4, 4, make([]byte, 16)...), nil, gray8(2, 2, 1, 2, 3, 4))
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("err = %v, want %v", err, ErrInvalidInput)
	}
}

func TestPackDeterministic(t *testing.T) {
	rough, metal, ao := randomSources(37, 23)
	a, err := PackChannels(rough, metal, ao)
	if err != nil {
		t.Fatalf("pack: %v", err)
	}
	b, err := PackChannels(rough, metal, ao)
	if err != nil {
		t.Fatalf("pack: %v", err)
	}
	if !bytes.Equal(a.Pix, b.Pix) {
		t.Fatalf("repeated pack produced different bytes")
	}
}

func TestPackParallelMatchesSequential(t *testing.T) {
	rough, metal, ao := randomSources(64, 61)
	seq, err := Pack(rough, metal, ao, Options{Workers: 1})
	if err != nil {
		t.Fatalf("sequential pack: %v", err)
	}
	for _, workers := range []int{2, 3, 7, 64, 200} {
		par, err := Pack(rough, metal, ao, Options{Workers: workers})
		if err != nil {
			t.Fatalf("pack with %d workers: %v", workers, err)
		}
		if !bytes.Equal(seq.Pix, par.Pix) {
			t.Fatalf("%d workers: output differs from sequential", workers)
		}
	}
}

func TestPackChannelPlacement(t *testing.T) {
	rough, metal, ao := randomSources(9, 5)
	out, err := Pack(rough, metal, ao, DefaultOptions())
	if err != nil {
		t.Fatalf("pack: %v", err)
	}
	for i := range 9 * 5 {
		if got, want := out.Pix[i*4+ChannelOcclusion], SampleGray(ao.Pix, ao.Format, i); got != want {
			t.Fatalf("pixel %d blue = %d, want %d", i, got, want)
		}
		if got, want := out.Pix[i*4+ChannelMetallic], SampleGray(metal.Pix, metal.Format, i); got != want {
			t.Fatalf("pixel %d green = %d, want %d", i, got, want)
		}
		if got, want := out.Pix[i*4+ChannelRoughness], SampleGray(rough.Pix, rough.Format, i); got != want {
			t.Fatalf("pixel %d red = %d, want %d", i, got, want)
		}
		if out.Pix[i*4+ChannelAlpha] != 255 {
			t.Fatalf("pixel %d alpha = %d, want 255", i, out.Pix[i*4+ChannelAlpha])
		}
	}
}

func TestPackMixedFormats(t *testing.T) {
	rough := &SourceImage{Width: 2, Height: 1, Format: FormatG16, Pix: []byte{0xAB, 0x01, 0xCD, 0x02}}
	metal := &SourceImage{Width: 2, Height: 1, Format: FormatBGRA8, Pix: []byte{1, 2, 3, 4, 5, 6, 7, 8}}
	ao := gray8(2, 1, 9, 10)

	out, err := PackChannels(rough, metal, ao)
	if err != nil {
		t.Fatalf("pack: %v", err)
	}
	want := []byte{9, 3, 0xAB, 255, 10, 7, 0xCD, 255}
	if !bytes.Equal(out.Pix, want) {
		t.Fatalf("pix = %v, want %v", out.Pix, want)
	}
}

func TestPackStrictFormats(t *testing.T) {
	odd := &SourceImage{Width: 2, Height: 1, Format: FormatRGBA16F, Pix: make([]byte, 16)}
	ok := gray8(2, 1, 1, 2)

	if _, err := Pack(ok, odd, ok, Options{StrictFormats: true}); !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("strict err = %v, want %v", err, ErrUnsupportedFormat)
	}
	if _, err := Pack(ok, odd, ok, Options{}); err != nil {
		t.Fatalf("fallback pack: %v", err)
	}
}

func TestOptionsFromSize(t *testing.T) {
	if got := OptionsFromSize(image.Pt(0, 10)); got != DefaultOptions() {
		t.Fatalf("empty size options = %+v, want defaults", got)
	}
	if got := OptionsFromSize(image.Pt(512, 512)).Workers; got != 1 {
		t.Fatalf("small texture workers = %d, want 1", got)
	}
	if got := OptionsFromSize(image.Pt(8192, 8192)).Workers; got < 1 {
		t.Fatalf("large texture workers = %d, want >= 1", got)
	}
}

func randomSources(w, h int) (rough, metal, ao *SourceImage) {
	n := w * h
	// xorshift keeps the fixture stable across runs.
	state := uint32(2463534242)
	next := func() byte {
		state ^= state << 13
		state ^= state >> 17
		state ^= state << 5
		return byte(state)
	}
	rough = &SourceImage{Width: w, Height: h, Format: FormatG8, Pix: make([]byte, n)}
	metal = &SourceImage{Width: w, Height: h, Format: FormatG16, Pix: make([]byte, n*2)}
	ao = &SourceImage{Width: w, Height: h, Format: FormatBGRA8, Pix: make([]byte, n*4)}
	for _, s := range []*SourceImage{rough, metal, ao} {
		for i := range s.Pix {
			s.Pix[i] = next()
		}
	}
	return rough, metal, ao
}

func BenchmarkPack(b *testing.B) {
	rough, metal, ao := randomSources(1024, 1024)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Pack(rough, metal, ao, DefaultOptions()); err != nil {
			b.Fatalf("pack: %v", err)
		}
	}
}

func BenchmarkPackParallel(b *testing.B) {
	rough, metal, ao := randomSources(2048, 2048)
	opt := OptionsFromSize(image.Pt(2048, 2048))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Pack(rough, metal, ao, opt); err != nil {
			b.Fatalf("pack: %v", err)
		}
	}
}
