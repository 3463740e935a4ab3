package ormpack

import (
	"fmt"
	"math"

	"github.com/lucasb-eyer/go-colorful"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// maxInspectSamples caps the pixels read by Inspect; larger textures are
// sampled on a regular grid.
const maxInspectSamples = 1 << 18

// ChannelStats summarizes one channel in [0,255].
type ChannelStats struct {
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"stdDev"`
	Min    uint8   `json:"min"`
	Max    uint8   `json:"max"`
}

// Report describes a packed texture.
type Report struct {
	Width     int          `json:"width"`
	Height    int          `json:"height"`
	Samples   int          `json:"samples"`
	Roughness ChannelStats `json:"roughness"`
	Metallic  ChannelStats `json:"metallic"`
	Occlusion ChannelStats `json:"occlusion"`
	// Pearson correlation between channels, rows/cols ordered
	// roughness, metallic, occlusion. Constant channels report 0.
	Correlation [3][3]float64 `json:"correlation"`
	// Mean packed color as #rrggbb (R=roughness, G=metallic, B=occlusion).
	MeanColor string `json:"meanColor"`
	// Alpha bytes that are not 255. Always 0 for PackChannels output.
	TranslucentPixels int `json:"translucentPixels"`
}

// Inspect computes channel statistics for c.
func Inspect(c *CombinedImage) (*Report, error) {
	if c == nil || c.Width <= 0 || c.Height <= 0 || len(c.Pix) < c.Width*c.Height*4 {
		return nil, fmt.Errorf("%w: cannot inspect empty or truncated image", ErrInvalidInput)
	}
	w, h := c.Width, c.Height
	step := 1
	if w*h > maxInspectSamples {
		step = int(math.Sqrt(float64(w*h)/float64(maxInspectSamples))) + 1
	}

	var rough, metal, ao []float64
	data := make([]float64, 0, min(w*h, maxInspectSamples)*3)
	rep := &Report{Width: w, Height: h}
	for i := range w * h {
		if c.Pix[i*4+ChannelAlpha] != 0xFF {
			rep.TranslucentPixels++
		}
	}
	for y := 0; y < h; y += step {
		for x := 0; x < w; x += step {
			o := (y*w + x) * 4
			r := float64(c.Pix[o+ChannelRoughness])
			m := float64(c.Pix[o+ChannelMetallic])
			a := float64(c.Pix[o+ChannelOcclusion])
			rough = append(rough, r)
			metal = append(metal, m)
			ao = append(ao, a)
			data = append(data, r, m, a)
		}
	}
	rep.Samples = len(rough)
	rep.Roughness = channelStats(rough)
	rep.Metallic = channelStats(metal)
	rep.Occlusion = channelStats(ao)

	if rep.Samples > 1 {
		var corr mat.SymDense
		stat.CorrelationMatrix(&corr, mat.NewDense(rep.Samples, 3, data), nil)
		for i := range 3 {
			for j := range 3 {
				v := corr.At(i, j)
				if math.IsNaN(v) || math.IsInf(v, 0) {
					v = 0
				}
				rep.Correlation[i][j] = v
			}
		}
	}

	mean := colorful.Color{
		R: rep.Roughness.Mean / 255,
		G: rep.Metallic.Mean / 255,
		B: rep.Occlusion.Mean / 255,
	}
	rep.MeanColor = mean.Clamped().Hex()
	return rep, nil
}

func channelStats(vals []float64) ChannelStats {
	var cs ChannelStats
	if len(vals) == 0 {
		return cs
	}
	cs.Mean, cs.StdDev = stat.MeanStdDev(vals, nil)
	if math.IsNaN(cs.StdDev) {
		cs.StdDev = 0
	}
	lo, hi := vals[0], vals[0]
	for _, v := range vals[1:] {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	cs.Min, cs.Max = uint8(lo), uint8(hi)
	return cs
}
