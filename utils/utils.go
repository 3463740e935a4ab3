package utils

import (
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"log"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/cenkalti/dominantcolor"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/muesli/clusters"
	"github.com/muesli/kmeans"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ImageExts lists the file extensions ReadImage can decode.
var ImageExts = []string{".png", ".jpg", ".jpeg", ".gif", ".bmp", ".tif", ".tiff", ".webp"}

// IsImageFile reports whether path has a decodable image extension.
func IsImageFile(path string) bool {
	return slices.Contains(ImageExts, strings.ToLower(filepath.Ext(path)))
}

type PaletteMethod int

const (
	PaletteMethodDominantColor PaletteMethod = iota
	PaletteMethodKMeans
)

func (m PaletteMethod) String() string {
	switch m {
	case PaletteMethodKMeans:
		return "kmeans"
	default:
		return "dominantcolor"
	}
}

func ParsePaletteMethod(s string) (PaletteMethod, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "dominantcolor", "dominant":
		return PaletteMethodDominantColor, nil
	case "kmeans":
		return PaletteMethodKMeans, nil
	default:
		return 0, fmt.Errorf("unknown palette method %q", s)
	}
}

// Zone is one recurring surface type of a packed ORM texture.
// Color carries the packed channels as R=roughness, G=metallic, B=occlusion.
type Zone struct {
	Color  colorful.Color
	Weight float64 // share of the sampled pixels, or a relative score for dominantcolor
}

func (z Zone) Roughness() uint8 { return to8(z.Color.R) }
func (z Zone) Metallic() uint8  { return to8(z.Color.G) }
func (z Zone) Occlusion() uint8 { return to8(z.Color.B) }

func to8(v float64) uint8 {
	return uint8(max(0, min(255, math.Round(v*255))))
}

// SortZonesByRoughness orders zones from smoothest to roughest,
// breaking ties by metallic.
func SortZonesByRoughness(zones []Zone) {
	slices.SortFunc(zones, func(a, b Zone) int {
		switch {
		case a.Color.R < b.Color.R:
			return -1
		case a.Color.R > b.Color.R:
			return 1
		case a.Color.G < b.Color.G:
			return -1
		case a.Color.G > b.Color.G:
			return 1
		}
		return 0
	})
}

func ExtractDominantZones(img image.Image, k int) []Zone {
	if k <= 0 {
		return nil
	}

	nCandidates := max(24, k*8)
	candidates := dominantcolor.FindWeight(img, nCandidates)
	if len(candidates) == 0 {
		// Mid-gray keeps the report non-empty for degenerate inputs.
		candidates = append(candidates, dominantcolor.Color{
			RGBA:   color.RGBA{R: 128, G: 128, B: 128, A: 255},
			Weight: 1.0,
		})
	}

	zones := make([]Zone, 0, len(candidates))
	for _, c := range candidates {
		col, _ := colorful.MakeColor(c.RGBA)
		zones = append(zones, Zone{Color: col.Clamped(), Weight: max(c.Weight, 1e-6)})
	}
	return SelectDistinctZones(zones, k)
}

// SelectDistinctZones greedily keeps k zones that are far apart in channel space,
// starting from the heaviest. Channels are data, not colour, so distance is plain
// Euclidean over (roughness, metallic, occlusion).
func SelectDistinctZones(cands []Zone, k int) []Zone {
	if k <= 0 || len(cands) == 0 {
		return nil
	}
	k = min(k, len(cands))
	maxW := 0.0
	for _, c := range cands {
		maxW = max(maxW, c.Weight)
	}
	if maxW <= 0 {
		maxW = 1.0
	}

	selected := make([]bool, len(cands))
	picked := make([]int, 0, k)

	seed := 0
	for i := 1; i < len(cands); i++ {
		if cands[i].Weight > cands[seed].Weight {
			seed = i
		}
	}
	picked = append(picked, seed)
	selected[seed] = true

	for len(picked) < k {
		bestIdx := -1
		bestScore := -1.0
		for i := range cands {
			if selected[i] {
				continue
			}
			minD := math.MaxFloat64
			for _, s := range picked {
				minD = min(minD, channelDistance(cands[i].Color, cands[s].Color))
			}
			score := minD * (0.55 + 0.45*math.Sqrt(cands[i].Weight/maxW))
			if score > bestScore {
				bestScore = score
				bestIdx = i
			}
		}
		if bestIdx < 0 {
			break
		}
		selected[bestIdx] = true
		picked = append(picked, bestIdx)
	}

	out := make([]Zone, 0, len(picked))
	for _, idx := range picked {
		out = append(out, cands[idx])
	}
	return out
}

func channelDistance(a, b colorful.Color) float64 {
	dr, dg, db := a.R-b.R, a.G-b.G, a.B-b.B
	return math.Sqrt(dr*dr + dg*dg + db*db)
}

func ExtractKMeansZones(img image.Image, k int) []Zone {
	if k <= 0 {
		return nil
	}

	b := img.Bounds()
	width, height := b.Dx(), b.Dy()
	if width == 0 || height == 0 {
		return nil
	}

	// Subsample to keep kmeans tractable on large textures.
	maxSamples := 12000
	step := 1
	if width*height > maxSamples {
		step = int(math.Sqrt(float64(width*height)/float64(maxSamples))) + 1
	}

	dataset := make(clusters.Observations, 0, min(width*height, maxSamples))
	for y := b.Min.Y; y < b.Max.Y; y += step {
		for x := b.Min.X; x < b.Max.X; x += step {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			dataset = append(dataset, clusters.Coordinates{
				float64(c.R) / 255.0,
				float64(c.G) / 255.0,
				float64(c.B) / 255.0,
			})
		}
	}
	if len(dataset) == 0 {
		return nil
	}

	workK := min(max(k*4, k+2), len(dataset))
	km := kmeans.New()
	cc, err := km.Partition(dataset, workK)
	if err != nil || len(cc) == 0 {
		return nil
	}

	zones := make([]Zone, 0, len(cc))
	for _, c := range cc {
		if len(c.Center) < 3 || len(c.Observations) == 0 {
			continue
		}
		zones = append(zones, Zone{
			Color:  colorful.Color{R: c.Center[0], G: c.Center[1], B: c.Center[2]}.Clamped(),
			Weight: float64(len(c.Observations)) / float64(len(dataset)),
		})
	}
	slices.SortFunc(zones, func(a, b Zone) int {
		switch {
		case a.Weight > b.Weight:
			return -1
		case a.Weight < b.Weight:
			return 1
		}
		return 0
	})
	return SelectDistinctZones(zones, k)
}

// ExtractZones lists up to k distinct surface zones of a packed texture image.
func ExtractZones(img image.Image, k int, method PaletteMethod) []Zone {
	switch method {
	case PaletteMethodKMeans:
		z := ExtractKMeansZones(img, k)
		if len(z) != 0 {
			return z
		}
		log.Println("zones warning: kmeans returned no clusters, falling back to dominantcolor")
		return ExtractDominantZones(img, k)
	default:
		return ExtractDominantZones(img, k)
	}
}

func ReadImage(path string) (image.Image, error) {
	file, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, err
	}
	defer file.Close()
	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return img, nil
}

// ReadImageConfig decodes only the header of an image file.
func ReadImageConfig(path string) (image.Config, string, error) {
	file, err := os.Open(filepath.Clean(path))
	if err != nil {
		return image.Config{}, "", err
	}
	defer file.Close()
	cfg, format, err := image.DecodeConfig(file)
	if err != nil {
		return image.Config{}, "", fmt.Errorf("decode config %s: %w", path, err)
	}
	return cfg, format, nil
}

// SaveImage encodes img by the extension of filename: .tif/.tiff as
// uncompressed TIFF, anything else as PNG.
func SaveImage(img image.Image, filename string) error {
	f, err := os.Create(filepath.Clean(filename))
	if err != nil {
		return err
	}
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".tif", ".tiff":
		err = tiff.Encode(f, img, &tiff.Options{Compression: tiff.Uncompressed})
	default:
		err = png.Encode(f, img)
	}
	if err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// SaveGrayImages writes each image to dir/<name><ext>.
func SaveGrayImages(images map[string]*image.Gray, dir, ext string) ([]string, error) {
	names := make([]string, 0, len(images))
	for name := range images {
		names = append(names, name)
	}
	slices.Sort(names)

	written := make([]string, 0, len(names))
	for _, name := range names {
		path := filepath.Join(dir, name+ext)
		if err := SaveImage(images[name], path); err != nil {
			return written, err
		}
		written = append(written, path)
	}
	return written, nil
}

// SaveSwatch renders zones as a strip of square tiles, in packed colours.
func SaveSwatch(zones []Zone, tileSize int, filename string) error {
	if len(zones) == 0 {
		return fmt.Errorf("empty zone list")
	}
	if tileSize <= 0 {
		tileSize = 64
	}

	w := tileSize * len(zones)
	h := tileSize
	img := image.NewRGBA(image.Rect(0, 0, w, h))

	for i, z := range zones {
		c := color.RGBA{R: z.Roughness(), G: z.Metallic(), B: z.Occlusion(), A: 255}
		x0 := i * tileSize
		x1 := x0 + tileSize
		for y := range h {
			for x := x0; x < x1; x++ {
				img.SetRGBA(x, y, c)
			}
		}
	}

	return SaveImage(img, filename)
}
