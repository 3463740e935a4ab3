package content

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"io/fs"
	"log"
	"path/filepath"
	"strings"

	"github.com/setanarut/ormpack"
	"github.com/setanarut/ormpack/internal/registry"
	"github.com/setanarut/ormpack/utils"
)

// Scan registers every image file under root as a texture asset and returns
// how many were registered. Hidden directories are skipped, and files that do
// not decode are logged and skipped.
func Scan(ctx context.Context, root Root, reg Registrar) (int, error) {
	count := 0
	err := filepath.WalkDir(root.Dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			if path != root.Dir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !utils.IsImageFile(path) {
			return nil
		}
		if _, err := RegisterFile(ctx, root, reg, path); err != nil {
			if errors.Is(err, errUndecodable) {
				log.Printf("scan: skipping %s: %v", path, err)
				return nil
			}
			return err
		}
		count++
		return nil
	})
	if err != nil {
		return count, fmt.Errorf("scan %s: %w", root.Dir, err)
	}
	return count, nil
}

var errUndecodable = errors.New("cannot decode image header")

// RegisterFile registers one image file under root as a texture asset and
// returns its object path.
func RegisterFile(ctx context.Context, root Root, reg Registrar, path string) (string, error) {
	objectPath, err := root.ObjectPath(path)
	if err != nil {
		return "", err
	}
	rel, err := root.Rel(path)
	if err != nil {
		return "", err
	}
	cfg, _, err := utils.ReadImageConfig(path)
	if err != nil {
		return "", fmt.Errorf("%w: %w", errUndecodable, err)
	}
	asset := registry.Asset{
		ObjectPath: objectPath,
		Kind:       registry.KindTexture,
		FilePath:   rel,
		Width:      cfg.Width,
		Height:     cfg.Height,
		Format:     formatOf(cfg.ColorModel).String(),
	}
	if err := reg.PutAsset(ctx, asset); err != nil {
		return "", err
	}
	return objectPath, nil
}

// formatOf reports the pixel format a decoded image with model m is sampled as.
func formatOf(m color.Model) ormpack.PixelFormat {
	switch m {
	case color.GrayModel:
		return ormpack.FormatG8
	case color.Gray16Model:
		return ormpack.FormatG16
	default:
		return ormpack.FormatBGRA8
	}
}
