package content

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/setanarut/ormpack"
	"github.com/setanarut/ormpack/internal/registry"
	"github.com/setanarut/ormpack/utils"
)

// Registrar records assets. *registry.Store satisfies it.
type Registrar interface {
	PutAsset(ctx context.Context, a registry.Asset) error
}

// FileSink writes packed textures under Root and registers them.
type FileSink struct {
	Root     Root
	Registry Registrar // optional
}

// Save encodes img to target (PNG or TIFF by extension) and returns the object
// path of the new texture asset. Every failure wraps ormpack.ErrSinkFailure.
// If registration fails the written file is removed.
func (s FileSink) Save(ctx context.Context, img *ormpack.CombinedImage, target string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%w: %w", ormpack.ErrSinkFailure, err)
	}
	if img == nil || len(img.Pix) != img.Width*img.Height*4 || img.Width <= 0 {
		return "", fmt.Errorf("%w: invalid combined image", ormpack.ErrSinkFailure)
	}
	objectPath, err := s.Root.ObjectPath(target)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ormpack.ErrSinkFailure, err)
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("%w: create dir: %w", ormpack.ErrSinkFailure, err)
	}
	if err := utils.SaveImage(img.Image(), target); err != nil {
		return "", fmt.Errorf("%w: write %s: %w", ormpack.ErrSinkFailure, target, err)
	}
	log.Printf("wrote %s (%dx%d)", target, img.Width, img.Height)

	if s.Registry == nil {
		return objectPath, nil
	}
	rel, _ := s.Root.Rel(target)
	asset := registry.Asset{
		ObjectPath: objectPath,
		Kind:       registry.KindTexture,
		FilePath:   rel,
		Width:      img.Width,
		Height:     img.Height,
		Format:     ormpack.CombinedFormat.String(),
	}
	if err := s.Registry.PutAsset(ctx, asset); err != nil {
		// An unregistered texture is not left behind.
		if rmErr := os.Remove(target); rmErr != nil {
			log.Printf("remove unregistered %s: %v", target, rmErr)
		}
		return "", fmt.Errorf("%w: register %s: %w", ormpack.ErrSinkFailure, objectPath, err)
	}
	return objectPath, nil
}
