package content

import (
	"context"
	"fmt"

	"github.com/setanarut/ormpack"
	"github.com/setanarut/ormpack/utils"
)

// FileProvider decodes source textures from disk.
type FileProvider struct {
	// Root, when set, confines Load to files under Root.Dir.
	Root Root
}

// Load decodes the image file at path into a SourceImage.
func (p FileProvider) Load(ctx context.Context, path string) (*ormpack.SourceImage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if p.Root.Dir != "" {
		if _, err := p.Root.Rel(path); err != nil {
			return nil, err
		}
	}
	img, err := utils.ReadImage(path)
	if err != nil {
		return nil, fmt.Errorf("load source: %w", err)
	}
	src := ormpack.SourceFromImage(img)
	if src.Width <= 0 || src.Height <= 0 {
		return nil, fmt.Errorf("%w: %s has no pixels", ormpack.ErrInvalidInput, path)
	}
	return src, nil
}
