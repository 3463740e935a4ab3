// Package material swaps the separate roughness, metallic and occlusion
// texture parameters of material instances for a single packed ORM texture.
package material

import (
	"context"
	"errors"
	"fmt"
	"log"
	"slices"

	"github.com/setanarut/ormpack/internal/registry"
)

// Parameter and switch names expected on material instances.
const (
	ParamRoughness = "Roughness"
	ParamMetallic  = "Metalic"
	ParamAO        = "AO"
	ParamORM       = "ORM"
	SwitchUseORM   = "UseORM"
)

// SourceParams are the parameters Rebind removes.
var SourceParams = []string{ParamMetallic, ParamRoughness, ParamAO}

var (
	ErrMaterialNotFound = errors.New("material instance not found")
	ErrTextureNotFound  = errors.New("texture not found")
	ErrNotMaterial      = errors.New("asset is not a material instance")
	ErrNotTexture       = errors.New("asset is not a texture")
)

// Store is the registry surface the binder needs. *registry.Store satisfies it.
type Store interface {
	GetAsset(ctx context.Context, objectPath string) (registry.Asset, error)
	ReferencingMaterials(ctx context.Context, texture string) ([]string, error)
	RebindTextures(ctx context.Context, edit registry.TextureRebind) error
}

type Binder struct {
	Store Store
}

func NewBinder(store Store) *Binder {
	return &Binder{Store: store}
}

// Rebind removes the Roughness, Metalic and AO parameters from material,
// binds ormTexture as ORM and forces UseORM on. Both assets are checked
// before anything changes; the edit itself is one registry transaction.
func (b *Binder) Rebind(ctx context.Context, material, ormTexture string) error {
	if err := b.check(ctx, material, registry.KindMaterialInstance); err != nil {
		return err
	}
	if err := b.check(ctx, ormTexture, registry.KindTexture); err != nil {
		return err
	}
	err := b.Store.RebindTextures(ctx, registry.TextureRebind{
		Material:    material,
		Remove:      SourceParams,
		Name:        ParamORM,
		Texture:     ormTexture,
		Switch:      SwitchUseORM,
		SwitchValue: true,
	})
	if err != nil {
		return fmt.Errorf("rebind %s: %w", material, err)
	}
	log.Printf("rebound %s to %s", material, ormTexture)
	return nil
}

func (b *Binder) check(ctx context.Context, objectPath string, kind registry.AssetKind) error {
	notFound, wrongKind := ErrTextureNotFound, ErrNotTexture
	if kind == registry.KindMaterialInstance {
		notFound, wrongKind = ErrMaterialNotFound, ErrNotMaterial
	}
	a, err := b.Store.GetAsset(ctx, objectPath)
	if errors.Is(err, registry.ErrNotFound) {
		return fmt.Errorf("%w: %s", notFound, objectPath)
	}
	if err != nil {
		return err
	}
	if a.Kind != kind {
		return fmt.Errorf("%w: %s is a %s", wrongKind, objectPath, a.Kind)
	}
	return nil
}

// Discover lists the material instances that reference texture.
func (b *Binder) Discover(ctx context.Context, texture string) ([]string, error) {
	materials, err := b.Store.ReferencingMaterials(ctx, texture)
	if err != nil {
		return nil, fmt.Errorf("discover referencers of %s: %w", texture, err)
	}
	return materials, nil
}

// Retarget rebinds every material instance that references any of sources to
// ormTexture. A failing material does not stop the rest; the returned slice
// holds the materials that were rebound and the error joins every failure.
func (b *Binder) Retarget(ctx context.Context, sources []string, ormTexture string) ([]string, error) {
	var materials []string
	for _, src := range sources {
		found, err := b.Discover(ctx, src)
		if err != nil {
			return nil, err
		}
		materials = append(materials, found...)
	}
	slices.Sort(materials)
	materials = slices.Compact(materials)

	var (
		rebound []string
		errs    []error
	)
	for _, m := range materials {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if err := b.Rebind(ctx, m, ormTexture); err != nil {
			errs = append(errs, err)
			continue
		}
		rebound = append(rebound, m)
	}
	return rebound, errors.Join(errs...)
}
