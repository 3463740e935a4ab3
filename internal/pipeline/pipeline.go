// Package pipeline turns one material folder into a packed ORM texture and
// optionally points material instances at it.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/setanarut/ormpack"
	"github.com/setanarut/ormpack/internal/content"
	"github.com/setanarut/ormpack/internal/material"
	"github.com/setanarut/ormpack/internal/registry"
)

// Options controls a pipeline run.
type Options struct {
	Root      content.Root      // required: content root the folder lives under
	Registry  content.Registrar // optional: registers the packed texture
	Binder    *material.Binder  // required when Rebind or Retarget is set
	Workers   int               // 0 derives the count from the texture size
	Strict    bool              // reject source formats without an extraction rule
	OutputExt string            // ".png" (default) or ".tif"
	Rebind    bool              // rebind the folder's own material instance
	Retarget  bool              // rebind every material referencing a source
}

// Result holds the output of a pipeline run.
type Result struct {
	Sources    content.SourceSet
	Output     string // file written
	ObjectPath string // object path of the packed texture
	Width      int
	Height     int
	Material   string   // folder material instance, set when Rebind ran
	Rebound    []string // materials now bound to the packed texture
}

// Run packs folder: find sources → load → pack → save → rebind.
func Run(ctx context.Context, folder string, opts Options) (*Result, error) {
	// A nil *registry.Store still makes a non-nil Registrar.
	if store, ok := opts.Registry.(*registry.Store); ok && store == nil {
		opts.Registry = nil
	}
	if (opts.Rebind || opts.Retarget) && (opts.Binder == nil || opts.Registry == nil) {
		return nil, errors.New("rebinding materials needs a registry")
	}
	if opts.OutputExt == "" {
		opts.OutputExt = ".png"
	}

	// 1. Resolve the three sources by name
	set, err := content.FindSources(folder)
	if err != nil {
		return nil, err
	}

	// 2. Decode them concurrently
	provider := content.FileProvider{Root: opts.Root}
	srcs := make([]*ormpack.SourceImage, 3)
	g, gctx := errgroup.WithContext(ctx)
	for i, path := range set.Paths() {
		g.Go(func() error {
			src, err := provider.Load(gctx, path)
			if err != nil {
				return err
			}
			srcs[i] = src
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// 3. Pack
	packOpts := ormpack.OptionsFromSize(image.Pt(srcs[0].Width, srcs[0].Height))
	if opts.Workers > 0 {
		packOpts.Workers = opts.Workers
	}
	packOpts.StrictFormats = opts.Strict
	combined, err := ormpack.Pack(srcs[0], srcs[1], srcs[2], packOpts)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", folder, err)
	}

	// 4. Save <Folder>_ORM next to the sources
	target := content.OutputPath(folder, opts.OutputExt)
	sink := content.FileSink{Root: opts.Root, Registry: opts.Registry}
	objectPath, err := sink.Save(ctx, combined, target)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Sources:    set,
		Output:     target,
		ObjectPath: objectPath,
		Width:      combined.Width,
		Height:     combined.Height,
	}

	// 5. Point materials at the packed texture
	if opts.Rebind {
		mi, err := opts.Root.MaterialInstancePath(folder)
		if err != nil {
			return res, err
		}
		if err := opts.Binder.Rebind(ctx, mi, objectPath); err != nil {
			return res, err
		}
		res.Material = mi
		res.Rebound = append(res.Rebound, mi)
	}
	if opts.Retarget {
		var sources []string
		for _, p := range set.Paths() {
			op, err := opts.Root.ObjectPath(p)
			if err != nil {
				return res, err
			}
			sources = append(sources, op)
		}
		rebound, err := opts.Binder.Retarget(ctx, sources, objectPath)
		res.Rebound = append(res.Rebound, rebound...)
		slices.Sort(res.Rebound)
		res.Rebound = slices.Compact(res.Rebound)
		if err != nil {
			return res, fmt.Errorf("retarget: %w", err)
		}
	}
	return res, nil
}
