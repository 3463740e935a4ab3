package content

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/setanarut/ormpack"
	"github.com/setanarut/ormpack/internal/registry"
	"github.com/setanarut/ormpack/utils"
)

type fakeRegistrar struct {
	assets []registry.Asset
	err    error
}

func (f *fakeRegistrar) PutAsset(_ context.Context, a registry.Asset) error {
	if f.err != nil {
		return f.err
	}
	f.assets = append(f.assets, a)
	return nil
}

func combined2x2() *ormpack.CombinedImage {
	return &ormpack.CombinedImage{Width: 2, Height: 2, Pix: []byte{
		100, 1, 10, 255, 110, 2, 20, 255,
		120, 3, 30, 255, 130, 4, 40, 255,
	}}
}

func TestFileProviderLoad(t *testing.T) {
	root := newTestRoot(t)
	path := filepath.Join(root.Dir, "Rocks", "AO.png")
	writeGray(t, path, 3, 2, 77)

	src, err := FileProvider{Root: root}.Load(context.Background(), path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if src.Width != 3 || src.Height != 2 || src.Format != ormpack.FormatG8 || src.Pix[0] != 77 {
		t.Fatalf("source = %dx%d %v %v", src.Width, src.Height, src.Format, src.Pix)
	}
}

func TestFileProviderLoadErrors(t *testing.T) {
	root := newTestRoot(t)
	p := FileProvider{Root: root}
	if _, err := p.Load(context.Background(), filepath.Join(root.Dir, "missing.png")); err == nil {
		t.Fatal("expected error for missing file")
	}
	outside := filepath.Join(t.TempDir(), "AO.png")
	writeGray(t, outside, 1, 1, 0)
	if _, err := p.Load(context.Background(), outside); !errors.Is(err, ErrOutsideRoot) {
		t.Fatalf("err = %v, want %v", err, ErrOutsideRoot)
	}
	// Without a root, any readable file loads.
	if _, err := (FileProvider{}).Load(context.Background(), outside); err != nil {
		t.Fatalf("rootless load: %v", err)
	}
}

func TestFileSinkSave(t *testing.T) {
	root := newTestRoot(t)
	reg := &fakeRegistrar{}
	sink := FileSink{Root: root, Registry: reg}
	target := OutputPath(filepath.Join(root.Dir, "Rocks"), ".png")

	objectPath, err := sink.Save(context.Background(), combined2x2(), target)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if objectPath != "/Game/Rocks/Rocks_ORM.Rocks_ORM" {
		t.Fatalf("object path = %q", objectPath)
	}
	if len(reg.assets) != 1 {
		t.Fatalf("registered %d assets, want 1", len(reg.assets))
	}
	a := reg.assets[0]
	if a.Kind != registry.KindTexture || a.FilePath != "Rocks/Rocks_ORM.png" || a.Format != "BGRA8" || a.Width != 2 {
		t.Fatalf("asset = %+v", a)
	}

	img, err := utils.ReadImage(target)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	back, err := ormpack.CombinedFromImage(img)
	if err != nil {
		t.Fatalf("combined from image: %v", err)
	}
	for i, b := range combined2x2().Pix {
		if back.Pix[i] != b {
			t.Fatalf("pix[%d] = %d, want %d", i, back.Pix[i], b)
		}
	}
}

func TestFileSinkFailures(t *testing.T) {
	root := newTestRoot(t)
	ctx := context.Background()

	outside := filepath.Join(t.TempDir(), "X_ORM.png")
	if _, err := (FileSink{Root: root}).Save(ctx, combined2x2(), outside); !errors.Is(err, ormpack.ErrSinkFailure) {
		t.Fatalf("outside root: err = %v, want %v", err, ormpack.ErrSinkFailure)
	}

	regErr := errors.New("registry down")
	sink := FileSink{Root: root, Registry: &fakeRegistrar{err: regErr}}
	target := filepath.Join(root.Dir, "A", "A_ORM.png")
	_, err := sink.Save(ctx, combined2x2(), target)
	if !errors.Is(err, ormpack.ErrSinkFailure) || !errors.Is(err, regErr) {
		t.Fatalf("registry failure: err = %v", err)
	}
	if _, err := os.Stat(target); !os.IsNotExist(err) {
		t.Fatalf("unregistered output left on disk: %v", err)
	}

	bad := &ormpack.CombinedImage{Width: 2, Height: 2, Pix: make([]byte, 3)}
	if _, err := (FileSink{Root: root}).Save(ctx, bad, filepath.Join(root.Dir, "B_ORM.png")); !errors.Is(err, ormpack.ErrSinkFailure) {
		t.Fatalf("bad image: err = %v, want %v", err, ormpack.ErrSinkFailure)
	}
}

func TestScan(t *testing.T) {
	root := newTestRoot(t)
	writeGray(t, filepath.Join(root.Dir, "Rocks", "AO.png"), 4, 2, 1)
	writeGray(t, filepath.Join(root.Dir, "Rocks", "Roughness.png"), 4, 2, 1)
	writeGray(t, filepath.Join(root.Dir, ".cache", "AO.png"), 4, 2, 1)
	writeGray(t, filepath.Join(root.Dir, "Top.tif"), 1, 1, 1)

	reg := &fakeRegistrar{}
	n, err := Scan(context.Background(), root, reg)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if n != 3 || len(reg.assets) != 3 {
		t.Fatalf("scanned %d (%d registered), want 3", n, len(reg.assets))
	}
	byPath := map[string]registry.Asset{}
	for _, a := range reg.assets {
		byPath[a.ObjectPath] = a
	}
	ao, ok := byPath["/Game/Rocks/AO.AO"]
	if !ok || ao.Width != 4 || ao.Height != 2 || ao.Format != "G8" {
		t.Fatalf("AO asset = %+v (found %v)", ao, ok)
	}
	if _, ok := byPath["/Game/Top.Top"]; !ok {
		t.Fatalf("top-level texture not registered: %v", byPath)
	}
}
