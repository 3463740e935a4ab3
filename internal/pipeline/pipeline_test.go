package pipeline

import (
	"bytes"
	"context"
	"errors"
	"image"
	"os"
	"path/filepath"
	"testing"

	"github.com/setanarut/ormpack"
	"github.com/setanarut/ormpack/internal/content"
	"github.com/setanarut/ormpack/internal/material"
	"github.com/setanarut/ormpack/internal/registry"
	"github.com/setanarut/ormpack/utils"
)

func writeGray(t *testing.T, path string, w, h int, pix ...byte) {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, w, h))
	copy(img.Pix, pix)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := utils.SaveImage(img, path); err != nil {
		t.Fatalf("save %s: %v", path, err)
	}
}

type fixture struct {
	root   content.Root
	folder string
	store  *registry.Store
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	root, err := content.NewRoot(t.TempDir())
	if err != nil {
		t.Fatalf("new root: %v", err)
	}
	folder := filepath.Join(root.Dir, "Rocks")
	writeGray(t, filepath.Join(folder, "Roughness.png"), 2, 2, 10, 20, 30, 40)
	writeGray(t, filepath.Join(folder, "Metalic.png"), 2, 2, 1, 2, 3, 4)
	writeGray(t, filepath.Join(folder, "AO.png"), 2, 2, 100, 110, 120, 130)

	store, err := registry.Open(filepath.Join(t.TempDir(), "registry.db"))
	if err != nil {
		t.Fatalf("open registry: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return fixture{root: root, folder: folder, store: store}
}

func (f fixture) registerMaterial(t *testing.T, mi string) {
	t.Helper()
	ctx := context.Background()
	if _, err := content.Scan(ctx, f.root, f.store); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if err := f.store.PutAsset(ctx, registry.Asset{ObjectPath: mi, Kind: registry.KindMaterialInstance}); err != nil {
		t.Fatalf("put material: %v", err)
	}
	for _, name := range []string{"Roughness", "Metalic", "AO"} {
		p := registry.TextureParameter{Material: mi, Name: name, Texture: "/Game/Rocks/" + name + "." + name}
		if err := f.store.SetTextureParameter(ctx, p); err != nil {
			t.Fatalf("set parameter: %v", err)
		}
	}
}

func TestRunPacksFolder(t *testing.T) {
	f := newFixture(t)
	res, err := Run(context.Background(), f.folder, Options{Root: f.root, Registry: f.store})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.ObjectPath != "/Game/Rocks/Rocks_ORM.Rocks_ORM" || res.Width != 2 || res.Height != 2 {
		t.Fatalf("result = %+v", res)
	}
	if filepath.Base(res.Output) != "Rocks_ORM.png" {
		t.Fatalf("output = %s", res.Output)
	}

	img, err := utils.ReadImage(res.Output)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	got, err := ormpack.CombinedFromImage(img)
	if err != nil {
		t.Fatalf("combined: %v", err)
	}
	want := []byte{100, 1, 10, 255, 110, 2, 20, 255, 120, 3, 30, 255, 130, 4, 40, 255}
	if !bytes.Equal(got.Pix, want) {
		t.Fatalf("pix = %v, want %v", got.Pix, want)
	}

	a, err := f.store.GetAsset(context.Background(), res.ObjectPath)
	if err != nil {
		t.Fatalf("packed texture not registered: %v", err)
	}
	if a.Kind != registry.KindTexture || a.Format != "BGRA8" {
		t.Fatalf("asset = %+v", a)
	}
}

func TestRunWritesTIFF(t *testing.T) {
	f := newFixture(t)
	res, err := Run(context.Background(), f.folder, Options{Root: f.root, OutputExt: ".tif", Workers: 2})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if filepath.Ext(res.Output) != ".tif" {
		t.Fatalf("output = %s", res.Output)
	}
	if _, err := os.Stat(res.Output); err != nil {
		t.Fatalf("stat output: %v", err)
	}
}

func TestRunRebind(t *testing.T) {
	f := newFixture(t)
	mi := "/Game/Rocks/Rocks.Rocks"
	f.registerMaterial(t, mi)

	res, err := Run(context.Background(), f.folder, Options{
		Root:     f.root,
		Registry: f.store,
		Binder:   material.NewBinder(f.store),
		Rebind:   true,
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Material != mi || len(res.Rebound) != 1 {
		t.Fatalf("result = %+v", res)
	}
	params, err := f.store.TextureParameters(context.Background(), mi)
	if err != nil {
		t.Fatalf("parameters: %v", err)
	}
	if len(params) != 1 || params[0].Name != "ORM" || params[0].Texture != res.ObjectPath {
		t.Fatalf("parameters = %+v", params)
	}
}

func TestRunRetarget(t *testing.T) {
	f := newFixture(t)
	other := "/Game/Cliffs/Cliffs.Cliffs"
	f.registerMaterial(t, other)

	res, err := Run(context.Background(), f.folder, Options{
		Root:     f.root,
		Registry: f.store,
		Binder:   material.NewBinder(f.store),
		Retarget: true,
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(res.Rebound) != 1 || res.Rebound[0] != other {
		t.Fatalf("rebound = %v", res.Rebound)
	}
}

func TestRunErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := Run(ctx, f.folder, Options{Root: f.root, Rebind: true}); err == nil {
		t.Fatal("expected error for rebind without registry")
	}

	writeGray(t, filepath.Join(f.folder, "AO.png"), 4, 4)
	_, err := Run(ctx, f.folder, Options{Root: f.root})
	if !errors.Is(err, ormpack.ErrDimensionMismatch) {
		t.Fatalf("err = %v, want %v", err, ormpack.ErrDimensionMismatch)
	}
	if _, err := os.Stat(content.OutputPath(f.folder, ".png")); !os.IsNotExist(err) {
		t.Fatalf("output written despite mismatch: %v", err)
	}

	empty := filepath.Join(f.root.Dir, "Empty")
	if err := os.MkdirAll(empty, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if _, err := Run(ctx, empty, Options{Root: f.root}); !errors.Is(err, content.ErrSourceMissing) {
		t.Fatalf("err = %v, want %v", err, content.ErrSourceMissing)
	}
}

func TestRunTreatsNilStoreAsAbsent(t *testing.T) {
	f := newFixture(t)
	var store *registry.Store

	_, err := Run(context.Background(), f.folder, Options{
		Root:     f.root,
		Registry: store,
		Binder:   material.NewBinder(f.store),
		Rebind:   true,
	})
	if err == nil {
		t.Fatal("expected error for rebind with a nil store")
	}
	if _, statErr := os.Stat(content.OutputPath(f.folder, ".png")); !os.IsNotExist(statErr) {
		t.Fatalf("output written before the registry check: %v", statErr)
	}

	res, err := Run(context.Background(), f.folder, Options{Root: f.root, Registry: store})
	if err != nil {
		t.Fatalf("run without registry: %v", err)
	}
	if res.ObjectPath != "/Game/Rocks/Rocks_ORM.Rocks_ORM" {
		t.Fatalf("object path = %q", res.ObjectPath)
	}
}
