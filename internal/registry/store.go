// Package registry provides a SQLite-backed asset registry: textures, material
// instances, their texture parameters and static switches, plus the reverse
// index from a texture to the material instances that reference it.
package registry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/setanarut/ormpack/internal/registry/migrations"
	_ "modernc.org/sqlite"
)

// ErrNotFound indicates the requested asset is not registered.
var ErrNotFound = errors.New("asset not found")

// AssetKind classifies registered assets.
type AssetKind string

const (
	KindTexture          AssetKind = "texture"
	KindMaterialInstance AssetKind = "material_instance"
)

// Asset is one registry entry, keyed by its object path
// (e.g. "/Game/Rocks/Rocks_ORM.Rocks_ORM").
type Asset struct {
	ObjectPath string    `json:"objectPath"`
	Kind       AssetKind `json:"kind"`
	FilePath   string    `json:"filePath,omitempty"`
	Width      int       `json:"width,omitempty"`
	Height     int       `json:"height,omitempty"`
	Format     string    `json:"format,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// TextureParameter binds a texture asset to a named parameter of a material instance.
type TextureParameter struct {
	Material string `json:"material"`
	Name     string `json:"name"`
	Texture  string `json:"texture"`
}

// StaticSwitch is a boolean feature switch on a material instance.
type StaticSwitch struct {
	Material string `json:"material"`
	Name     string `json:"name"`
	Value    bool   `json:"value"`
	Override bool   `json:"override"`
}

// TextureRebind describes one atomic material edit: drop the Remove parameters,
// bind Texture under Name, and force Switch to SwitchValue.
type TextureRebind struct {
	Material    string
	Remove      []string
	Name        string
	Texture     string
	Switch      string
	SwitchValue bool
}

// Store persists the registry in SQLite.
type Store struct {
	sqlDB *sql.DB
	now   func() time.Time
}

// Open opens (creating if needed) a registry database and applies embedded migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("registry path is required")
	}
	cleanPath := filepath.Clean(path)
	if dir := filepath.Dir(cleanPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create registry dir: %w", err)
		}
	}
	dsn := cleanPath + "?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(context.Background(), sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB, now: time.Now}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func (s *Store) ready(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("registry is not configured")
	}
	return nil
}

// PutAsset inserts or updates an asset. CreatedAt is kept on update.
func (s *Store) PutAsset(ctx context.Context, a Asset) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	a.ObjectPath = strings.TrimSpace(a.ObjectPath)
	if a.ObjectPath == "" {
		return fmt.Errorf("object path is required")
	}
	switch a.Kind {
	case KindTexture, KindMaterialInstance:
	default:
		return fmt.Errorf("unknown asset kind %q", a.Kind)
	}
	now := s.now().UTC().UnixMilli()
	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO assets (object_path, kind, file_path, width, height, format, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (object_path) DO UPDATE SET
		   kind = excluded.kind,
		   file_path = excluded.file_path,
		   width = excluded.width,
		   height = excluded.height,
		   format = excluded.format,
		   updated_at = excluded.updated_at`,
		a.ObjectPath, string(a.Kind), a.FilePath, a.Width, a.Height, a.Format, now, now,
	)
	if err != nil {
		return fmt.Errorf("put asset %s: %w", a.ObjectPath, err)
	}
	return nil
}

const assetColumns = `object_path, kind, file_path, width, height, format, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAsset(row rowScanner) (Asset, error) {
	var (
		a                Asset
		kind             string
		created, updated int64
	)
	if err := row.Scan(&a.ObjectPath, &kind, &a.FilePath, &a.Width, &a.Height, &a.Format, &created, &updated); err != nil {
		return Asset{}, err
	}
	a.Kind = AssetKind(kind)
	a.CreatedAt = time.UnixMilli(created).UTC()
	a.UpdatedAt = time.UnixMilli(updated).UTC()
	return a, nil
}

// GetAsset returns the asset at objectPath or ErrNotFound.
func (s *Store) GetAsset(ctx context.Context, objectPath string) (Asset, error) {
	if err := s.ready(ctx); err != nil {
		return Asset{}, err
	}
	row := s.sqlDB.QueryRowContext(ctx, `SELECT `+assetColumns+` FROM assets WHERE object_path = ?`, objectPath)
	a, err := scanAsset(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Asset{}, fmt.Errorf("%w: %s", ErrNotFound, objectPath)
	}
	if err != nil {
		return Asset{}, fmt.Errorf("get asset %s: %w", objectPath, err)
	}
	return a, nil
}

// ListAssets returns assets of kind ordered by object path. An empty kind lists all.
func (s *Store) ListAssets(ctx context.Context, kind AssetKind) ([]Asset, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT `+assetColumns+` FROM assets WHERE ? = '' OR kind = ? ORDER BY object_path`,
		string(kind), string(kind),
	)
	if err != nil {
		return nil, fmt.Errorf("list assets: %w", err)
	}
	defer rows.Close()
	var out []Asset
	for rows.Next() {
		a, err := scanAsset(rows)
		if err != nil {
			return nil, fmt.Errorf("scan asset: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// SetTextureParameter binds texture under name on material, replacing any previous binding.
func (s *Store) SetTextureParameter(ctx context.Context, p TextureParameter) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if p.Material == "" || p.Name == "" || p.Texture == "" {
		return fmt.Errorf("material, name and texture are required")
	}
	if err := setTextureParameter(ctx, s.sqlDB, p); err != nil {
		return fmt.Errorf("set texture parameter %s on %s: %w", p.Name, p.Material, err)
	}
	return nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func setTextureParameter(ctx context.Context, db execer, p TextureParameter) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO texture_parameters (material_path, name, texture_path) VALUES (?, ?, ?)
		 ON CONFLICT (material_path, name) DO UPDATE SET texture_path = excluded.texture_path`,
		p.Material, p.Name, p.Texture,
	)
	return err
}

func setStaticSwitch(ctx context.Context, db execer, sw StaticSwitch) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO static_switches (material_path, name, value, override) VALUES (?, ?, ?, ?)
		 ON CONFLICT (material_path, name) DO UPDATE SET value = excluded.value, override = excluded.override`,
		sw.Material, sw.Name, boolInt(sw.Value), boolInt(sw.Override),
	)
	return err
}

// SetStaticSwitch sets a static switch on material.
func (s *Store) SetStaticSwitch(ctx context.Context, sw StaticSwitch) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if sw.Material == "" || sw.Name == "" {
		return fmt.Errorf("material and name are required")
	}
	if err := setStaticSwitch(ctx, s.sqlDB, sw); err != nil {
		return fmt.Errorf("set static switch %s on %s: %w", sw.Name, sw.Material, err)
	}
	return nil
}

// TextureParameters lists the texture bindings of material ordered by name.
func (s *Store) TextureParameters(ctx context.Context, material string) ([]TextureParameter, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT material_path, name, texture_path FROM texture_parameters WHERE material_path = ? ORDER BY name`,
		material,
	)
	if err != nil {
		return nil, fmt.Errorf("list texture parameters: %w", err)
	}
	defer rows.Close()
	var out []TextureParameter
	for rows.Next() {
		var p TextureParameter
		if err := rows.Scan(&p.Material, &p.Name, &p.Texture); err != nil {
			return nil, fmt.Errorf("scan texture parameter: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// StaticSwitches lists the static switches of material ordered by name.
func (s *Store) StaticSwitches(ctx context.Context, material string) ([]StaticSwitch, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT material_path, name, value, override FROM static_switches WHERE material_path = ? ORDER BY name`,
		material,
	)
	if err != nil {
		return nil, fmt.Errorf("list static switches: %w", err)
	}
	defer rows.Close()
	var out []StaticSwitch
	for rows.Next() {
		var (
			sw              StaticSwitch
			value, override int
		)
		if err := rows.Scan(&sw.Material, &sw.Name, &value, &override); err != nil {
			return nil, fmt.Errorf("scan static switch: %w", err)
		}
		sw.Value, sw.Override = value != 0, override != 0
		out = append(out, sw)
	}
	return out, rows.Err()
}

// ReferencingMaterials returns the material instances that bind texture under
// any parameter, ordered by object path.
func (s *Store) ReferencingMaterials(ctx context.Context, texture string) ([]string, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT DISTINCT material_path FROM texture_parameters WHERE texture_path = ? ORDER BY material_path`,
		texture,
	)
	if err != nil {
		return nil, fmt.Errorf("query referencing materials: %w", err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var m string
		if err := rows.Scan(&m); err != nil {
			return nil, fmt.Errorf("scan material path: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// RebindTextures applies edit in a single transaction.
func (s *Store) RebindTextures(ctx context.Context, edit TextureRebind) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if edit.Material == "" || edit.Name == "" || edit.Texture == "" {
		return fmt.Errorf("material, name and texture are required")
	}
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin rebind: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, name := range edit.Remove {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM texture_parameters WHERE material_path = ? AND name = ?`,
			edit.Material, name,
		); err != nil {
			return fmt.Errorf("remove parameter %s: %w", name, err)
		}
	}
	if err := setTextureParameter(ctx, tx, TextureParameter{Material: edit.Material, Name: edit.Name, Texture: edit.Texture}); err != nil {
		return fmt.Errorf("set parameter %s: %w", edit.Name, err)
	}
	if edit.Switch != "" {
		sw := StaticSwitch{Material: edit.Material, Name: edit.Switch, Value: edit.SwitchValue, Override: true}
		if err := setStaticSwitch(ctx, tx, sw); err != nil {
			return fmt.Errorf("set switch %s: %w", edit.Switch, err)
		}
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE assets SET updated_at = ? WHERE object_path = ?`,
		s.now().UTC().UnixMilli(), edit.Material,
	); err != nil {
		return fmt.Errorf("touch material: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit rebind: %w", err)
	}
	return nil
}

func boolInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
