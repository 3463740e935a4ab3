package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/setanarut/ormpack/internal/content"
	"github.com/setanarut/ormpack/internal/material"
	"github.com/setanarut/ormpack/internal/registry"
)

var materialCmd = &cobra.Command{
	Use:   "material",
	Short: "Register and query material instances",
}

var materialAddCmd = &cobra.Command{
	Use:   "add <folder-or-object-path>",
	Short: "Register a material instance and its texture parameters",
	Args:  cobra.ExactArgs(1),
	RunE:  runMaterialAdd,
}

var materialShowCmd = &cobra.Command{
	Use:   "show <folder-or-object-path>",
	Short: "Show texture parameters and static switches of a material instance",
	Args:  cobra.ExactArgs(1),
	RunE:  runMaterialShow,
}

var materialRefsCmd = &cobra.Command{
	Use:   "refs <texture-file-or-object-path>",
	Short: "List material instances that reference a texture",
	Args:  cobra.ExactArgs(1),
	RunE:  runMaterialRefs,
}

func init() {
	materialAddCmd.Flags().StringArray("param", nil, "Texture parameter as Name=<file>, repeatable")
	materialCmd.AddCommand(materialAddCmd, materialShowCmd, materialRefsCmd)
	rootCmd.AddCommand(materialCmd)
}

// resolveMaterial accepts a /Game object path or a material folder on disk.
func resolveMaterial(root content.Root, arg string) (string, error) {
	if strings.HasPrefix(arg, content.ObjectPrefix+"/") {
		if _, _, err := content.SplitObjectPath(arg); err != nil {
			return "", err
		}
		return arg, nil
	}
	info, err := os.Stat(arg)
	if err != nil {
		return "", err
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%s is not a material folder", arg)
	}
	return root.MaterialInstancePath(arg)
}

// resolveTexture accepts a /Game object path or a texture file on disk.
func resolveTexture(root content.Root, arg string) (string, error) {
	if strings.HasPrefix(arg, content.ObjectPrefix+"/") {
		if _, _, err := content.SplitObjectPath(arg); err != nil {
			return "", err
		}
		return arg, nil
	}
	return root.ObjectPath(arg)
}

func runMaterialAdd(cmd *cobra.Command, args []string) error {
	params, _ := cmd.Flags().GetStringArray("param")
	ctx := cmd.Context()

	root, err := contentRoot()
	if err != nil {
		return err
	}
	mi, err := resolveMaterial(root, args[0])
	if err != nil {
		return err
	}
	store, err := openRegistry()
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.PutAsset(ctx, registry.Asset{ObjectPath: mi, Kind: registry.KindMaterialInstance}); err != nil {
		return err
	}
	fmt.Printf("Material: %s\n", mi)
	for _, p := range params {
		name, file, ok := strings.Cut(p, "=")
		if !ok || name == "" || file == "" {
			return fmt.Errorf("invalid --param %q, want Name=<file>", p)
		}
		texture, err := content.RegisterFile(ctx, root, store, file)
		if err != nil {
			return fmt.Errorf("registering %s: %w", file, err)
		}
		if err := store.SetTextureParameter(ctx, registry.TextureParameter{Material: mi, Name: name, Texture: texture}); err != nil {
			return err
		}
		fmt.Printf("  %s = %s\n", name, texture)
	}
	return nil
}

func runMaterialShow(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	root, err := contentRoot()
	if err != nil {
		return err
	}
	mi, err := resolveMaterial(root, args[0])
	if err != nil {
		return err
	}
	store, err := openRegistry()
	if err != nil {
		return err
	}
	defer store.Close()

	asset, err := store.GetAsset(ctx, mi)
	if err != nil {
		return err
	}
	params, err := store.TextureParameters(ctx, mi)
	if err != nil {
		return err
	}
	switches, err := store.StaticSwitches(ctx, mi)
	if err != nil {
		return err
	}

	fmt.Printf("Material: %s (%s)\n", asset.ObjectPath, asset.Kind)
	fmt.Printf("Updated:  %s\n", asset.UpdatedAt.Format("2006-01-02 15:04:05"))
	fmt.Println("Texture parameters:")
	for _, p := range params {
		fmt.Printf("  %-10s %s\n", p.Name, p.Texture)
	}
	fmt.Println("Static switches:")
	for _, sw := range switches {
		fmt.Printf("  %-10s %t (override %t)\n", sw.Name, sw.Value, sw.Override)
	}
	return nil
}

func runMaterialRefs(cmd *cobra.Command, args []string) error {
	root, err := contentRoot()
	if err != nil {
		return err
	}
	texture, err := resolveTexture(root, args[0])
	if err != nil {
		return err
	}
	store, err := openRegistry()
	if err != nil {
		return err
	}
	defer store.Close()

	materials, err := material.NewBinder(store).Discover(cmd.Context(), texture)
	if err != nil {
		return err
	}
	if len(materials) == 0 {
		fmt.Printf("No material references %s\n", texture)
		return nil
	}
	for _, m := range materials {
		fmt.Println(m)
	}
	return nil
}
