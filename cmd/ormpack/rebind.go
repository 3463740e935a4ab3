package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/setanarut/ormpack/internal/material"
)

var rebindCmd = &cobra.Command{
	Use:   "rebind <material> <orm-texture>",
	Short: "Replace Roughness, Metalic and AO parameters of a material with an ORM texture",
	Args:  cobra.ExactArgs(2),
	RunE:  runRebind,
}

func init() {
	rootCmd.AddCommand(rebindCmd)
}

func runRebind(cmd *cobra.Command, args []string) error {
	root, err := contentRoot()
	if err != nil {
		return err
	}
	mi, err := resolveMaterial(root, args[0])
	if err != nil {
		return err
	}
	texture, err := resolveTexture(root, args[1])
	if err != nil {
		return err
	}
	store, err := openRegistry()
	if err != nil {
		return err
	}
	defer store.Close()

	if err := material.NewBinder(store).Rebind(cmd.Context(), mi, texture); err != nil {
		return err
	}
	fmt.Printf("Rebound %s to %s\n", mi, texture)
	return nil
}
