package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/setanarut/ormpack/internal/config"
	"github.com/setanarut/ormpack/internal/material"
	"github.com/setanarut/ormpack/internal/pipeline"
)

var packCmd = &cobra.Command{
	Use:   "pack <folder>...",
	Short: "Pack AO, Roughness and Metalic in each folder into <Folder>_ORM",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runPack,
}

func init() {
	addPackFlags(packCmd)
	rootCmd.AddCommand(packCmd)
}

func addPackFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("rebind", false, "Rebind the folder's material instance to the packed texture")
	cmd.Flags().Bool("retarget", false, "Rebind every material that references a source texture")
	cmd.Flags().Int("workers", 0, "Goroutines for the pixel loop (0 = by texture size)")
	cmd.Flags().Bool("strict", false, "Reject source formats without an extraction rule")
	cmd.Flags().String("format", "", "Output format: png or tiff (env ORMPACK_OUTPUT_FORMAT)")
}

// packConfig layers the pack flags set on cmd over base.
func packConfig(cmd *cobra.Command, base config.Config) (config.Config, error) {
	flags := cmd.Flags()
	if flags.Changed("workers") {
		base.Workers, _ = flags.GetInt("workers")
	}
	if flags.Changed("strict") {
		base.StrictFormats, _ = flags.GetBool("strict")
	}
	if flags.Changed("format") {
		base.OutputFormat, _ = flags.GetString("format")
	}
	if err := base.Validate(); err != nil {
		return config.Config{}, err
	}
	return base, nil
}

func runPack(cmd *cobra.Command, args []string) error {
	rebind, _ := cmd.Flags().GetBool("rebind")
	retarget, _ := cmd.Flags().GetBool("retarget")
	packCfg, err := packConfig(cmd, cfg)
	if err != nil {
		return err
	}
	cfg = packCfg

	root, err := contentRoot()
	if err != nil {
		return err
	}
	store, err := openRegistry()
	if err != nil {
		return err
	}
	defer store.Close()

	opts := pipeline.Options{
		Root:      root,
		Registry:  store,
		Workers:   cfg.Workers,
		Strict:    cfg.StrictFormats,
		OutputExt: cfg.OutputExt(),
		Rebind:    rebind,
		Retarget:  retarget,
	}
	if rebind || retarget {
		opts.Binder = material.NewBinder(store)
	}

	var failed []error
	for _, folder := range args {
		res, err := pipeline.Run(cmd.Context(), folder, opts)
		if err != nil {
			failed = append(failed, fmt.Errorf("%s: %w", folder, err))
			continue
		}
		fmt.Printf("Packed %dx%d ORM\n", res.Width, res.Height)
		fmt.Printf("Output: %s (%s)\n", res.Output, res.ObjectPath)
		for _, m := range res.Rebound {
			fmt.Printf("Rebound: %s\n", m)
		}
	}
	return errors.Join(failed...)
}
