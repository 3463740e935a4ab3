package main

import (
	"fmt"
	"image"

	"github.com/spf13/cobra"

	"github.com/setanarut/ormpack"
	"github.com/setanarut/ormpack/internal/content"
	"github.com/setanarut/ormpack/utils"
)

var unpackCmd = &cobra.Command{
	Use:   "unpack <file>",
	Short: "Split an ORM texture back into AO, Roughness and Metalic maps",
	Args:  cobra.ExactArgs(1),
	RunE:  runUnpack,
}

func init() {
	unpackCmd.Flags().StringP("output", "o", "", "Output directory")
	unpackCmd.MarkFlagRequired("output")
	rootCmd.AddCommand(unpackCmd)
}

func runUnpack(cmd *cobra.Command, args []string) error {
	outDir, _ := cmd.Flags().GetString("output")

	img, err := utils.ReadImage(args[0])
	if err != nil {
		return fmt.Errorf("reading %s: %w", args[0], err)
	}
	combined, err := ormpack.CombinedFromImage(img)
	if err != nil {
		return err
	}
	roughness, metallic, occlusion, err := ormpack.Unpack(combined)
	if err != nil {
		return err
	}

	written, err := utils.SaveGrayImages(map[string]*image.Gray{
		content.NameRoughness: roughness,
		content.NameMetallic:  metallic,
		content.NameOcclusion: occlusion,
	}, outDir, cfg.OutputExt())
	if err != nil {
		return fmt.Errorf("writing maps: %w", err)
	}
	for _, p := range written {
		fmt.Printf("Output: %s\n", p)
	}
	return nil
}
