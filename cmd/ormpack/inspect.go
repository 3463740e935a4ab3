package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/setanarut/ormpack"
	"github.com/setanarut/ormpack/utils"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <file>",
	Short: "Report channel statistics and surface zones of an ORM texture",
	Args:  cobra.ExactArgs(1),
	RunE:  runInspect,
}

func init() {
	inspectCmd.Flags().Int("zones", 0, "Number of surface zones to extract (0 = none)")
	inspectCmd.Flags().String("method", "dominant", "Zone extraction method: dominant or kmeans")
	inspectCmd.Flags().String("swatch", "", "Write a zone swatch image to this path")
	inspectCmd.Flags().Bool("json", false, "Print the report as JSON")
	rootCmd.AddCommand(inspectCmd)
}

type inspectOutput struct {
	File   string          `json:"file"`
	Report *ormpack.Report `json:"report"`
	Zones  []zoneOutput    `json:"zones,omitempty"`
}

type zoneOutput struct {
	Roughness uint8   `json:"roughness"`
	Metallic  uint8   `json:"metallic"`
	Occlusion uint8   `json:"occlusion"`
	Weight    float64 `json:"weight"`
}

func runInspect(cmd *cobra.Command, args []string) error {
	k, _ := cmd.Flags().GetInt("zones")
	methodStr, _ := cmd.Flags().GetString("method")
	swatch, _ := cmd.Flags().GetString("swatch")
	asJSON, _ := cmd.Flags().GetBool("json")

	method, err := utils.ParsePaletteMethod(methodStr)
	if err != nil {
		return err
	}
	if swatch != "" && k <= 0 {
		k = 5
	}

	img, err := utils.ReadImage(args[0])
	if err != nil {
		return fmt.Errorf("reading %s: %w", args[0], err)
	}
	combined, err := ormpack.CombinedFromImage(img)
	if err != nil {
		return err
	}
	report, err := ormpack.Inspect(combined)
	if err != nil {
		return err
	}

	out := inspectOutput{File: args[0], Report: report}
	if k > 0 {
		zones := utils.ExtractZones(combined.Image(), k, method)
		utils.SortZonesByRoughness(zones)
		for _, z := range zones {
			out.Zones = append(out.Zones, zoneOutput{
				Roughness: z.Roughness(),
				Metallic:  z.Metallic(),
				Occlusion: z.Occlusion(),
				Weight:    z.Weight,
			})
		}
		if swatch != "" {
			if err := utils.SaveSwatch(zones, 64, swatch); err != nil {
				return fmt.Errorf("writing swatch: %w", err)
			}
		}
	}

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}
	printReport(out)
	if swatch != "" {
		fmt.Printf("Swatch: %s\n", swatch)
	}
	return nil
}

func printReport(out inspectOutput) {
	r := out.Report
	fmt.Printf("File:       %s\n", out.File)
	fmt.Printf("Dimensions: %d x %d (%d samples)\n", r.Width, r.Height, r.Samples)
	fmt.Printf("Mean color: %s\n", r.MeanColor)
	for _, ch := range []struct {
		name string
		s    ormpack.ChannelStats
	}{
		{"Roughness", r.Roughness},
		{"Metallic", r.Metallic},
		{"Occlusion", r.Occlusion},
	} {
		fmt.Printf("  %-10s mean %6.2f  stddev %6.2f  min %3d  max %3d\n",
			ch.name, ch.s.Mean, ch.s.StdDev, ch.s.Min, ch.s.Max)
	}
	fmt.Printf("Correlation (R/M/O):\n")
	for _, row := range r.Correlation {
		fmt.Printf("  % .3f % .3f % .3f\n", row[0], row[1], row[2])
	}
	if r.TranslucentPixels > 0 {
		fmt.Printf("Translucent pixels: %d (alpha should be 255)\n", r.TranslucentPixels)
	}
	for i, z := range out.Zones {
		fmt.Printf("Zone %d: R=%3d M=%3d O=%3d  weight %.3f\n", i+1, z.Roughness, z.Metallic, z.Occlusion, z.Weight)
	}
}
