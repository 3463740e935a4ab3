package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/setanarut/ormpack/internal/content"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Register every texture under the content root",
	Args:  cobra.NoArgs,
	RunE:  runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) error {
	root, err := contentRoot()
	if err != nil {
		return err
	}
	store, err := openRegistry()
	if err != nil {
		return err
	}
	defer store.Close()

	n, err := content.Scan(cmd.Context(), root, store)
	if err != nil {
		return err
	}
	fmt.Printf("Registered %d textures under %s\n", n, root.Dir)
	return nil
}
