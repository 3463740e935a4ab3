package main

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/setanarut/ormpack/internal/config"
	"github.com/setanarut/ormpack/internal/content"
	"github.com/setanarut/ormpack/internal/registry"
)

var cfg config.Config

var rootCmd = &cobra.Command{
	Use:           "ormpack",
	Short:         "Pack roughness, metallic and AO textures into one ORM texture",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		cfg = loaded
		return nil
	},
}

func init() {
	addRootFlags(rootCmd)
}

func addRootFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().String("content-root", "", "Content directory mounted at /Game (env ORMPACK_CONTENT_ROOT)")
	cmd.PersistentFlags().String("registry", "", "Asset registry database (env ORMPACK_REGISTRY_PATH)")
}

// loadConfig reads the environment, then lets flags set on cmd override it.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	loaded, err := config.Load()
	if err != nil {
		return config.Config{}, err
	}
	flags := cmd.Flags()
	if flags.Changed("content-root") {
		loaded.ContentRoot, _ = flags.GetString("content-root")
	}
	if flags.Changed("registry") {
		loaded.RegistryPath, _ = flags.GetString("registry")
	}
	if err := loaded.Validate(); err != nil {
		return config.Config{}, err
	}
	return loaded, nil
}

func main() {
	log.SetFlags(0)
	log.SetPrefix("[ORMPACK] ")
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func contentRoot() (content.Root, error) {
	return content.NewRoot(cfg.ContentRoot)
}

func openRegistry() (*registry.Store, error) {
	store, err := registry.Open(cfg.RegistryPath)
	if err != nil {
		return nil, fmt.Errorf("opening registry: %w", err)
	}
	return store, nil
}
