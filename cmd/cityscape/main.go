// Command cityscape renders building footprints as extruded, height-colored
// solids in the terminal, serves the building list over HTTP, and exports
// the meshes as Wavefront OBJ.
package main

import (
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"cityscape/internal/config"
	"cityscape/internal/scene"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:          "cityscape",
	Short:        "Extruded 3D building footprints in the terminal",
	Long:         "Projects building footprints to a local plane, extrudes them to their height, colors them by height, and lets you pick buildings with the mouse.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		_ = godotenv.Load(".env")

		c, err := config.Load()
		if err != nil {
			return eris.Wrap(err, "load config")
		}
		if err := c.Validate(); err != nil {
			return err
		}
		cfg = c

		logCfg := cfg.Log
		// the viewer owns the terminal, so its logs go to a file
		if cmd.Name() == viewCmd.Name() && logCfg.File == "" {
			logCfg.File = filepath.Join(os.TempDir(), "cityscape.log")
		}
		if err := config.InitLogger(logCfg); err != nil {
			return eris.Wrap(err, "init logger")
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

// newBuilder makes a scene builder from the loaded configuration.
func newBuilder(rec scene.Recorder) (*scene.Builder, error) {
	opts, err := cfg.SceneOptions()
	if err != nil {
		return nil, err
	}
	return scene.NewBuilder(opts, rec)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
