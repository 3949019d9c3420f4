package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/rastertools/sharpen/internal/pipeline"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "sharpen",
	Short: "Sharpen georeferenced rasters with seam-free windowed filtering",
	Long: `sharpen applies an edge-enhancement filter to tiled, georeferenced
rasters without loading a full image into memory.

Each native tile is read with a context margin sized to the filter
kernel, filtered, cropped back to its exact extent and written out, so
tile seams carry no filter edge artifacts. The batch mode reads a
GeoJSON descriptor (data.json) from the input root, sharpens every
raster it names and writes the rasters plus an updated descriptor to
the output root.

Examples:
  # Sharpen a batch with default (medium) strength
  sharpen --input /data/input --output /data/output

  # Strong unsharp masking with four concurrent tile workers
  sharpen --input /data/input --output /data/output --strength strong --workers 4

  # Single file with the 5x5 high-pass kernel
  sharpen file in.tif out.tif --method kernel-convolution

  # Start HTTP server
  sharpen serve --port 8080`,
	RunE: runBatch,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.sharpen.yaml)")
	rootCmd.PersistentFlags().String("strength", "medium", "sharpening strength (light|medium|strong)")
	rootCmd.PersistentFlags().String("method", "unsharp-mask", "filter method (unsharp-mask|kernel-convolution|frequency-domain)")
	rootCmd.PersistentFlags().Int("workers", 1, "concurrent tile workers per raster")
	rootCmd.PersistentFlags().String("work", "", "working directory for staged output (default: system temp)")

	// Batch mode flags
	rootCmd.Flags().StringP("input", "i", "/tmp/input", "input root holding rasters and data.json")
	rootCmd.Flags().StringP("output", "o", "/tmp/output", "output root for sharpened rasters")

	viper.BindPFlag("strength", rootCmd.PersistentFlags().Lookup("strength"))
	viper.BindPFlag("method", rootCmd.PersistentFlags().Lookup("method"))
	viper.BindPFlag("workers", rootCmd.PersistentFlags().Lookup("workers"))
	viper.BindPFlag("work", rootCmd.PersistentFlags().Lookup("work"))
	viper.BindPFlag("input", rootCmd.Flags().Lookup("input"))
	viper.BindPFlag("output", rootCmd.Flags().Lookup("output"))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		// Search config in home directory with name ".sharpen" (without extension).
		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".sharpen")
	}

	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func baseConfig() pipeline.Config {
	work := viper.GetString("work")
	if work == "" {
		work = os.TempDir()
	}
	return pipeline.Config{
		WorkRoot: work,
		Strength: viper.GetString("strength"),
		Method:   viper.GetString("method"),
		Workers:  viper.GetInt("workers"),
	}
}

func runBatch(cmd *cobra.Command, args []string) error {
	cfg := baseConfig()
	cfg.InputRoot = viper.GetString("input")
	cfg.OutputRoot = viper.GetString("output")

	p, err := pipeline.New(cfg)
	if err != nil {
		return err
	}

	results, err := p.Run(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Sharpened %d raster(s) into %s\n", len(results.Features), cfg.OutputRoot)
	return nil
}
