package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"glrlm3d/internal/dicomio"
	"glrlm3d/internal/render"
	"glrlm3d/pkg/config"
	"glrlm3d/pkg/discretize"
	"glrlm3d/pkg/extractor"
	"glrlm3d/pkg/features"
)

func main() {
	root := &cobra.Command{
		Use:           "glrlm3d",
		Short:         "Gray-level run-length texture features for 3D medical volumes",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newExtractCmd(), newFeaturesCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// newFeaturesCmd lists the registry in canonical order.
func newFeaturesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "features",
		Short: "List the available feature names",
		Run: func(cmd *cobra.Command, args []string) {
			for _, name := range features.Names() {
				fmt.Println(name)
			}
		},
	}
}

// newExtractCmd computes features for one image/mask pair of DICOM
// series directories.
func newExtractCmd() *cobra.Command {
	var (
		imageDir   string
		maskDir    string
		configPath string
		binWidth   float64
		binCount   int
		enabled    []string
		previewDir string
	)

	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Compute run-length features for a DICOM image and mask",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(configPath)
			if err != nil {
				return err
			}
			if binWidth > 0 || binCount > 0 {
				cfg.Discretization.BinWidth = binWidth
				cfg.Discretization.BinCount = binCount
			}
			if len(enabled) > 0 {
				cfg.Features.Enabled = enabled
			}
			if previewDir != "" {
				cfg.Output.PreviewDir = previewDir
			}

			params, err := cfg.ExtractorParams()
			if err != nil {
				return err
			}

			if cfg.Output.Verbose {
				fmt.Println("Loading image series...")
			}
			image, err := dicomio.LoadSeries(imageDir)
			if err != nil {
				return err
			}
			if cfg.Output.Verbose {
				fmt.Println("Loading mask series...")
			}
			mask, err := dicomio.LoadSeries(maskDir)
			if err != nil {
				return err
			}
			grid, err := dicomio.BuildGrid(image, mask)
			if err != nil {
				return err
			}
			if cfg.Output.Verbose {
				fmt.Printf("Loaded %dx%dx%d volume, %d voxels in region of interest\n",
					grid.Width(), grid.Height(), grid.Depth(), grid.MaskedCount())
			}

			ext := extractor.New(params)
			ext.SetGrid(grid)
			if len(cfg.Features.Enabled) == 0 {
				ext.EnableAllFeatures()
			} else {
				for _, name := range cfg.Features.Enabled {
					if err := ext.EnableFeatureByName(name); err != nil {
						return err
					}
				}
			}

			start := time.Now()
			if err := ext.CalculateFeatures(); err != nil {
				return err
			}
			elapsed := time.Since(start)

			for _, name := range ext.EnabledFeatures() {
				value, err := ext.FeatureValue(name)
				if err != nil {
					return err
				}
				fmt.Printf("%-32s %.6f\n", name, value)
			}
			if cfg.Output.Verbose {
				fmt.Printf("\nComputed %d features in %.2f seconds\n",
					len(ext.EnabledFeatures()), elapsed.Seconds())
			}

			if cfg.Output.PreviewDir != "" {
				disc, err := discretize.Apply(grid, params.Bins)
				if err != nil {
					return err
				}
				if err := render.WriteSlices(cfg.Output.PreviewDir, grid, disc); err != nil {
					return err
				}
				if cfg.Output.Verbose {
					fmt.Printf("Wrote discretized slice previews to %s\n", cfg.Output.PreviewDir)
				}
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&imageDir, "image", "", "Directory containing the image DICOM series")
	cmd.Flags().StringVar(&maskDir, "mask", "", "Directory containing the mask DICOM series")
	cmd.Flags().StringVar(&configPath, "config", "glrlm3d.yaml", "Path to the YAML configuration file")
	cmd.Flags().Float64Var(&binWidth, "bin-width", 0, "Override the discretization bin width")
	cmd.Flags().IntVar(&binCount, "bin-count", 0, "Override the discretization bin count")
	cmd.Flags().StringSliceVar(&enabled, "feature", nil, "Feature to compute (repeatable, default: all)")
	cmd.Flags().StringVar(&previewDir, "preview-dir", "", "Directory for discretized slice previews")
	cmd.MarkFlagRequired("image")
	cmd.MarkFlagRequired("mask")

	return cmd
}
