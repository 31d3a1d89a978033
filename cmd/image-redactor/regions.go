package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	imageredactor "github.com/menta2k/image-redactor"
	"github.com/menta2k/image-redactor/internal/utils"
	"github.com/menta2k/image-redactor/pkg/geometry"
	"github.com/menta2k/image-redactor/pkg/processing"
)

var regionsCmd = &cobra.Command{
	Use:   "regions <image>",
	Short: "List the regions tagged on an image",
	Long: `Prints every region tagged on the image (or its XMP sidecar), whether the
current filters select it and where it falls in pixels. With --preview, a
copy of the image with selected regions outlined in red and all others in
green is written as well.`,
	Args: cobra.ExactArgs(1),
	RunE: runRegions,
}

func init() {
	regionsCmd.Flags().String("preview", "", "write an outlined preview image to this path")
	regionsCmd.Flags().Bool("yaml", false, "print regions as YAML")
	rootCmd.AddCommand(regionsCmd)
}

type regionRow struct {
	Name     string     `yaml:"name"`
	Type     string     `yaml:"type"`
	AreaUnit string     `yaml:"area_unit"`
	Selected bool       `yaml:"selected"`
	Pixels   [4]int     `yaml:"pixels,omitempty"`
	Rect     [4]float64 `yaml:"rectangle"`
}

func runRegions(cmd *cobra.Command, args []string) error {
	path := args[0]
	previewPath := mustGetString(cmd, "preview")
	asYAML := mustGetBool(cmd, "yaml")

	cfg, log, err := loadConfig(nil)
	if err != nil {
		return err
	}
	defer log.Sync()

	redactor, err := imageredactor.New(cfg, log)
	if err != nil {
		return err
	}
	defer redactor.Close()

	stat, err := os.Stat(path)
	if err != nil {
		return err
	}

	ctx := context.Background()
	found, err := redactor.Regions(ctx, path)
	if err != nil {
		return err
	}

	img, err := redactor.LoadImage(path)
	if err != nil {
		return err
	}
	info := processing.GetImageInfo(img)

	spec := cfg.Spec()
	rows := make([]regionRow, 0, len(found))
	for _, region := range found {
		row := regionRow{
			Name:     region.Name,
			Type:     region.Type,
			AreaUnit: string(region.AreaUnit),
			Selected: geometry.Matches(region, spec),
			Rect:     region.Rectangle,
		}
		if rect, err := geometry.ToRectangle(region); err == nil {
			b := geometry.PixelBounds(rect, info.Width, info.Height).Intersect(img.Bounds())
			row.Pixels = [4]int{b.Min.X, b.Min.Y, b.Max.X, b.Max.Y}
		}
		rows = append(rows, row)
	}

	if asYAML {
		enc := yaml.NewEncoder(os.Stdout)
		enc.SetIndent(2)
		if err := enc.Encode(rows); err != nil {
			return err
		}
		if err := enc.Close(); err != nil {
			return err
		}
	} else {
		fmt.Printf("%s: %dx%d, %s, %d region(s)\n",
			path, info.Width, info.Height, utils.FormatFileSize(stat.Size()), len(rows))
		for _, row := range rows {
			mark := " "
			if row.Selected {
				mark = "*"
			}
			fmt.Printf("%s %-20s %-10s %-10s %v px=%v\n", mark, row.Name, row.Type, row.AreaUnit, row.Rect, row.Pixels)
		}
	}

	if previewPath != "" {
		if err := redactor.Preview(ctx, path, previewPath); err != nil {
			return err
		}
		fmt.Printf("Preview written to %s\n", previewPath)
	}
	return nil
}
