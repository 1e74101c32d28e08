package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"

	tiledb "github.com/TileDB-Inc/TileDB-Go"
	"github.com/urfave/cli/v2"

	"github.com/skyfathom/go-acmi"
	"github.com/skyfathom/go-acmi/geoid/pgm"
	"github.com/skyfathom/go-acmi/store/tiledbstore"
)

// loadGeoid reads an optional PGM geoid raster, returning a nil grid (and
// no error) when no path is given, matching acmi.Parse's "nil geoid treats
// every height as zero" contract.
func loadGeoid(path string, dlat, dlon, lat0, lon0 float64) (*acmi.GeoidGrid, error) {
	if path == "" {
		return nil, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return pgm.Load(raw, pgm.Options{DLat: dlat, DLon: dlon, Lat0: lat0, Lon0: lon0})
}

func parseFile(acmiURI, geoidURI string, filter []string) (*acmi.AcmiData, error) {
	log.Println("Reading ACMI file:", acmiURI)
	raw, err := os.ReadFile(acmiURI)
	if err != nil {
		return nil, err
	}

	geoid, err := loadGeoid(geoidURI, 1.0/120, 1.0/120, 90, -180)
	if err != nil {
		return nil, err
	}

	log.Println("Decoding records")
	data, err := acmi.Parse(raw, acmi.ParseOptions{Filter: filter, Geoid: geoid})
	if err != nil {
		return nil, err
	}
	if !data.IsValid {
		log.Println("Warning: decoded document is marked invalid")
	}
	return data, nil
}

func runParse(cCtx *cli.Context) error {
	data, err := parseFile(cCtx.String("acmi-uri"), cCtx.String("geoid-uri"), cCtx.StringSlice("filter"))
	if err != nil {
		return err
	}

	log.Println("Writing summary")
	summary := struct {
		IsValid       bool   `json:"isValid"`
		FileType      string `json:"fileType"`
		FileVersion   string `json:"fileVersion"`
		FrameCount    int    `json:"frameCount"`
		EntityCount   int    `json:"entityCount"`
		TimeSpanStart string `json:"timeSpanStart,omitempty"`
		TimeSpanEnd   string `json:"timeSpanEnd,omitempty"`
	}{
		IsValid:     data.IsValid,
		FileType:    data.Header.FileType,
		FileVersion: data.Header.FileVersion,
		FrameCount:  len(data.Frames),
		EntityCount: len(data.Entities()),
	}
	if data.TimeSpan.Valid() {
		summary.TimeSpanStart = data.TimeSpan.Start.String()
		summary.TimeSpanEnd = data.TimeSpan.End.String()
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(summary)
}

func runTrajectories(cCtx *cli.Context) error {
	data, err := parseFile(cCtx.String("acmi-uri"), cCtx.String("geoid-uri"), cCtx.StringSlice("filter"))
	if err != nil {
		return err
	}

	log.Println("Building sampled trajectories")
	trajectories := data.CreateSampledTrajectories(acmi.TrajectoryOptions{
		SampleRate:         cCtx.Float64("sample-rate"),
		EmulateOrientation: cCtx.Bool("emulate-orientation"),
	})
	log.Println("Entities with trajectories:", len(trajectories))

	outdir := cCtx.String("outdir-uri")
	if outdir == "" {
		return nil
	}

	config, err := tiledb.NewConfig()
	if err != nil {
		return err
	}
	defer config.Free()

	ctx, err := tiledb.NewContext(config)
	if err != nil {
		return err
	}
	defer ctx.Free()

	log.Println("Writing trajectories to", outdir)
	return tiledbstore.WriteAll(trajectories, outdir, ctx)
}

func main() {
	app := &cli.App{
		Name:  "acmicli",
		Usage: "decode ACMI flight recordings and reconstruct entity trajectories",
		Commands: []*cli.Command{
			{
				Name:  "parse",
				Usage: "decode an ACMI file and print a summary",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "acmi-uri", Required: true, Usage: "pathname to an ACMI (.txt or .zip.acmi) file"},
					&cli.StringFlag{Name: "geoid-uri", Usage: "pathname to a binary PGM geoid raster"},
					&cli.StringSliceFlag{Name: "filter", Usage: "entity type names to exclude"},
				},
				Action: runParse,
			},
			{
				Name:  "trajectories",
				Usage: "decode an ACMI file and build sampled per-entity trajectories",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "acmi-uri", Required: true, Usage: "pathname to an ACMI (.txt or .zip.acmi) file"},
					&cli.StringFlag{Name: "geoid-uri", Usage: "pathname to a binary PGM geoid raster"},
					&cli.StringSliceFlag{Name: "filter", Usage: "entity type names to exclude"},
					&cli.Float64Flag{Name: "sample-rate", Value: 1.0, Usage: "seconds between samples"},
					&cli.BoolFlag{Name: "emulate-orientation", Usage: "synthesize orientation from position when a trajectory carries none"},
					&cli.StringFlag{Name: "outdir-uri", Usage: "directory to write one TileDB array per entity into"},
				},
				Action: runTrajectories,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		log.Fatal(err)
	}
}
