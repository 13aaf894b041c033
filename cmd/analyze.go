package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/access-cli/internal/access"
	"github.com/sells-group/access-cli/internal/dataset"
	"github.com/sells-group/access-cli/internal/export"
	"github.com/sells-group/access-cli/internal/geo"
	"github.com/sells-group/access-cli/internal/model"
	"github.com/sells-group/access-cli/internal/report"
	"github.com/sells-group/access-cli/internal/store"
)

// analyzeOptions is the resolved input of one analysis.
type analyzeOptions struct {
	PopulationPath string
	FacilitiesPath string

	OutputPath        string
	GeoJSONPath       string
	ReportPath        string
	RegionsPath       string
	FacilitiesOutPath string

	SampleSize    int
	Seed          int64
	Workers       int
	Strict        bool
	Timeout       time.Duration
	TopN          int
	ProgressEvery int

	Fields     dataset.FieldMap
	Centroids  *geo.CentroidTable
	JitterSeed uint64
}

// analysisResult is everything produced by runAnalysis.
type analysisResult struct {
	Run        *model.Run
	Records    []access.Record
	Facilities []access.Facility
	Result     model.RunResult
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Compute nearest-facility accessibility for a population",
	Long: "Loads population and facility tables (CSV, XLSX, or point shapefile), samples the population, " +
		"assigns each person to the nearest facility, and writes records, region summaries, and a text report.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := cfg.Validate("analyze"); err != nil {
			return err
		}
		opts, err := analyzeOptionsFromFlags(cmd)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		var st store.Store
		if noStore, _ := cmd.Flags().GetBool("no-store"); !noStore {
			st, err = initStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close() //nolint:errcheck
		}

		res, err := runAnalysis(ctx, opts, st)
		if err != nil {
			return err
		}

		m := res.Result.Metrics
		if res.Run != nil {
			fmt.Fprintf(os.Stdout, "Run %s complete\n", res.Run.ID)
		}
		fmt.Fprintf(os.Stdout, "People analyzed: %d  Facilities: %d\n", m.Count, len(res.Facilities))
		fmt.Fprintf(os.Stdout, "Mean %.2f km  Median %.2f km  Same region %.1f%%\n", m.MeanKM, m.MedianKM, m.PctSameRegion)
		return nil
	},
}

func init() {
	f := analyzeCmd.Flags()
	f.String("population", "", "population file (.csv, .xlsx, .shp)")
	f.String("facilities", "", "facility file (.csv, .xlsx, .shp)")
	f.String("output", "accesibilidad_centros_salud.csv", "accessibility records CSV")
	f.String("geojson", "", "optional GeoJSON output of person points")
	f.String("report", "reporte_accesibilidad_salud.txt", "text report output (empty to skip)")
	f.String("regions-csv", "", "optional region summary CSV")
	f.String("facilities-out", "", "optional processed facilities CSV")
	f.Int("sample-size", 0, "people to sample, 0 = all (default from config)")
	f.Int64("seed", 0, "sampling seed (default from config)")
	f.Int("workers", 0, "parallel workers (default from config)")
	f.Bool("strict", false, "reject out-of-range coordinates instead of dropping them")
	f.Bool("no-store", false, "do not persist the run")
	_ = analyzeCmd.MarkFlagRequired("population")
	_ = analyzeCmd.MarkFlagRequired("facilities")

	rootCmd.AddCommand(analyzeCmd)
}

func analyzeOptionsFromFlags(cmd *cobra.Command) (analyzeOptions, error) {
	f := cmd.Flags()
	opts := analyzeOptions{
		SampleSize:    cfg.Analysis.SampleSize,
		Seed:          cfg.Analysis.Seed,
		Workers:       cfg.Analysis.Workers,
		Strict:        cfg.Analysis.StrictCoordinates,
		Timeout:       time.Duration(cfg.Analysis.TimeoutSecs) * time.Second,
		TopN:          cfg.Analysis.UnderservedTop,
		ProgressEvery: cfg.Analysis.ProgressEvery,
		Fields:        dataset.DefaultFieldMap().Merge(cfg.Dataset.Fields),
		JitterSeed:    cfg.Dataset.JitterSeed,
	}
	opts.PopulationPath, _ = f.GetString("population")
	opts.FacilitiesPath, _ = f.GetString("facilities")
	opts.OutputPath, _ = f.GetString("output")
	opts.GeoJSONPath, _ = f.GetString("geojson")
	opts.ReportPath, _ = f.GetString("report")
	opts.RegionsPath, _ = f.GetString("regions-csv")
	opts.FacilitiesOutPath, _ = f.GetString("facilities-out")

	if f.Changed("sample-size") {
		opts.SampleSize, _ = f.GetInt("sample-size")
	}
	if f.Changed("seed") {
		opts.Seed, _ = f.GetInt64("seed")
	}
	if f.Changed("workers") {
		opts.Workers, _ = f.GetInt("workers")
	}
	if f.Changed("strict") {
		opts.Strict, _ = f.GetBool("strict")
	}

	centroids, err := geo.LoadCentroids(cfg.Dataset.CentroidsPath)
	if err != nil {
		return opts, err
	}
	opts.Centroids = centroids
	return opts, nil
}

// runAnalysis loads the inputs, computes accessibility, writes the
// configured outputs, and records the run in st when st is not nil.
func runAnalysis(ctx context.Context, opts analyzeOptions, st store.Store) (*analysisResult, error) {
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}
	log := zap.L().With(zap.String("population", opts.PopulationPath), zap.String("facilities", opts.FacilitiesPath))

	people, popStats, err := dataset.LoadPopulation(ctx, opts.PopulationPath, dataset.PopulationOptions{
		Fields: opts.Fields,
		Strict: opts.Strict,
	})
	if err != nil {
		return nil, eris.Wrap(err, "analyze: load population")
	}
	facilities, facStats, err := dataset.LoadFacilities(ctx, opts.FacilitiesPath, dataset.FacilityOptions{
		Fields:     opts.Fields,
		Centroids:  opts.Centroids,
		JitterSeed: opts.JitterSeed,
		Strict:     opts.Strict,
	})
	if err != nil {
		return nil, eris.Wrap(err, "analyze: load facilities")
	}

	res := &analysisResult{Facilities: facilities}
	if st != nil {
		res.Run, err = st.CreateRun(ctx, model.RunInput{
			PopulationPath:    opts.PopulationPath,
			FacilitiesPath:    opts.FacilitiesPath,
			SampleSize:        opts.SampleSize,
			Seed:              opts.Seed,
			Workers:           opts.Workers,
			PopulationRead:    popStats.Read,
			PopulationDropped: popStats.Dropped,
			Facilities:        len(facilities),
			Approximated:      facStats.Approximated,
		})
		if err != nil {
			return nil, err
		}
		log = log.With(zap.String("run_id", res.Run.ID))
	}

	if err := finishAnalysis(ctx, opts, people, res, st, log); err != nil {
		if res.Run != nil {
			// The caller's context may be the reason for the failure.
			if ferr := st.FailRun(context.WithoutCancel(ctx), res.Run.ID, err.Error()); ferr != nil {
				log.Error("analyze: record failed run", zap.Error(ferr))
			}
			res.Run.Status = model.RunStatusFailed
			res.Run.Error = err.Error()
		}
		return nil, err
	}
	return res, nil
}

// finishAnalysis computes the result, writes outputs and, when a run is
// being recorded, saves its facilities and marks it complete.
func finishAnalysis(ctx context.Context, opts analyzeOptions, people []access.Person, res *analysisResult, st store.Store, log *zap.Logger) error {
	if err := analyze(ctx, opts, people, res, log); err != nil {
		return err
	}
	if res.Run == nil {
		return nil
	}
	if err := st.SaveFacilities(ctx, res.Run.ID, res.Facilities); err != nil {
		return err
	}
	if err := st.CompleteRun(ctx, res.Run.ID, &res.Result); err != nil {
		return err
	}
	res.Run.Status = model.RunStatusComplete
	res.Run.Result = &res.Result
	return nil
}

func analyze(ctx context.Context, opts analyzeOptions, people []access.Person, res *analysisResult, log *zap.Logger) error {
	engineOpts := []access.Option{access.WithWorkers(opts.Workers)}
	if opts.Strict {
		engineOpts = append(engineOpts, access.WithStrict())
	}
	if every := opts.ProgressEvery; every > 0 {
		engineOpts = append(engineOpts, access.WithProgress(func(done, total int) {
			if done%every == 0 || done == total {
				log.Info("analyze: progress", zap.Int("done", done), zap.Int("total", total))
			}
		}))
	}

	start := time.Now()
	records, err := access.NewEngine(engineOpts...).ComputeAccessibility(ctx, people, res.Facilities, opts.SampleSize, opts.Seed)
	if err != nil {
		return eris.Wrap(err, "analyze: compute accessibility")
	}
	res.Records = records

	metrics, err := access.ComputeMetrics(records)
	if err != nil {
		return eris.Wrap(err, "analyze: metrics")
	}
	regions, err := access.ComputeRegionSummary(records)
	if err != nil {
		return eris.Wrap(err, "analyze: region summary")
	}
	demand, err := access.ComputeFacilityDemand(records)
	if err != nil {
		return eris.Wrap(err, "analyze: facility demand")
	}
	res.Result = model.RunResult{Metrics: metrics, Regions: regions, Demand: demand}

	vuln, err := access.ComputeVulnerability(records)
	if err != nil {
		return eris.Wrap(err, "analyze: vulnerability")
	}
	if vuln.Scored > 0 {
		res.Result.Vulnerability = &vuln
	} else {
		log.Debug("analyze: no person carries every vulnerability attribute")
	}

	log.Info("analyze: computed accessibility",
		zap.Int("records", len(records)),
		zap.Float64("mean_km", metrics.MeanKM),
		zap.Float64("median_km", metrics.MedianKM),
		zap.Duration("elapsed", time.Since(start)),
	)

	outputs := []struct {
		path  string
		write func(io.Writer) error
	}{
		{opts.OutputPath, func(w io.Writer) error { return export.WriteRecordsCSV(w, records) }},
		{opts.GeoJSONPath, func(w io.Writer) error { return export.WriteRecordsGeoJSON(w, records) }},
		{opts.RegionsPath, func(w io.Writer) error { return export.WriteRegionSummaryCSV(w, regions) }},
		{opts.FacilitiesOutPath, func(w io.Writer) error { return export.WriteFacilitiesCSV(w, res.Facilities) }},
		{opts.ReportPath, func(w io.Writer) error {
			return report.Render(w, report.Report{
				Title:         "Health Center Accessibility Report",
				GeneratedAt:   time.Now(),
				Facilities:    len(res.Facilities),
				Metrics:       metrics,
				Regions:       regions,
				Demand:        demand,
				Vulnerability: res.Result.Vulnerability,
				TopN:          opts.TopN,
			})
		}},
	}
	for _, o := range outputs {
		if o.path == "" {
			continue
		}
		if err := writeOutput(o.path, o.write); err != nil {
			return err
		}
		log.Info("analyze: wrote output", zap.String("path", o.path))
	}
	return nil
}

func writeOutput(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "analyze: create %s", path)
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return eris.Wrapf(err, "analyze: write %s", path)
	}
	return eris.Wrapf(f.Close(), "analyze: close %s", path)
}
