package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/san-kum/placesim/internal/automation"
	"github.com/san-kum/placesim/internal/config"
	"github.com/san-kum/placesim/internal/export"
	"github.com/san-kum/placesim/internal/sim"
	"github.com/san-kum/placesim/internal/stats"
	"github.com/san-kum/placesim/internal/storage"
	"github.com/san-kum/placesim/internal/viz"
	"github.com/spf13/cobra"
)

// formatOf picks the export format from an explicit flag or the file
// extension.
func formatOf(path, explicit string) (string, error) {
	f := explicit
	if f == "" {
		f = strings.TrimPrefix(filepath.Ext(path), ".")
	}
	if !slices.Contains(export.Formats, f) {
		return "", fmt.Errorf("unsupported format %q (want one of %v)", f, export.Formats)
	}
	return f, nil
}

func writeJSONFile(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func runCommand() *cobra.Command {
	var (
		save   bool
		name   string
		out    string
		format string
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "run one simulation locally",
		Args:  cobra.NoArgs,
	}
	flags := addSimFlags(cmd)
	cmd.Flags().BoolVar(&save, "save", false, "store the run in the history database")
	cmd.Flags().StringVar(&name, "name", "cli", "name recorded with a saved run")
	cmd.Flags().StringVar(&out, "out", "", "export the result to this file")
	cmd.Flags().StringVar(&format, "format", "", "export format (csv|json|xlsx); default from --out extension")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg, err := flags.resolve(cmd)
		if err != nil {
			return err
		}
		data, err := loadDataset(ctx)
		if err != nil {
			return err
		}

		eng, err := sim.New(data, cfg)
		if err != nil {
			return err
		}
		eng.AddObserver(sim.ObserverFunc(func(msg string, fraction float64) {
			fmt.Printf("  [%3.0f%%] %s\n", fraction*100, msg)
		}))

		fmt.Printf("simulating %d students and %d companies (seed %d)...\n", len(data.Students), len(data.Companies), cfg.RandomSeed)
		start := time.Now()
		res, err := eng.Run(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("completed in %v\n\n", time.Since(start).Round(time.Millisecond))
		fmt.Println(viz.Dashboard("Simulation results", res, data.Companies))

		d := export.Data{Name: name, CreatedAt: time.Now().UTC(), Fingerprint: data.Fingerprint, Config: cfg, Result: res}
		if save {
			store, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close()
			d.RunID, err = store.Save(ctx, storage.Run{
				Name: name, CreatedAt: d.CreatedAt, Config: cfg, Fingerprint: data.Fingerprint, Result: res,
			})
			if err != nil {
				return err
			}
			fmt.Printf("run id: %s\n", d.RunID)
		}
		if out != "" {
			f, err := formatOf(out, format)
			if err != nil {
				return err
			}
			if err := export.ToFile(out, f, d); err != nil {
				return err
			}
			fmt.Printf("exported %s\n", out)
		}
		return nil
	}
	return cmd
}

func batchCommand() *cobra.Command {
	var (
		runs      int
		seedStart int64
		workers   int
		out       string
	)
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "run an ensemble over consecutive seeds",
		Args:  cobra.NoArgs,
	}
	flags := addSimFlags(cmd)
	cmd.Flags().IntVar(&runs, "runs", 10, "number of runs")
	cmd.Flags().Int64Var(&seedStart, "seed-start", 101, "seed of the first run")
	cmd.Flags().IntVar(&workers, "workers", 0, "concurrent runs (0 = unbounded)")
	cmd.Flags().StringVar(&out, "out", "", "write the aggregate as JSON to this file")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		if runs < 1 {
			return fmt.Errorf("--runs must be at least 1")
		}
		ctx := cmd.Context()
		cfg, err := flags.resolve(cmd)
		if err != nil {
			return err
		}
		data, err := loadDataset(ctx)
		if err != nil {
			return err
		}

		ens := sim.NewEnsemble(data, cfg, runs, seedStart)
		ens.Workers = workers
		fmt.Printf("running %d simulations (seeds %d-%d)...\n", runs, seedStart, seedStart+int64(runs)-1)
		start := time.Now()
		results, err := ens.Run(ctx)
		if err != nil {
			return err
		}
		agg := sim.AggregateResults(seedStart, results)
		fmt.Printf("completed in %v\n\n", time.Since(start).Round(time.Millisecond))
		fmt.Println(viz.AggregateTable(agg))

		if out != "" {
			if err := writeJSONFile(out, agg); err != nil {
				return err
			}
			fmt.Printf("wrote %s\n", out)
		}
		return nil
	}
	return cmd
}

func scenarioCommand() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "scenario [file.yaml]",
		Short: "run named configurations and compare them",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			sc, err := automation.LoadScenario(args[0])
			if err != nil {
				return err
			}
			data, err := loadDataset(ctx)
			if err != nil {
				return err
			}
			if sc.Name != "" {
				fmt.Println(viz.Title.Render(sc.Name))
			}
			if sc.Description != "" {
				fmt.Println(viz.Subtle.Render(sc.Description))
			}
			outcomes, err := automation.RunScenario(ctx, sc, data, os.Stdout)
			if err != nil {
				return err
			}
			return report(outcomes, out)
		},
	}
	cmd.Flags().StringVar(&out, "out", "", "write outcomes as JSON to this file")
	return cmd
}

func sweepCommand() *cobra.Command {
	var (
		sweep automation.ParameterSweep
		out   string
	)
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "vary one config parameter over a range",
		Args:  cobra.NoArgs,
	}
	flags := addSimFlags(cmd)
	cmd.Flags().StringVar(&sweep.Param, "param", "p_opt_out", fmt.Sprintf("parameter to vary %v", automation.SweepParams()))
	cmd.Flags().Float64Var(&sweep.Min, "min", 0, "first value")
	cmd.Flags().Float64Var(&sweep.Max, "max", 0.2, "last value")
	cmd.Flags().IntVar(&sweep.NumSteps, "steps", 5, "number of values")
	cmd.Flags().IntVar(&sweep.Runs, "runs", 1, "runs per value")
	cmd.Flags().StringVar(&out, "out", "", "write outcomes as JSON to this file")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		base, err := flags.resolve(cmd)
		if err != nil {
			return err
		}
		sweep.Base = base
		data, err := loadDataset(ctx)
		if err != nil {
			return err
		}
		outcomes, err := automation.RunSweep(ctx, &sweep, data, os.Stdout)
		if err != nil {
			return err
		}
		return report(outcomes, out)
	}
	return cmd
}

func report(outcomes []automation.Outcome, out string) error {
	fmt.Println()
	fmt.Println(automation.Table(outcomes))
	if out == "" {
		return nil
	}
	if err := writeJSONFile(out, outcomes); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", out)
	return nil
}

func statsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "summarize the dataset before any run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := loadDataset(cmd.Context())
			if err != nil {
				return err
			}
			view := &sim.Result{Students: sim.Unplaced(data.Students)}
			fmt.Println(viz.Dashboard("Dataset "+short(data.Fingerprint), view, data.Companies))

			cs := stats.Companies(data.Companies)
			days := make([]int, 0, len(cs.DayDistribution))
			for d := range cs.DayDistribution {
				days = append(days, d)
			}
			sort.Ints(days)
			rows := make([][]string, 0, len(days))
			for _, d := range days {
				rows = append(rows, []string{viz.Int(d), viz.Int(cs.DayDistribution[d])})
			}
			fmt.Println(viz.BoxWithTitle("Companies by arrival day", viz.Table([]string{"day", "companies"}, rows, 0, 1)))
			fmt.Printf("capacity: %s to %s hires\n", viz.Int(cs.TotalMinCapacity), viz.Int(cs.TotalMaxCapacity))
			return nil
		},
	}
}

func presetsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "presets",
		Short: "list configuration presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			names := config.ListPresets()
			rows := make([][]string, 0, len(names))
			for _, n := range names {
				rows = append(rows, []string{n, config.Presets[n].Description})
			}
			fmt.Println(viz.Table([]string{"preset", "description"}, rows))
			return nil
		},
	}
}

func short(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

