package main

import (
	"fmt"
	"os"
	"slices"

	"github.com/san-kum/placesim/internal/export"
	"github.com/san-kum/placesim/internal/stats"
	"github.com/san-kum/placesim/internal/storage"
	"github.com/san-kum/placesim/internal/viz"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func listCommand() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			runs, err := store.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			fmt.Println(viz.RunsTable(runs))
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum runs to show (0 = all)")
	return cmd
}

func loadRun(cmd *cobra.Command, id string) (*storage.Run, error) {
	store, err := openStore(cmd.Context())
	if err != nil {
		return nil, err
	}
	defer store.Close()
	run, err := store.Load(cmd.Context(), id)
	if err != nil {
		return nil, fmt.Errorf("run %s: %w", id, err)
	}
	return run, nil
}

func showCommand() *cobra.Command {
	var students int
	cmd := &cobra.Command{
		Use:   "show [run_id]",
		Short: "show a stored run's dashboard",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			run, err := loadRun(cmd, args[0])
			if err != nil {
				return err
			}
			fmt.Println(viz.Dashboard(fmt.Sprintf("Run %s (%s)", run.ID, run.Name), run.Result, nil))
			if students > 0 {
				fmt.Println(viz.BoxWithTitle("Students", viz.StudentTable(run.Result.Students, students)))
			}

			cfg, err := yaml.Marshal(run.Config)
			if err != nil {
				return err
			}
			fmt.Println(viz.BoxWithTitle("Config", string(cfg)))
			fmt.Printf("created %s  dataset %s\n", run.CreatedAt.Local().Format("2006-01-02 15:04:05"), short(run.Fingerprint))
			return nil
		},
	}
	cmd.Flags().IntVar(&students, "students", 0, "also list this many students")
	return cmd
}

func exportCommand() *cobra.Command {
	var format, out string
	cmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export a stored run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(export.Formats, format) {
				return fmt.Errorf("unsupported format %q (want one of %v)", format, export.Formats)
			}
			run, err := loadRun(cmd, args[0])
			if err != nil {
				return err
			}
			d := export.Data{
				RunID: run.ID, Name: run.Name, CreatedAt: run.CreatedAt,
				Fingerprint: run.Fingerprint, Config: run.Config, Result: run.Result,
			}
			if out == "-" {
				return export.Write(os.Stdout, format, d)
			}
			if out == "" {
				out = fmt.Sprintf("placement_results_%s.%s", short(run.ID), format)
			}
			if err := export.ToFile(out, format, d); err != nil {
				return err
			}
			fmt.Printf("exported %s\n", out)
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "csv", "csv|json|xlsx")
	cmd.Flags().StringVar(&out, "out", "", `output file ("-" for stdout)`)
	return cmd
}

func chartCommand() *cobra.Command {
	var name, format, out string
	cmd := &cobra.Command{
		Use:   "chart [run_id]",
		Short: "render a chart of a stored run as png or svg",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			run, err := loadRun(cmd, args[0])
			if err != nil {
				return err
			}
			if out == "" {
				out = fmt.Sprintf("%s_%s.%s", name, short(run.ID), format)
			}
			f, err := os.Create(out)
			if err != nil {
				return err
			}
			switch name {
			case "department":
				err = export.DepartmentChart(f, format, stats.Departments(run.Result.Students))
			case "cgpa":
				err = export.CGPAChart(f, format, stats.CGPADistribution(run.Result.Students))
			case "companies":
				err = export.CompanyChart(f, format, run.Result.Companies)
			default:
				err = fmt.Errorf("unknown chart %q (want one of %v)", name, export.Charts)
			}
			if cerr := f.Close(); err == nil {
				err = cerr
			}
			if err != nil {
				os.Remove(out)
				return err
			}
			fmt.Printf("wrote %s\n", out)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "department", "department|cgpa|companies")
	cmd.Flags().StringVar(&format, "format", "png", "png|svg")
	cmd.Flags().StringVar(&out, "out", "", "output file")
	return cmd
}

func deleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete [run_id]",
		Short: "delete a stored run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()
			if err := store.Delete(cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("run %s: %w", args[0], err)
			}
			fmt.Printf("deleted %s\n", args[0])
			return nil
		},
	}
}
