package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/san-kum/placesim/internal/api"
	"github.com/san-kum/placesim/internal/client"
	"github.com/san-kum/placesim/internal/tui"
	"github.com/san-kum/placesim/internal/viz"
	"github.com/spf13/cobra"
)

func defaultServerURL(addr string) string {
	if strings.HasPrefix(addr, ":") {
		return "http://localhost" + addr
	}
	return "http://" + addr
}

func remoteCommand() *cobra.Command {
	var serverURL string
	cmd := &cobra.Command{
		Use:   "remote",
		Short: "drive a running placesim server",
	}
	cmd.PersistentFlags().StringVar(&serverURL, "server", defaultServerURL(env.HTTPAddr), "server base URL")
	newClient := func() *client.Client { return client.New(serverURL) }

	var (
		watch    bool
		interval time.Duration
	)
	runCmd := &cobra.Command{
		Use:   "run",
		Short: "start a simulation on the server",
		Args:  cobra.NoArgs,
	}
	flags := addSimFlags(runCmd)
	runCmd.Flags().BoolVar(&watch, "watch", false, "follow progress in the terminal UI")
	runCmd.Flags().DurationVar(&interval, "interval", client.DefaultPollInterval, "poll interval")
	runCmd.RunE = func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg, err := flags.resolve(cmd)
		if err != nil {
			return err
		}
		c := newClient()
		msg, err := c.RunSimulation(ctx, cfg)
		if err != nil {
			return err
		}
		fmt.Println(msg.Message)

		var st api.Status
		if watch {
			st, err = tui.Watch(ctx, c.Status, interval)
		} else {
			last := -1
			st, err = c.Poll(ctx, interval, func(s api.Status) {
				if s.Progress != last {
					last = s.Progress
					fmt.Printf("  [%3d%%] %s\n", s.Progress, s.Message)
				}
			})
		}
		if err != nil {
			return err
		}
		if st.Status == api.StateError {
			return fmt.Errorf("%w: %s", client.ErrSimulationFailed, st.Message)
		}
		fmt.Println(st.Message)
		if st.RunID != "" {
			fmt.Printf("run id: %s\n", st.RunID)
		}
		return nil
	}

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "show the server's simulation status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := newClient().Status(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("%s %s %d%%\n", st.Status, viz.ProgressBar(float64(st.Progress)/100, 30), st.Progress)
			if st.Message != "" {
				fmt.Println(st.Message)
			}
			return nil
		},
	}

	resultsCmd := &cobra.Command{
		Use:   "results",
		Short: "show the latest results on the server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := newClient().Results(cmd.Context())
			if client.IsStatus(err, 404) {
				return errors.New("no results yet; start one with 'placesim remote run'")
			}
			if err != nil {
				return err
			}
			fmt.Println(viz.Dashboard("Latest results", res, nil))
			return nil
		},
	}

	var format, out string
	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "download the latest results",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if out == "" {
				out = "placement_results." + format
			}
			f, err := os.Create(out)
			if err != nil {
				return err
			}
			err = newClient().Export(cmd.Context(), format, f)
			if cerr := f.Close(); err == nil {
				err = cerr
			}
			if err != nil {
				os.Remove(out)
				return err
			}
			fmt.Printf("exported %s\n", out)
			return nil
		},
	}
	exportCmd.Flags().StringVar(&format, "format", "csv", "csv|xlsx")
	exportCmd.Flags().StringVar(&out, "out", "", "output file")

	var limit int
	runsCmd := &cobra.Command{
		Use:   "runs",
		Short: "list the server's stored runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			runs, err := newClient().Runs(cmd.Context(), limit)
			if err != nil {
				return err
			}
			fmt.Println(viz.RunsTable(runs))
			return nil
		},
	}
	runsCmd.Flags().IntVar(&limit, "limit", 20, "maximum runs to show")

	loadCmd := &cobra.Command{
		Use:   "load",
		Short: "reload the server's dataset",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			msg, err := newClient().LoadData(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Println(msg.Message)
			return nil
		},
	}

	cmd.AddCommand(runCmd, statusCmd, resultsCmd, exportCmd, runsCmd, loadCmd)
	return cmd
}
