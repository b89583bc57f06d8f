package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/bft-labs/gliderbatch/pkg/gliderbatch"
)

func (a *app) planCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "plan",
		Short: "Show the batch plan of every mission without processing anything",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := a.newRunner()
			if err != nil {
				return err
			}
			defer r.Close()

			plans, skipped, err := r.Plan(cmd.Context())
			if err != nil {
				return err
			}
			printPlans(os.Stdout, plans, skipped)
			return nil
		},
	}
}

func (a *app) missionCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "mission <glider> <mission>",
		Short:   "Process a single mission",
		Example: "  gliderbatch mission 44 12",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := parseMissionArgs(args)
			if err != nil {
				return err
			}

			r, err := a.newRunner()
			if err != nil {
				return err
			}
			defer r.Close()

			res, err := r.RunMission(cmd.Context(), key)
			if err != nil {
				return err
			}
			printReport(os.Stdout, gliderbatch.RunReport{Missions: []gliderbatch.MissionResult{res}})
			return nil
		},
	}
}

func (a *app) statusCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the last run report and, with --database, the run history and ingested files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := a.newRunner()
			if err != nil {
				return err
			}
			defer r.Close()

			report, err := r.LastReport(cmd.Context())
			if err != nil {
				return err
			}
			if report.IsEmpty() {
				fmt.Fprintln(os.Stdout, "no runs recorded")
			} else {
				fmt.Fprintf(os.Stdout, "last run %s (%s)\n", report.RunID, report.StartedAt.Local().Format("2006-01-02 15:04:05"))
				printReport(os.Stdout, report)
			}

			if a.cfg.DatabasePath == "" {
				return nil
			}
			runs, err := r.History(cmd.Context(), limit)
			if err != nil {
				return err
			}
			printHistory(os.Stdout, runs)

			var ingested []gliderbatch.IngestedMission
			for _, res := range report.Missions {
				rec, err := r.Ingested(cmd.Context(), res.Mission)
				if errors.Is(err, gliderbatch.ErrNotIngested) {
					continue
				}
				if err != nil {
					return err
				}
				ingested = append(ingested, rec)
			}
			printIngested(os.Stdout, ingested)
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 10, "number of past runs to list")
	return cmd
}

func parseMissionArgs(args []string) (gliderbatch.MissionKey, error) {
	glider, err := strconv.Atoi(args[0])
	if err != nil || glider < 0 {
		return gliderbatch.MissionKey{}, fmt.Errorf("invalid glider id %q", args[0])
	}
	mission, err := strconv.Atoi(args[1])
	if err != nil || mission < 0 {
		return gliderbatch.MissionKey{}, fmt.Errorf("invalid mission id %q", args[1])
	}
	return gliderbatch.MissionKey{GliderID: glider, MissionID: mission}, nil
}
