package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/scout-group/discover-cli/internal/model"
	"github.com/scout-group/discover-cli/internal/store"
)

var (
	jobsStatus string
	jobsUser   string
	jobsLimit  int
)

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "List extraction jobs",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		e, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		list, err := e.Store.ListJobs(ctx, store.JobFilter{
			Status: model.JobStatus(jobsStatus),
			UserID: jobsUser,
			Limit:  jobsLimit,
		})
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(list)
	},
}

var jobsCancelCmd = &cobra.Command{
	Use:   "cancel <job-id>",
	Short: "Request cancellation of a running job",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		e, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		return e.Runner.Cancel(ctx, args[0])
	},
}

func init() {
	jobsCmd.Flags().StringVar(&jobsStatus, "status", "", "filter by job status")
	jobsCmd.Flags().StringVar(&jobsUser, "user", "", "filter by user id")
	jobsCmd.Flags().IntVar(&jobsLimit, "limit", 50, "maximum jobs to list")
	jobsCmd.AddCommand(jobsCancelCmd)
	rootCmd.AddCommand(jobsCmd)
}
