package main

import (
	"encoding/json"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/scout-group/discover-cli/internal/discovery"
	"github.com/scout-group/discover-cli/internal/export"
	"github.com/scout-group/discover-cli/internal/model"
	"github.com/scout-group/discover-cli/pkg/notion"
)

var (
	discoverLimit     int
	discoverCountry   string
	discoverMode      string
	discoverSplit     int
	discoverThreshold int
	discoverOut       string
	discoverNotion    bool
	discoverOwner     string
)

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Run a discovery pass and persist accepted leads",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		mode, err := discovery.ParseMode(discoverMode)
		if err != nil {
			return err
		}

		e, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		split := discoverSplit
		if split == 0 {
			split = cfg.Discovery.HybridGeneratedPct
		}
		threshold := discoverThreshold
		if threshold == 0 {
			threshold = cfg.Discovery.MinQualityScore
		}

		candidates, summary, err := e.Orchestrator.Discover(ctx, discovery.Options{
			Limit:        discoverLimit,
			Country:      discoverCountry,
			Mode:         mode,
			GeneratedPct: split,
			Threshold:    threshold,
		})
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		leads := make([]model.Lead, len(candidates))
		for i, c := range candidates {
			leads[i] = model.LeadFromCandidate(c, discoverOwner, now)
		}
		inserted, err := e.Store.InsertLeads(ctx, leads)
		if err != nil {
			return err
		}
		zap.L().Info("leads persisted", zap.Int("inserted", inserted))

		if discoverOut != "" {
			if err := export.WriteXLSX(discoverOut, candidates); err != nil {
				return err
			}
			zap.L().Info("spreadsheet written", zap.String("path", discoverOut))
		}

		if discoverNotion {
			if cfg.Notion.Token == "" || cfg.Notion.LeadDB == "" {
				return eris.New("notion sink requires notion.token and notion.lead_db")
			}
			sink := notion.NewSink(notion.NewClient(cfg.Notion.Token), cfg.Notion.LeadDB)
			pushed, err := sink.Push(ctx, candidates)
			if err != nil {
				return err
			}
			zap.L().Info("leads pushed to notion", zap.Int("pushed", pushed))
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(model.JobResult{Candidates: candidates, Summary: *summary})
	},
}

func init() {
	discoverCmd.Flags().IntVar(&discoverLimit, "limit", 10, "number of candidates to return")
	discoverCmd.Flags().StringVar(&discoverCountry, "country", "", "restrict candidates to one country")
	discoverCmd.Flags().StringVar(&discoverMode, "mode", "hybrid", "discovery mode: generated-only, scraped-only, or hybrid")
	discoverCmd.Flags().IntVar(&discoverSplit, "split", 0, "generated share of the hybrid split in percent (default from config)")
	discoverCmd.Flags().IntVar(&discoverThreshold, "threshold", 0, "minimum quality score (default from config)")
	discoverCmd.Flags().StringVar(&discoverOut, "out", "", "write results to an .xlsx file")
	discoverCmd.Flags().BoolVar(&discoverNotion, "notion", false, "push results to the configured Notion database")
	discoverCmd.Flags().StringVar(&discoverOwner, "owner", "", "owner id recorded on persisted leads")
	rootCmd.AddCommand(discoverCmd)
}
