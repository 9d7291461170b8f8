package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/scout-group/discover-cli/internal/export"
	"github.com/scout-group/discover-cli/internal/model"
	"github.com/scout-group/discover-cli/internal/scorer"
	"github.com/scout-group/discover-cli/internal/store"
)

var (
	leadsOwner    string
	leadsMinScore int
	leadsLimit    int
	leadsOut      string
)

var leadsCmd = &cobra.Command{
	Use:   "leads",
	Short: "List persisted leads",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		e, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		list, err := e.Store.ListLeads(ctx, store.LeadFilter{
			OwnerID:  leadsOwner,
			MinScore: leadsMinScore,
			Limit:    leadsLimit,
		})
		if err != nil {
			return err
		}

		if leadsOut != "" {
			return export.WriteXLSX(leadsOut, leadsToCandidates(list))
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(list)
	},
}

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Re-verify websites of persisted leads",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		e, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		list, err := e.Store.ListLeads(ctx, store.LeadFilter{Limit: leadsLimit})
		if err != nil {
			return err
		}

		candidates := leadsToCandidates(list)
		v := scorer.NewVerifier(0, 0)
		v.VerifyAll(ctx, candidates)

		// Write the probe outcome back so repeated runs see fresh scores.
		for i, c := range candidates {
			list[i] = applyVerification(list[i], c)
			if err := e.Store.UpdateLeadScores(ctx, list[i]); err != nil {
				return err
			}
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(list)
	},
}

// applyVerification folds a re-verified candidate back into its lead row.
// Feasibility and priority follow the same mapping used at insert time.
func applyVerification(l model.Lead, c model.CandidateRecord) model.Lead {
	feasibility := 0
	if c.Website != "" {
		feasibility += 50
	}
	if c.Verified {
		feasibility += 50
	}
	l.FeasibilityScore = feasibility
	l.OverallScore = c.QualityScore
	l.Priority = c.QualityScore >= 85 && c.Verified
	return l
}

// leadsToCandidates maps stored leads back onto the candidate shape used by
// export and verification.
func leadsToCandidates(leads []model.Lead) []model.CandidateRecord {
	out := make([]model.CandidateRecord, len(leads))
	for i, l := range leads {
		c := model.CandidateRecord{
			Name:         l.Name,
			Website:      l.Website,
			Description:  l.Description,
			QualityScore: l.OverallScore,
		}
		if l.City != "" {
			c.Location = &model.Location{City: l.City}
		}
		out[i] = c
	}
	return out
}

func init() {
	leadsCmd.Flags().StringVar(&leadsOwner, "owner", "", "filter by owner id")
	leadsCmd.Flags().IntVar(&leadsMinScore, "min-score", 0, "minimum overall score")
	leadsCmd.Flags().IntVar(&leadsLimit, "limit", 100, "maximum leads to list")
	leadsCmd.Flags().StringVar(&leadsOut, "out", "", "write leads to an .xlsx file")
	rootCmd.AddCommand(leadsCmd)
	rootCmd.AddCommand(verifyCmd)
}
