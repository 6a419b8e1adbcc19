package main

import (
	"context"
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/sells-group/revenue-intel/internal/analysis"
	"github.com/sells-group/revenue-intel/internal/gtm"
	"github.com/sells-group/revenue-intel/internal/icp"
	"github.com/sells-group/revenue-intel/internal/model"
	"github.com/sells-group/revenue-intel/internal/signal"
	"github.com/sells-group/revenue-intel/internal/source"
)

// runAnalysis builds the shared env, runs fn and renders its report.
func runAnalysis(cmd *cobra.Command, fn func(ctx context.Context, svc *analysis.Service) (report, error)) error {
	ctx := cmd.Context()

	env, err := initEnv(ctx)
	if err != nil {
		return err
	}
	defer env.Close()

	r, err := fn(ctx, env.Service)
	if err != nil {
		return err
	}
	return renderFlags(cmd, r)
}

func renderFlags(cmd *cobra.Command, r report) error {
	format, _ := cmd.Flags().GetString("format")
	output, _ := cmd.Flags().GetString("output")
	return render(cmd.OutOrStdout(), format, output, r)
}

func pipelineRequest(cmd *cobra.Command) analysis.PipelineRequest {
	src, _ := cmd.Flags().GetString("source")
	pipelineID, _ := cmd.Flags().GetString("pipeline")
	req := analysis.PipelineRequest{Source: src, PipelineID: pipelineID}
	if f := cmd.Flags().Lookup("quota"); f != nil {
		req.Quota, _ = cmd.Flags().GetFloat64("quota")
	}
	return req
}

// -- rfm --

var rfmCmd = &cobra.Command{
	Use:   "rfm",
	Short: "Score and segment clients by recency, frequency and monetary value",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runAnalysis(cmd, func(ctx context.Context, svc *analysis.Service) (report, error) {
			src, _ := cmd.Flags().GetString("source")
			preset, _ := cmd.Flags().GetString("preset")
			res, err := svc.RFM(ctx, analysis.RFMRequest{Source: src, Preset: preset})
			if err != nil {
				return report{}, err
			}
			return rfmReport(res), nil
		})
	},
}

// -- qualify --

var qualifyCmd = &cobra.Command{
	Use:   "qualify",
	Short: "Score a prospect against the ideal customer profile",
	RunE: func(cmd *cobra.Command, _ []string) error {
		companyID, _ := cmd.Flags().GetString("company-id")
		raw, _ := cmd.Flags().GetString("company-data")

		var company *model.Company
		if raw != "" {
			company = &model.Company{}
			if err := json.Unmarshal([]byte(raw), company); err != nil {
				return model.InvalidArgument("Invalid company_data JSON: %v", err)
			}
		}

		return runAnalysis(cmd, func(ctx context.Context, svc *analysis.Service) (report, error) {
			q, err := svc.Qualify(ctx, icp.QualifyRequest{CompanyID: companyID, Company: company})
			if err != nil {
				return report{}, err
			}
			return qualifyReport(q), nil
		})
	},
}

// -- pipeline --

var pipelineCmd = &cobra.Command{
	Use:   "pipeline",
	Short: "Score open pipeline health",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runAnalysis(cmd, func(ctx context.Context, svc *analysis.Service) (report, error) {
			rep, err := svc.Pipeline(ctx, pipelineRequest(cmd))
			if err != nil {
				return report{}, err
			}
			return pipelineReport(rep), nil
		})
	},
}

// -- signals --

var signalsCmd = &cobra.Command{
	Use:   "signals",
	Short: "Detect GTM signals in open pipeline",
	RunE: func(cmd *cobra.Command, _ []string) error {
		names, _ := cmd.Flags().GetStringSlice("types")
		types := make([]signal.Type, 0, len(names))
		for _, n := range names {
			t, err := signal.ParseType(n)
			if err != nil {
				return err
			}
			types = append(types, t)
		}

		return runAnalysis(cmd, func(ctx context.Context, svc *analysis.Service) (report, error) {
			rep, err := svc.Signals(ctx, pipelineRequest(cmd))
			if err != nil {
				return report{}, err
			}
			if len(types) > 0 {
				rep.Signals = signal.Filter(rep.Signals, types...)
				rep.Summary = signal.Summarize(rep.Signals)
			}
			return signalsReport(rep), nil
		})
	},
}

// -- constraints --

var constraintsCmd = &cobra.Command{
	Use:   "constraints",
	Short: "Identify the dominant scaling constraint",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runAnalysis(cmd, func(ctx context.Context, svc *analysis.Service) (report, error) {
			rep, err := svc.Constraints(ctx, pipelineRequest(cmd))
			if err != nil {
				return report{}, err
			}
			return constraintReport(rep), nil
		})
	},
}

// -- engine --

var engineCmd = &cobra.Command{
	Use:   "engine [growth|fulfillment|innovation]",
	Short: "Analyze the health of one value engine",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		engineType, _ := cmd.Flags().GetString("type")
		if len(args) == 1 {
			engineType = args[0]
		}
		return runAnalysis(cmd, func(ctx context.Context, svc *analysis.Service) (report, error) {
			rep, err := svc.Engine(ctx, analysis.EngineRequest{
				PipelineRequest: pipelineRequest(cmd),
				Engine:          engineType,
			})
			if err != nil {
				return report{}, err
			}
			return engineReport(rep), nil
		})
	},
}

// -- propose --

var proposeCmd = &cobra.Command{
	Use:   "propose",
	Short: "Draft a structured GTM change proposal",
	Long:  "Builds a commit-style proposal for a GTM change. Nothing is applied to any system.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		req := gtm.Request{}
		req.EntityType, _ = cmd.Flags().GetString("entity-type")
		req.ChangeDescription, _ = cmd.Flags().GetString("description")
		req.CurrentState, _ = cmd.Flags().GetString("current")
		req.ProposedState, _ = cmd.Flags().GetString("proposed")
		req.SignalType, _ = cmd.Flags().GetString("signal-type")
		if raw, _ := cmd.Flags().GetString("signal-data"); raw != "" {
			if err := json.Unmarshal([]byte(raw), &req.SignalData); err != nil {
				return model.InvalidArgument("Invalid signal_data JSON: %v", err)
			}
		}

		// Proposals need no data source or license.
		svc := &analysis.Service{}
		p, err := svc.Propose(req)
		if err != nil {
			return err
		}
		return renderFlags(cmd, proposalReport(p))
	},
}

func addOutputFlags(c *cobra.Command) {
	c.Flags().String("format", formatJSON, "output format: json, table or xlsx")
	c.Flags().StringP("output", "o", "", "write output to a file instead of stdout")
}

func addSourceFlags(c *cobra.Command) {
	c.Flags().String("source", source.HubSpot, "data source: sample, hubspot, salesforce or file")
}

func addPipelineFlags(c *cobra.Command) {
	addSourceFlags(c)
	c.Flags().String("pipeline", "", "CRM pipeline id (default pipeline when empty)")
}

func init() {
	rfmCmd.Flags().String("preset", "", "industry preset: default, b2b_service, saas or manufacturing")
	addSourceFlags(rfmCmd)

	qualifyCmd.Flags().String("company-id", "", "CRM company id to fetch firmographics for")
	qualifyCmd.Flags().String("company-data", "", "company attributes as a JSON object")

	signalsCmd.Flags().StringSlice("types", nil, "only report these signal types")
	constraintsCmd.Flags().Float64("quota", 0, "period quota for pipeline coverage")
	engineCmd.Flags().String("type", "", "engine type when not given as an argument")

	for _, c := range []*cobra.Command{pipelineCmd, signalsCmd, constraintsCmd, engineCmd} {
		addPipelineFlags(c)
	}

	proposeCmd.Flags().String("entity-type", "", "GTM entity being changed")
	proposeCmd.Flags().String("description", "", "what is changing")
	proposeCmd.Flags().String("current", "", "current state")
	proposeCmd.Flags().String("proposed", "", "proposed state")
	proposeCmd.Flags().String("signal-type", "", "signal that motivated the change")
	proposeCmd.Flags().String("signal-data", "", "signal evidence as a JSON object")

	for _, c := range []*cobra.Command{rfmCmd, qualifyCmd, pipelineCmd, signalsCmd, constraintsCmd, engineCmd, proposeCmd} {
		addOutputFlags(c)
		rootCmd.AddCommand(c)
	}
}
