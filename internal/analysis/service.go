// Package analysis runs each analysis against a resolved data source after
// the license gate.
package analysis

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/revenue-intel/internal/constraint"
	"github.com/sells-group/revenue-intel/internal/engine"
	"github.com/sells-group/revenue-intel/internal/gtm"
	"github.com/sells-group/revenue-intel/internal/icp"
	"github.com/sells-group/revenue-intel/internal/license"
	"github.com/sells-group/revenue-intel/internal/pipeline"
	"github.com/sells-group/revenue-intel/internal/rfm"
	"github.com/sells-group/revenue-intel/internal/signal"
	"github.com/sells-group/revenue-intel/internal/source"
)

// Overrides are the scoring overrides loaded from configuration. Request
// fields take precedence.
type Overrides struct {
	ICP          *icp.Config
	RFM          *rfm.Thresholds
	ExitCriteria []pipeline.ExitCriterion
}

// Service runs analyses. Sources must be set for everything except Propose.
type Service struct {
	Sources   *source.Registry
	License   license.Info
	Overrides Overrides
	Now       func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func defaultSource(mode string) string {
	if mode == "" {
		return source.HubSpot
	}
	return mode
}

// RFMRequest selects the client data and scoring preset.
type RFMRequest struct {
	Source     string
	Preset     string
	Thresholds *rfm.Thresholds
}

// RFM scores and segments clients.
func (s *Service) RFM(ctx context.Context, req RFMRequest) (rfm.Result, error) {
	mode := defaultSource(req.Source)
	if err := license.Require(mode, s.License); err != nil {
		return rfm.Result{}, err
	}
	src, err := s.Sources.Clients(mode)
	if err != nil {
		return rfm.Result{}, err
	}
	clients, err := src.FetchClients(ctx)
	if err != nil {
		return rfm.Result{}, eris.Wrapf(err, "analysis: fetch clients from %s", mode)
	}

	thresholds := req.Thresholds
	if thresholds == nil && req.Preset == "" {
		thresholds = s.Overrides.RFM
	}
	zap.L().Debug("analysis: rfm", zap.String("source", mode), zap.Int("clients", len(clients)))
	return rfm.Analyze(clients, rfm.Options{Preset: req.Preset, Thresholds: thresholds, Now: s.now()}), nil
}

// Qualify scores a prospect. A company id is looked up in the first
// configured CRM.
func (s *Service) Qualify(ctx context.Context, req icp.QualifyRequest) (*icp.Qualification, error) {
	var crm icp.CompanyFetcher
	if req.CompanyID != "" {
		if err := license.Require(source.HubSpot, s.License); err != nil {
			return nil, err
		}
		if c := s.Sources.DefaultCompanies(); c != nil {
			crm = c
		}
	}
	if req.Config == nil {
		req.Config = s.Overrides.ICP
	}
	return icp.Qualify(ctx, req, crm)
}

// PipelineRequest selects the deals an analysis runs over.
type PipelineRequest struct {
	Source       string
	PipelineID   string
	ExitCriteria []pipeline.ExitCriterion
	Quota        float64
}

// Snapshot loads deals and the stage topology and computes the shared
// velocity and risk metrics.
func (s *Service) Snapshot(ctx context.Context, req PipelineRequest) (pipeline.Snapshot, error) {
	mode := defaultSource(req.Source)
	if err := license.Require(mode, s.License); err != nil {
		return pipeline.Snapshot{}, err
	}
	src, err := s.Sources.Deals(mode)
	if err != nil {
		return pipeline.Snapshot{}, err
	}
	deals, top, err := source.LoadDeals(ctx, src, req.PipelineID)
	if err != nil {
		return pipeline.Snapshot{}, eris.Wrapf(err, "analysis: fetch deals from %s", mode)
	}
	zap.L().Debug("analysis: snapshot",
		zap.String("source", mode),
		zap.String("pipeline", req.PipelineID),
		zap.Int("deals", len(deals)),
		zap.Int("stages", len(top.Order)),
	)
	return pipeline.Analyze(deals, top, s.now()), nil
}

// Pipeline scores pipeline health.
func (s *Service) Pipeline(ctx context.Context, req PipelineRequest) (pipeline.Report, error) {
	snap, err := s.Snapshot(ctx, req)
	if err != nil {
		return pipeline.Report{}, err
	}
	criteria := req.ExitCriteria
	if criteria == nil {
		criteria = s.Overrides.ExitCriteria
	}
	return pipeline.Score(snap, criteria), nil
}

// Signals runs every signal detector.
func (s *Service) Signals(ctx context.Context, req PipelineRequest) (signal.Report, error) {
	snap, err := s.Snapshot(ctx, req)
	if err != nil {
		return signal.Report{}, err
	}
	return signal.Scan(snap), nil
}

// Constraints identifies the dominant scaling constraint.
func (s *Service) Constraints(ctx context.Context, req PipelineRequest) (constraint.Report, error) {
	snap, err := s.Snapshot(ctx, req)
	if err != nil {
		return constraint.Report{}, err
	}
	return constraint.Identify(snap, req.Quota), nil
}

// EngineRequest names the value engine to analyze.
type EngineRequest struct {
	PipelineRequest
	Engine string
}

// Engine analyzes one value engine. The engine type is checked before any
// data is fetched.
func (s *Service) Engine(ctx context.Context, req EngineRequest) (engine.Report, error) {
	if _, err := engine.ParseType(req.Engine); err != nil {
		return engine.Report{}, err
	}
	snap, err := s.Snapshot(ctx, req.PipelineRequest)
	if err != nil {
		return engine.Report{}, err
	}
	return engine.Analyze(req.Engine, snap, signal.Detect(snap))
}

// Propose drafts a GTM change proposal.
func (s *Service) Propose(req gtm.Request) (gtm.Proposal, error) {
	return gtm.Propose(req, s.now())
}
