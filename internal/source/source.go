// Package source resolves a source mode to the collaborator that supplies
// deals, clients and companies.
package source

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/revenue-intel/internal/model"
)

// Source modes.
const (
	Sample     = "sample"
	HubSpot    = "hubspot"
	Salesforce = "salesforce"
	File       = "file"
)

// Modes lists the valid source modes.
var Modes = []string{Sample, HubSpot, Salesforce, File}

// DealSource supplies open deals and the stage topology of a pipeline.
type DealSource interface {
	FetchOpenDeals(ctx context.Context, pipelineID string) ([]model.Deal, error)
	FetchStages(ctx context.Context, pipelineID string) (model.StageTopology, error)
}

// ClientSource supplies client aggregates built from closed deals.
type ClientSource interface {
	FetchClients(ctx context.Context) ([]model.Client, error)
}

// CompanySource looks up a company's firmographics by CRM id.
type CompanySource interface {
	FetchCompany(ctx context.Context, id string) (*model.Company, error)
}

// CRM is a live source that serves all three roles.
type CRM interface {
	DealSource
	ClientSource
	CompanySource
}

// Files names the import files used by the file mode.
type Files struct {
	Clients string
	Deals   string
}

// Registry holds the configured collaborators. Nil CRMs are unconfigured.
type Registry struct {
	HubSpot    CRM
	Salesforce CRM
	Files      Files
	Now        func() time.Time
}

func (r *Registry) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

func invalidMode(mode string) error {
	return model.InvalidArgument("Invalid source: %s. Use '%s'.", mode, strings.Join(Modes, "', '"))
}

func (r *Registry) crm(mode string) (CRM, error) {
	switch mode {
	case HubSpot:
		if r.HubSpot == nil {
			return nil, model.CollaboratorRequired(
				"HubSpot client required for source='hubspot'. Set HUBSPOT_API_KEY environment variable.")
		}
		return r.HubSpot, nil
	case Salesforce:
		if r.Salesforce == nil {
			return nil, model.CollaboratorRequired(
				"Salesforce client required for source='salesforce'. Set REVINTEL_SALESFORCE_CLIENT_ID, " +
					"REVINTEL_SALESFORCE_USERNAME and REVINTEL_SALESFORCE_KEY_PATH.")
		}
		return r.Salesforce, nil
	}
	return nil, invalidMode(mode)
}

// Deals returns the deal source for mode.
func (r *Registry) Deals(mode string) (DealSource, error) {
	switch mode {
	case Sample:
		return sampleSource{now: r.now()}, nil
	case File:
		if r.Files.Deals == "" {
			return nil, model.CollaboratorRequired(
				"Deals file required for source='file'. Set REVINTEL_FILE_DEALS to a .csv or .xlsx path.")
		}
		return fileSource{files: r.Files}, nil
	}
	return r.crm(mode)
}

// Clients returns the client source for mode.
func (r *Registry) Clients(mode string) (ClientSource, error) {
	switch mode {
	case Sample:
		return sampleSource{now: r.now()}, nil
	case File:
		if r.Files.Clients == "" {
			return nil, model.CollaboratorRequired(
				"Clients file required for source='file'. Set REVINTEL_FILE_CLIENTS to a .csv or .xlsx path.")
		}
		return fileSource{files: r.Files}, nil
	}
	return r.crm(mode)
}

// Companies returns the company lookup for a CRM mode. The sample and file
// modes have no company lookup.
func (r *Registry) Companies(mode string) (CompanySource, error) {
	switch mode {
	case Sample, File:
		return nil, model.CollaboratorRequired(
			"company lookup requires a CRM source ('hubspot' or 'salesforce'), got '%s'", mode)
	}
	return r.crm(mode)
}

// DefaultCompanies returns the first configured CRM for company lookups,
// or nil when none is configured.
func (r *Registry) DefaultCompanies() CompanySource {
	if r.HubSpot != nil {
		return r.HubSpot
	}
	if r.Salesforce != nil {
		return r.Salesforce
	}
	return nil
}

// LoadDeals fetches open deals and the stage topology concurrently. A failed
// or empty topology fetch falls back to the default pipeline.
func LoadDeals(ctx context.Context, src DealSource, pipelineID string) ([]model.Deal, model.StageTopology, error) {
	var (
		deals []model.Deal
		top   model.StageTopology
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		deals, err = src.FetchOpenDeals(gctx, pipelineID)
		return err
	})
	g.Go(func() error {
		t, err := src.FetchStages(gctx, pipelineID)
		if err != nil {
			zap.L().Warn("source: stage fetch failed, using default pipeline",
				zap.String("pipeline", pipelineID),
				zap.Error(err),
			)
			return nil
		}
		top = t
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, model.StageTopology{}, err
	}

	if top.IsZero() {
		top = model.DefaultTopology()
	}
	return deals, top, nil
}
