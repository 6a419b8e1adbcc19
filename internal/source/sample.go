package source

import (
	"context"
	"time"

	"github.com/sells-group/revenue-intel/internal/model"
	"github.com/sells-group/revenue-intel/internal/pipeline"
	"github.com/sells-group/revenue-intel/internal/rfm"
)

// sampleSource serves the built-in demo data with dates relative to now.
type sampleSource struct {
	now time.Time
}

func (s sampleSource) FetchOpenDeals(context.Context, string) ([]model.Deal, error) {
	return pipeline.SampleDeals(s.now), nil
}

func (s sampleSource) FetchStages(context.Context, string) (model.StageTopology, error) {
	return model.DefaultTopology(), nil
}

func (s sampleSource) FetchClients(context.Context) ([]model.Client, error) {
	return rfm.SampleClients(s.now), nil
}
