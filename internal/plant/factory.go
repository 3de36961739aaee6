package plant

import (
	"context"

	"github.com/GoSim-25-26J-441/simulation-optimizer/internal/oracle"
	"github.com/GoSim-25-26J-441/simulation-optimizer/pkg/config"
	"github.com/GoSim-25-26J-441/simulation-optimizer/pkg/logger"
)

// Kind is the oracle kind served by this package
const Kind = "plant"

// Factory builds a plant from the oracle configuration. With run_exported_model
// set, parameters are loaded from exported_model_loc.
func Factory(ctx context.Context, cfg config.Oracle) (oracle.Runtime, error) {
	params := DefaultParams()
	if cfg.Launch {
		loaded, err := LoadParams(cfg.ModelLocation)
		if err != nil {
			return nil, err
		}
		params = loaded
	}
	return New(params,
		WithLogger(logger.With("component", "plant")),
		WithVerbose(cfg.Verbose),
		WithTerminals(cfg.ShowTerminals))
}

// Register adds the plant factory to r
func Register(r *oracle.Registry) {
	r.Register(Kind, Factory)
}
