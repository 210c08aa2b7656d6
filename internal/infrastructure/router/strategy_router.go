package router

import (
	"strings"

	"skybox-manifest/pkg/logger"
	"skybox-manifest/pkg/manifest"
)

// StrategyRouter selects the feed parse strategy for a configured feed version
type StrategyRouter struct {
	strategies []manifest.Strategy
	logger     logger.Logger
}

// NewStrategyRouter creates a new strategy router
func NewStrategyRouter(logger logger.Logger) *StrategyRouter {
	return &StrategyRouter{
		strategies: make([]manifest.Strategy, 0),
		logger:     logger,
	}
}

// Register registers a strategy under its version
func (r *StrategyRouter) Register(strategy manifest.Strategy) {
	r.strategies = append(r.strategies, strategy)
	r.logger.Info("Registered feed strategy", "version", strategy.Version())
}

// GetStrategy returns the strategy for version, or nil when none matches
func (r *StrategyRouter) GetStrategy(version string) manifest.Strategy {
	for _, strategy := range r.strategies {
		if strings.EqualFold(strategy.Version(), strings.TrimSpace(version)) {
			return strategy
		}
	}
	return nil
}

// Versions lists the registered versions
func (r *StrategyRouter) Versions() []string {
	versions := make([]string, 0, len(r.strategies))
	for _, strategy := range r.strategies {
		versions = append(versions, strategy.Version())
	}
	return versions
}
