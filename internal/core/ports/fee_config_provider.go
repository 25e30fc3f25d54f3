package ports

import (
	"context"

	"dispatch/internal/core/domain/services"
)

// FeeConfigProvider supplies the current fee configuration. Implementations
// may reload it at runtime and must fail with a ConfigurationError instead of
// returning defaults.
type FeeConfigProvider interface {
	FeeConfig(ctx context.Context) (services.FeeConfig, error)
}
