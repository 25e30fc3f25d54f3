package feeconfig

import (
	"context"
	"log/slog"
	"sync/atomic"

	"dispatch/internal/core/domain/services"
)

// FileProvider serves the last valid configuration read from a file. Reload
// swaps it atomically; a reload that fails keeps the previous configuration
// so a bad edit never stops order placement.
type FileProvider struct {
	path    string
	current atomic.Pointer[services.FeeConfig]
	logger  *slog.Logger
}

// NewFileProvider does not read the file; call Reload before serving.
func NewFileProvider(path string, logger *slog.Logger) *FileProvider {
	return &FileProvider{path: path, logger: logger.With("component", "fee_config")}
}

func (p *FileProvider) Path() string {
	return p.path
}

// FeeConfig returns ErrNotLoaded until a reload succeeded.
func (p *FileProvider) FeeConfig(context.Context) (services.FeeConfig, error) {
	cfg := p.current.Load()
	if cfg == nil {
		return services.FeeConfig{}, ErrNotLoaded
	}
	return *cfg, nil
}

func (p *FileProvider) Reload(ctx context.Context) error {
	cfg, err := LoadFile(p.path)
	if err != nil {
		p.logger.ErrorContext(ctx, "Fee configuration reload failed",
			"path", p.path,
			"kept_previous", p.current.Load() != nil,
			"error", err)
		return err
	}

	p.current.Store(&cfg)
	p.logger.InfoContext(ctx, "Fee configuration loaded",
		"path", p.path,
		"in_town_threshold_km", cfg.InTownThresholdKm.String(),
		"free_delivery_threshold", cfg.FreeDeliveryThreshold.String())
	return nil
}

// Static always serves one configuration. Used by the fee CLI and tests.
type Static struct {
	cfg services.FeeConfig
}

func NewStatic(cfg services.FeeConfig) Static {
	return Static{cfg: cfg}
}

func (s Static) FeeConfig(context.Context) (services.FeeConfig, error) {
	if err := s.cfg.Validate(); err != nil {
		return services.FeeConfig{}, err
	}
	return s.cfg, nil
}
