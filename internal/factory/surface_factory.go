package factory

import (
	"github.com/mikey/translation-grader/internal/adapters/httpapi"
	"github.com/mikey/translation-grader/internal/config"
	"github.com/mikey/translation-grader/internal/core"
	"github.com/mikey/translation-grader/internal/ports"
	"go.uber.org/zap"
)

// SurfaceFactory creates the outer interface around the grading service
type SurfaceFactory struct {
	cfg     *config.Config
	logger  *zap.Logger
	service *core.Service
}

// NewSurfaceFactory creates a new surface factory
func NewSurfaceFactory(cfg *config.Config, logger *zap.Logger, service *core.Service) *SurfaceFactory {
	return &SurfaceFactory{
		cfg:     cfg,
		logger:  logger,
		service: service,
	}
}

// CreateSurface creates the HTTP surface
func (f *SurfaceFactory) CreateSurface() (ports.Surface, error) {
	serverCfg := f.cfg.GetServer()
	return httpapi.NewServer(
		f.service,
		f.logger.Named("http"),
		serverCfg.ListenAddress,
		serverCfg.ShutdownTimeout,
	), nil
}
