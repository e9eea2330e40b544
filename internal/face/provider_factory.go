package face

import (
	"fmt"

	"github.com/saturnino-fabrica-de-software/kinface/internal/config"
	"github.com/saturnino-fabrica-de-software/kinface/internal/provider"
	"github.com/saturnino-fabrica-de-software/kinface/internal/provider/insightface"
	"github.com/saturnino-fabrica-de-software/kinface/internal/provider/mock"
)

// ProviderType defines supported embedding provider types
type ProviderType string

const (
	// ProviderTypeInsightFace talks to the insightface detector sidecar
	ProviderTypeInsightFace ProviderType = "insightface"
	// ProviderTypeMock derives embeddings from pixel hashes (dev/test, no sidecar)
	ProviderTypeMock ProviderType = "mock"
)

// NewFaceProvider creates a FaceProvider based on configuration
//
// Environment variables:
//   - PROVIDER_TYPE: "insightface" or "mock" (default: "insightface")
//   - DETECTOR_URL: sidecar URL (default: "http://localhost:5006")
//   - DETECTOR_MODEL: model pack name (default: "buffalo_s")
//   - DETECTOR_TIMEOUT: per request timeout (default: 30s)
func NewFaceProvider(cfg *config.Config) (provider.FaceProvider, error) {
	switch ProviderType(cfg.ProviderType) {
	case ProviderTypeInsightFace, "":
		return createInsightFaceProvider(cfg), nil

	case ProviderTypeMock:
		return mock.New(), nil

	default:
		return nil, fmt.Errorf("unknown provider type: %s (supported: %s, %s)",
			cfg.ProviderType, ProviderTypeInsightFace, ProviderTypeMock)
	}
}

// createInsightFaceProvider fills unset fields from the sidecar defaults
func createInsightFaceProvider(cfg *config.Config) provider.FaceProvider {
	detectorConfig := insightface.DefaultConfig()

	if cfg.DetectorURL != "" {
		detectorConfig.BaseURL = cfg.DetectorURL
	}
	if cfg.DetectorModel != "" {
		detectorConfig.Model = cfg.DetectorModel
	}
	if cfg.DetectorTimeout > 0 {
		detectorConfig.Timeout = cfg.DetectorTimeout
	}

	return insightface.NewProvider(detectorConfig)
}
