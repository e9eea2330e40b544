package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// Server
	Port        int    `envconfig:"PORT" default:"3000"`
	Environment string `envconfig:"ENV" default:"development"`

	// Database
	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`

	// Provider
	ProviderType    string        `envconfig:"PROVIDER_TYPE" default:"insightface"`
	DetectorURL     string        `envconfig:"DETECTOR_URL" default:"http://localhost:5006"`
	DetectorModel   string        `envconfig:"DETECTOR_MODEL" default:"buffalo_s"`
	DetectorTimeout time.Duration `envconfig:"DETECTOR_TIMEOUT" default:"30s"`

	// Enrollment
	CaptureLimit      int     `envconfig:"CAPTURE_LIMIT" default:"20"`
	MinDetectionScore float64 `envconfig:"ENROLL_MIN_DET_SCORE" default:"0"`
	WorkDir           string  `envconfig:"WORK_DIR" default:"saved_faces"`
	AssetDir          string  `envconfig:"ASSET_DIR" default:"assets"`

	// Camera
	CameraSource  string        `envconfig:"CAMERA_SOURCE" default:"dir"`
	CameraDirs    []string      `envconfig:"CAMERA_DIRS" default:"frames/front,frames/back"`
	CameraURLs    []string      `envconfig:"CAMERA_URLS"`
	CameraDevices []int         `envconfig:"CAMERA_DEVICES" default:"0,1"`
	FrameInterval time.Duration `envconfig:"FRAME_INTERVAL" default:"66ms"`

	// Gallery
	GalleryCacheTTL time.Duration `envconfig:"GALLERY_CACHE_TTL" default:"30s"`

	// Notifications
	NotifyWebhookURL    string `envconfig:"NOTIFY_WEBHOOK_URL"`
	NotifyWebhookSecret string `envconfig:"NOTIFY_WEBHOOK_SECRET"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if cfg.CaptureLimit < 0 {
		return nil, fmt.Errorf("load config: CAPTURE_LIMIT must not be negative, got %d", cfg.CaptureLimit)
	}
	switch cfg.CameraSource {
	case "dir", "snapshot", "device":
	default:
		return nil, fmt.Errorf("load config: unknown CAMERA_SOURCE %q", cfg.CameraSource)
	}
	return &cfg, nil
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
