package config

const (
	defaultBackendURL             = "http://localhost:8001"
	defaultCatalogTimeoutSeconds  = 10
	defaultUserAgent              = "vidsub/0.1.0"
	defaultOutputDir              = "~/Downloads/vidsub"
	defaultStateDir               = "~/.local/share/vidsub"
	defaultAPIBind                = "127.0.0.1:7488"
	defaultTargetLanguage         = "original"
	defaultEventBuffer            = 500
	defaultProgressLogBucket      = 10
	defaultLogFormat              = "console"
	defaultLogLevel               = "info"
	envBackendURL                 = "VIDSUB_BACKEND_URL"
	envLegacyBackendURL           = "REACT_APP_BACKEND_URL"
	defaultConfigPathValue        = "~/.config/vidsub/config.toml"
	defaultProjectConfigFilename  = "vidsub.toml"
	maxRequestTimeoutSeconds      = 24 * 60 * 60
	maxCatalogTimeoutSeconds      = 300
	minProgressLogBucket          = 1
	maxProgressLogBucket          = 100
	defaultAllowedOriginsWildcard = "*"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Backend: Backend{
			BaseURL:               defaultBackendURL,
			CatalogTimeoutSeconds: defaultCatalogTimeoutSeconds,
			UserAgent:             defaultUserAgent,
		},
		Paths: Paths{
			OutputDir: defaultOutputDir,
			StateDir:  defaultStateDir,
			APIBind:   defaultAPIBind,
		},
		Workflow: Workflow{
			DefaultTargetLanguage: defaultTargetLanguage,
			EventBuffer:           defaultEventBuffer,
			ProgressLogBucket:     defaultProgressLogBucket,
		},
		API: API{
			AllowedOrigins: []string{defaultAllowedOriginsWildcard},
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
