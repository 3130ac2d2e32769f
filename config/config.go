package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"goes-decal-sync/models"
	"goes-decal-sync/utils"
)

const (
	DefaultSourceURL     = "https://cdn.star.nesdis.noaa.gov/GOES19/ABI/FD/GEOCOLOR/latest.jpg"
	DefaultAssetsURL     = "https://apis.roblox.com/assets/v1/assets"
	DefaultOperationsURL = "https://apis.roblox.com/assets/v1/operations"
	DefaultLedgerPath    = "last_asset_id.txt"
	DefaultMaxImageSize  = 1024
)

// Config is built once at startup and never mutated afterwards.
// Components receive it (or the parts they need) by pointer.
type Config struct {
	APIKey  string
	Creator models.Creator
	// TargetAssetID is the asset to overwrite in place, empty when not configured
	TargetAssetID string

	MaxImageSize int
	SourceURL    string
	FallbackURL  string

	LedgerPath  string
	DatabaseURL string

	DriveCredentialsPath string
	DriveFolderID        string

	AssetsURL     string
	OperationsURL string

	PollInterval      time.Duration
	OperationTimeout  time.Duration
	RetryBackoff      time.Duration
	MaxAttempts       int
	DeleteMaxAttempts int
	RequestTimeout    time.Duration
	DownloadTimeout   time.Duration

	PostRunSleep time.Duration
}

// ConfigError reports a missing or malformed setting. It is raised before any network I/O.
type ConfigError struct {
	Key    string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid configuration %s: %s", e.Key, e.Reason)
}

// Load reads the process environment into a Config
func Load() (*Config, error) {
	return LoadFrom(os.Getenv)
}

// LoadFrom builds a Config from an arbitrary lookup function (tests pass a map lookup)
func LoadFrom(getenv func(string) string) (*Config, error) {
	cfg := &Config{
		APIKey:        strings.TrimSpace(getenv("ROBLOX_API_KEY")),
		TargetAssetID: strings.TrimSpace(getenv("ROBLOX_DECAL_ID")),
		SourceURL:     orDefault(getenv("IMAGE_SOURCE_URL"), DefaultSourceURL),
		FallbackURL:   strings.TrimSpace(getenv("IMAGE_FALLBACK_URL")),
		LedgerPath:    orDefault(getenv("LEDGER_PATH"), DefaultLedgerPath),
		DatabaseURL:   strings.TrimSpace(getenv("DATABASE_URL")),

		DriveCredentialsPath: strings.TrimSpace(getenv("GOOGLE_APPLICATION_CREDENTIALS")),
		DriveFolderID:        strings.TrimSpace(getenv("DRIVE_ARCHIVE_FOLDER_ID")),

		AssetsURL:     strings.TrimRight(orDefault(getenv("ROBLOX_ASSETS_URL"), DefaultAssetsURL), "/"),
		OperationsURL: strings.TrimRight(orDefault(getenv("ROBLOX_OPERATIONS_URL"), DefaultOperationsURL), "/"),
	}

	if cfg.APIKey == "" {
		return nil, &ConfigError{Key: "ROBLOX_API_KEY", Reason: "not set"}
	}

	creator, err := loadCreator(getenv)
	if err != nil {
		return nil, err
	}
	cfg.Creator = creator

	if cfg.TargetAssetID != "" && !utils.IsNumericID(cfg.TargetAssetID) {
		return nil, &ConfigError{Key: "ROBLOX_DECAL_ID", Reason: "must be a numeric asset id"}
	}

	if cfg.MaxImageSize, err = intVar(getenv, "MAX_IMAGE_SIZE", DefaultMaxImageSize); err != nil {
		return nil, err
	}
	if cfg.MaxAttempts, err = intVar(getenv, "MAX_ATTEMPTS", 3); err != nil {
		return nil, err
	}
	if cfg.DeleteMaxAttempts, err = intVar(getenv, "DELETE_MAX_ATTEMPTS", 2); err != nil {
		return nil, err
	}

	durations := []struct {
		key  string
		dst  *time.Duration
		def  time.Duration
		zero bool
	}{
		{"POLL_INTERVAL", &cfg.PollInterval, 3 * time.Second, false},
		{"OPERATION_TIMEOUT", &cfg.OperationTimeout, 180 * time.Second, false},
		{"RETRY_BACKOFF", &cfg.RetryBackoff, 2 * time.Second, true},
		{"REQUEST_TIMEOUT", &cfg.RequestTimeout, 120 * time.Second, false},
		{"DOWNLOAD_TIMEOUT", &cfg.DownloadTimeout, 60 * time.Second, false},
		{"POST_RUN_SLEEP", &cfg.PostRunSleep, 0, true},
	}
	for _, d := range durations {
		v, err := durationVar(getenv, d.key, d.def, d.zero)
		if err != nil {
			return nil, err
		}
		*d.dst = v
	}

	return cfg, nil
}

func loadCreator(getenv func(string) string) (models.Creator, error) {
	mode := strings.ToLower(orDefault(getenv("ROBLOX_CREATOR_TYPE"), "user"))
	switch mode {
	case "user":
		id, err := int64Var(getenv, "ROBLOX_USER_ID")
		if err != nil {
			return models.Creator{}, err
		}
		return models.Creator{UserID: id}, nil
	case "group":
		id, err := int64Var(getenv, "ROBLOX_GROUP_ID")
		if err != nil {
			return models.Creator{}, err
		}
		return models.Creator{GroupID: id}, nil
	default:
		return models.Creator{}, &ConfigError{Key: "ROBLOX_CREATOR_TYPE", Reason: fmt.Sprintf("expected user or group, got %q", mode)}
	}
}

func int64Var(getenv func(string) string, key string) (int64, error) {
	raw := strings.TrimSpace(getenv(key))
	if raw == "" {
		return 0, &ConfigError{Key: key, Reason: "not set"}
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, &ConfigError{Key: key, Reason: err.Error()}
	}
	if v <= 0 {
		return 0, &ConfigError{Key: key, Reason: "must be greater than zero"}
	}
	return v, nil
}

func intVar(getenv func(string) string, key string, def int) (int, error) {
	raw := strings.TrimSpace(getenv(key))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &ConfigError{Key: key, Reason: err.Error()}
	}
	if v <= 0 {
		return 0, &ConfigError{Key: key, Reason: "must be greater than zero"}
	}
	return v, nil
}

func durationVar(getenv func(string) string, key string, def time.Duration, allowZero bool) (time.Duration, error) {
	raw := strings.TrimSpace(getenv(key))
	if raw == "" {
		return def, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, &ConfigError{Key: key, Reason: err.Error()}
	}
	if v < 0 || (v == 0 && !allowZero) {
		return 0, &ConfigError{Key: key, Reason: "must be a positive duration"}
	}
	return v, nil
}

func orDefault(v, def string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return def
	}
	return v
}
