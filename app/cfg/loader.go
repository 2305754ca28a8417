package cfg

import (
	"cmp"
	"fmt"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Database configuration
	DBPath string `long:"db-path" env:"DB_PATH" default:"./grabbit.db" description:"Path to the SQLite database file"`

	// Application configuration
	EntitiesDir       string `long:"entities-dir" env:"ENTITIES_DIR" default:"./entities" description:"Directory containing entity configuration files"`
	SaveRoot          string `long:"save-root" env:"SAVE_ROOT" default:"./downloads" description:"Root directory downloaded files are saved under"`
	Port              string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	WorkerCount       int    `long:"worker-count" env:"WORKER_COUNT" default:"4" description:"Number of background workers for entity processing"`
	DownloadWorkers   int    `long:"download-workers" env:"DOWNLOAD_WORKERS" default:"4" description:"Number of concurrent downloads per entity pass"`
	SchedulerInterval int    `long:"scheduler-interval" env:"SCHEDULER_INTERVAL" default:"3600" description:"Scheduler interval in seconds"`
	APIAccessKey      string `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for authentication (optional)"`

	// Download behavior
	SetFileModifiedDate     bool `long:"set-file-modified-date" env:"SET_FILE_MODIFIED_DATE" description:"Set each saved file's modification time to the post creation time"`
	SaveUndownloadedContent bool `long:"save-undownloaded-content" env:"SAVE_UNDOWNLOADED_CONTENT" description:"Persist items that failed to download so the next pass retries them"`

	// External services
	UserAgent     string `long:"user-agent" env:"USER_AGENT" default:"Grabbit/1.0" description:"User agent string for HTTP requests"`
	ImgurClientID string `long:"imgur-client-id" env:"IMGUR_CLIENT_ID" description:"Imgur API client id (required for imgur extraction)"`

	// Application metadata
	Timezone string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, America/New_York)"`
	Debug    bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

func Load() (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		DBPath:                  raw.DBPath,
		EntitiesDir:             raw.EntitiesDir,
		SaveRoot:                raw.SaveRoot,
		Port:                    raw.Port,
		WorkerCount:             raw.WorkerCount,
		DownloadWorkers:         raw.DownloadWorkers,
		SchedulerInterval:       raw.SchedulerInterval,
		APIAccessKey:            raw.APIAccessKey,
		SetFileModifiedDate:     raw.SetFileModifiedDate,
		SaveUndownloadedContent: raw.SaveUndownloadedContent,
		UserAgent:               raw.UserAgent,
		ImgurClientID:           raw.ImgurClientID,
		Timezone:                raw.Timezone,
		Debug:                   raw.Debug,
		Version:                 GetVersion(),
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	globalCfg = cfg

	return cfg, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
			fmt.Printf("Timezone configured: %s\n", timezone)
		}
	}
	return nil
}
