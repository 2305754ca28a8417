package cfg

import (
	"testing"
)

func TestGetVersion(t *testing.T) {
	// Test default version
	if GetVersion() == "" {
		t.Error("GetVersion should never return empty string")
	}

	// Test that version is at least "dev" or "unknown"
	version := GetVersion()
	if version != "dev" && version != "unknown" {
		// This is fine, version could be set at build time
		t.Logf("Version: %s", version)
	}
}

func TestConfigFields(t *testing.T) {
	// Create a config instance to test field access
	cfg := &Cfg{
		DBPath:                  "./test.db",
		EntitiesDir:             "./entities",
		SaveRoot:                "./downloads",
		Port:                    "8080",
		WorkerCount:             4,
		DownloadWorkers:         4,
		SchedulerInterval:       3600,
		APIAccessKey:            "test-key",
		SetFileModifiedDate:     true,
		SaveUndownloadedContent: true,
		UserAgent:               "Test Agent",
		ImgurClientID:           "test-client-id",
		Timezone:                "UTC",
		Debug:                   true,
		Version:                 "test-version",
	}

	// Test direct field access
	if cfg.DBPath != "./test.db" {
		t.Errorf("Expected DB path './test.db', got '%s'", cfg.DBPath)
	}
	if cfg.EntitiesDir != "./entities" {
		t.Errorf("Expected entities dir './entities', got '%s'", cfg.EntitiesDir)
	}
	if cfg.SaveRoot != "./downloads" {
		t.Errorf("Expected save root './downloads', got '%s'", cfg.SaveRoot)
	}
	if cfg.Port != "8080" {
		t.Errorf("Expected port '8080', got '%s'", cfg.Port)
	}
	if cfg.WorkerCount != 4 {
		t.Errorf("Expected worker count 4, got %d", cfg.WorkerCount)
	}
	if cfg.DownloadWorkers != 4 {
		t.Errorf("Expected download workers 4, got %d", cfg.DownloadWorkers)
	}
	if cfg.SchedulerInterval != 3600 {
		t.Errorf("Expected scheduler interval 3600, got %d", cfg.SchedulerInterval)
	}
	if cfg.APIAccessKey != "test-key" {
		t.Errorf("Expected API key 'test-key', got '%s'", cfg.APIAccessKey)
	}
	if !cfg.SetFileModifiedDate {
		t.Error("Expected set-file-modified-date to be enabled")
	}
	if !cfg.SaveUndownloadedContent {
		t.Error("Expected save-undownloaded-content to be enabled")
	}
	if cfg.UserAgent != "Test Agent" {
		t.Errorf("Expected user agent 'Test Agent', got '%s'", cfg.UserAgent)
	}
	if cfg.ImgurClientID != "test-client-id" {
		t.Errorf("Expected imgur client id 'test-client-id', got '%s'", cfg.ImgurClientID)
	}
	if cfg.Timezone != "UTC" {
		t.Errorf("Expected timezone 'UTC', got '%s'", cfg.Timezone)
	}
	if !cfg.Debug {
		t.Error("Expected debug to be enabled")
	}
	if cfg.Version != "test-version" {
		t.Errorf("Expected version 'test-version', got '%s'", cfg.Version)
	}
}
