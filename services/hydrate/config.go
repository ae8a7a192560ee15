package hydrate

import (
	"runtime"
	"time"

	"votolocal-backend/lib/configutil"
	"votolocal-backend/lib/scrapers/tre"
)

type Config struct {
	Database    configutil.Database `json:"database"`
	Cache       CacheConfig         `json:"cache"`
	Pipeline    PipelineConfig      `json:"pipeline"`
	Site        SiteConfig          `json:"site"`
	Diagnostics DiagnosticsConfig   `json:"diagnostics"`
}

type CacheConfig struct {
	// Url is a redis connection string. Empty disables caching.
	Url        string `json:"url"`
	TTLMinutes int    `json:"ttl_minutes"`
}

func (c CacheConfig) TTL() time.Duration {
	if c.TTLMinutes <= 0 {
		return time.Hour
	}
	return time.Duration(c.TTLMinutes) * time.Minute
}

type PipelineConfig struct {
	CityID   int64 `json:"city_id"`
	PageSize int64 `json:"page_size"`
	// Workers is how many slices each backlog page is split into.
	Workers int `json:"workers"`
	// TasksPerWorker bounds concurrent lookups inside one worker, each
	// backed by a pooled scraping session.
	TasksPerWorker int `json:"tasks_per_worker"`
	AgeMin         int `json:"age_min"`
	AgeMax         int `json:"age_max"`
	MaxAttempts    int `json:"max_attempts"`
	// RetryDelayMillis is the base delay, attempts back off from there.
	RetryDelayMillis int `json:"retry_delay_ms"`
	// SingleFlight collapses concurrent lookups that share a cache key.
	SingleFlight bool `json:"single_flight"`
}

func (c PipelineConfig) withDefaults() PipelineConfig {
	if c.PageSize <= 0 {
		c.PageSize = 1000
	}
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
	if c.TasksPerWorker <= 0 {
		c.TasksPerWorker = 5
	}
	if c.AgeMin <= 0 {
		c.AgeMin = 16
	}
	if c.AgeMax <= 0 {
		c.AgeMax = 30
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	if c.RetryDelayMillis <= 0 {
		c.RetryDelayMillis = 2000
	}
	return c
}

// SiteConfig overrides parts of the default site profile. Zero values
// leave the default alone.
type SiteConfig struct {
	LookupURL           string `json:"lookup_url"`
	NavigateTimeoutSecs int    `json:"navigate_timeout_secs"`
	FieldWaitSecs       int    `json:"field_wait_secs"`
	ResultWaitSecs      int    `json:"result_wait_secs"`
	PollIntervalMillis  int    `json:"poll_interval_millis"`
	ConsentButton       string `json:"consent_button"`
	NotFoundSelector    string `json:"not_found_selector"`
	LoadingText         string `json:"loading_text"`
	BiometricsMarker    string `json:"biometrics_marker"`
}

func (c SiteConfig) Apply(p tre.Profile) tre.Profile {
	if c.LookupURL != "" {
		p.LookupURL = c.LookupURL
	}
	if c.NavigateTimeoutSecs > 0 {
		p.NavigateTimeout = time.Duration(c.NavigateTimeoutSecs) * time.Second
	}
	if c.FieldWaitSecs > 0 {
		p.FieldWait = time.Duration(c.FieldWaitSecs) * time.Second
	}
	if c.ResultWaitSecs > 0 {
		p.ResultWait = time.Duration(c.ResultWaitSecs) * time.Second
	}
	if c.PollIntervalMillis > 0 {
		p.PollInterval = time.Duration(c.PollIntervalMillis) * time.Millisecond
	}
	if c.ConsentButton != "" {
		p.ConsentButton = c.ConsentButton
	}
	if c.NotFoundSelector != "" {
		p.NotFoundSelector = c.NotFoundSelector
	}
	if c.LoadingText != "" {
		p.LoadingText = c.LoadingText
	}
	if c.BiometricsMarker != "" {
		p.BiometricsMarker = c.BiometricsMarker
	}
	return p
}

type DiagnosticsConfig struct {
	// Dir receives html snapshots of failed lookups. Empty disables them.
	Dir string `json:"dir"`
	// HttpDumpDir receives raw request/response bodies. Very verbose,
	// leave empty outside of debugging sessions.
	HttpDumpDir string `json:"http_dump_dir"`
}
