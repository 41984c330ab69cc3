package crawler

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Bounds from the scan endpoint's parameter table.
const (
	DefaultMaxPages        = 50
	DefaultMaxDepth        = 3
	DefaultWorkers         = 5
	MaxWorkers             = 10
	DefaultTimeoutSeconds  = 100
	MinTimeoutSeconds      = 1
	MaxTimeoutSeconds      = 3600
	DefaultRequestSeconds  = 15
	MinRequestSeconds      = 1
	MaxRequestSeconds      = 120
	DefaultQueueTimeout    = 2 * time.Second
	DefaultGracePeriod     = 5 * time.Second
	DefaultPollInterval    = 500 * time.Millisecond
)

// ScanJob is the fully validated, defaulted configuration for one scan,
// built once at request acceptance and never mutated after.
type ScanJob struct {
	ScanID            string
	SeedURL           string
	BaseHost          string
	MaxPages          int
	MaxDepth          int
	NumWorkers        int
	GlobalDeadline    time.Duration
	PerRequestTimeout time.Duration
	QueueTimeout      time.Duration
	GracePeriod       time.Duration
	Detailed          bool
	IncludeLinks      bool
	StartTime         time.Time
}

// ScanParams is the raw, unvalidated set of request parameters the HTTP
// control surface decodes from the query string.
type ScanParams struct {
	Domain          string
	MaxPages        *int
	MaxDepth        *int
	Workers         *int
	TimeoutSeconds  *int
	RequestSeconds  *int
	Detailed        *bool
	IncludeLinks    *bool
}

// NewScanJob validates params, applies defaults for every unset field,
// and returns a ready-to-run ScanJob. A validation failure returns an
// error meant to be surfaced as an HTTP 400 — it never reaches the
// controller.
func NewScanJob(params ScanParams, now time.Time) (*ScanJob, error) {
	if strings.TrimSpace(params.Domain) == "" {
		return nil, fmt.Errorf("domain is required")
	}

	seed := params.Domain
	if !strings.Contains(seed, "://") {
		seed = "https://" + seed
	}
	parsed, err := url.Parse(seed)
	if err != nil {
		return nil, fmt.Errorf("invalid domain: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("domain must resolve to an http or https URL")
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("domain must include a host")
	}
	normalizedSeed, err := Normalize(parsed.String())
	if err != nil {
		return nil, fmt.Errorf("normalizing domain: %w", err)
	}

	job := &ScanJob{
		SeedURL:      normalizedSeed,
		BaseHost:     strings.ToLower(parsed.Host),
		MaxPages:     DefaultMaxPages,
		MaxDepth:     DefaultMaxDepth,
		NumWorkers:   DefaultWorkers,
		Detailed:     false,
		IncludeLinks: true,
		StartTime:    now,
	}

	timeoutSeconds := DefaultTimeoutSeconds
	requestSeconds := DefaultRequestSeconds

	if params.MaxPages != nil {
		if *params.MaxPages < 1 {
			return nil, fmt.Errorf("max_pages must be >= 1")
		}
		job.MaxPages = *params.MaxPages
	}
	if params.MaxDepth != nil {
		if *params.MaxDepth < 0 {
			return nil, fmt.Errorf("max_depth must be >= 0")
		}
		job.MaxDepth = *params.MaxDepth
	}
	if params.Workers != nil {
		if *params.Workers < 1 || *params.Workers > MaxWorkers {
			return nil, fmt.Errorf("workers must be between 1 and %d", MaxWorkers)
		}
		job.NumWorkers = *params.Workers
	}
	if params.TimeoutSeconds != nil {
		if *params.TimeoutSeconds < MinTimeoutSeconds || *params.TimeoutSeconds > MaxTimeoutSeconds {
			return nil, fmt.Errorf("timeout must be between %d and %d seconds", MinTimeoutSeconds, MaxTimeoutSeconds)
		}
		timeoutSeconds = *params.TimeoutSeconds
	}
	if params.RequestSeconds != nil {
		if *params.RequestSeconds < MinRequestSeconds || *params.RequestSeconds > MaxRequestSeconds {
			return nil, fmt.Errorf("request_timeout must be between %d and %d seconds", MinRequestSeconds, MaxRequestSeconds)
		}
		requestSeconds = *params.RequestSeconds
	}
	if params.Detailed != nil {
		job.Detailed = *params.Detailed
	}
	if params.IncludeLinks != nil {
		job.IncludeLinks = *params.IncludeLinks
	}

	job.GlobalDeadline = time.Duration(timeoutSeconds) * time.Second
	job.PerRequestTimeout = time.Duration(requestSeconds) * time.Second
	job.QueueTimeout = DefaultQueueTimeout
	job.GracePeriod = DefaultGracePeriod
	job.ScanID = NewScanID(job.SeedURL, now)

	return job, nil
}
