package api

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/corvidlabs/crawlerd/internal/crawler"
)

// handleScan implements GET /api/scan: decode, validate, run one scan to
// completion, and return its report. Blocks for the scan's whole
// lifetime — this is the teacher's single synchronous request/response
// model, generalized to a crawl instead of a one-shot fetch.
func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	params, err := parseScanParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	job, err := crawler.NewScanJob(params, time.Now())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	fetcher := newFetcher(job.PerRequestTimeout)
	ctrl := crawler.NewController(job, fetcher)
	s.registry.Put(job, ctrl)
	defer s.registry.Remove(job.ScanID)

	log.Printf("scan %s started for %s", job.ScanID, job.BaseHost)
	report := ctrl.Run(r.Context())
	log.Printf("scan %s finished: %s (%d pages)", job.ScanID, report.CompletionStatus, report.PagesFetched)

	writeJSON(w, http.StatusOK, buildScanResponse(report, job))
}

// handleControl implements POST /api/scan/{scan_id}/control.
func (s *Server) handleControl(w http.ResponseWriter, r *http.Request) {
	scanID := r.PathValue("scan_id")
	ctrl, _, ok := s.registry.Get(scanID)
	if !ok {
		writeError(w, http.StatusNotFound, "scan not active")
		return
	}

	var body struct {
		Action string `json:"action"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	switch body.Action {
	case "pause":
		ctrl.Pause()
	case "resume":
		ctrl.Resume()
	case "stop":
		ctrl.Stop()
	default:
		writeError(w, http.StatusBadRequest, "action must be one of pause, resume, stop")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"scan_id": scanID, "action": body.Action})
}

// handleProgress implements GET /api/scan/{scan_id}/progress.
func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	scanID := r.PathValue("scan_id")
	ctrl, _, ok := s.registry.Get(scanID)
	if !ok {
		writeError(w, http.StatusNotFound, "scan not active")
		return
	}

	p := ctrl.Progress()
	writeJSON(w, http.StatusOK, map[string]any{
		"total":              p.Total,
		"max":                p.Max,
		"queue_size":         p.QueueSize,
		"visited":            p.Visited,
		"unique_links":       p.UniqueLinks,
		"elapsed_time":       p.ElapsedTime.Seconds(),
		"remaining_time":     p.RemainingTime.Seconds(),
		"percentage":         p.Percentage,
		"timed_out":          p.TimedOut,
		"is_paused":          p.IsPaused,
		"shutdown_requested": p.ShutdownRequested,
	})
}

// handleStatus implements GET /api/scan/status.
func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"ready":        true,
		"active_scans": s.registry.Count(),
		"max_workers":  crawler.MaxWorkers,
		"devices":      crawler.Devices(),
	})
}

func parseScanParams(r *http.Request) (crawler.ScanParams, error) {
	q := r.URL.Query()
	params := crawler.ScanParams{Domain: q.Get("domain")}

	var err error
	params.MaxPages, err = parseOptionalInt(q, "max_pages")
	if err != nil {
		return params, err
	}
	params.MaxDepth, err = parseOptionalInt(q, "max_depth")
	if err != nil {
		return params, err
	}
	params.Workers, err = parseOptionalInt(q, "workers")
	if err != nil {
		return params, err
	}
	params.TimeoutSeconds, err = parseOptionalInt(q, "timeout")
	if err != nil {
		return params, err
	}
	params.RequestSeconds, err = parseOptionalInt(q, "request_timeout")
	if err != nil {
		return params, err
	}
	params.Detailed, err = parseOptionalBool(q, "detailed")
	if err != nil {
		return params, err
	}
	params.IncludeLinks, err = parseOptionalBool(q, "include_links")
	if err != nil {
		return params, err
	}
	return params, nil
}

func parseOptionalInt(q map[string][]string, key string) (*int, error) {
	raw := firstOr(q, key)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, errInvalidParam(key)
	}
	return &v, nil
}

func parseOptionalBool(q map[string][]string, key string) (*bool, error) {
	raw := firstOr(q, key)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, errInvalidParam(key)
	}
	return &v, nil
}

func firstOr(q map[string][]string, key string) string {
	vals, ok := q[key]
	if !ok || len(vals) == 0 {
		return ""
	}
	return vals[0]
}

func errInvalidParam(key string) error {
	return paramError{key: key}
}

type paramError struct{ key string }

func (e paramError) Error() string { return "invalid value for parameter " + e.key }

// buildScanResponse shapes a Report into the wire format the scan
// endpoint promises, honoring the job's detailed/include_links flags.
func buildScanResponse(report crawler.Report, job *crawler.ScanJob) map[string]any {
	resp := map[string]any{
		"scan_id":   report.ScanID,
		"timestamp": report.EndTime.UTC().Format(time.RFC3339),
		"domain":    report.Domain,
		"status":    string(report.CompletionStatus),
		"summary": map[string]any{
			"pages_fetched":       report.PagesFetched,
			"error_pages":         report.ErrorPages,
			"timeout_pages":       report.TimeoutPages,
			"avg_response_ms":     report.AvgResponseMs,
			"duration_seconds":    report.Duration.Seconds(),
			"completion_status":   string(report.CompletionStatus),
			"timed_out":           report.TimedOut,
		},
		"links": map[string]any{
			"total":            report.LinksTotal,
			"internal_unique":  report.LinksInternalUnique,
			"external_unique":  report.LinksExternalUnique,
			"by_resource_type": crawler.SortedEntries(report.LinksByResourceType),
			"internal_by_type": crawler.SortedEntries(report.LinksInternalByType),
			"external_by_type": crawler.SortedEntries(report.LinksExternalByType),
		},
		"http_analysis": map[string]any{
			"status_codes":      crawler.SortedEntries(report.StatusCodeCounts),
			"status_categories": crawler.SortedEntries(report.StatusCategories),
			"content_types":     crawler.SortedEntries(report.ContentTypes),
			"redirect_lengths":  crawler.SortedEntries(report.RedirectLengths),
		},
		"devices": map[string]any{
			"page_counts":      crawler.SortedEntries(report.DevicePages),
			"depth_counts":     crawler.SortedEntries(report.DepthCounts),
		},
		"performance": buildPerformance(report),
		"config":      buildConfig(job),
		"timeout_info": map[string]any{
			"timed_out":          report.TimedOut,
			"global_deadline_s":  job.GlobalDeadline.Seconds(),
			"request_deadline_s": job.PerRequestTimeout.Seconds(),
		},
	}

	if job.Detailed {
		resp["detailed_results"] = report.DetailedResults
	}
	if job.IncludeLinks && report.LinksTotal > 0 {
		resp["unique_links"] = map[string]any{
			"links":               report.UniqueLinks,
			"top_internal_pages":  report.TopInternalPages,
			"top_external_hosts":  report.TopExternalHosts,
		}
	}

	return resp
}

func buildPerformance(report crawler.Report) map[string]any {
	var totalBytes, totalLinks, totalErrors, totalTimeouts int64
	var totalTime time.Duration
	for _, ws := range report.WorkerSummaries {
		totalBytes += ws.TotalBytes
		totalLinks += ws.LinksFound
		totalErrors += ws.Errors
		totalTimeouts += ws.TimeoutErrors
		totalTime += ws.TotalTime
	}
	return map[string]any{
		"workers": report.WorkerSummaries,
		"totals": map[string]any{
			"total_bytes":    totalBytes,
			"total_links":    totalLinks,
			"total_errors":   totalErrors,
			"total_timeouts": totalTimeouts,
			"total_time_s":   totalTime.Seconds(),
		},
	}
}

func buildConfig(job *crawler.ScanJob) map[string]any {
	return map[string]any{
		"seed_url":            job.SeedURL,
		"max_pages":           job.MaxPages,
		"max_depth":           job.MaxDepth,
		"num_workers":         job.NumWorkers,
		"global_deadline_s":   job.GlobalDeadline.Seconds(),
		"per_request_timeout": job.PerRequestTimeout.Seconds(),
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("writing response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
