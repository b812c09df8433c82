package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"lead-dedup-service/internal/auth"
	"lead-dedup-service/internal/domain"
	"lead-dedup-service/internal/merger"
	"lead-dedup-service/internal/scanner"
	"lead-dedup-service/internal/validation"
	"lead-dedup-service/pkg/events"
	"lead-dedup-service/pkg/metrics"
)

// metrics
var (
	mScansRun     = metrics.Default.Counter("duplicate_scans_total", "Duplicate scan runs")
	mMatchesFound = metrics.Default.Counter("duplicate_matches_total", "Duplicate pairs reported by scans")
	mMergesOK     = metrics.Default.Counter("merges_success_total", "Successful lead merges")
	mMergesFailed = metrics.Default.Counter("merges_failed_total", "Failed lead merges")
	mImportChecks = metrics.Default.Counter("import_checks_total", "Pre-import name checks")
	hScanDuration = metrics.Default.Histogram("scan_duration_ms", "Duplicate scan duration in milliseconds", []float64{50, 200, 1000, 5000, 30000})
	gActiveLeads  = metrics.Default.Gauge("active_leads_gauge", "Active lead count at last stats request")
	gDeletedLeads = metrics.Default.Gauge("deleted_leads_gauge", "Soft-deleted lead count at last stats request")
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// ScanHandler runs a full pairwise duplicate scan and returns all matches.
// The timeout is read per request so config reloads take effect immediately.
func ScanHandler(engine *scanner.Engine, scanTimeout func() time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if scanTimeout != nil {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, scanTimeout())
			defer cancel()
		}

		matches, stats := engine.ScanForDuplicates(ctx)
		mScansRun.Inc(1)
		mMatchesFound.Inc(int64(stats.MatchCount))
		hScanDuration.Observe(float64(stats.Duration.Milliseconds()))

		writeJSON(w, http.StatusOK, map[string]interface{}{
			"matches": matches,
			"stats":   stats,
		})
	}
}

// ImportCheckHandler flags candidate names that collide with existing leads.
func ImportCheckHandler(engine *scanner.Engine) http.HandlerFunc {
	type request struct {
		Names []string `json:"names"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if err := validation.ValidateImportNames(req.Names); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		collisions, err := engine.CheckBeforeImport(r.Context(), req.Names)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "import check failed")
			return
		}
		mImportChecks.Inc(1)

		writeJSON(w, http.StatusOK, map[string]interface{}{
			"checked":    len(req.Names),
			"collisions": collisions,
		})
	}
}

// MergeHandler merges duplicates into the lead named in the path. Requires
// an authenticated operator; the auth middleware guarantees one in context.
func MergeHandler(executor *merger.Executor) http.HandlerFunc {
	type request struct {
		DuplicateIDs []int64 `json:"duplicate_ids"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		masterID, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
		if err != nil || masterID < 1 {
			writeError(w, http.StatusBadRequest, "invalid lead id")
			return
		}

		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}

		var operator *string
		if op, ok := auth.GetOperatorFromContext(r.Context()); ok {
			operator = &op
		}

		result := executor.Merge(r.Context(), masterID, req.DuplicateIDs, operator)
		if result.Success {
			mMergesOK.Inc(1)
			writeJSON(w, http.StatusOK, result)
			return
		}
		mMergesFailed.Inc(1)
		writeJSON(w, http.StatusUnprocessableEntity, result)
	}
}

// LeadEventsHandler lists the audit trail of one lead plus replayed state.
func LeadEventsHandler(store events.EventStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		leadID, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
		if err != nil || leadID < 1 {
			writeError(w, http.StatusBadRequest, "invalid lead id")
			return
		}

		evs, err := store.ListByLead(r.Context(), leadID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to load events")
			return
		}

		writeJSON(w, http.StatusOK, map[string]interface{}{
			"lead_id": leadID,
			"events":  evs,
			"state":   events.Replay(leadID, evs),
		})
	}
}

// LeadHandler returns a single lead by id.
func LeadHandler(repo domain.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		leadID, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
		if err != nil || leadID < 1 {
			writeError(w, http.StatusBadRequest, "invalid lead id")
			return
		}

		lead, err := repo.GetLeadByIDCtx(r.Context(), leadID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to load lead")
			return
		}
		if lead == nil {
			writeError(w, http.StatusNotFound, "lead not found")
			return
		}
		writeJSON(w, http.StatusOK, lead)
	}
}

// StatsHandler returns active/deleted/total lead counts.
func StatsHandler(repo domain.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := repo.GetLeadStatisticsCtx(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to load statistics")
			return
		}
		gActiveLeads.Set(float64(stats.Active))
		gDeletedLeads.Set(float64(stats.Deleted))
		writeJSON(w, http.StatusOK, stats)
	}
}
