package scanner

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"lead-dedup-service/internal/constants"
	"lead-dedup-service/internal/domain"
	"lead-dedup-service/internal/matcher"
	"lead-dedup-service/internal/models"
	"lead-dedup-service/internal/validation"
	"lead-dedup-service/pkg/events"
	"lead-dedup-service/pkg/logging"
	"lead-dedup-service/pkg/utils"
)

// ScanStats summarizes one pairwise scan run.
type ScanStats struct {
	RunID      string        `json:"run_id"`
	LeadCount  int           `json:"lead_count"`
	PairCount  int           `json:"pair_count"`
	MatchCount int           `json:"match_count"`
	Duration   time.Duration `json:"duration"`
}

// Engine runs pairwise duplicate scans over all active leads and checks
// candidate names before import. Every pair goes through the classifier;
// with n leads that is n*(n-1)/2 comparisons, which is fine for the lead
// volumes this service sees.
type Engine struct {
	repo       domain.LeadRepository
	classifier *matcher.Classifier
	selector   *matcher.Selector
	store      events.EventStore
	logger     *logging.ComponentLogger

	importThreshold float64

	mu       sync.RWMutex
	lastScan *ScanStats
}

func NewEngine(repo domain.LeadRepository, cls *matcher.Classifier, sel *matcher.Selector, store events.EventStore, logger *logging.Logger) *Engine {
	return &Engine{
		repo:            repo,
		classifier:      cls,
		selector:        sel,
		store:           store,
		logger:          logger.WithComponent("scanner"),
		importThreshold: constants.PreImportSimilarityThreshold,
	}
}

// ApplyConfig forwards runtime threshold changes to the classifier.
func (e *Engine) ApplyConfig(matchThreshold int) {
	e.classifier.ApplyConfig(matchThreshold)
}

// LastScan returns stats from the most recent scan run, or nil before the
// first one. Used by the scanner health checker.
func (e *Engine) LastScan() *ScanStats {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.lastScan == nil {
		return nil
	}
	cp := *e.lastScan
	return &cp
}

// ScanForDuplicates compares every active lead against every other one and
// returns all matching pairs. Each pair is reported once with LeadA < LeadB.
// A store failure is logged and yields an empty result, never a partial one.
func (e *Engine) ScanForDuplicates(ctx context.Context) ([]models.DuplicateMatch, *ScanStats) {
	start := time.Now()
	runID := uuid.NewString()

	leads, err := e.repo.ListActiveLeadsCtx(ctx)
	if err != nil {
		e.logger.Error("failed to load active leads, aborting scan", err, logging.String("run_id", runID))
		return []models.DuplicateMatch{}, &ScanStats{RunID: runID, Duration: time.Since(start)}
	}

	// Degenerate records are reported but still scanned best-effort.
	for i := range leads {
		if err := validation.ValidateLead(leads[i]); err != nil {
			e.logger.Warn("lead fails invariants, scanning anyway",
				logging.LeadID(leads[i].ID), logging.String("error", err.Error()))
		}
		leads[i].Confidence = validation.ClampConfidence(leads[i].Confidence)
	}

	matches := []models.DuplicateMatch{}
	pairs := 0
	for i := 0; i < len(leads); i++ {
		for j := i + 1; j < len(leads); j++ {
			pairs++
			res := e.classifier.Classify(leads[i], leads[j])
			if !res.IsMatch {
				continue
			}

			a, b := leads[i], leads[j]
			if a.ID > b.ID {
				a, b = b, a
			}
			matches = append(matches, models.DuplicateMatch{
				LeadA:             a.ID,
				LeadB:             b.ID,
				Score:             res.Score,
				Reasons:           res.Reasons,
				SuggestedMasterID: e.selector.SelectMaster(leads[i], leads[j]),
			})
		}
	}

	stats := &ScanStats{
		RunID:      runID,
		LeadCount:  len(leads),
		PairCount:  pairs,
		MatchCount: len(matches),
		Duration:   time.Since(start),
	}

	e.mu.Lock()
	e.lastScan = stats
	e.mu.Unlock()

	e.logger.Info("duplicate scan completed",
		logging.String("run_id", runID),
		logging.Int("leads", stats.LeadCount),
		logging.Int("pairs", stats.PairCount),
		logging.Int("matches", stats.MatchCount),
		logging.Duration("took", stats.Duration))

	if e.store != nil {
		ev := events.DuplicateScanCompleted{
			Base:       events.Base{Ts: time.Now()},
			RunID:      runID,
			LeadCount:  stats.LeadCount,
			PairCount:  stats.PairCount,
			MatchCount: stats.MatchCount,
			DurationMs: stats.Duration.Milliseconds(),
		}
		if err := e.store.Append(ctx, ev); err != nil {
			e.logger.Warn("failed to record scan event", logging.String("run_id", runID), logging.String("error", err.Error()))
		}
	}

	return matches, stats
}

// CheckBeforeImport flags candidate company names that look like existing
// active leads. A name collides when its normalized similarity to an
// existing lead's name exceeds the import threshold. Results keep the
// caller's original names as keys; names without collisions are absent.
func (e *Engine) CheckBeforeImport(ctx context.Context, names []string) (map[string][]models.ImportMatch, error) {
	leads, err := e.repo.ListActiveLeadsCtx(ctx)
	if err != nil {
		e.logger.Error("failed to load active leads for import check", err)
		return nil, err
	}

	type normLead struct {
		id   int64
		name string
		norm string
	}
	existing := make([]normLead, 0, len(leads))
	for _, l := range leads {
		existing = append(existing, normLead{id: l.ID, name: l.CompanyName, norm: utils.NormalizeCompanyName(l.CompanyName)})
	}

	out := make(map[string][]models.ImportMatch)
	for _, name := range names {
		norm := utils.NormalizeCompanyName(name)
		var hits []models.ImportMatch
		for _, ex := range existing {
			sim := utils.CalculateStringSimilarity(norm, ex.norm)
			if sim > e.importThreshold {
				hits = append(hits, models.ImportMatch{
					ExistingID:   ex.id,
					ExistingName: ex.name,
					Similarity:   sim,
				})
			}
		}
		if len(hits) > 0 {
			sort.Slice(hits, func(i, j int) bool { return hits[i].Similarity > hits[j].Similarity })
			out[name] = hits
		}
	}

	if e.store != nil {
		ev := events.ImportChecked{
			Base:       events.Base{Ts: time.Now()},
			NameCount:  len(names),
			Collisions: len(out),
		}
		if err := e.store.Append(ctx, ev); err != nil {
			e.logger.Warn("failed to record import check event", logging.String("error", err.Error()))
		}
	}

	return out, nil
}
