package matcher

import (
	"lead-dedup-service/internal/constants"
	"lead-dedup-service/internal/models"
)

// SelectorConfig allows tuning master selection without code changes.
type SelectorConfig struct {
	ConfidenceWeight float64
	FieldBonus       float64
	LeadershipBonus  float64
	AgeBonus         float64
}

// DefaultSelectorConfig returns weights that match the centralized constants.
func DefaultSelectorConfig() SelectorConfig {
	return SelectorConfig{
		ConfidenceWeight: constants.MasterConfidenceWeight,
		FieldBonus:       constants.MasterFieldBonus,
		LeadershipBonus:  constants.MasterLeadershipBonus,
		AgeBonus:         constants.MasterAgeBonus,
	}
}

// Selector deterministically picks which of two leads survives a merge.
type Selector struct {
	cfg SelectorConfig
}

func NewSelector(cfg SelectorConfig) *Selector { return &Selector{cfg: cfg} }
func NewDefaultSelector() *Selector            { return NewSelector(DefaultSelectorConfig()) }

// SelectMaster returns the id of the lead to keep. Data quality decides:
// enrichment confidence, populated contact/profile fields and leadership.
// The older record gets a small bonus so ties break toward it. On an exact
// tie after all bonuses the first argument wins; callers can rely on that.
func (s *Selector) SelectMaster(a, b models.Lead) int64 {
	scoreA := s.qualityScore(a)
	scoreB := s.qualityScore(b)

	if a.CreatedAt.Before(b.CreatedAt) {
		scoreA += s.cfg.AgeBonus
	} else if b.CreatedAt.Before(a.CreatedAt) {
		scoreB += s.cfg.AgeBonus
	}

	if scoreA >= scoreB {
		return a.ID
	}
	return b.ID
}

func (s *Selector) qualityScore(l models.Lead) float64 {
	score := l.Confidence * s.cfg.ConfidenceWeight

	for _, f := range []*string{
		l.Website, l.Email, l.Phone, l.Address,
		l.Industry, l.ActivityField, l.LinkedinURL,
	} {
		if f != nil && *f != "" {
			score += s.cfg.FieldBonus
		}
	}

	if len(l.Leadership) > 0 {
		score += s.cfg.LeadershipBonus
	}

	return score
}
