package constants

// Centralized scoring weights and thresholds used across the application.
// Keep these stable; change deliberately and document why.
// These are not configuration knobs; use pkg/config for env-driven settings.

const (
	// Classifier rule weights (points, additive unless short-circuited)
	ScoreIdenticalName   = 100 // exact normalized name match, short-circuits
	ScoreSameDomain      = 90  // same website domain
	ScoreSimilarName     = 80  // name similarity above NameSimilarityThreshold
	ScoreSameEmailDomain = 70  // same non-webmail email domain
	ScoreSamePhone       = 60  // same normalized phone number

	// MatchThreshold is the minimum aggregate score for a duplicate verdict.
	// A single strong signal (identical name, same domain, similar name)
	// clears it on its own; weaker signals must combine.
	MatchThreshold = 80

	// Name similarity cutoffs (normalized Levenshtein, 0.0 - 1.0)
	NameSimilarityThreshold = 0.85
	// Pre-import checks have only the name to go on, so the bar is lower.
	PreImportSimilarityThreshold = 0.80

	// Master selector weights
	MasterConfidenceWeight = 100 // confidence (0-1) scales to 0-100 points
	MasterFieldBonus       = 10  // per populated contact/profile field
	MasterLeadershipBonus  = 20  // leadership list is non-empty
	MasterAgeBonus         = 5   // awarded to the record with the earlier CreatedAt
)
