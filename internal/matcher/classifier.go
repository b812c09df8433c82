package matcher

import (
	"fmt"
	"math"

	"lead-dedup-service/internal/constants"
	"lead-dedup-service/internal/models"
	"lead-dedup-service/pkg/utils"
)

// MatchResult is the classifier verdict for one pair of leads.
// Reasons are human-readable and ordered by rule evaluation.
type MatchResult struct {
	IsMatch bool     `json:"is_match"`
	Score   int      `json:"score"`
	Reasons []string `json:"reasons"`
}

// Config allows tuning the classifier without code changes.
// Defaults mirror the centralized constants.
type Config struct {
	MatchThreshold          int
	NameSimilarityThreshold float64
	WebmailDomains          []string
}

// DefaultConfig returns thresholds that match the documented scoring rules.
// WebmailDomains lists personal mail providers whose shared domain says
// nothing about two organizations being the same.
func DefaultConfig() Config {
	return Config{
		MatchThreshold:          constants.MatchThreshold,
		NameSimilarityThreshold: constants.NameSimilarityThreshold,
		WebmailDomains: []string{
			"gmail.com",
			"googlemail.com",
			"web.de",
			"gmx.de",
			"gmx.net",
			"t-online.de",
			"outlook.com",
			"hotmail.com",
			"yahoo.com",
			"yahoo.de",
		},
	}
}

// Classifier combines normalized-field comparisons into a weighted score
// and a duplicate verdict. Pure and safe for concurrent use.
type Classifier struct {
	cfg     Config
	webmail map[string]bool
}

func NewClassifier(cfg Config) *Classifier {
	wm := make(map[string]bool, len(cfg.WebmailDomains))
	for _, d := range cfg.WebmailDomains {
		wm[d] = true
	}
	return &Classifier{cfg: cfg, webmail: wm}
}

func NewDefault() *Classifier { return NewClassifier(DefaultConfig()) }

// ApplyConfig allows runtime updates of the match threshold.
func (c *Classifier) ApplyConfig(matchThreshold int) {
	if matchThreshold > 0 {
		c.cfg.MatchThreshold = matchThreshold
	}
}

// Classify scores a pair of leads. Rules are additive except for an exact
// normalized-name match, which short-circuits: once the names are
// identical no further evidence changes the verdict.
func (c *Classifier) Classify(a, b models.Lead) MatchResult {
	nameA := utils.NormalizeCompanyName(a.CompanyName)
	nameB := utils.NormalizeCompanyName(b.CompanyName)

	if nameA != "" && nameA == nameB {
		return MatchResult{
			IsMatch: true,
			Score:   constants.ScoreIdenticalName,
			Reasons: []string{"identical normalized name"},
		}
	}

	score := 0
	var reasons []string

	if sim := utils.CalculateStringSimilarity(nameA, nameB); sim > c.cfg.NameSimilarityThreshold {
		score += constants.ScoreSimilarName
		reasons = append(reasons, fmt.Sprintf("company names %d%% similar", int(math.Round(sim*100))))
	}

	if da, db := derefDomain(a.Website), derefDomain(b.Website); da != "" && da == db {
		score += constants.ScoreSameDomain
		reasons = append(reasons, "same website domain")
	}

	if ea, eb := derefEmailDomain(a.Email), derefEmailDomain(b.Email); ea != "" && ea == eb && !c.webmail[ea] {
		score += constants.ScoreSameEmailDomain
		reasons = append(reasons, "same email domain")
	}

	if pa, pb := derefPhone(a.Phone), derefPhone(b.Phone); pa != "" && pa == pb {
		score += constants.ScoreSamePhone
		reasons = append(reasons, "same phone number")
	}

	return MatchResult{
		IsMatch: score >= c.cfg.MatchThreshold,
		Score:   score,
		Reasons: reasons,
	}
}

func derefDomain(website *string) string {
	if website == nil || *website == "" {
		return ""
	}
	return utils.ExtractDomain(*website)
}

func derefEmailDomain(email *string) string {
	if email == nil || *email == "" {
		return ""
	}
	return utils.EmailDomain(*email)
}

func derefPhone(phone *string) string {
	if phone == nil || *phone == "" {
		return ""
	}
	return utils.NormalizePhone(*phone)
}
