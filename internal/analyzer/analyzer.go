// Package analyzer derives least-privilege scores and risk ratings from
// inventory snapshots and compares snapshots over time.
package analyzer

import (
	"fmt"
	"sort"

	"custos/internal/catalog"
)

const (
	wildcardActionPenalty   = 30
	wildcardResourcePenalty = 20

	lowRiskFloor    = 70
	mediumRiskFloor = 40
)

// Score computes the least-privilege score for a policy summary. A
// fully scoped policy scores 100; each wildcard action costs 30 and
// each wildcard resource costs 20, floored at zero.
func Score(policy catalog.PolicySummary) int {
	score := 100 - wildcardActionPenalty*policy.WildcardActions - wildcardResourcePenalty*policy.WildcardResources
	if score < 0 {
		return 0
	}
	return score
}

// Rate buckets a score into a risk rating. Inactive and orphaned
// principals are floored at MEDIUM: a tightly scoped credential nobody
// uses or owns is still a liability.
func Rate(score int, inactive, orphan bool) catalog.RiskRating {
	rating := catalog.RiskHigh
	switch {
	case score >= lowRiskFloor:
		rating = catalog.RiskLow
	case score >= mediumRiskFloor:
		rating = catalog.RiskMedium
	}
	if rating == catalog.RiskLow && (inactive || orphan) {
		return catalog.RiskMedium
	}
	return rating
}

// Annotate returns a copy of the snapshot with Score and Risk filled in
// for every principal. The input snapshot is not modified.
func Annotate(snap catalog.Snapshot) catalog.Snapshot {
	out := snap
	out.Principals = make([]catalog.Principal, len(snap.Principals))
	for i, p := range snap.Principals {
		p.Score = Score(p.Policy)
		p.Risk = Rate(p.Score, p.Inactive, p.Orphan)
		out.Principals[i] = p
	}
	return out
}

// RiskReport summarizes a scored snapshot for reviewers.
type RiskReport struct {
	TotalPrincipals int                        `json:"total_principals"`
	AverageScore    float64                    `json:"average_score"`
	ByRating        map[catalog.RiskRating]int `json:"by_rating"`
	Inactive        int                        `json:"inactive"`
	Orphans         int                        `json:"orphans"`
	Recommendations []Recommendation           `json:"recommendations"`
}

// Recommendation names one principal needing remediation and why.
type Recommendation struct {
	PrincipalID string             `json:"principal_id"`
	Owner       string             `json:"owner"`
	Risk        catalog.RiskRating `json:"risk"`
	Score       int                `json:"score"`
	Reason      string             `json:"reason"`
}

// Report builds a risk report from an annotated snapshot.
// Recommendations cover every principal rated above LOW, worst first.
func Report(snap catalog.Snapshot) RiskReport {
	report := RiskReport{
		TotalPrincipals: len(snap.Principals),
		ByRating: map[catalog.RiskRating]int{
			catalog.RiskLow:    0,
			catalog.RiskMedium: 0,
			catalog.RiskHigh:   0,
		},
	}

	var scoreSum int
	for _, p := range snap.Principals {
		scoreSum += p.Score
		report.ByRating[p.Risk]++
		if p.Inactive {
			report.Inactive++
		}
		if p.Orphan {
			report.Orphans++
		}
		if p.Risk == catalog.RiskLow {
			continue
		}
		report.Recommendations = append(report.Recommendations, Recommendation{
			PrincipalID: p.ID,
			Owner:       p.Owner,
			Risk:        p.Risk,
			Score:       p.Score,
			Reason:      recommendationReason(p),
		})
	}
	if report.TotalPrincipals > 0 {
		report.AverageScore = float64(scoreSum) / float64(report.TotalPrincipals)
	}

	sort.SliceStable(report.Recommendations, func(i, j int) bool {
		a, b := report.Recommendations[i], report.Recommendations[j]
		if a.Score != b.Score {
			return a.Score < b.Score
		}
		return a.PrincipalID < b.PrincipalID
	})
	return report
}

func recommendationReason(p catalog.Principal) string {
	switch {
	case p.Policy.WildcardActions > 0 && p.Policy.WildcardResources > 0:
		return fmt.Sprintf("policy grants %d wildcard actions across %d wildcard resources", p.Policy.WildcardActions, p.Policy.WildcardResources)
	case p.Policy.WildcardActions > 0:
		return fmt.Sprintf("policy grants %d wildcard actions", p.Policy.WildcardActions)
	case p.Policy.WildcardResources > 0:
		return fmt.Sprintf("policy applies to %d wildcard resources", p.Policy.WildcardResources)
	case p.Orphan:
		return "principal has no owner or stated purpose"
	case p.Inactive:
		return "principal has no recent activity"
	default:
		return "policy scope exceeds least-privilege baseline"
	}
}
