// Package matching ranks job offers against a crew member's saved preferences.
//
// Scores are percentages built from fixed weights over pass/fail criteria.
// Incomplete preferences score every offer at zero: the caller should read a
// zero as "matching is not actionable yet" and not as a failure.
package matching

import (
	"strings"

	"github.com/spigell/crewmatch/internal/offers"
	"github.com/spigell/crewmatch/internal/preferences"
)

// Primary score weights, in percentage points.
const (
	primaryPositionWeight = 35
	primaryLocationWeight = 25
	primaryTermWeight     = 20
	primarySalaryWeight   = 10
	primaryFlagWeight     = 10
)

// Teammate score weights, in percentage points. Salary does not count here.
const (
	teammatePositionWeight = 55
	teammateLocationWeight = 25
	teammateTermWeight     = 10
	teammateFlagWeight     = 10
)

// Score holds the compatibility percentages of one offer.
type Score struct {
	Primary  int `json:"match_primary_score"`
	Teammate int `json:"match_teammate_score"`
}

// Breakdown explains a Score criterion by criterion.
type Breakdown struct {
	Ready            bool     `json:"ready"`
	Missing          []string `json:"missing,omitempty"`
	Position         bool     `json:"position"`
	TeammatePosition bool     `json:"teammate_position"`
	Location         bool     `json:"location"`
	Term             bool     `json:"term"`
	Salary           bool     `json:"salary"`
	Flag             bool     `json:"flag"`
	Score            Score    `json:"score"`
}

// ScoreOffer computes the primary and teammate scores of an offer.
// It never fails: missing data only removes the matching contribution.
func ScoreOffer(offer *offers.Offer, prefs *preferences.Preferences) Score {
	return Explain(offer, prefs).Score
}

// Explain evaluates every criterion and the resulting score.
func Explain(offer *offers.Offer, prefs *preferences.Preferences) Breakdown {
	b := Breakdown{Missing: prefs.Missing()}
	b.Ready = len(b.Missing) == 0
	if !b.Ready || offer == nil {
		return b
	}

	b.Position = positionMatch(offer.Title, prefs.Positions)
	b.Location = locationMatch(offer.Country, prefs)
	b.Term = termMatch(offer.Type, prefs.Terms)
	b.Salary = salaryMatch(offer, prefs.MinSalary)
	b.Flag = preferences.ClassifyFlag(offer.Flag) == strings.TrimSpace(prefs.Flag)

	b.Score.Primary = points(b.Position, primaryPositionWeight) +
		points(b.Location, primaryLocationWeight) +
		points(b.Term, primaryTermWeight) +
		points(b.Salary, primarySalaryWeight) +
		points(b.Flag, primaryFlagWeight)

	if offer.HasTeammate() {
		b.TeammatePosition = positionMatch(offer.TeammateRank, prefs.Positions)
		b.Score.Teammate = points(b.TeammatePosition, teammatePositionWeight) +
			points(b.Location, teammateLocationWeight) +
			points(b.Term, teammateTermWeight) +
			points(b.Flag, teammateFlagWeight)
	}

	return b
}

// ScoreOffers returns scored copies of every offer in the original order.
// The input list is left untouched.
func ScoreOffers(list *offers.Offers, prefs *preferences.Preferences) *offers.Offers {
	scored := &offers.Offers{}
	if list == nil {
		return scored
	}

	scored.Items = make([]*offers.Offer, 0, list.Len())
	for _, offer := range list.Items {
		if offer == nil {
			continue
		}
		score := ScoreOffer(offer, prefs)

		cp := *offer
		cp.MatchPrimaryScore = score.Primary
		cp.MatchTeammateScore = score.Teammate
		scored.Items = append(scored.Items, &cp)
	}
	return scored
}

// positionMatch reports whether any preferred position is contained in the
// rank, ignoring case. "Chef" matches "Sous Chef" on purpose.
func positionMatch(rank string, positions []string) bool {
	rank = strings.ToLower(rank)
	for _, position := range positions {
		position = strings.ToLower(strings.TrimSpace(position))
		if position == "" {
			continue
		}
		if strings.Contains(rank, position) {
			return true
		}
	}
	return false
}

// locationMatch checks the offer location against the preferred locations.
// An offer tagged with a region name matches when that region shares a
// country with the preferred set.
func locationMatch(location string, prefs *preferences.Preferences) bool {
	key := preferences.Normalize(location)
	if key == "" {
		return false
	}

	wanted := prefs.Locations()
	if _, ok := wanted[key]; ok {
		return true
	}

	for _, country := range preferences.RegionCountries(key) {
		if _, ok := wanted[preferences.Normalize(country)]; ok {
			return true
		}
	}
	return false
}

// termMatch is an exact, case-sensitive membership test. A missing term never matches.
func termMatch(term string, terms []string) bool {
	if term == "" {
		return false
	}
	for _, t := range terms {
		if t == term {
			return true
		}
	}
	return false
}

func salaryMatch(offer *offers.Offer, minSalary *float64) bool {
	if minSalary == nil {
		return false
	}
	if offer.IsDOE || offer.IsTips {
		return true
	}
	return offer.Salary != nil && *offer.Salary >= *minSalary
}

func points(matched bool, weight int) int {
	if matched {
		return weight
	}
	return 0
}
