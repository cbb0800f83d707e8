package offers

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"
)

type Offers struct {
	Items []*Offer `json:"items"`
}

// Offer is a job posting as stored by the backend. The match fields are only
// populated on scored copies.
type Offer struct {
	ID           string   `json:"id,omitempty" mapstructure:"id"`
	Title        string   `json:"title,omitempty" mapstructure:"title"`
	TeammateRank string   `json:"teammate_rank,omitempty" mapstructure:"teammate_rank"`
	Team         bool     `json:"team,omitempty" mapstructure:"team"`
	Country      string   `json:"country,omitempty" mapstructure:"country"`
	Type         string   `json:"type,omitempty" mapstructure:"type"`
	Salary       *float64 `json:"salary,omitempty" mapstructure:"salary"`
	Currency     string   `json:"currency,omitempty" mapstructure:"currency"`
	IsDOE        bool     `json:"is_doe,omitempty" mapstructure:"is_doe"`
	IsTips       bool     `json:"is_tips,omitempty" mapstructure:"is_tips"`
	Flag         string   `json:"flag,omitempty" mapstructure:"flag"`
	YachtSize    string   `json:"yacht_size,omitempty" mapstructure:"yacht_size"`
	CreatedAt    string   `json:"created_at,omitempty" mapstructure:"created_at"`

	MatchPrimaryScore  int           `json:"match_primary_score" mapstructure:"-"`
	MatchTeammateScore int           `json:"match_teammate_score" mapstructure:"-"`
	AI                 *AIAssessment `json:"ai,omitempty" mapstructure:"-"`
}

// AIAssessment is the optional second opinion attached by the ai_fit filter.
type AIAssessment struct {
	Fit     bool    `json:"fit"`
	Score   float64 `json:"score"`
	Reason  string  `json:"reason,omitempty"`
	Message string  `json:"message,omitempty"`
	Raw     string  `json:"raw,omitempty"`
	Error   string  `json:"error,omitempty"`
}

type ExcludedOffers struct {
	Items []*ExcludedOffer
}

type ExcludedOffer struct {
	ID         string
	Title      string
	Country    string
	ExcludedAt time.Time
}

// BestScore returns the higher of the primary and teammate scores.
func (o *Offer) BestScore() int {
	return max(o.MatchPrimaryScore, o.MatchTeammateScore)
}

// HasTeammate reports whether the offer is a dual-position posting with a named second rank.
func (o *Offer) HasTeammate() bool {
	return o.Team && strings.TrimSpace(o.TeammateRank) != ""
}

func (o *Offer) SalaryLabel() string {
	var label string
	switch {
	case o.IsDOE:
		label = "DOE"
	case o.Salary == nil:
		label = "n/a"
	default:
		label = strings.TrimSpace(strconv.FormatFloat(*o.Salary, 'f', -1, 64) + " " + o.Currency)
	}
	if o.IsTips {
		label += " + tips"
	}
	return label
}

func (v *Offers) Len() int {
	return len(v.Items)
}

func (v *Offers) FindByID(id string) *Offer {
	for _, offer := range v.Items {
		if offer.ID == id {
			return offer
		}
	}
	return nil
}

// Exclude removes offers with the given ids, keeping the order of the rest.
// It returns the ids that were actually removed.
func (v *Offers) Exclude(ids []string) []string {
	if len(ids) == 0 {
		return nil
	}

	targets := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		targets[id] = struct{}{}
	}

	var excluded []string
	kept := v.Items[:0]
	for _, offer := range v.Items {
		if _, ok := targets[offer.ID]; ok {
			excluded = append(excluded, offer.ID)
			continue
		}
		kept = append(kept, offer)
	}
	v.Items = kept
	return excluded
}

// Keep retains only the offers for which keep returns true and returns the ids of the dropped ones.
func (v *Offers) Keep(keep func(*Offer) bool) []string {
	var dropped []string
	kept := v.Items[:0]
	for _, offer := range v.Items {
		if !keep(offer) {
			dropped = append(dropped, offer.ID)
			continue
		}
		kept = append(kept, offer)
	}
	v.Items = kept
	return dropped
}

// SortByScore orders offers by primary score, then teammate score, both
// descending. Ties are broken by id so the order is deterministic.
func (v *Offers) SortByScore() {
	sort.SliceStable(v.Items, func(i, j int) bool {
		a, b := v.Items[i], v.Items[j]
		if a.MatchPrimaryScore != b.MatchPrimaryScore {
			return a.MatchPrimaryScore > b.MatchPrimaryScore
		}
		if a.MatchTeammateScore != b.MatchTeammateScore {
			return a.MatchTeammateScore > b.MatchTeammateScore
		}
		return a.ID < b.ID
	})
}

// Head returns a new list with at most n offers. Non-positive n returns every offer.
func (v *Offers) Head(n int) *Offers {
	if n <= 0 || n >= v.Len() {
		return &Offers{Items: append([]*Offer(nil), v.Items...)}
	}
	return &Offers{Items: append([]*Offer(nil), v.Items[:n]...)}
}

// ReportByFlag groups a short summary of every offer by vessel flag.
func (v *Offers) ReportByFlag() map[string][]map[string]string {
	report := make(map[string][]map[string]string)
	for _, offer := range v.Items {
		flag := strings.TrimSpace(offer.Flag)
		if flag == "" {
			flag = "unknown"
		}

		entry := map[string]string{
			"id":             offer.ID,
			"title":          offer.Title,
			"country":        offer.Country,
			"type":           offer.Type,
			"salary":         offer.SalaryLabel(),
			"primary_score":  strconv.Itoa(offer.MatchPrimaryScore),
			"teammate_score": strconv.Itoa(offer.MatchTeammateScore),
		}
		if offer.HasTeammate() {
			entry["teammate_rank"] = offer.TeammateRank
		}

		if offer.AI != nil {
			if offer.AI.Error != "" {
				entry["ai_error"] = offer.AI.Error
			} else {
				entry["ai_fit"] = strconv.FormatBool(offer.AI.Fit)
				entry["ai_score"] = strconv.FormatFloat(offer.AI.Score, 'f', -1, 64)
				if offer.AI.Reason != "" {
					entry["ai_reason"] = offer.AI.Reason
				}
				if offer.AI.Message != "" {
					entry["ai_message"] = offer.AI.Message
				}
			}
		}

		report[flag] = append(report[flag], entry)
	}
	return report
}

func (v *Offers) DumpToTmpFile() (string, error) {
	file, err := os.CreateTemp("", "offers_*.json")
	if err != nil {
		return "", err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return file.Name(), nil
}

func (v *Offers) ToExcluded() *ExcludedOffers {
	excluded := &ExcludedOffers{}
	now := time.Now().UTC()
	for _, offer := range v.Items {
		excluded.Items = append(excluded.Items, &ExcludedOffer{
			ID:         offer.ID,
			Title:      offer.Title,
			Country:    offer.Country,
			ExcludedAt: now,
		})
	}
	return excluded
}

// GetExcludedOffersFromFile reads an exclude file. A missing or empty file is an empty list.
func GetExcludedOffersFromFile(path string) (*ExcludedOffers, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &ExcludedOffers{}, nil
		}
		return nil, err
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return nil, err
	}

	if stat.Size() == 0 {
		return &ExcludedOffers{}, nil
	}

	var excluded ExcludedOffers
	if err := json.NewDecoder(file).Decode(&excluded); err != nil {
		return nil, fmt.Errorf("decoding exclude file %q: %w", path, err)
	}
	return &excluded, nil
}

// Append adds entries whose ids are not yet present.
func (v *ExcludedOffers) Append(s *ExcludedOffers) {
	seen := make(map[string]struct{}, len(v.Items))
	for _, item := range v.Items {
		seen[item.ID] = struct{}{}
	}
	for _, item := range s.Items {
		if _, ok := seen[item.ID]; ok {
			continue
		}
		seen[item.ID] = struct{}{}
		v.Items = append(v.Items, item)
	}
}

func (v *ExcludedOffers) IDs() []string {
	ids := make([]string, 0, len(v.Items))
	for _, offer := range v.Items {
		ids = append(ids, offer.ID)
	}
	return ids
}

func (v *ExcludedOffers) ToFile(path string) error {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
