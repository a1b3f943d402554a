// Package inventory loads the pharmacy medicine list from CSV and fuzzy
// matches extracted prescription names against it.
package inventory

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
)

// Matching thresholds. A candidate at or above bestCutoff is accepted as the
// corrected name; otherwise candidates at or above altCutoff are offered as
// alternatives.
const (
	bestCutoff = 0.6
	altCutoff  = 0.3
	maxAlts    = 3
)

// Item is one stocked medicine.
type Item struct {
	Name         string
	Price        string
	Discontinued bool
}

// Match is the inventory verdict for one extracted medicine name.
type Match struct {
	OriginalName  string   `json:"original_name" bson:"original_name"`
	CorrectedName *string  `json:"corrected_name" bson:"corrected_name"`
	Price         *string  `json:"price" bson:"price"`
	Available     bool     `json:"available" bson:"available"`
	Present       bool     `json:"present" bson:"present"`
	Alternatives  []string `json:"alternatives" bson:"alternatives"`
}

// Store holds the loaded inventory with precomputed normalized names.
type Store struct {
	items      []Item
	normalized []string
}

// NewStore builds a Store from items already in memory.
func NewStore(items []Item) *Store {
	s := &Store{items: items, normalized: make([]string, len(items))}
	for i, it := range items {
		s.normalized[i] = Normalize(it.Name)
	}
	return s
}

// Load reads the inventory CSV. The file must have a header row with a
// "name" column; "price" and "is_discontinued" columns are optional.
func Load(path string) (*Store, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open inventory csv: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read inventory header: %w", err)
	}
	cols := map[string]int{}
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	nameIdx, ok := cols["name"]
	if !ok {
		return nil, fmt.Errorf("inventory csv has no name column")
	}

	var items []Item
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read inventory row: %w", err)
		}
		if nameIdx >= len(rec) {
			continue
		}
		name := strings.ToLower(strings.TrimSpace(rec[nameIdx]))
		if name == "" {
			continue
		}
		item := Item{Name: name, Price: "N/A"}
		if i, ok := cols["price"]; ok && i < len(rec) && strings.TrimSpace(rec[i]) != "" {
			item.Price = strings.TrimSpace(rec[i])
		}
		if i, ok := cols["is_discontinued"]; ok && i < len(rec) {
			item.Discontinued = strings.EqualFold(strings.TrimSpace(rec[i]), "true")
		}
		items = append(items, item)
	}
	return NewStore(items), nil
}

var nonAlnum = regexp.MustCompile(`[^a-z0-9/ ]`)

var doseForms = []string{"tablet", "tab", "injection", "syrup", "suspension", "cream"}

// Normalize lowercases a medicine name, strips punctuation and common dose
// form words, and trims whitespace.
func Normalize(text string) string {
	text = strings.ToLower(text)
	text = nonAlnum.ReplaceAllString(text, "")
	for _, word := range doseForms {
		text = strings.ReplaceAll(text, word, "")
	}
	return strings.TrimSpace(text)
}

func similarity(a, b string) float64 {
	if a == b {
		return 1
	}
	longest := len(a)
	if len(b) > longest {
		longest = len(b)
	}
	if longest == 0 {
		return 0
	}
	dist := levenshtein.ComputeDistance(a, b)
	return 1 - float64(dist)/float64(longest)
}

// Match scores an extracted medicine name against the inventory. A score of
// at least 0.6 resolves to the stocked name; otherwise up to three stocked
// names scoring at least 0.3 are suggested as alternatives.
func (s *Store) Match(originalName string) Match {
	input := Normalize(originalName)

	bestIdx, bestScore := -1, 0.0
	type candidate struct {
		idx   int
		score float64
	}
	var alts []candidate
	for i, norm := range s.normalized {
		score := similarity(input, norm)
		if score > bestScore {
			bestIdx, bestScore = i, score
		}
		if score >= altCutoff {
			alts = append(alts, candidate{idx: i, score: score})
		}
	}

	if bestIdx >= 0 && bestScore >= bestCutoff {
		item := s.items[bestIdx]
		price := item.Price
		return Match{
			OriginalName:  originalName,
			CorrectedName: &item.Name,
			Price:         &price,
			Available:     !item.Discontinued,
			Present:       true,
			Alternatives:  []string{},
		}
	}

	sort.SliceStable(alts, func(i, j int) bool { return alts[i].score > alts[j].score })
	names := []string{}
	for _, c := range alts {
		if len(names) == maxAlts {
			break
		}
		names = append(names, s.items[c.idx].Name)
	}
	return Match{
		OriginalName: originalName,
		Available:    false,
		Present:      false,
		Alternatives: names,
	}
}

// MatchAll runs Match over a list of extracted names in order.
func (s *Store) MatchAll(names []string) []Match {
	out := make([]Match, 0, len(names))
	for _, n := range names {
		out = append(out, s.Match(n))
	}
	return out
}
