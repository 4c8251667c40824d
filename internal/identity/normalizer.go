package identity

import (
	"fmt"
	"sort"
	"strings"

	"pvplant/internal/ingest"
	"pvplant/internal/model"
)

// Normalizer maps raw plant identifiers to canonical codes through a total
// lookup table. Unknown identifiers are rejected, never passed through.
type Normalizer struct {
	plants map[string]model.PlantCode
}

// NewNormalizer validates the table: no empty keys or codes, and no two raw
// IDs sharing a code.
func NewNormalizer(plants map[string]model.PlantCode) (*Normalizer, error) {
	if len(plants) == 0 {
		return nil, fmt.Errorf("plant mapping is empty")
	}
	seen := make(map[model.PlantCode]string, len(plants))
	table := make(map[string]model.PlantCode, len(plants))
	for raw, code := range plants {
		raw = strings.TrimSpace(raw)
		if raw == "" || code == "" {
			return nil, fmt.Errorf("plant mapping %q -> %q: empty identifier", raw, code)
		}
		if other, ok := seen[code]; ok {
			return nil, fmt.Errorf("plant code %q assigned to both %q and %q", code, other, raw)
		}
		seen[code] = raw
		table[raw] = code
	}
	return &Normalizer{plants: table}, nil
}

// Normalize returns the canonical code for a raw identifier.
func (n *Normalizer) Normalize(raw string) (model.PlantCode, error) {
	code, ok := n.plants[strings.TrimSpace(raw)]
	if !ok {
		return "", &model.IdentifierError{Kind: "plant id", Value: raw}
	}
	return code, nil
}

// Codes returns every canonical code, sorted.
func (n *Normalizer) Codes() []model.PlantCode {
	out := make([]model.PlantCode, 0, len(n.plants))
	for _, c := range n.plants {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Generation returns a copy of t with Plant set on every row.
func (n *Normalizer) Generation(t ingest.Table[model.GenerationRecord]) (ingest.Table[model.GenerationRecord], error) {
	out := t
	out.Rows = make([]model.GenerationRecord, len(t.Rows))
	for i, r := range t.Rows {
		code, err := n.Normalize(r.PlantRawID)
		if err != nil {
			return ingest.Table[model.GenerationRecord]{}, fmt.Errorf("%s row %d: %w", t.Source, i+1, err)
		}
		r.Plant = code
		out.Rows[i] = r
	}
	return out, nil
}

// Weather returns a copy of t with Plant set on every row.
func (n *Normalizer) Weather(t ingest.Table[model.WeatherRecord]) (ingest.Table[model.WeatherRecord], error) {
	out := t
	out.Rows = make([]model.WeatherRecord, len(t.Rows))
	for i, r := range t.Rows {
		code, err := n.Normalize(r.PlantRawID)
		if err != nil {
			return ingest.Table[model.WeatherRecord]{}, fmt.Errorf("%s row %d: %w", t.Source, i+1, err)
		}
		r.Plant = code
		out.Rows[i] = r
	}
	return out, nil
}
