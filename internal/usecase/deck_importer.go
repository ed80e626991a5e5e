package usecase

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"PerfectRatio/internal/domain/models"
)

// rawEntry keeps cost optional so a missing cost is distinguishable from cost 0.
type rawEntry struct {
	Name  string `yaml:"name"`
	Cost  *int   `yaml:"cost"`
	Count *int   `yaml:"count"`
}

type rawDeck struct {
	Cards []rawEntry `yaml:"cards"`
}

// ImportEntries sums deck entries into a cost profile. Costs are clamped to
// 0..MaxCost and a nil count means one copy.
func ImportEntries(entries []models.DeckEntry) (models.CostProfile, error) {
	if len(entries) == 0 {
		return models.CostProfile{}, fmt.Errorf("%w: deck has no entries", models.ErrImportParse)
	}
	var p models.CostProfile
	for i, e := range entries {
		count := 1
		if e.Count != nil {
			count = *e.Count
		}
		if count < 0 {
			return models.CostProfile{}, fmt.Errorf("%w: entry %d (%s) has negative count %d", models.ErrImportParse, i, e.Name, count)
		}
		p[models.ClampCost(e.Cost)] += count
	}
	return p, nil
}

// ParseDeck decodes a YAML or JSON deck description: either a bare list of
// {name, cost, count} entries or an object with a "cards" list.
func ParseDeck(data []byte) (models.CostProfile, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return models.CostProfile{}, fmt.Errorf("%w: empty document", models.ErrImportParse)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	var root yaml.Node
	if err := dec.Decode(&root); err != nil {
		if errors.Is(err, io.EOF) {
			return models.CostProfile{}, fmt.Errorf("%w: empty document", models.ErrImportParse)
		}
		return models.CostProfile{}, fmt.Errorf("%w: %v", models.ErrImportParse, err)
	}
	var extra yaml.Node
	if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
		return models.CostProfile{}, fmt.Errorf("%w: expected a single document", models.ErrImportParse)
	}
	if root.Kind != yaml.DocumentNode || len(root.Content) != 1 {
		return models.CostProfile{}, fmt.Errorf("%w: expected a single document", models.ErrImportParse)
	}

	var raw []rawEntry
	node := root.Content[0]
	switch node.Kind {
	case yaml.SequenceNode:
		if err := node.Decode(&raw); err != nil {
			return models.CostProfile{}, fmt.Errorf("%w: %v", models.ErrImportParse, err)
		}
	case yaml.MappingNode:
		var deck rawDeck
		if err := node.Decode(&deck); err != nil {
			return models.CostProfile{}, fmt.Errorf("%w: %v", models.ErrImportParse, err)
		}
		raw = deck.Cards
	default:
		return models.CostProfile{}, fmt.Errorf("%w: expected a list of cards or an object with \"cards\"", models.ErrImportParse)
	}

	entries := make([]models.DeckEntry, 0, len(raw))
	for i, r := range raw {
		if r.Cost == nil {
			return models.CostProfile{}, fmt.Errorf("%w: entry %d (%s) has no cost", models.ErrImportParse, i, r.Name)
		}
		entries = append(entries, models.DeckEntry{Name: r.Name, Cost: *r.Cost, Count: r.Count})
	}
	return ImportEntries(entries)
}
