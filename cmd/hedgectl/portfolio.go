package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/aristath/hedger/internal/domain"
	"github.com/aristath/hedger/internal/modules/hedging"
)

// loadPortfolio reads a holdings file. The document is either a snapshot
// mapping ({positions, total_value}) or a bare list of positions.
func loadPortfolio(path string) (hedging.Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return hedging.Snapshot{}, fmt.Errorf("failed to read portfolio: %w", err)
	}
	return parsePortfolio(data)
}

func parsePortfolio(data []byte) (hedging.Snapshot, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return hedging.Snapshot{}, fmt.Errorf("failed to parse portfolio: %w", err)
	}
	if len(doc.Content) == 0 {
		return hedging.Snapshot{}, nil
	}

	var snap hedging.Snapshot
	root := doc.Content[0]
	switch root.Kind {
	case yaml.SequenceNode:
		var positions []domain.HoldingPosition
		if err := root.Decode(&positions); err != nil {
			return hedging.Snapshot{}, fmt.Errorf("failed to decode positions: %w", err)
		}
		snap.Positions = positions
	case yaml.MappingNode:
		if err := root.Decode(&snap); err != nil {
			return hedging.Snapshot{}, fmt.Errorf("failed to decode portfolio: %w", err)
		}
	default:
		return hedging.Snapshot{}, fmt.Errorf("portfolio must be a mapping or a list, got %s", root.ShortTag())
	}
	return snap, nil
}

// parseAssignments turns KEY=number flag values into a float map. Keys are
// trimmed; normalize adjusts their case.
func parseAssignments(in map[string]string, normalize func(string) string) (map[string]float64, error) {
	if len(in) == 0 {
		return nil, nil
	}
	out := make(map[string]float64, len(in))
	for k, v := range in {
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number for %s: %q", k, v)
		}
		out[normalize(strings.TrimSpace(k))] = f
	}
	return out, nil
}
