// Package geodata provides per-country scoring normalizers.
package geodata

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// World is the key used for rounds not tied to a single country.
const World = "world"

//go:embed countries.yaml
var countriesYAML []byte

// Extents maps a country code to its maximum intra-country distance in km.
type Extents struct {
	maxDist map[string]float64
}

// Default returns the embedded dataset.
func Default() *Extents {
	e, err := Parse(countriesYAML)
	if err != nil {
		panic(fmt.Sprintf("geodata: embedded dataset: %v", err))
	}
	return e
}

// Parse reads a YAML mapping of country code to distance in km.
func Parse(data []byte) (*Extents, error) {
	raw := map[string]float64{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing extents: %w", err)
	}

	e := &Extents{maxDist: make(map[string]float64, len(raw))}
	for code, d := range raw {
		if d <= 0 {
			return nil, fmt.Errorf("country %q: distance must be positive, got %v", code, d)
		}
		e.maxDist[normalize(code)] = d
	}
	return e, nil
}

func normalize(code string) string {
	code = strings.TrimSpace(code)
	if strings.EqualFold(code, World) {
		return World
	}
	return strings.ToUpper(code)
}

// MaxDistance returns the normalizer for country, or false if unknown.
func (e *Extents) MaxDistance(country string) (float64, bool) {
	d, ok := e.maxDist[normalize(country)]
	return d, ok
}

// Countries returns all known codes and distances, excluding World.
func (e *Extents) Countries() map[string]float64 {
	out := make(map[string]float64, len(e.maxDist))
	for code, d := range e.maxDist {
		if code == World {
			continue
		}
		out[code] = d
	}
	return out
}

// Codes returns the sorted country codes, excluding World.
func (e *Extents) Codes() []string {
	codes := make([]string, 0, len(e.maxDist))
	for code := range e.maxDist {
		if code != World {
			codes = append(codes, code)
		}
	}
	sort.Strings(codes)
	return codes
}
