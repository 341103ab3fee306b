package provision

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/cuihairu/gamelink/internal/catalog"
	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

//go:embed seed.schema.json
var seedSchema []byte

// Seed is reference data inserted if absent.
type Seed struct {
	Platforms []string          `yaml:"platforms"`
	Genres    []string          `yaml:"genres"`
	Settings  map[string]string `yaml:"settings"`
}

// LoadSeedFile parses a YAML seed file and validates it against the
// embedded JSON schema.
func LoadSeedFile(path string) (Seed, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Seed{}, fmt.Errorf("seed file: %w", err)
	}
	return ParseSeed(raw)
}

func ParseSeed(raw []byte) (Seed, error) {
	var doc any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return Seed{}, fmt.Errorf("seed file: %w", err)
	}
	if doc == nil {
		return Seed{}, nil
	}
	res, err := gojsonschema.Validate(gojsonschema.NewBytesLoader(seedSchema), gojsonschema.NewGoLoader(doc))
	if err != nil {
		return Seed{}, fmt.Errorf("seed file: %w", err)
	}
	if !res.Valid() {
		var msgs []string
		for i, e := range res.Errors() {
			if i >= 5 {
				break
			}
			msgs = append(msgs, e.String())
		}
		return Seed{}, fmt.Errorf("seed file: %s", strings.Join(msgs, "; "))
	}
	var s Seed
	if err := yaml.Unmarshal(raw, &s); err != nil {
		return Seed{}, fmt.Errorf("seed file: %w", err)
	}
	return s, nil
}

// Merge adds the names and settings of o to s. Settings in o win.
func (s Seed) Merge(o Seed) Seed {
	out := Seed{
		Platforms: union(s.Platforms, o.Platforms),
		Genres:    union(s.Genres, o.Genres),
		Settings:  make(map[string]string, len(s.Settings)+len(o.Settings)),
	}
	for k, v := range s.Settings {
		out.Settings[k] = v
	}
	for k, v := range o.Settings {
		out.Settings[k] = v
	}
	return out
}

// Apply inserts every row that does not exist yet. Existing rows keep their
// values.
func (s Seed) Apply(tx *gorm.DB) error {
	skip := clause.OnConflict{DoNothing: true}
	if ps := names(s.Platforms, func(n string) catalog.Platform { return catalog.Platform{Name: n} }); len(ps) > 0 {
		if err := tx.Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "name"}}, DoNothing: true}).Create(&ps).Error; err != nil {
			return err
		}
	}
	if gs := names(s.Genres, func(n string) catalog.Genre { return catalog.Genre{Name: n} }); len(gs) > 0 {
		if err := tx.Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "name"}}, DoNothing: true}).Create(&gs).Error; err != nil {
			return err
		}
	}
	if len(s.Settings) == 0 {
		return nil
	}
	keys := make([]string, 0, len(s.Settings))
	for k := range s.Settings {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	rows := make([]catalog.Setting, 0, len(keys))
	for _, k := range keys {
		rows = append(rows, catalog.Setting{Key: k, Value: s.Settings[k]})
	}
	return tx.Clauses(skip).Create(&rows).Error
}

func names[T any](in []string, mk func(string) T) []T {
	out := make([]T, 0, len(in))
	for _, n := range in {
		if n = strings.TrimSpace(n); n != "" {
			out = append(out, mk(n))
		}
	}
	return out
}

func union(a, b []string) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	var out []string
	for _, s := range append(append([]string{}, a...), b...) {
		k := strings.ToLower(strings.TrimSpace(s))
		if _, ok := seen[k]; ok || k == "" {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, strings.TrimSpace(s))
	}
	return out
}
