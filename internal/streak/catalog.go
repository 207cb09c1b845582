package streak

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultLocale is used when a request carries no locale or an unknown one.
const DefaultLocale = "en"

//go:embed catalog.yaml
var defaultCatalogYAML []byte

var (
	// ErrCatalogInvalid indicates the rank/badge tables violate a precondition.
	ErrCatalogInvalid = errors.New("invalid progression catalog")
)

// Rank is a recomputed tier reflecting the current streak length.
// ID and MinDays are locale independent; Name is resolved per locale.
type Rank struct {
	ID      string `json:"id"`
	MinDays int    `json:"min_days"`
	Name    string `json:"name"`
}

// Badge is a permanent achievement unlocked at a day-count threshold.
// IDs must stay stable across catalog revisions because unlocked sets persist them.
type Badge struct {
	ID          string `json:"id"`
	Days        int    `json:"days"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

// Milestone is a presentation-only benefit on the recovery timeline.
type Milestone struct {
	Days        int    `json:"days"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

type rankSpec struct {
	ID      string `yaml:"id"`
	MinDays int    `yaml:"min_days"`
}

type badgeSpec struct {
	ID   string `yaml:"id"`
	Days int    `yaml:"days"`
	Icon string `yaml:"icon"`
}

type milestoneSpec struct {
	Days int `yaml:"days"`
}

type rankText struct {
	Name string `yaml:"name"`
}

type badgeText struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

type milestoneText struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
}

type localeSpec struct {
	Ranks      map[string]rankText   `yaml:"ranks"`
	Badges     map[string]badgeText  `yaml:"badges"`
	Milestones map[int]milestoneText `yaml:"milestones"`
}

type catalogFile struct {
	Ranks      []rankSpec            `yaml:"ranks"`
	Badges     []badgeSpec           `yaml:"badges"`
	Milestones []milestoneSpec       `yaml:"milestones"`
	Locales    map[string]localeSpec `yaml:"locales"`
}

// Catalog is the static progression configuration loaded once at startup.
// Thresholds and ids are locale independent; display strings resolve through
// the locale lookup with DefaultLocale as fallback.
type Catalog struct {
	file catalogFile
}

// LoadCatalog parses and validates the embedded default catalog.
func LoadCatalog() (*Catalog, error) {
	return parseCatalog(defaultCatalogYAML)
}

// LoadCatalogFromFile parses a catalog override from disk.
func LoadCatalogFromFile(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return parseCatalog(raw)
}

func parseCatalog(raw []byte) (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	if len(file.Ranks) == 0 {
		return nil, fmt.Errorf("%w: rank table is empty", ErrCatalogInvalid)
	}
	sort.Slice(file.Ranks, func(i, j int) bool { return file.Ranks[i].MinDays < file.Ranks[j].MinDays })
	if file.Ranks[0].MinDays != 0 {
		return nil, fmt.Errorf("%w: rank table needs a min_days=0 floor", ErrCatalogInvalid)
	}

	seen := make(map[string]bool, len(file.Badges))
	for _, b := range file.Badges {
		id := strings.TrimSpace(b.ID)
		if id == "" {
			return nil, fmt.Errorf("%w: badge with empty id", ErrCatalogInvalid)
		}
		if seen[id] {
			return nil, fmt.Errorf("%w: duplicate badge id %q", ErrCatalogInvalid, id)
		}
		seen[id] = true
		if b.Days <= 0 {
			return nil, fmt.Errorf("%w: badge %q needs days > 0", ErrCatalogInvalid, id)
		}
	}
	sort.Slice(file.Badges, func(i, j int) bool { return file.Badges[i].Days < file.Badges[j].Days })
	sort.Slice(file.Milestones, func(i, j int) bool { return file.Milestones[i].Days < file.Milestones[j].Days })

	return &Catalog{file: file}, nil
}

// Locales lists the locales the catalog carries display strings for.
func (c *Catalog) Locales() []string {
	out := make([]string, 0, len(c.file.Locales))
	for locale := range c.file.Locales {
		out = append(out, locale)
	}
	sort.Strings(out)
	return out
}

func (c *Catalog) locale(locale string) localeSpec {
	if def, ok := c.file.Locales[locale]; ok {
		return def
	}
	return c.file.Locales[DefaultLocale]
}

// Ranks returns the ascending rank table with names resolved for the locale.
func (c *Catalog) Ranks(locale string) []Rank {
	texts := c.locale(locale)
	fallback := c.locale(DefaultLocale)
	out := make([]Rank, 0, len(c.file.Ranks))
	for _, def := range c.file.Ranks {
		name := texts.Ranks[def.ID].Name
		if name == "" {
			name = fallback.Ranks[def.ID].Name
		}
		if name == "" {
			name = def.ID
		}
		out = append(out, Rank{ID: def.ID, MinDays: def.MinDays, Name: name})
	}
	return out
}

// Badges returns the badge catalog ordered by threshold, localized.
func (c *Catalog) Badges(locale string) []Badge {
	texts := c.locale(locale)
	fallback := c.locale(DefaultLocale)
	out := make([]Badge, 0, len(c.file.Badges))
	for _, def := range c.file.Badges {
		text := texts.Badges[def.ID]
		if text.Name == "" {
			text = fallback.Badges[def.ID]
		}
		if text.Name == "" {
			text.Name = def.ID
		}
		out = append(out, Badge{
			ID:          def.ID,
			Days:        def.Days,
			Name:        text.Name,
			Description: text.Description,
			Icon:        def.Icon,
		})
	}
	return out
}

// Milestones returns the benefit timeline ordered by day threshold, localized.
func (c *Catalog) Milestones(locale string) []Milestone {
	texts := c.locale(locale)
	fallback := c.locale(DefaultLocale)
	out := make([]Milestone, 0, len(c.file.Milestones))
	for _, def := range c.file.Milestones {
		text := texts.Milestones[def.Days]
		if text.Title == "" {
			text = fallback.Milestones[def.Days]
		}
		out = append(out, Milestone{Days: def.Days, Title: text.Title, Description: text.Description})
	}
	return out
}
