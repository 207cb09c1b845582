package streak

import (
	"strings"
	"testing"
)

func TestLoadCatalog_Defaults(t *testing.T) {
	catalog, err := LoadCatalog()
	if err != nil {
		t.Fatalf("LoadCatalog returned error: %v", err)
	}

	ranks := catalog.Ranks(DefaultLocale)
	if len(ranks) == 0 || ranks[0].MinDays != 0 {
		t.Fatalf("rank table must start at the min_days=0 floor: %+v", ranks)
	}
	for i := 1; i < len(ranks); i++ {
		if ranks[i].MinDays <= ranks[i-1].MinDays {
			t.Fatalf("rank table not strictly ascending: %+v", ranks)
		}
	}

	badges := catalog.Badges(DefaultLocale)
	seen := map[string]bool{}
	for _, badge := range badges {
		if badge.Days <= 0 {
			t.Fatalf("badge %s has non-positive threshold", badge.ID)
		}
		if seen[badge.ID] {
			t.Fatalf("duplicate badge id %s", badge.ID)
		}
		seen[badge.ID] = true
	}
	if !seen["seed"] {
		t.Fatalf("expected the seed badge in the default catalog")
	}
}

func TestCatalog_Locales(t *testing.T) {
	catalog, err := LoadCatalog()
	if err != nil {
		t.Fatalf("LoadCatalog returned error: %v", err)
	}

	locales := catalog.Locales()
	if len(locales) != 2 || locales[0] != "en" || locales[1] != "id" {
		t.Fatalf("expected sorted [en id], got %v", locales)
	}
}

func TestCatalog_LocaleFallback(t *testing.T) {
	catalog, err := LoadCatalog()
	if err != nil {
		t.Fatalf("LoadCatalog returned error: %v", err)
	}

	en := catalog.Badges("en")
	id := catalog.Badges("id")
	unknown := catalog.Badges("fr")

	if len(en) != len(id) || len(en) != len(unknown) {
		t.Fatalf("locale must not change the badge table shape")
	}
	for i := range en {
		if en[i].ID != id[i].ID || en[i].Days != id[i].Days {
			t.Fatalf("thresholds and ids must be locale independent")
		}
	}
	// Unknown locales resolve to the default display strings.
	for i := range en {
		if unknown[i].Name != en[i].Name {
			t.Fatalf("expected fallback to %s strings for unknown locale", DefaultLocale)
		}
	}
}

func TestParseCatalog_RejectsMissingFloor(t *testing.T) {
	raw := `
ranks:
  - id: warrior
    min_days: 7
badges: []
`
	if _, err := parseCatalog([]byte(raw)); err == nil || !strings.Contains(err.Error(), "floor") {
		t.Fatalf("expected floor validation error, got %v", err)
	}
}

func TestParseCatalog_RejectsBadBadges(t *testing.T) {
	raw := `
ranks:
  - id: rookie
    min_days: 0
badges:
  - id: dup
    days: 1
  - id: dup
    days: 2
`
	if _, err := parseCatalog([]byte(raw)); err == nil {
		t.Fatalf("expected duplicate badge id to fail validation")
	}

	raw = `
ranks:
  - id: rookie
    min_days: 0
badges:
  - id: zero
    days: 0
`
	if _, err := parseCatalog([]byte(raw)); err == nil {
		t.Fatalf("expected non-positive badge days to fail validation")
	}
}
