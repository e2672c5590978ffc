// Package catalog loads and verifies the site and filter catalogs.
package catalog

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/ternarybob/scout/internal/models"
)

// LoadSites reads the website catalog and verifies every entry. Sites are
// returned sorted by site ID so startup order is stable.
func LoadSites(path string) ([]*models.SiteConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read website catalog %s: %w", path, err)
	}

	var byID map[string]*models.SiteConfig
	if err := yaml.Unmarshal(data, &byID); err != nil {
		return nil, fmt.Errorf("failed to parse website catalog %s: %w", path, err)
	}

	ids := make([]string, 0, len(byID))
	for id := range byID {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	sites := make([]*models.SiteConfig, 0, len(byID))
	for _, id := range ids {
		cfg := byID[id]
		if cfg == nil {
			return nil, fmt.Errorf("site %s: empty entry", id)
		}
		cfg.SiteID = id
		if err := verify(cfg); err != nil {
			return nil, err
		}
		sites = append(sites, cfg)
	}
	return sites, nil
}

// verify enforces the per-site required keys. A bad entry aborts startup so
// misconfiguration never surfaces as a silent empty cycle.
func verify(cfg *models.SiteConfig) error {
	if cfg.URL == "" {
		return fmt.Errorf("site %s: url is required", cfg.SiteID)
	}
	if cfg.DateFormat == "" {
		return fmt.Errorf("site %s: date_format is required", cfg.SiteID)
	}
	if cfg.ParserType == "" {
		return fmt.Errorf("site %s: parser_type is required", cfg.SiteID)
	}
	if !models.IsKnownParserType(cfg.Kind()) {
		return fmt.Errorf("site %s: unknown parser_type %q", cfg.SiteID, cfg.ParserType)
	}
	if len(cfg.Selectors) == 0 {
		return fmt.Errorf("site %s: selectors must not be empty", cfg.SiteID)
	}
	if cfg.NeedsBaseURL() && cfg.BaseURL == "" {
		return fmt.Errorf("site %s: base_url is required for parser_type %s", cfg.SiteID, cfg.Kind())
	}
	if cfg.NeedsAccept() && cfg.Accept == "" {
		return fmt.Errorf("site %s: accept is required for parser_type %s", cfg.SiteID, cfg.Kind())
	}
	for field := range cfg.Selectors {
		if !isCanonicalField(field) {
			return fmt.Errorf("site %s: unknown selector field %q", cfg.SiteID, field)
		}
	}
	return nil
}

func isCanonicalField(field string) bool {
	for _, known := range models.CanonicalFields {
		if field == known {
			return true
		}
	}
	return false
}

// LoadFilters reads the filter catalog.
func LoadFilters(path string) (*models.FilterCatalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read filter catalog %s: %w", path, err)
	}

	var catalog models.FilterCatalog
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("failed to parse filter catalog %s: %w", path, err)
	}
	return &catalog, nil
}
