package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/scout/internal/models"
)

func writeCatalog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "websites.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const validCatalog = `
site_b:
  url: https://example.com/jobs
  base_url: https://example.com
  parser_type: STATIC
  date_format: "{n} days ago"
  selectors:
    company_name: .company
    position: .title
site_a:
  url: https://example.org/export.csv
  parser_type: DOWNLOAD
  accept: text/csv
  date_format: 01/02/2006
  selectors:
    company_name: Company
    position: Role
`

func TestLoadSitesSortedAndVerified(t *testing.T) {
	sites, err := LoadSites(writeCatalog(t, validCatalog))
	require.NoError(t, err)
	require.Len(t, sites, 2)

	assert.Equal(t, "site_a", sites[0].SiteID)
	assert.Equal(t, models.ParserTypeDownload, sites[0].Kind())
	assert.Equal(t, "site_b", sites[1].SiteID)
	assert.Equal(t, ".title", sites[1].Selectors[models.FieldPosition])
}

func TestLoadSitesMissingBaseURL(t *testing.T) {
	_, err := LoadSites(writeCatalog(t, `
site_a:
  url: https://example.com/jobs
  parser_type: STATIC
  date_format: "{n} days ago"
  selectors:
    position: .title
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "site_a")
	assert.Contains(t, err.Error(), "base_url")
}

func TestLoadSitesMissingAcceptForDownload(t *testing.T) {
	_, err := LoadSites(writeCatalog(t, `
site_a:
  url: https://example.com/export.csv
  parser_type: DOWNLOAD
  date_format: 01/02/2006
  selectors:
    position: Role
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accept")
}

func TestLoadSitesUnknownParserType(t *testing.T) {
	_, err := LoadSites(writeCatalog(t, `
site_a:
  url: https://example.com/jobs
  base_url: https://example.com
  parser_type: MAGIC
  date_format: "{n} days ago"
  selectors:
    position: .title
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MAGIC")
}

func TestLoadSitesEmptySelectors(t *testing.T) {
	_, err := LoadSites(writeCatalog(t, `
site_a:
  url: https://example.com/jobs
  base_url: https://example.com
  parser_type: STATIC
  date_format: "{n} days ago"
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "selectors")
}

func TestLoadSitesUnknownSelectorField(t *testing.T) {
	_, err := LoadSites(writeCatalog(t, `
site_a:
  url: https://example.com/jobs
  base_url: https://example.com
  parser_type: STATIC
  date_format: "{n} days ago"
  selectors:
    salary: .pay
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "salary")
}

func TestLoadFilters(t *testing.T) {
	path := filepath.Join(t.TempDir(), "filters.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
General:
  ignore:
    position: [senior]
Specific:
  site_a:
    scrub:
      company_name: [ditto]
`), 0o644))

	catalog, err := LoadFilters(path)
	require.NoError(t, err)

	resolved := catalog.Resolve("site_a",
		[]string{models.FieldPosition, models.FieldCompanyName},
		[]string{models.FilterIgnore, models.FilterScrub})
	assert.Equal(t, []string{"senior"}, resolved[models.FilterIgnore][models.FieldPosition])
	assert.Equal(t, []string{"ditto"}, resolved[models.FilterScrub][models.FieldCompanyName])
}
