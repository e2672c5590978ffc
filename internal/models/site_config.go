package models

import (
	"strings"
	"time"
)

// ParserType identifies which fetcher/extractor pair a site uses.
type ParserType string

const (
	ParserTypeStatic      ParserType = "STATIC"       // HTTP fetch + HTML selectors
	ParserTypeJS          ParserType = "JS"           // headless browser + DOM selectors
	ParserTypeDownload    ParserType = "DOWNLOAD"     // HTTP fetch of a CSV export
	ParserTypeSelDownload ParserType = "SEL_DOWNLOAD" // browser-driven interactive CSV download
	ParserTypeHireBase    ParserType = "HIRE_BASE"    // vendor JSON search API
)

// Cadence between cycles per parser type. Pages change often; vendor exports
// refresh daily.
const (
	CadenceHTML     = 3 * time.Hour
	CadenceDownload = 24 * time.Hour
)

// SiteConfig describes one configured source. Read-only after startup.
type SiteConfig struct {
	SiteID     string            `yaml:"-"`
	URL        string            `yaml:"url"`
	ParserType string            `yaml:"parser_type"`
	BaseURL    string            `yaml:"base_url"`
	Accept     string            `yaml:"accept"`
	DateFormat string            `yaml:"date_format"`
	Selectors  map[string]string `yaml:"selectors"`
	WaitTime   int               `yaml:"wait_time"` // seconds to let a rendered page settle
}

// Kind returns the normalized parser type. BROWSER_DOWNLOAD is accepted as a
// legacy alias for SEL_DOWNLOAD.
func (c *SiteConfig) Kind() ParserType {
	kind := ParserType(strings.ToUpper(strings.TrimSpace(c.ParserType)))
	if kind == "BROWSER_DOWNLOAD" {
		return ParserTypeSelDownload
	}
	return kind
}

// Cadence returns how long a worker sleeps between cycles for this site.
func (c *SiteConfig) Cadence() time.Duration {
	switch c.Kind() {
	case ParserTypeDownload, ParserTypeSelDownload:
		return CadenceDownload
	default:
		return CadenceHTML
	}
}

// NeedsBaseURL reports whether this parser type consults robots.txt and thus
// requires base_url in the catalog.
func (c *SiteConfig) NeedsBaseURL() bool {
	switch c.Kind() {
	case ParserTypeDownload, ParserTypeSelDownload:
		return false
	default:
		return true
	}
}

// NeedsAccept reports whether this parser type requires an explicit Accept
// MIME type in the catalog.
func (c *SiteConfig) NeedsAccept() bool {
	switch c.Kind() {
	case ParserTypeDownload, ParserTypeSelDownload:
		return true
	default:
		return false
	}
}

// KnownParserTypes lists every recognized parser_type value.
var KnownParserTypes = []ParserType{
	ParserTypeStatic,
	ParserTypeJS,
	ParserTypeDownload,
	ParserTypeSelDownload,
	ParserTypeHireBase,
}

// IsKnownParserType reports whether kind names a recognized parser type.
func IsKnownParserType(kind ParserType) bool {
	for _, known := range KnownParserTypes {
		if kind == known {
			return true
		}
	}
	return false
}
