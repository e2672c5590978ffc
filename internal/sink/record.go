package sink

import (
	"net/url"
	"strings"

	"github.com/ternarybob/scout/internal/models"
)

const (
	maxTitleLength  = 2000
	maxOptionLength = 100
	maxURLLength    = 2000
	maxChunkLength  = 2000
)

// Multi-select options cannot carry commas, so they are rewritten the same
// way the pipeline rewrites positions.
var optionReplacer = strings.NewReplacer(",", " -", "，", " -", "、", " -")

// Record is one listing shaped for delivery.
type Record struct {
	CompanyName     string
	Position        string
	ApplicationLink string
	CompanySize     string
	Description     string
}

// NewRecord lifts a pipeline row into a record.
func NewRecord(row models.Row) *Record {
	return &Record{
		CompanyName:     row.Get(models.FieldCompanyName),
		Position:        row.Get(models.FieldPosition),
		ApplicationLink: row.Get(models.FieldApplicationLink),
		CompanySize:     row.Get(models.FieldCompanySize),
		Description:     row.Get(models.FieldDescription),
	}
}

// Valid reports whether the record carries enough substance to store. Rows
// with near-empty names are extraction noise.
func (r *Record) Valid() bool {
	return len(r.CompanyName) >= 2 && len(r.Position) >= 2
}

// Body renders the create-page request payload.
func (r *Record) Body(databaseID string) map[string]any {
	properties := map[string]any{
		"Company Name": map[string]any{
			"title": []any{textItem(truncate(r.CompanyName, maxTitleLength))},
		},
		"Position": map[string]any{
			"multi_select": []any{optionItem(r.Position)},
		},
		"Status": map[string]any{
			"status": map[string]any{"name": "Pending"},
		},
		"Application Link": map[string]any{
			"url": safeURL(r.ApplicationLink),
		},
	}
	if r.CompanySize != "" {
		properties["Company Size"] = map[string]any{
			"multi_select": []any{optionItem(r.CompanySize)},
		}
	}

	body := map[string]any{
		"parent":     map[string]any{"database_id": databaseID},
		"properties": properties,
	}
	if children := descriptionBlocks(r.Description); len(children) > 0 {
		body["children"] = children
	}
	return body
}

func textItem(content string) map[string]any {
	return map[string]any{
		"type": "text",
		"text": map[string]any{"content": content},
	}
}

func optionItem(name string) map[string]any {
	name = optionReplacer.Replace(name)
	return map[string]any{"name": truncate(name, maxOptionLength)}
}

// safeURL keeps the link as-is when it fits, and falls back to the bare
// origin when it is overlong or missing. A link with no host becomes null.
func safeURL(raw string) any {
	if len(raw) <= maxURLLength && raw != "" {
		return raw
	}
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Host == "" {
		return nil
	}
	return parsed.Scheme + "://" + parsed.Host
}

// descriptionBlocks splits the description into paragraph blocks of at most
// maxChunkLength characters. Limits count characters, not bytes, so a
// multi-byte rune never straddles a chunk boundary. Empty chunks are dropped.
func descriptionBlocks(description string) []any {
	runes := []rune(description)
	var blocks []any
	for start := 0; start < len(runes); start += maxChunkLength {
		end := start + maxChunkLength
		if end > len(runes) {
			end = len(runes)
		}
		chunk := string(runes[start:end])
		if strings.TrimSpace(chunk) == "" {
			continue
		}
		blocks = append(blocks, map[string]any{
			"object": "block",
			"type":   "paragraph",
			"paragraph": map[string]any{
				"rich_text": []any{textItem(chunk)},
			},
		})
	}
	return blocks
}

// truncate caps s at max characters, keeping whole runes.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
