package extract

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/scout/internal/fetch"
	"github.com/ternarybob/scout/internal/models"
)

func TestCSVExtractorProjectsByHeader(t *testing.T) {
	payload := &fetch.Payload{CSV: "Name,Title,Extra\nAcme,Engineer,x\nGlobex,Designer,y\n"}
	cfg := &models.SiteConfig{
		Selectors: map[string]string{
			models.FieldCompanyName: "Name",
			models.FieldPosition:    "Title",
			models.FieldDate:        "Posted", // header absent, column omitted
		},
	}

	frame, err := NewCSVExtractor().Extract(context.Background(), payload, cfg)
	require.NoError(t, err)
	assert.Equal(t, 2, frame.Len())
	assert.Equal(t, []string{"Acme", "Globex"}, frame.Column(models.FieldCompanyName))
	assert.Equal(t, []string{"Engineer", "Designer"}, frame.Column(models.FieldPosition))
	assert.False(t, frame.HasColumn(models.FieldDate))
}

func TestCSVExtractorEmptyContent(t *testing.T) {
	frame, err := NewCSVExtractor().Extract(context.Background(), &fetch.Payload{CSV: ""}, &models.SiteConfig{
		Selectors: map[string]string{models.FieldPosition: "Title"},
	})
	require.NoError(t, err)
	assert.True(t, frame.IsEmpty())
}

func TestHTMLExtractorTextAndHref(t *testing.T) {
	html := `<html><body>
		<div class="job"><span class="company"> Acme </span><a class="apply" href="https://acme.example/jobs/1">Apply</a></div>
		<div class="job"><span class="company">Globex</span><a class="apply">Apply here</a></div>
	</body></html>`

	cfg := &models.SiteConfig{
		Selectors: map[string]string{
			models.FieldCompanyName:     "span.company",
			models.FieldApplicationLink: "a.apply",
		},
	}

	frame, err := NewHTMLExtractor().Extract(context.Background(), &fetch.Payload{HTML: html}, cfg)
	require.NoError(t, err)
	assert.Equal(t, []string{"Acme", "Globex"}, frame.Column(models.FieldCompanyName))
	assert.Equal(t, []string{"https://acme.example/jobs/1", "Apply here"}, frame.Column(models.FieldApplicationLink))
}

func TestHTMLExtractorMissingSelectorOmitsColumn(t *testing.T) {
	cfg := &models.SiteConfig{
		Selectors: map[string]string{models.FieldPosition: "h2.title"},
	}

	frame, err := NewHTMLExtractor().Extract(context.Background(), &fetch.Payload{HTML: "<html><body></body></html>"}, cfg)
	require.NoError(t, err)
	assert.False(t, frame.HasColumn(models.FieldPosition))
	assert.True(t, frame.IsEmpty())
}

func TestHireBaseExtractorPlucksNestedValues(t *testing.T) {
	doc := `{"jobs": [
		{"title": "Engineer", "company": {"name": "Acme", "size": "50"}, "tags": ["go", "backend"], "url": null},
		{"title": "Designer", "company": {"name": "Globex", "size": "200"}, "tags": [], "url": "https://globex.example/1"}
	]}`

	cfg := &models.SiteConfig{
		Selectors: map[string]string{
			models.FieldPosition:        "title",
			models.FieldCompanyName:     "company.name",
			models.FieldApplicationLink: "url",
			models.FieldDescription:     "tags",
		},
	}

	frame, err := NewHireBaseExtractor().Extract(context.Background(), &fetch.Payload{Documents: []string{doc}}, cfg)
	require.NoError(t, err)
	assert.Equal(t, 2, frame.Len())
	assert.Equal(t, []string{"Engineer", "Designer"}, frame.Column(models.FieldPosition))
	assert.Equal(t, []string{"Acme", "Globex"}, frame.Column(models.FieldCompanyName))
	assert.Equal(t, []string{"", "https://globex.example/1"}, frame.Column(models.FieldApplicationLink))
	assert.Equal(t, []string{"go, backend", ""}, frame.Column(models.FieldDescription))
}

func TestHireBaseExtractorObjectFlattening(t *testing.T) {
	doc := `{"jobs": [{"title": "Engineer", "salary": {"min": 50000, "max": 70000}}]}`
	cfg := &models.SiteConfig{
		Selectors: map[string]string{models.FieldDescription: "salary"},
	}

	frame, err := NewHireBaseExtractor().Extract(context.Background(), &fetch.Payload{Documents: []string{doc}}, cfg)
	require.NoError(t, err)
	assert.Equal(t, []string{"min: 50000\nmax: 70000"}, frame.Column(models.FieldDescription))
}

func TestHireBaseExtractorMultipleDocuments(t *testing.T) {
	docs := []string{
		`{"jobs": [{"title": "A"}]}`,
		`{"jobs": [{"title": "B"}, {"title": "C"}]}`,
		`{"count": 0}`, // no jobs key, skipped
	}
	cfg := &models.SiteConfig{
		Selectors: map[string]string{models.FieldPosition: "title"},
	}

	frame, err := NewHireBaseExtractor().Extract(context.Background(), &fetch.Payload{Documents: docs}, cfg)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "C"}, frame.Column(models.FieldPosition))
}
