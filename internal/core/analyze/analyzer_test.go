package analyze

import (
	"strings"
	"testing"

	"github.com/markdave123-py/vectora/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyzeCounts(t *testing.T) {
	md := Analyze("one two three", "text", nil, Options{})
	assert.Equal(t, 3, md.WordCount)
	assert.Equal(t, 13, md.CharCount)
	assert.Equal(t, "text", md.Format)
	assert.Empty(t, md.Language)
	assert.Empty(t, md.Keywords)
}

func TestAnalyzeUsesSourceMetadata(t *testing.T) {
	md := Analyze("body", "html", map[string]string{"title": "My Page"}, Options{})
	assert.Equal(t, "My Page", md.Title)
}

func TestDetectLanguage(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"english", "the cat is in the house and it is happy with the sun", "en"},
		{"spanish", "el perro que vive en la casa es un animal y no se queja", "es"},
		{"french", "le chien est dans la maison et il est content pour le moment dans ce lieu", "fr"},
		{"german", "der hund ist in dem haus und die katze ist mit der maus von dem dach", "de"},
		{"empty ties to english", "", "en"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectLanguage(tt.text))
		})
	}
}

func TestExtractEntities(t *testing.T) {
	text := "Contact alice@example.com or visit https://example.com/docs. " +
		"Invoice due 12/31/2024 for $1,250.50. Signed January 5, 2025."

	entities := ExtractEntities(text)

	byType := map[models.EntityType][]models.EntityExtraction{}
	for _, e := range entities {
		byType[e.Type] = append(byType[e.Type], e)
	}

	require.Len(t, byType[models.EntityEmail], 1)
	assert.Equal(t, "alice@example.com", byType[models.EntityEmail][0].Value)
	assert.Equal(t, 0.9, byType[models.EntityEmail][0].Confidence)
	assert.Equal(t, strings.Index(text, "alice@"), byType[models.EntityEmail][0].Positions[0])

	require.Len(t, byType[models.EntityURL], 1)
	assert.Contains(t, byType[models.EntityURL][0].Value, "https://example.com")

	require.Len(t, byType[models.EntityDate], 2)
	require.Len(t, byType[models.EntityMoney], 1)
	assert.Equal(t, "$1,250.50", byType[models.EntityMoney][0].Value)
}

func TestExtractKeywords(t *testing.T) {
	text := strings.Repeat("embedding pipeline ", 5) + strings.Repeat("vector ", 3) + "cat dog the and"
	keywords := ExtractKeywords(text)

	require.NotEmpty(t, keywords)
	assert.Contains(t, keywords, "embedding")
	assert.Contains(t, keywords, "pipeline")
	assert.Contains(t, keywords, "vector")
	assert.NotContains(t, keywords, "cat") // <= 4 chars
	assert.LessOrEqual(t, len(keywords), 10)
}

func TestSummarize(t *testing.T) {
	t.Run("first three long sentences", func(t *testing.T) {
		text := "Short. This is the first real sentence of the document. " +
			"Here comes the second one with enough length. Tiny! " +
			"And the third substantial sentence arrives now. A fourth one is ignored entirely."
		summary := Summarize(text)

		assert.Contains(t, summary, "first real sentence")
		assert.Contains(t, summary, "second one")
		assert.Contains(t, summary, "third substantial")
		assert.NotContains(t, summary, "fourth")
		assert.True(t, strings.HasSuffix(summary, "."))
		assert.False(t, strings.HasSuffix(summary, ".."))
	})

	t.Run("empty text", func(t *testing.T) {
		assert.Equal(t, "", Summarize(""))
	})
}
