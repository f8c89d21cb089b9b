package news

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/ternarybob/pasar/internal/models"
)

func TestSplitTitle(t *testing.T) {
	tests := []struct {
		raw        string
		wantTitle  string
		wantSource string
	}{
		{"Bank ABC Untung Besar - Kompas", "Bank ABC Untung Besar", "Kompas"},
		{"Laba Bersih Naik - Rugi Menyusut - CNBC Indonesia", "Laba Bersih Naik - Rugi Menyusut", "CNBC Indonesia"},
		{"IHSG Ditutup Menguat", "IHSG Ditutup Menguat", models.UnknownSource},
		{"  Rupiah Stabil -Bisnis  ", "Rupiah Stabil", "Bisnis"},
		{"Judul tanpa sumber -", "Judul tanpa sumber", models.UnknownSource},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			title, source := SplitTitle(tt.raw)
			assert.Equal(t, tt.wantTitle, title)
			assert.Equal(t, tt.wantSource, source)
		})
	}
}

func TestCleanDescription(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"strips markup", `<a href="https://x">Bank ABC</a> <font color="#6f6f6f">Kompas</font>`, "Bank ABC Kompas"},
		{"entity nbsp", "Laba&nbsp;&nbsp;naik", "Laba naik"},
		{"literal nbsp", "Laba\u00a0naik", "Laba naik"},
		{"collapses whitespace", "  IHSG \n\n\t menguat  ", "IHSG menguat"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanDescription(tt.raw))
		})
	}
}

func TestCleanDescription_Truncates(t *testing.T) {
	long := strings.Repeat("é", MaxDescriptionRunes+20)
	got := CleanDescription(long)
	assert.True(t, strings.HasSuffix(got, "..."))
	assert.Equal(t, MaxDescriptionRunes+3, len([]rune(got)))

	exact := strings.Repeat("a", MaxDescriptionRunes)
	assert.Equal(t, exact, CleanDescription(exact))
}

func TestParsePublished(t *testing.T) {
	now := time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)
	parsed := time.Date(2026, 10, 13, 1, 2, 3, 0, time.UTC)

	tests := []struct {
		name string
		item models.FeedItem
		want time.Time
	}{
		{"parser timestamp wins", models.FeedItem{PublishedParsed: &parsed, Published: "garbage"}, parsed},
		{"rfc1123", models.FeedItem{Published: "Tue, 13 Oct 2026 08:00:00 GMT"}, time.Date(2026, 10, 13, 8, 0, 0, 0, time.UTC)},
		{"rfc1123 numeric zone", models.FeedItem{Published: "Tue, 13 Oct 2026 15:00:00 +0700"}, time.Date(2026, 10, 13, 8, 0, 0, 0, time.UTC)},
		{"unparseable falls back to now", models.FeedItem{Published: "kemarin sore"}, now},
		{"missing falls back to now", models.FeedItem{}, now},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.want.Equal(ParsePublished(tt.item, now)), "got %v", ParsePublished(tt.item, now))
		})
	}
}

func TestNormalize(t *testing.T) {
	now := time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)
	article := Normalize(models.FeedItem{
		Title:       "Bank ABC Untung Besar - Kompas",
		Link:        " https://example.com/a ",
		Published:   "Tue, 13 Oct 2026 08:00:00 GMT",
		Description: "<b>Laba</b> naik",
	}, now)

	assert.Equal(t, "https://example.com/a", article.Link)
	assert.Equal(t, "Bank ABC Untung Besar", article.Title)
	assert.Equal(t, "Kompas", article.Source)
	assert.Equal(t, "Laba naik", article.Description)
	assert.Equal(t, now, article.CreatedAt)
	assert.Equal(t, "Bank ABC Untung Besar. Laba naik", ClassifierInput(article))
}
