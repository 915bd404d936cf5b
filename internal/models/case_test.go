package models_test

import (
	"strings"
	"testing"

	"github.com/myrjola/mysteries/internal/models"
	"github.com/stretchr/testify/require"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		n    int
		want string
	}{
		{name: "short", in: "A quiet night.", n: 80, want: "A quiet night."},
		{name: "exact", in: strings.Repeat("a", 80), n: 80, want: strings.Repeat("a", 80)},
		{name: "long", in: strings.Repeat("a", 81), n: 80, want: strings.Repeat("a", 80) + "..."},
		{name: "multibyte", in: "ééééé", n: 3, want: "ééé..."},
		{name: "empty", in: "", n: 80, want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, models.Truncate(tt.in, tt.n))
		})
	}
}

func TestNewCaseSummary(t *testing.T) {
	c := models.Case{ID: 3, Title: "The Poisoned Gala", Background: "A toast turns deadly."}

	summary := models.NewCaseSummary(c, "")
	require.Equal(t, models.PlaceholderThumbnail, summary.Img)
	require.Equal(t, "A toast turns deadly.", summary.Description)

	summary = models.NewCaseSummary(c, "gala.jpg")
	require.Equal(t, "gala.jpg", summary.Img)
}
