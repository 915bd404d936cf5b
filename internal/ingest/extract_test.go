package ingest_test

import (
	"strings"
	"testing"

	"github.com/myrjola/mysteries/internal/ingest"
	"github.com/stretchr/testify/require"
)

func TestExtractJSONObject(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		want    string
		wantErr error
	}{
		{
			name: "surrounded by prose",
			text: `here is your case: {"a":{"b":1}} thanks`,
			want: `{"a":{"b":1}}`,
		},
		{
			name: "only the first object",
			text: `{"first":1} and {"second":2}`,
			want: `{"first":1}`,
		},
		{
			name: "braces inside strings",
			text: `Result: {"title":"The {curly} case","note":"ends with }"} done`,
			want: `{"title":"The {curly} case","note":"ends with }"}`,
		},
		{
			name: "escaped quotes inside strings",
			text: `{"quote":"he said \"}\" twice"}`,
			want: `{"quote":"he said \"}\" twice"}`,
		},
		{
			name: "markdown code fence",
			text: "```json\n{\n  \"title\": \"Gala\"\n}\n```",
			want: "{\n  \"title\": \"Gala\"\n}",
		},
		{
			name: "invalid candidate followed by valid one",
			text: `Use {placeholders} like {"title":"ok"}`,
			want: `{"title":"ok"}`,
		},
		{
			name: "nested valid object inside invalid outer candidate",
			text: `{broken {"inner":true} still broken}`,
			want: `{"inner":true}`,
		},
		{
			name: "unclosed outer brace",
			text: `{{"a":1}`,
			want: `{"a":1}`,
		},
		{
			name: "closed inner braces",
			text: `{{}`,
			want: `{}`,
		},
		{
			name:    "no opening brace",
			text:    "I am sorry, I cannot help with that.",
			wantErr: ingest.ErrNoJSONObject,
		},
		{
			name:    "empty text",
			text:    "",
			wantErr: ingest.ErrNoJSONObject,
		},
		{
			name:    "unbalanced",
			text:    `{"title":"cut off`,
			wantErr: ingest.ErrNoJSONObject,
		},
		{
			name:    "balanced but malformed",
			text:    `{title: 'single quotes'}`,
			wantErr: ingest.ErrMalformedJSON,
		},
		{
			name:    "trailing comma",
			text:    `{"title":"x",}`,
			wantErr: ingest.ErrMalformedJSON,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ingest.ExtractJSONObject(tt.text)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				require.Empty(t, got)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestExtractJSONObject_longUnbalancedPrefix(t *testing.T) {
	prefix := strings.Repeat("{", 200_000)

	got, err := ingest.ExtractJSONObject(prefix + `{"title":"x"}`)
	require.NoError(t, err)
	require.Equal(t, `{"title":"x"}`, got)

	_, err = ingest.ExtractJSONObject(prefix)
	require.ErrorIs(t, err, ingest.ErrNoJSONObject)
}

func FuzzExtractJSONObject(f *testing.F) {
	f.Add(`here is your case: {"a":{"b":1}} thanks`)
	f.Add(`{"a":"\\"}`)
	f.Add(`}{`)
	f.Fuzz(func(t *testing.T, text string) {
		got, err := ingest.ExtractJSONObject(text)
		if err == nil {
			require.Contains(t, text, got)
			require.Equal(t, byte('{'), got[0])
		}
	})
}
