package main

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/myrjola/mysteries/internal/testhelpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type caseSummary struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
	Desc  string `json:"desc"`
	Img   string `json:"img"`
}

type caseDetail struct {
	ID         int64  `json:"id"`
	Title      string `json:"title"`
	Background string `json:"background"`
	Time       string `json:"time"`
	Clues      []struct {
		Title string `json:"title"`
		Desc  string `json:"desc"`
		Img   string `json:"img"`
	} `json:"clues"`
	Suspects []struct {
		Name string `json:"name"`
		Age  int    `json:"age"`
	} `json:"suspects"`
	Timeline []string `json:"timeline"`
}

type result struct {
	Success bool           `json:"success"`
	ID      int64          `json:"id"`
	Error   string         `json:"error"`
	Fields  map[string]any `json:"fields"`
}

const generatedText = `Here is your mystery!
{"title":"The Locked Library","desc":"A scholar is found in a library locked from the inside.",
"img":"https://images.unsplash.com/library","clues":[{"title":"Key","desc":"Still in the lock.","img":"key.jpg"}],
"timeline":["18:00 Library closes","06:00 Body found"],
"suspects":[{"name":"Ada Grey","age":"29","relation":"Assistant","motive":"Credit","alibi":"Home","notes":"","img":""}],
"realKiller":"Ada Grey"}
Good luck, detective.`

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}

func TestHealthy(t *testing.T) {
	server := startTestServer(t, newLookupEnv(nil))
	var body map[string]string
	status, err := server.Client().GetJSON(context.Background(), "/api/healthy", &body)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, map[string]string{"status": "ok"}, body)
}

func TestReadCases(t *testing.T) {
	ctx := context.Background()
	server := startTestServer(t, newLookupEnv(map[string]string{"MYSTERIES_SEED_FIXTURES": "true"}))
	client := server.Client()

	var summaries []caseSummary
	status, err := client.GetJSON(ctx, "/api/cases", &summaries)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, summaries, 2)
	painting := summaries[0]
	require.Equal(t, "The Case of the Missing Painting", painting.Title)
	require.True(t, strings.HasSuffix(painting.Desc, "..."), painting.Desc)
	require.Equal(t, 83, len([]rune(painting.Desc)))
	require.NotEmpty(t, painting.Img)

	var detail caseDetail
	status, err = client.GetJSON(ctx, "/api/case/"+itoa(painting.ID), &detail)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, painting.ID, detail.ID)
	require.Equal(t, "2:15 AM, City Museum, Main Gallery", detail.Time)
	require.Len(t, detail.Clues, 3)
	require.Equal(t, "Thumbnail", detail.Clues[0].Title)
	require.Len(t, detail.Suspects, 3)
	require.Equal(t, "1:45 AM - Night guard checks main gallery, all clear.", detail.Timeline[0])

	var killer map[string]string
	status, err = client.GetJSON(ctx, "/api/real_killer/"+itoa(painting.ID), &killer)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "John Miller", killer["name"])
}

func TestReadCases_notFound(t *testing.T) {
	ctx := context.Background()
	server := startTestServer(t, newLookupEnv(nil))
	client := server.Client()

	tests := []struct {
		path    string
		wantMsg string
	}{
		{path: "/api/case/999", wantMsg: "Case not found"},
		{path: "/api/case/abc", wantMsg: "Case not found"},
		{path: "/api/real_killer/999", wantMsg: "Not found"},
		{path: "/api/real_killer/abc", wantMsg: "Not found"},
		{path: "/api/unknown", wantMsg: "Not Found"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			var body map[string]string
			status, err := client.GetJSON(ctx, tt.path, &body)
			require.NoError(t, err)
			require.Equal(t, http.StatusNotFound, status)
			require.Equal(t, tt.wantMsg, body["error"])
		})
	}

	var summaries []caseSummary
	status, err := client.GetJSON(ctx, "/api/cases", &summaries)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, status)
	require.Empty(t, summaries)
}

func TestCreateCase(t *testing.T) {
	ctx := context.Background()
	server := startTestServer(t, newLookupEnv(nil))
	client := server.Client()

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantFields []string
	}{
		{
			name: "valid",
			body: `{"title":"The Vanishing Violinist","desc":"A violinist disappears mid concert.","img":"v.jpg",
"realKiller":"Bruno","clues":[{"title":"Bow","desc":"Snapped.","img":"bow.jpg"}],"timeline":["20:00 Concert"],
"suspects":[{"name":"Bruno","age":61}]}`,
			wantStatus: http.StatusOK,
		},
		{
			name:       "missing fields",
			body:       `{"desc":"No title","img":"x.jpg"}`,
			wantStatus: http.StatusBadRequest,
			wantFields: []string{"title", "realKiller"},
		},
		{
			name:       "malformed JSON",
			body:       `{"title":`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "too large",
			body:       `{"title":"` + strings.Repeat("a", maxBodyBytes) + `"}`,
			wantStatus: http.StatusRequestEntityTooLarge,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var res result
			status, err := client.PostJSON(ctx, "/api/cases", tt.body, &res)
			require.NoError(t, err)
			require.Equal(t, tt.wantStatus, status)
			if tt.wantStatus == http.StatusOK {
				require.True(t, res.Success)
				require.Positive(t, res.ID)
				return
			}
			require.False(t, res.Success)
			require.NotEmpty(t, res.Error)
			for _, field := range tt.wantFields {
				require.Contains(t, res.Fields, field)
			}
		})
	}

	// Only the valid case was stored.
	var summaries []caseSummary
	_, err := client.GetJSON(ctx, "/api/cases", &summaries)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	require.Equal(t, "v.jpg", summaries[0].Img)

	var killer map[string]string
	_, err = client.GetJSON(ctx, "/api/real_killer/"+itoa(summaries[0].ID), &killer)
	require.NoError(t, err)
	require.Equal(t, "Bruno", killer["name"])
}

func TestGenerateCase(t *testing.T) {
	ctx := context.Background()
	openAI := newFakeOpenAI(t, generatedText)
	server := startTestServer(t, newLookupEnv(map[string]string{
		"OPENAI_API_KEY":  "test-key",
		"OPENAI_BASE_URL": openAI.server.URL,
	}))
	client := server.Client()

	var res result
	status, err := client.PostJSON(ctx, "/api/generate_case", nil, &res)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, status)
	require.True(t, res.Success)
	require.EqualValues(t, 1, openAI.calls.Load())

	var detail caseDetail
	status, err = client.GetJSON(ctx, "/api/case/"+itoa(res.ID), &detail)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "The Locked Library", detail.Title)
	require.Len(t, detail.Clues, 2)
	require.Equal(t, 29, detail.Suspects[0].Age)
	require.Equal(t, []string{"18:00 Library closes", "06:00 Body found"}, detail.Timeline)
}

func TestGenerateCase_failures(t *testing.T) {
	tests := []struct {
		name string
		env  func(t *testing.T) map[string]string
	}{
		{
			name: "no JSON in completion",
			env: func(t *testing.T) map[string]string {
				openAI := newFakeOpenAI(t, "I would rather not.")
				return map[string]string{"OPENAI_API_KEY": "test-key", "OPENAI_BASE_URL": openAI.server.URL}
			},
		},
		{
			name: "incomplete case",
			env: func(t *testing.T) map[string]string {
				openAI := newFakeOpenAI(t, `{"title":"Only a title"}`)
				return map[string]string{"OPENAI_API_KEY": "test-key", "OPENAI_BASE_URL": openAI.server.URL}
			},
		},
		{
			name: "generation disabled",
			env:  func(*testing.T) map[string]string { return nil },
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			server := startTestServer(t, newLookupEnv(tt.env(t)))
			client := server.Client()

			var res result
			status, err := client.PostJSON(ctx, "/api/generate_case", nil, &res)
			require.NoError(t, err)
			require.Equal(t, http.StatusInternalServerError, status)
			require.False(t, res.Success)
			require.Contains(t, res.Error, "case generation failed")

			var summaries []caseSummary
			_, err = client.GetJSON(ctx, "/api/cases", &summaries)
			require.NoError(t, err)
			require.Empty(t, summaries)
		})
	}
}

func TestCORS(t *testing.T) {
	server := startTestServer(t, newLookupEnv(map[string]string{"MYSTERIES_CORS_ORIGINS": "https://game.example"}))

	req, err := http.NewRequestWithContext(context.Background(), http.MethodOptions, server.URL()+"/api/cases", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://game.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, "https://game.example", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestRun_invalidConfig(t *testing.T) {
	lookupEnv := newLookupEnv(map[string]string{"MYSTERIES_GENERATE_TIMEOUT": "soon"})
	err := run(context.Background(), testhelpers.NewLogger(io.Discard), lookupEnv)
	require.Error(t, err)

	lookupEnv = newLookupEnv(map[string]string{"OPENAI_BASE_URL": "not a url"})
	err = run(context.Background(), testhelpers.NewLogger(io.Discard), lookupEnv)
	require.Error(t, err)
}

func TestRecoverPanic(t *testing.T) {
	app := &application{logger: testhelpers.NewLogger(io.Discard)} //nolint:exhaustruct // only logging is needed
	handler := app.recoverPanic(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/cases", nil))
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, "close", rr.Header().Get("Connection"))
	assert.JSONEq(t, `{"error":"Internal Server Error"}`, rr.Body.String())
}
