package api

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/gcbaptista/go-lexicon/internal/analytics"
	"github.com/gcbaptista/go-lexicon/internal/corpus"
	"github.com/gcbaptista/go-lexicon/internal/engine"
	"github.com/gcbaptista/go-lexicon/internal/jobs"
	"github.com/gcbaptista/go-lexicon/internal/library"
	"github.com/gcbaptista/go-lexicon/internal/notify"
	"github.com/gcbaptista/go-lexicon/internal/persistence"
	"github.com/gcbaptista/go-lexicon/internal/progress"
	"github.com/gcbaptista/go-lexicon/model"
)

const (
	nounPartition = `{"name":"noun","words":[
		{"word":"Chat","phonetic":"ʃa","gender":"m","pos":[{"abbr":"n. m.","full":"nom masculin"}],
		 "definitions":[{"text":"1 chat (n.) petit félin domestique","examples":[{"fr":"Le chat dort.","zh":"猫在睡觉。"}]}]},
		{"word":"chien","gender":"m","pos":[{"abbr":"n. m."}],"definitions":[{"text":"animal domestique"}]}
	]}`
	verbPartition = `{"name":"verb","words":[
		{"word":"chanter","pos":[{"abbr":"v."}],"definitions":[{"text":"produire des sons musicaux"}]}
	]}`
)

type testServer struct {
	router *gin.Engine
	dict   *engine.Dictionary
	events *notify.Broadcaster
}

func setupTestServer(t *testing.T, withCorpus bool) testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dir := t.TempDir()
	if withCorpus {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "noun.json"), []byte(nounPartition), 0600))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "verb.json"), []byte(verbPartition), 0600))
	}

	ctx := context.Background()
	store := persistence.NewMemoryStore()
	events := notify.NewBroadcaster()
	t.Cleanup(events.Close)

	tracker, err := progress.NewTracker(ctx, store)
	require.NoError(t, err)
	lib, err := library.New(ctx, store, nil)
	require.NoError(t, err)
	searches, err := analytics.NewService(ctx, store, nil)
	require.NoError(t, err)

	dict, err := engine.New(engine.Options{
		Loader: corpus.NewLoader(corpus.NewDirProvider(dir, []string{"french_dict"}), corpus.LoaderOptions{
			Partitions: []string{"noun", "verb"},
			Sink:       events,
		}),
		Tracker:   tracker,
		Library:   lib,
		Jobs:      jobs.NewManager(1, nil),
		Analytics: searches,
		Sink:      events,
		Collation: language.French,
	})
	require.NoError(t, err)
	t.Cleanup(dict.Close)

	if withCorpus {
		require.NoError(t, dict.Load(ctx))
	}

	return testServer{
		router: NewRouter(NewAPI(dict, events, nil), 1<<20),
		dict:   dict,
		events: events,
	}
}

func (s testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestHealthAndStatus(t *testing.T) {
	s := setupTestServer(t, true)

	w := s.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(requestIDHeader))

	w = s.do(t, http.MethodGet, "/dictionary/status", nil)
	require.Equal(t, http.StatusOK, w.Code)
	status := decode[model.DictionaryStatus](t, w)
	assert.Equal(t, model.StateReady, status.State)
	require.NotNil(t, status.Metadata)
	assert.Equal(t, 3, status.Metadata.TotalCount)
}

func TestReadinessGating(t *testing.T) {
	s := setupTestServer(t, false)

	w := s.do(t, http.MethodGet, "/dictionary/status", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = s.do(t, http.MethodGet, "/search?q=chat", nil)
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	apiErr := decode[APIError](t, w)
	assert.Equal(t, ErrorCodeDictionaryUnavailable, apiErr.Code)

	w = s.do(t, http.MethodGet, "/words/chat", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	w = s.do(t, http.MethodGet, "/progress/next", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestSearchHandler(t *testing.T) {
	s := setupTestServer(t, true)

	tests := []struct {
		name           string
		path           string
		expectedStatus int
		expectedCode   ErrorCode
	}{
		{name: "exact match", path: "/search?q=chat", expectedStatus: http.StatusOK},
		{name: "prefix only", path: "/search?q=cha", expectedStatus: http.StatusOK},
		{name: "missing query", path: "/search", expectedStatus: http.StatusBadRequest, expectedCode: ErrorCodeValidationFailed},
		{name: "blank query", path: "/search?q=%20%20", expectedStatus: http.StatusBadRequest, expectedCode: ErrorCodeValidationFailed},
		{name: "no match", path: "/search?q=xylophone", expectedStatus: http.StatusNotFound, expectedCode: ErrorCodeWordNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(t, http.MethodGet, tt.path, nil)
			require.Equal(t, tt.expectedStatus, w.Code, w.Body.String())
			if tt.expectedCode != "" {
				body := decode[map[string]any](t, w)
				assert.Equal(t, string(tt.expectedCode), body["code"])
			}
		})
	}

	w := s.do(t, http.MethodGet, "/search?q=CHAT", nil)
	require.Equal(t, http.StatusOK, w.Code)
	result := decode[model.SearchResult](t, w)
	require.NotNil(t, result.Exact)
	assert.Equal(t, "Chat", result.Exact.Word)
	assert.NotEmpty(t, result.QueryID)

	w = s.do(t, http.MethodGet, "/history", nil)
	history := decode[struct {
		History []string `json:"history"`
	}](t, w)
	assert.Equal(t, []string{"CHAT", "cha", "chat"}, history.History)
}

func TestSearchHandler_SuggestsOnMiss(t *testing.T) {
	s := setupTestServer(t, true)

	w := s.do(t, http.MethodGet, "/search?q=chiem", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	body := decode[struct {
		Code        ErrorCode `json:"code"`
		Suggestions []string  `json:"suggestions"`
	}](t, w)
	assert.Equal(t, ErrorCodeWordNotFound, body.Code)
	assert.Contains(t, body.Suggestions, "chien")
}

func TestAnalyticsHandlers(t *testing.T) {
	s := setupTestServer(t, true)

	s.do(t, http.MethodGet, "/search?q=chat", nil)
	s.do(t, http.MethodGet, "/search?q=chat", nil)
	s.do(t, http.MethodGet, "/search?q=xylophone", nil)

	w := s.do(t, http.MethodGet, "/analytics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	dashboard := decode[model.AnalyticsDashboard](t, w)
	assert.Equal(t, 3, dashboard.TotalSearches)
	assert.InDelta(t, 66.67, dashboard.HitRate, 0.01)
	require.NotEmpty(t, dashboard.PopularSearches)
	assert.Equal(t, model.PopularSearch{Query: "chat", SearchCount: 2}, dashboard.PopularSearches[0])

	w = s.do(t, http.MethodDelete, "/analytics", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = s.do(t, http.MethodGet, "/analytics", nil)
	assert.Zero(t, decode[model.AnalyticsDashboard](t, w).TotalSearches)
}

func TestLookupHandler(t *testing.T) {
	s := setupTestServer(t, true)

	w := s.do(t, http.MethodGet, "/words/chat", nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[WordResponse](t, w)
	assert.Equal(t, "Chat", resp.Word)
	assert.Equal(t, model.GenderMasculine, resp.Gender)
	assert.Equal(t, "petit félin domestique", resp.ShortDefinition)
	assert.Nil(t, resp.Progress)

	w = s.do(t, http.MethodGet, "/words/licorne", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSuggestAndPartOfSpeech(t *testing.T) {
	s := setupTestServer(t, true)

	w := s.do(t, http.MethodGet, "/suggest?q=ch", nil)
	require.Equal(t, http.StatusOK, w.Code)
	suggest := decode[struct {
		Total int `json:"total"`
	}](t, w)
	assert.Equal(t, 3, suggest.Total)

	w = s.do(t, http.MethodGet, "/pos/v.", nil)
	require.Equal(t, http.StatusOK, w.Code)
	pos := decode[struct {
		Entries []model.WordEntry `json:"entries"`
	}](t, w)
	require.Len(t, pos.Entries, 1)
	assert.Equal(t, "chanter", pos.Entries[0].Word)

	w = s.do(t, http.MethodGet, "/pos/v.?limit=abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodGet, "/dictionary/pos", nil)
	require.Equal(t, http.StatusOK, w.Code)
	tags := decode[struct {
		PartsOfSpeech map[string]int `json:"parts_of_speech"`
	}](t, w)
	assert.Equal(t, map[string]int{"n. m.": 2, "v.": 1}, tags.PartsOfSpeech)

	w = s.do(t, http.MethodGet, "/random", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestProgressHandlers(t *testing.T) {
	s := setupTestServer(t, true)

	w := s.do(t, http.MethodPost, "/progress/rate", map[string]any{"word": "chat", "quality": 0, "query_id": "q-1"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	rated := decode[ProgressResponse](t, w)
	assert.Equal(t, model.QualityWeak, rated.Record.Quality)
	assert.Equal(t, 1, rated.Record.ReviewCount)
	assert.Equal(t, model.ProgressStats{TotalCorpusCount: 3, LearnedCount: 1}, rated.Stats)

	w = s.do(t, http.MethodPost, "/progress/rate", map[string]any{"word": "chien", "quality": "mastered"})
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodPost, "/progress/rate", map[string]any{"word": "chat", "quality": 7})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = s.do(t, http.MethodPost, "/progress/rate", `{"word":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodGet, "/progress/weak", nil)
	require.Equal(t, http.StatusOK, w.Code)
	weak := decode[struct {
		Words []string `json:"words"`
	}](t, w)
	assert.Equal(t, []string{"Chat"}, weak.Words)

	w = s.do(t, http.MethodGet, "/progress/weak/random", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodGet, "/progress/next", nil)
	require.Equal(t, http.StatusOK, w.Code)
	next := decode[WordResponse](t, w)
	assert.Equal(t, "chanter", next.Word, "the only unlearned word")

	w = s.do(t, http.MethodPatch, "/progress/chat", map[string]any{"quality": 2})
	require.Equal(t, http.StatusOK, w.Code)
	patched := decode[ProgressResponse](t, w)
	assert.Equal(t, model.QualityMastered, patched.Record.Quality)
	assert.Equal(t, 1, patched.Record.ReviewCount, "quick toggle does not count a review")

	w = s.do(t, http.MethodPatch, "/progress/licorne", map[string]any{"quality": 2})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodGet, "/progress/weak", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, ErrorCodeNoWeakWords, decode[APIError](t, w).Code)

	w = s.do(t, http.MethodGet, "/progress/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, model.ProgressStats{TotalCorpusCount: 3, LearnedCount: 2, MasteredCount: 2}, decode[model.ProgressStats](t, w))

	w = s.do(t, http.MethodGet, "/progress/learned", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodGet, "/progress/chat", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodDelete, "/progress/chat", nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = s.do(t, http.MethodGet, "/progress/chat", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = s.do(t, http.MethodDelete, "/progress/chat", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestFavoriteHandlers(t *testing.T) {
	s := setupTestServer(t, true)

	w := s.do(t, http.MethodPost, "/favorites/toggle", ToggleFavoriteRequest{Word: "chat"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode[map[string]any](t, w)["favorite"])

	w = s.do(t, http.MethodGet, "/favorites", nil)
	favorites := decode[struct {
		Favorites []model.FavoriteEntry `json:"favorites"`
	}](t, w)
	require.Len(t, favorites.Favorites, 1)
	assert.Equal(t, "Chat", favorites.Favorites[0].Word)
	assert.Equal(t, "ʃa", favorites.Favorites[0].Phonetic)

	w = s.do(t, http.MethodPost, "/favorites/toggle", ToggleFavoriteRequest{Word: "licorne"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodDelete, "/favorites/Chat", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, s.dict.Favorites())

	w = s.do(t, http.MethodDelete, "/favorites", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = s.do(t, http.MethodDelete, "/history", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestReloadAndJobs(t *testing.T) {
	s := setupTestServer(t, true)

	w := s.do(t, http.MethodPost, "/dictionary/reload", nil)
	require.Equal(t, http.StatusAccepted, w.Code)
	jobID, _ := decode[map[string]any](t, w)["job_id"].(string)
	require.NotEmpty(t, jobID)

	require.Eventually(t, func() bool {
		w := s.do(t, http.MethodGet, "/jobs/"+jobID, nil)
		return w.Code == http.StatusOK && decode[model.Job](t, w).Status == model.JobStatusCompleted
	}, 2*time.Second, 10*time.Millisecond)

	w = s.do(t, http.MethodGet, "/jobs?status=completed", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decode[map[string]any](t, w)["total"])

	w = s.do(t, http.MethodGet, "/jobs?status=bogus", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodGet, "/jobs/unknown", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, ErrorCodeJobNotFound, decode[APIError](t, w).Code)

	w = s.do(t, http.MethodGet, "/jobs/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	metrics := decode[struct {
		Metrics model.JobMetrics `json:"metrics"`
	}](t, w).Metrics
	assert.Equal(t, int64(1), metrics.JobsCreated)
	assert.Equal(t, int64(1), metrics.JobsCompleted)
	assert.Equal(t, int64(0), metrics.CurrentWorkload)
	assert.Equal(t, int64(1), metrics.JobsByType[model.JobTypeReloadDictionary])
	assert.Contains(t, metrics.AverageExecutionTimeByType, model.JobTypeReloadDictionary)

	// Snapshots are disabled in this setup, so the job fails.
	w = s.do(t, http.MethodPost, "/dictionary/snapshot", nil)
	assert.Equal(t, http.StatusAccepted, w.Code)
}

func TestMiddleware(t *testing.T) {
	s := setupTestServer(t, true)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(requestIDHeader, "req-42")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	assert.Equal(t, "req-42", w.Header().Get(requestIDHeader))
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/search", nil)
	w = httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)

	small := NewRouter(NewAPI(s.dict, nil, nil), 16)
	req = httptest.NewRequest(http.MethodPost, "/progress/rate", strings.NewReader(`{"word":"chat","quality":0,"query_id":"0123456789"}`))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	small.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	small.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/events", nil))
	assert.Equal(t, http.StatusNotFound, w.Code, "no event source, no route")
}

func TestEventsHandler(t *testing.T) {
	s := setupTestServer(t, true)
	server := httptest.NewServer(s.router)
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, server.URL+"/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	readEvent := func() string {
		for {
			line, err := reader.ReadString('\n')
			require.NoError(t, err)
			if strings.HasPrefix(line, "event:") {
				return strings.TrimSpace(strings.TrimPrefix(line, "event:"))
			}
		}
	}
	assert.Equal(t, "status", readEvent())

	require.Eventually(t, func() bool { return s.events.Subscribers() == 1 }, time.Second, 5*time.Millisecond)
	_, _, err = s.dict.Rate(context.Background(), "q-7", "chat", model.QualityUncertain)
	require.NoError(t, err)
	assert.Equal(t, string(notify.EventProgressUpdated), readEvent())
}
