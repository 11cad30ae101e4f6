package mathpix

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/kg-pipeline/internal/common"
)

// fakeService scripts the status sequence returned for job "job-1".
type fakeService struct {
	t        *testing.T
	statuses []string
	errBody  string

	submits atomic.Int32
	polls   atomic.Int32
	fetches atomic.Int32
}

func (f *fakeService) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("app_id") != "id" || r.Header.Get("app_key") != "key" {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/v3/pdf":
		f.submits.Add(1)
		var body map[string]any
		require.NoError(f.t, json.NewDecoder(r.Body).Decode(&body))
		assert.True(f.t, strings.HasPrefix(body["src"].(string), "data:application/pdf;base64,"))
		assert.Equal(f.t, map[string]any{"md": true}, body["conversion_formats"])
		assert.Equal(f.t, []any{"$", "$"}, body["math_inline_delimiters"])
		assert.Equal(f.t, []any{"$$", "$$"}, body["math_display_delimiters"])
		_, _ = w.Write([]byte(`{"pdf_id":"job-1"}`))
	case r.Method == http.MethodGet && r.URL.Path == "/v3/pdf/job-1.md":
		f.fetches.Add(1)
		_, _ = w.Write([]byte("# Ratio\n\n$$a:b$$"))
	case r.Method == http.MethodGet && r.URL.Path == "/v3/pdf/job-1":
		n := int(f.polls.Add(1))
		st := f.statuses[len(f.statuses)-1]
		if n <= len(f.statuses) {
			st = f.statuses[n-1]
		}
		resp := map[string]any{"status": st, "percent_done": 50}
		if st == StatusError {
			resp["error"] = f.errBody
		}
		_ = json.NewEncoder(w).Encode(resp)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

type sleepRecorder struct {
	mu    sync.Mutex
	waits []time.Duration
}

func (s *sleepRecorder) sleep(_ context.Context, d time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.waits = append(s.waits, d)
	return nil
}

func newTestClient(t *testing.T, srv *httptest.Server, maxPolls int, rec *sleepRecorder, opts ...Option) *Client {
	t.Helper()
	opts = append(opts, WithSleeper(rec.sleep), WithHTTPClient(srv.Client()))
	return NewClient(Config{
		AppID:           "id",
		AppKey:          "key",
		BaseURL:         srv.URL + "/v3",
		MaxPollAttempts: maxPolls,
	}, nil, opts...)
}

func TestConvert_CompletesAfterPolling(t *testing.T) {
	svc := &fakeService{t: t, statuses: []string{"received", "split", StatusCompleted}}
	srv := httptest.NewServer(svc)
	defer srv.Close()

	rec := &sleepRecorder{}
	md, err := newTestClient(t, srv, 60, rec).Convert(context.Background(), []byte("%PDF-1.4"))
	require.NoError(t, err)
	assert.Equal(t, "# Ratio\n\n$$a:b$$", md)
	assert.EqualValues(t, 3, svc.polls.Load())
	assert.EqualValues(t, 1, svc.fetches.Load())
	assert.Equal(t, []time.Duration{2 * time.Second, 2 * time.Second}, rec.waits)
}

func TestConvert_JobErrorIsServiceError(t *testing.T) {
	svc := &fakeService{t: t, statuses: []string{"split", StatusError}, errBody: "cannot read pdf"}
	srv := httptest.NewServer(svc)
	defer srv.Close()

	_, err := newTestClient(t, srv, 60, &sleepRecorder{}).Convert(context.Background(), []byte("x"))
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrServiceError)
	assert.NotErrorIs(t, err, common.ErrServiceTimeout)
	assert.Contains(t, err.Error(), "cannot read pdf")
	assert.EqualValues(t, 0, svc.fetches.Load())
}

func TestConvert_PollBudgetExhaustedIsTimeout(t *testing.T) {
	svc := &fakeService{t: t, statuses: []string{"split"}}
	srv := httptest.NewServer(svc)
	defer srv.Close()

	rec := &sleepRecorder{}
	_, err := newTestClient(t, srv, 4, rec).Convert(context.Background(), []byte("x"))
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrServiceTimeout)
	assert.NotErrorIs(t, err, common.ErrServiceError)
	assert.EqualValues(t, 4, svc.polls.Load())
	assert.Len(t, rec.waits, 4)
}

func TestSubmit_Non2xxIsServiceError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv, 60, &sleepRecorder{}).Submit(context.Background(), []byte("x"))
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrServiceError)
	assert.Contains(t, err.Error(), "429")
}

func TestSubmit_MissingJobID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"error":"bad"}`))
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv, 60, &sleepRecorder{}).Submit(context.Background(), []byte("x"))
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrServiceError)
}

func TestDo_PerAttemptDeadlineIsTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	c := NewClient(Config{AppID: "id", AppKey: "key", BaseURL: srv.URL, Timeout: 50 * time.Millisecond}, nil,
		WithHTTPClient(srv.Client()))
	_, err := c.Status(context.Background(), "job-1")
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrServiceTimeout)
}

func TestConvert_CacheHitSkipsService(t *testing.T) {
	svc := &fakeService{t: t, statuses: []string{StatusCompleted}}
	srv := httptest.NewServer(svc)
	defer srv.Close()

	cache, err := NewDirCache(t.TempDir())
	require.NoError(t, err)
	c := newTestClient(t, srv, 60, &sleepRecorder{}, WithCache(cache))

	first, err := c.Convert(context.Background(), []byte("same bytes"))
	require.NoError(t, err)
	second, err := c.Convert(context.Background(), []byte("same bytes"))
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.EqualValues(t, 1, svc.submits.Load())
}

func TestIsConfigured(t *testing.T) {
	assert.False(t, NewClient(Config{AppID: "id"}, nil).IsConfigured())
	assert.False(t, NewClient(Config{AppKey: "key"}, nil).IsConfigured())
	assert.True(t, NewClient(Config{AppID: "id", AppKey: "key"}, nil).IsConfigured())

	var nilClient *Client
	assert.False(t, nilClient.IsConfigured())
}

func TestErrorDetail(t *testing.T) {
	assert.Equal(t, "boom", JobStatus{RawError: json.RawMessage(`"boom"`)}.ErrorDetail())
	assert.Equal(t, `{"id":"x"}`, JobStatus{RawError: json.RawMessage(`{"id":"x"}`)}.ErrorDetail())
	assert.Equal(t, "unknown error", JobStatus{}.ErrorDetail())
}
