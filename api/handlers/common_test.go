package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/sumitmalik51/gitsecureops/config"
	"github.com/sumitmalik51/gitsecureops/db/kvdb"
	"github.com/sumitmalik51/gitsecureops/db/searchdb"
	"github.com/sumitmalik51/gitsecureops/github"
	"github.com/sumitmalik51/gitsecureops/logger"
	"github.com/sumitmalik51/gitsecureops/services/admin"
	"github.com/sumitmalik51/gitsecureops/services/aggregate"
	"github.com/sumitmalik51/gitsecureops/validation"
)

func newTestLogger() logger.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

// fakeKV backs the audit trail without touching disk.
type fakeKV struct {
	mu     sync.Mutex
	values map[string]string
}

func newFakeKV() *fakeKV {
	return &fakeKV{values: map[string]string{}}
}

func (f *fakeKV) Set(key, value string) error {
	if key == "" {
		return &kvdb.InvalidKeyError{Key: key, Reason: "key cannot be empty"}
	}
	f.mu.Lock()
	f.values[key] = value
	f.mu.Unlock()
	return nil
}

func (f *fakeKV) Get(key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	value, ok := f.values[key]
	if !ok {
		return "", &kvdb.NotFoundError{Key: key}
	}
	return value, nil
}

func (f *fakeKV) List(prefix string, limit int) ([]kvdb.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var keys []string
	for key := range f.values {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(keys)))

	var entries []kvdb.Entry
	for _, key := range keys {
		entries = append(entries, kvdb.Entry{Key: key, Value: f.values[key]})
		if limit > 0 && len(entries) >= limit {
			break
		}
	}
	return entries, nil
}

func (f *fakeKV) Close() error { return nil }

// fakeSearchDB serves a canned local-index response and records the
// queries and deletions it was asked for.
type fakeSearchDB struct {
	response  *searchdb.Response
	err       error
	docCount  uint64
	gotQuery  string
	gotLimit  int
	gotOffset int
	deleted   []string
}

func (f *fakeSearchDB) IndexItems(documents []searchdb.Document) error { return nil }

func (f *fakeSearchDB) DeleteDocuments(documentIDs []string) error {
	f.deleted = append(f.deleted, documentIDs...)
	return nil
}

func (f *fakeSearchDB) GetDocCount() (uint64, error) { return f.docCount, nil }
func (f *fakeSearchDB) Close() error                 { return nil }

func (f *fakeSearchDB) Search(query string, limit, offset int) (*searchdb.Response, error) {
	f.gotQuery = query
	f.gotLimit = limit
	f.gotOffset = offset
	if f.err != nil {
		return nil, f.err
	}
	if f.response != nil {
		return f.response, nil
	}
	return &searchdb.Response{Results: []searchdb.Result{}}, nil
}

// newTestRouter wires the full handler surface over a stubbed provider.
// The token middleware is replaced with a fixed credential.
func newTestRouter(t *testing.T, githubHandler http.Handler) (*gin.Engine, *fakeKV, *fakeSearchDB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	server := httptest.NewServer(githubHandler)
	t.Cleanup(server.Close)

	t.Setenv("ENV", "test")
	t.Setenv("GITHUB_BASE_URL", server.URL)

	cfg, err := config.Load()
	require.NoError(t, err)

	log := newTestLogger()
	validator, err := validation.New(log)
	require.NoError(t, err)

	client := github.NewClient(log, cfg)
	kv := newFakeKV()
	searchDB := &fakeSearchDB{}

	aggregator := aggregate.New(log, client, nil, nil, kv)
	adminService := admin.New(log, client, kv)

	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set(ContextKeyToken, "test-token")
	})

	SetupSearch(router, log, aggregator, validator)
	SetupActivity(router, log, searchDB, validator)
	SetupRepositories(router, log, adminService, validator)
	SetupAccess(router, log, adminService, validator)
	SetupCopilot(router, log, adminService, validator)
	SetupSecurity(router, log, adminService, validator)
	SetupAudit(router, log, adminService, validator)

	return router, kv, searchDB
}

// closeNotifyRecorder adds the http.CloseNotifier interface that
// gin's Context.Stream requires but httptest.ResponseRecorder lacks.
type closeNotifyRecorder struct {
	*httptest.ResponseRecorder
	closed chan bool
}

func (r *closeNotifyRecorder) CloseNotify() <-chan bool { return r.closed }

func doRequest(router *gin.Engine, method, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, target, nil)
	router.ServeHTTP(&closeNotifyRecorder{w, make(chan bool, 1)}, req)
	return w
}

type envelope struct {
	Data   json.RawMessage `json:"data"`
	Errors []string        `json:"errors"`
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

// providerStub is the canned GitHub API used by the happy-path tests.
func providerStub() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/search/repositories", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"total_count":2,"items":[
			{"id":1,"name":"widget","full_name":"acme/widget","owner":{"login":"acme"},"score":10},
			{"id":2,"name":"gadget","full_name":"acme/gadget","owner":{"login":"acme"},"score":4}
		]}`)
	})
	mux.HandleFunc("/search/code", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"total_count":1,"items":[
			{"name":"main.go","path":"cmd/main.go","sha":"abc123","repository":{"name":"widget","full_name":"acme/widget","owner":{"login":"acme"}},"score":3}
		]}`)
	})
	mux.HandleFunc("/orgs/acme/repos", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"id":1,"name":"widget","full_name":"acme/widget"},{"id":2,"name":"gadget","full_name":"acme/gadget"}]`)
	})
	mux.HandleFunc("/repos/acme/widget/collaborators", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"login":"alice","permissions":{"admin":true}}]`)
	})
	mux.HandleFunc("/repos/acme/gadget/collaborators", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[]`)
	})
	mux.HandleFunc("/repos/acme/widget/collaborators/mallory", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodDelete {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		w.WriteHeader(http.StatusMethodNotAllowed)
	})
	mux.HandleFunc("/user", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"login":"admin-alice"}`)
	})
	mux.HandleFunc("/orgs/acme/copilot/billing/seats", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"total_seats":2,"seats":[{"assignee":{"login":"alice"},"last_activity_at":"2099-01-01T00:00:00Z"},{"assignee":{"login":"bob"}}]}`)
	})
	mux.HandleFunc("/orgs/acme/members", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("filter") == "2fa_disabled" {
			fmt.Fprint(w, `[{"login":"bob"}]`)
			return
		}
		fmt.Fprint(w, `[{"login":"alice"},{"login":"bob"}]`)
	})
	mux.HandleFunc("/search/issues", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"total_count":2,"items":[
			{"id":1,"requested_reviewers":[{"login":"alice"},{"login":"bob"}]},
			{"id":2,"requested_reviewers":[{"login":"alice"}]}
		]}`)
	})

	return mux
}
