package admin

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/sumitmalik51/gitsecureops/config"
	"github.com/sumitmalik51/gitsecureops/db/kvdb"
	"github.com/sumitmalik51/gitsecureops/github"
	"github.com/sumitmalik51/gitsecureops/logger"
)

func newTestLogger() logger.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

// memoryKV is an in-memory stand-in for the bolt store.
type memoryKV struct {
	mu     sync.Mutex
	values map[string]string
}

func newMemoryKV() *memoryKV {
	return &memoryKV{values: map[string]string{}}
}

func (m *memoryKV) Set(key, value string) error {
	if key == "" {
		return &kvdb.InvalidKeyError{Key: key, Reason: "key cannot be empty"}
	}
	m.mu.Lock()
	m.values[key] = value
	m.mu.Unlock()
	return nil
}

func (m *memoryKV) Get(key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	value, ok := m.values[key]
	if !ok {
		return "", &kvdb.NotFoundError{Key: key}
	}
	return value, nil
}

func (m *memoryKV) List(prefix string, limit int) ([]kvdb.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var keys []string
	for key := range m.values {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(keys)))

	var entries []kvdb.Entry
	for _, key := range keys {
		entries = append(entries, kvdb.Entry{Key: key, Value: m.values[key]})
		if limit > 0 && len(entries) >= limit {
			break
		}
	}
	return entries, nil
}

func (m *memoryKV) Close() error { return nil }

func newTestService(t *testing.T, handler http.Handler) (*Service, *memoryKV) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	t.Setenv("ENV", "test")
	t.Setenv("GITHUB_BASE_URL", server.URL)

	cfg, err := config.Load()
	require.NoError(t, err)

	kv := newMemoryKV()
	service := New(newTestLogger(), github.NewClient(newTestLogger(), cfg), kv)
	return service, kv
}

func TestListRepositories(t *testing.T) {
	assert := require.New(t)

	mux := http.NewServeMux()
	mux.HandleFunc("/orgs/acme/repos", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"id":1,"name":"widget","full_name":"acme/widget"},{"id":2,"name":"gadget","full_name":"acme/gadget"}]`)
	})

	service, _ := newTestService(t, mux)

	repos, err := service.ListRepositories(context.Background(), "token", "acme")
	assert.NoError(err)
	assert.Len(repos, 2)
	assert.Equal("acme/widget", repos[0].FullName)
}

func TestAccessReportSkipsUnreadableRepos(t *testing.T) {
	assert := require.New(t)

	mux := http.NewServeMux()
	mux.HandleFunc("/orgs/acme/repos", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"id":1,"name":"widget","full_name":"acme/widget","private":true},{"id":2,"name":"sealed","full_name":"acme/sealed"}]`)
	})
	mux.HandleFunc("/repos/acme/widget/collaborators", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal("direct", r.URL.Query().Get("affiliation"))
		fmt.Fprint(w, `[{"login":"alice","permissions":{"admin":true}},{"login":"bob","permissions":{"push":true}}]`)
	})
	mux.HandleFunc("/repos/acme/sealed/collaborators", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})

	service, _ := newTestService(t, mux)

	report, err := service.AccessReport(context.Background(), "token", "acme")
	assert.NoError(err)
	assert.Len(report, 1, "an unreadable repository is skipped, not fatal")

	widget := report[0]
	assert.Equal("acme/widget", widget.Repository)
	assert.True(widget.Private)
	assert.Len(widget.Collaborators, 2)
	assert.Equal(1, widget.AdminCount)
}

func TestCopilotReportUsageTally(t *testing.T) {
	assert := require.New(t)

	now := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	recent := now.Add(-24 * time.Hour).Format(time.RFC3339)
	stale := now.Add(-60 * 24 * time.Hour).Format(time.RFC3339)

	mux := http.NewServeMux()
	mux.HandleFunc("/orgs/acme/copilot/billing/seats", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"total_seats":3,"seats":[
			{"assignee":{"login":"alice"},"last_activity_at":"%s"},
			{"assignee":{"login":"bob"},"last_activity_at":"%s"},
			{"assignee":{"login":"carol"}}
		]}`, recent, stale)
	})

	service, _ := newTestService(t, mux)
	service.now = func() time.Time { return now }

	report, err := service.CopilotReport(context.Background(), "token", "acme")
	assert.NoError(err)
	assert.Equal(3, report.TotalSeats)
	assert.Equal(1, report.ActiveLast30Days)
	assert.Equal(1, report.NeverUsed)
}

func TestTwoFactorReport(t *testing.T) {
	assert := require.New(t)

	mux := http.NewServeMux()
	mux.HandleFunc("/orgs/acme/members", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("filter") == "2fa_disabled" {
			fmt.Fprint(w, `[{"login":"bob"}]`)
			return
		}
		fmt.Fprint(w, `[{"login":"alice"},{"login":"bob"},{"login":"carol"}]`)
	})

	service, _ := newTestService(t, mux)

	report, err := service.TwoFactorReport(context.Background(), "token", "acme")
	assert.NoError(err)
	assert.Equal(3, report.TotalMembers)
	assert.Equal(1, report.NonCompliant)
	assert.Len(report.Members, 1)
	assert.Equal("bob", report.Members[0].Login)
}

func TestReviewLoadOrdering(t *testing.T) {
	assert := require.New(t)

	mux := http.NewServeMux()
	mux.HandleFunc("/search/issues", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal("org:acme is:pr is:open", r.URL.Query().Get("q"))
		fmt.Fprint(w, `{"total_count":3,"items":[
			{"id":1,"requested_reviewers":[{"login":"alice"},{"login":"bob"}]},
			{"id":2,"requested_reviewers":[{"login":"alice"}]},
			{"id":3,"requested_reviewers":[{"login":"carol"}]}
		]}`)
	})

	service, _ := newTestService(t, mux)

	load, err := service.ReviewLoad(context.Background(), "token", "acme")
	assert.NoError(err)
	assert.Equal([]ReviewerLoad{
		{Reviewer: "alice", OpenRequests: 2},
		{Reviewer: "bob", OpenRequests: 1},
		{Reviewer: "carol", OpenRequests: 1},
	}, load)
}

func TestRemoveCollaboratorWritesAudit(t *testing.T) {
	assert := require.New(t)

	var deleted string
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/acme/widget/collaborators/mallory", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(http.MethodDelete, r.Method)
		deleted = r.URL.Path
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("/user", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"login":"admin-alice"}`)
	})

	service, _ := newTestService(t, mux)

	err := service.RemoveCollaborator(context.Background(), "token", "acme", "widget", "mallory")
	assert.NoError(err)
	assert.Equal("/repos/acme/widget/collaborators/mallory", deleted)

	entries, err := service.RecentAuditEntries(10)
	assert.NoError(err)
	assert.Len(entries, 1)

	entry := entries[0]
	assert.Equal("remove_collaborator", entry.Action)
	assert.Equal("acme", entry.Org)
	assert.Equal("widget", entry.Repository)
	assert.Equal("mallory", entry.Username)
	assert.Equal("admin-alice", entry.Actor)
	assert.NotEmpty(entry.ID)
}

func TestRemoveCollaboratorFailureSkipsAudit(t *testing.T) {
	assert := require.New(t)

	mux := http.NewServeMux()
	mux.HandleFunc("/repos/acme/widget/collaborators/ghost", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	service, kv := newTestService(t, mux)

	err := service.RemoveCollaborator(context.Background(), "token", "acme", "widget", "ghost")
	assert.ErrorIs(err, github.ErrNotFound)

	entries, err := kv.List(auditKeyPrefix, 0)
	assert.NoError(err)
	assert.Empty(entries, "a failed removal must not be audited")
}

func TestRecentAuditEntriesNewestFirst(t *testing.T) {
	assert := require.New(t)

	service, _ := newTestService(t, http.NewServeMux())

	base := time.Date(2025, 4, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		entry := AuditEntry{
			ID:     fmt.Sprintf("id-%d", i),
			Action: "remove_collaborator",
			Org:    "acme",
			Actor:  "alice",
			At:     base.Add(time.Duration(i) * time.Minute),
		}
		assert.NoError(service.writeAudit(entry))
	}

	entries, err := service.RecentAuditEntries(2)
	assert.NoError(err)
	assert.Len(entries, 2)
	assert.Equal("id-2", entries[0].ID)
	assert.Equal("id-1", entries[1].ID)
}

func TestRecentAuditEntriesSkipsMalformedRecords(t *testing.T) {
	assert := require.New(t)

	service, kv := newTestService(t, http.NewServeMux())

	assert.NoError(kv.Set(auditKeyPrefix+"bad", "{not json"))
	assert.NoError(service.writeAudit(AuditEntry{
		ID: "good", Action: "remove_collaborator", Org: "acme", Actor: "alice",
		At: time.Date(2025, 4, 1, 10, 0, 0, 0, time.UTC),
	}))

	entries, err := service.RecentAuditEntries(0)
	assert.NoError(err)
	assert.Len(entries, 1)
	assert.Equal("good", entries[0].ID)
}
