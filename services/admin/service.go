package admin

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/sumitmalik51/gitsecureops/db/kvdb"
	"github.com/sumitmalik51/gitsecureops/github"
	"github.com/sumitmalik51/gitsecureops/logger"
	"golang.org/x/sync/errgroup"
)

const (
	auditKeyPrefix = "audit/"

	// Per-repo collaborator lookups run in parallel up to this bound.
	maxConcurrentRepoFetches = 5

	copilotActivityWindow = 30 * 24 * time.Hour
)

// Service implements the console's organization admin operations on top
// of the paginated fetcher.
type Service struct {
	logger logger.Logger
	client *github.Client
	kvdb   kvdb.DB
	now    func() time.Time
}

func New(logger logger.Logger, client *github.Client, kvdb kvdb.DB) *Service {
	return &Service{
		logger: logger,
		client: client,
		kvdb:   kvdb,
		now:    time.Now,
	}
}

// ListRepositories returns every repository of the organization.
func (s *Service) ListRepositories(ctx context.Context, token, org string) ([]github.Repository, error) {
	return github.FetchAllPages(ctx, s.logger, s.client.OrgRepositories(token, org))
}

// AccessReport builds the collaborator matrix for the organization. A
// repository whose collaborator listing fails is skipped with a log
// line; the report is best-effort across repositories.
func (s *Service) AccessReport(ctx context.Context, token, org string) ([]RepositoryAccess, error) {
	repos, err := s.ListRepositories(ctx, token, org)
	if err != nil {
		return nil, err
	}

	report := make([]RepositoryAccess, len(repos))
	skipped := make([]bool, len(repos))

	g := new(errgroup.Group)
	g.SetLimit(maxConcurrentRepoFetches)

	for i, repo := range repos {
		i, repo := i, repo
		g.Go(func() error {
			collaborators, err := github.FetchAllPages(ctx, s.logger, s.client.RepoCollaborators(token, org, repo.Name))
			if err != nil {
				s.logger.Warn("could not list collaborators", "repo", repo.FullName, "err", err.Error())
				skipped[i] = true
				return nil
			}

			adminCount := 0
			for _, c := range collaborators {
				if c.Permissions.Admin {
					adminCount++
				}
			}

			report[i] = RepositoryAccess{
				Repository:    repo.FullName,
				Private:       repo.Private,
				Archived:      repo.Archived,
				Collaborators: collaborators,
				AdminCount:    adminCount,
			}
			return nil
		})
	}

	g.Wait()

	result := make([]RepositoryAccess, 0, len(report))
	for i := range report {
		if !skipped[i] {
			result = append(result, report[i])
		}
	}

	return result, nil
}

// CopilotReport fetches every seat and tallies usage.
func (s *Service) CopilotReport(ctx context.Context, token, org string) (*CopilotReport, error) {
	seats, err := github.FetchAllPages(ctx, s.logger, s.client.CopilotSeats(token, org))
	if err != nil {
		return nil, err
	}

	report := &CopilotReport{
		Organization: org,
		TotalSeats:   len(seats),
		Seats:        seats,
	}

	cutoff := s.now().Add(-copilotActivityWindow)
	for _, seat := range seats {
		switch {
		case seat.LastActivityAt == nil:
			report.NeverUsed++
		case seat.LastActivityAt.After(cutoff):
			report.ActiveLast30Days++
		}
	}

	return report, nil
}

// TwoFactorReport lists members without two-factor authentication.
// Requires an owner-scoped token; the provider answers 422/403 for
// anyone else, which surfaces as the classified error.
func (s *Service) TwoFactorReport(ctx context.Context, token, org string) (*TwoFactorReport, error) {
	members, err := github.FetchAllPages(ctx, s.logger, s.client.OrgMembers(token, org, ""))
	if err != nil {
		return nil, err
	}

	nonCompliant, err := github.FetchAllPages(ctx, s.logger, s.client.OrgMembers(token, org, "2fa_disabled"))
	if err != nil {
		return nil, err
	}

	return &TwoFactorReport{
		Organization: org,
		TotalMembers: len(members),
		NonCompliant: len(nonCompliant),
		Members:      nonCompliant,
	}, nil
}

// ReviewLoad tallies requested reviewers over the organization's open
// pull requests, heaviest load first.
func (s *Service) ReviewLoad(ctx context.Context, token, org string) ([]ReviewerLoad, error) {
	query := fmt.Sprintf("org:%s is:pr is:open", org)
	_, pulls, err := s.client.SearchIssues(ctx, token, query, "updated", github.PerPage)
	if err != nil {
		return nil, err
	}

	counts := map[string]int{}
	for _, pr := range pulls {
		for _, reviewer := range pr.RequestedReviewers {
			counts[reviewer.Login]++
		}
	}

	load := make([]ReviewerLoad, 0, len(counts))
	for reviewer, count := range counts {
		load = append(load, ReviewerLoad{Reviewer: reviewer, OpenRequests: count})
	}

	sort.Slice(load, func(i, j int) bool {
		if load[i].OpenRequests != load[j].OpenRequests {
			return load[i].OpenRequests > load[j].OpenRequests
		}
		return load[i].Reviewer < load[j].Reviewer
	})

	return load, nil
}

// RemoveCollaborator removes a direct collaborator and records the
// action in the audit trail, attributed to the identity behind the
// token.
func (s *Service) RemoveCollaborator(ctx context.Context, token, org, repo, username string) error {
	if err := s.client.RemoveCollaborator(ctx, token, org, repo, username); err != nil {
		return err
	}

	actor := "unknown"
	if user, err := s.client.AuthenticatedUser(ctx, token); err == nil {
		actor = user.Login
	}

	entry := AuditEntry{
		ID:         uuid.NewString(),
		Action:     "remove_collaborator",
		Org:        org,
		Repository: repo,
		Username:   username,
		Actor:      actor,
		At:         s.now().UTC(),
	}

	if err := s.writeAudit(entry); err != nil {
		// The removal already happened; losing the audit record is
		// worth a loud log but not a failed request.
		s.logger.Error("could not write audit entry", "err", err.Error(), "action", entry.Action)
	}

	return nil
}

func (s *Service) writeAudit(entry AuditEntry) error {
	value, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	key := fmt.Sprintf("%s%s-%s", auditKeyPrefix, entry.At.Format(time.RFC3339Nano), entry.ID)
	return s.kvdb.Set(key, string(value))
}

// RecentAuditEntries returns the newest audit records.
func (s *Service) RecentAuditEntries(limit int) ([]AuditEntry, error) {
	raw, err := s.kvdb.List(auditKeyPrefix, limit)
	if err != nil {
		return nil, err
	}

	entries := make([]AuditEntry, 0, len(raw))
	for _, kv := range raw {
		var entry AuditEntry
		if err := json.Unmarshal([]byte(kv.Value), &entry); err != nil {
			s.logger.Warn("skipping malformed audit entry", "key", kv.Key, "err", err.Error())
			continue
		}
		entries = append(entries, entry)
	}

	return entries, nil
}
