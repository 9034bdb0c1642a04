package admin

import (
	"time"

	"github.com/sumitmalik51/gitsecureops/github"
)

// RepositoryAccess lists the direct collaborators of one repository.
type RepositoryAccess struct {
	Repository    string                `json:"repository"`
	Private       bool                  `json:"private"`
	Archived      bool                  `json:"archived"`
	Collaborators []github.Collaborator `json:"collaborators"`
	AdminCount    int                   `json:"admin_count"`
}

// CopilotReport summarizes seat assignments and usage for an org.
type CopilotReport struct {
	Organization     string               `json:"organization"`
	TotalSeats       int                  `json:"total_seats"`
	ActiveLast30Days int                  `json:"active_last_30_days"`
	NeverUsed        int                  `json:"never_used"`
	Seats            []github.CopilotSeat `json:"seats"`
}

// TwoFactorReport lists members that have not enabled two-factor
// authentication.
type TwoFactorReport struct {
	Organization string        `json:"organization"`
	TotalMembers int           `json:"total_members"`
	NonCompliant int           `json:"non_compliant"`
	Members      []github.User `json:"members"`
}

// ReviewerLoad is the number of open pull requests currently waiting on
// one reviewer.
type ReviewerLoad struct {
	Reviewer     string `json:"reviewer"`
	OpenRequests int    `json:"open_requests"`
}

// AuditEntry records one destructive admin action.
type AuditEntry struct {
	ID         string    `json:"id"`
	Action     string    `json:"action"`
	Org        string    `json:"org"`
	Repository string    `json:"repository,omitempty"`
	Username   string    `json:"username,omitempty"`
	Actor      string    `json:"actor"`
	At         time.Time `json:"at"`
}
