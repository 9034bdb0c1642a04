package github

import "time"

// Schema subsets of the GitHub REST API. Only the fields the console
// reads are mapped.

type User struct {
	Login     string `json:"login"`
	ID        int64  `json:"id"`
	AvatarURL string `json:"avatar_url"`
	HTMLURL   string `json:"html_url"`
	Type      string `json:"type"`
}

type Repository struct {
	ID              int64      `json:"id"`
	Name            string     `json:"name"`
	FullName        string     `json:"full_name"`
	Owner           User       `json:"owner"`
	Private         bool       `json:"private"`
	Archived        bool       `json:"archived"`
	Description     string     `json:"description"`
	HTMLURL         string     `json:"html_url"`
	Language        string     `json:"language"`
	StargazersCount int        `json:"stargazers_count"`
	CreatedAt       *time.Time `json:"created_at"`
	UpdatedAt       *time.Time `json:"updated_at"`
	Score           float64    `json:"score"`
}

type Permissions struct {
	Admin    bool `json:"admin"`
	Maintain bool `json:"maintain"`
	Push     bool `json:"push"`
	Triage   bool `json:"triage"`
	Pull     bool `json:"pull"`
}

type Collaborator struct {
	User
	RoleName    string      `json:"role_name"`
	Permissions Permissions `json:"permissions"`
}

type Label struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

// Issue doubles as the pull-request shape; the issues search endpoint
// returns both, with PullRequest set only for PRs.
type Issue struct {
	ID            int64      `json:"id"`
	Number        int        `json:"number"`
	Title         string     `json:"title"`
	Body          string     `json:"body"`
	State         string     `json:"state"`
	HTMLURL       string     `json:"html_url"`
	RepositoryURL string     `json:"repository_url"`
	User          User       `json:"user"`
	Labels        []Label    `json:"labels"`
	Assignees     []User     `json:"assignees"`
	CreatedAt     *time.Time `json:"created_at"`
	UpdatedAt     *time.Time `json:"updated_at"`
	Score         float64    `json:"score"`
	PullRequest   *struct {
		URL      string     `json:"url"`
		MergedAt *time.Time `json:"merged_at"`
	} `json:"pull_request"`
	RequestedReviewers []User `json:"requested_reviewers"`
}

type TextMatch struct {
	Fragment string `json:"fragment"`
	Property string `json:"property"`
}

type CodeResult struct {
	Name        string      `json:"name"`
	Path        string      `json:"path"`
	SHA         string      `json:"sha"`
	HTMLURL     string      `json:"html_url"`
	Repository  Repository  `json:"repository"`
	Score       float64     `json:"score"`
	TextMatches []TextMatch `json:"text_matches"`
}

type Commit struct {
	SHA        string     `json:"sha"`
	HTMLURL    string     `json:"html_url"`
	Repository Repository `json:"repository"`
	Author     *User      `json:"author"`
	Score      float64    `json:"score"`
	Commit     struct {
		Message string `json:"message"`
		Author  struct {
			Name  string     `json:"name"`
			Email string     `json:"email"`
			Date  *time.Time `json:"date"`
		} `json:"author"`
	} `json:"commit"`
}

type CopilotSeat struct {
	Assignee                User       `json:"assignee"`
	CreatedAt               *time.Time `json:"created_at"`
	LastActivityAt          *time.Time `json:"last_activity_at"`
	LastActivityEditor      string     `json:"last_activity_editor"`
	PlanType                string     `json:"plan_type"`
	PendingCancellationDate *string    `json:"pending_cancellation_date"`
}

// searchEnvelope is the `{total_count, items}` shape shared by the
// search endpoint family.
type searchEnvelope[T any] struct {
	TotalCount        int  `json:"total_count"`
	IncompleteResults bool `json:"incomplete_results"`
	Items             []T  `json:"items"`
}

// seatsEnvelope is the Copilot-specific pagination shape.
type seatsEnvelope struct {
	TotalSeats int           `json:"total_seats"`
	Seats      []CopilotSeat `json:"seats"`
}
