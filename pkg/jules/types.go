package jules

// Session is a Jules coding session.
type Session struct {
	// Name is the resource name, e.g. "sessions/1234".
	Name          string         `json:"name" yaml:"name"`
	ID            string         `json:"id,omitempty" yaml:"id,omitempty"`
	CreateTime    string         `json:"createTime,omitempty" yaml:"createTime,omitempty"`
	UpdateTime    string         `json:"updateTime,omitempty" yaml:"updateTime,omitempty"`
	Title         string         `json:"title,omitempty" yaml:"title,omitempty"`
	State         string         `json:"state,omitempty" yaml:"state,omitempty"`
	Prompt        string         `json:"prompt,omitempty" yaml:"prompt,omitempty"`
	URL           string         `json:"url,omitempty" yaml:"url,omitempty"`
	SourceContext *SourceContext `json:"sourceContext,omitempty" yaml:"sourceContext,omitempty"`
}

// SourceContext ties a session to a source repository.
type SourceContext struct {
	// Source is the source resource name, e.g. "sources/github/acme/app".
	Source            string             `json:"source" yaml:"source"`
	GithubRepoContext *GithubRepoContext `json:"githubRepoContext,omitempty" yaml:"githubRepoContext,omitempty"`
}

// GithubRepoContext selects the branch a session starts from.
type GithubRepoContext struct {
	StartingBranch string `json:"startingBranch" yaml:"startingBranch"`
}

// Source is a repository connected to Jules.
type Source struct {
	Name        string `json:"name" yaml:"name"`
	ID          string `json:"id,omitempty" yaml:"id,omitempty"`
	DisplayName string `json:"displayName,omitempty" yaml:"displayName,omitempty"`
}

// Activity is one entry of a session's activity log. Its shape depends on
// the activity kind and is kept as raw JSON fields.
type Activity map[string]any

// CreateSessionRequest is the input of CreateSession.
type CreateSessionRequest struct {
	Prompt string `json:"prompt" yaml:"prompt"`

	// Source is the source resource name. Required.
	Source string `json:"source" yaml:"source"`

	// Title defaults to the first 50 characters of Prompt.
	Title string `json:"title,omitempty" yaml:"title,omitempty"`

	// StartingBranch defaults to the client's starting branch.
	StartingBranch string `json:"startingBranch,omitempty" yaml:"startingBranch,omitempty"`
}

type createSessionBody struct {
	Prompt        string        `json:"prompt"`
	SourceContext SourceContext `json:"sourceContext"`
	Title         string        `json:"title"`
}

type sendMessageBody struct {
	Message struct {
		Text string `json:"text"`
	} `json:"message"`
}

type listSessionsResponse struct {
	Sessions      []Session `json:"sessions"`
	NextPageToken string    `json:"nextPageToken,omitempty"`
}

type listSourcesResponse struct {
	Sources       []Source `json:"sources"`
	NextPageToken string   `json:"nextPageToken,omitempty"`
}

type listActivitiesResponse struct {
	Activities    []Activity `json:"activities"`
	NextPageToken string     `json:"nextPageToken,omitempty"`
}
