package build

import (
	"context"
	"time"
)

// Service is the canonical interface for executing site builds. The CLI
// build command and watch mode are thin wrappers over it.
type Service interface {
	Run(ctx context.Context, req Request) (*Report, error)
}

// Request carries per-invocation overrides on top of the configuration.
type Request struct {
	// Full ignores the previous manifest and rebuilds everything.
	Full bool

	// IncludeDrafts publishes draft pages even when the configuration
	// does not.
	IncludeDrafts bool
}

// Status represents the outcome of a build execution.
type Status string

const (
	StatusSuccess   Status = "success"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// IsTerminal returns true if the status represents a final state.
func (s Status) IsTerminal() bool {
	return s == StatusSuccess || s == StatusFailed || s == StatusCancelled
}

// IsSuccess returns true if the build completed successfully.
func (s Status) IsSuccess() bool {
	return s == StatusSuccess
}

// Report describes a finished build. It is the payload of the
// build.completed and build.failed events and the body of NATS
// notifications.
type Report struct {
	BuildID   string        `json:"buildId"`
	Status    Status        `json:"status"`
	Mode      string        `json:"mode"`
	StartedAt time.Time     `json:"startedAt"`
	Duration  time.Duration `json:"durationNs"`
	Revision  string        `json:"revision,omitempty"`

	Pages           int `json:"pages"`    // Pages discovered, including virtual ones
	Rendered        int `json:"rendered"` // Pages written this build
	Deleted         int `json:"deleted"`  // Outputs removed
	AssetsPublished int `json:"assetsPublished"`

	BrokenLinks []BrokenLink `json:"brokenLinks,omitempty"`
	Error       string       `json:"error,omitempty"`
}
