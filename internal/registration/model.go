package registration

import (
	"context"
	"errors"
	"time"

	"coursemate/internal/catalog"
)

var (
	ErrCourseNotAtLevel  = errors.New("course is not offered at the selected level")
	ErrInvalidCredits    = errors.New("credit total is outside the allowed range")
	ErrAlreadySubmitted  = errors.New("registration already submitted")
	ErrRegistrationFixed = errors.New("registration can no longer be changed")
)

type Status string

const (
	StatusIdle     Status = "idle"
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

type CourseView struct {
	catalog.Course
	Selected bool `json:"selected"`
}

// Summary is the registration screen as the student sees it.
type Summary struct {
	Level        int          `json:"level"`
	Courses      []CourseView `json:"courses"`
	Compulsory   []CourseView `json:"compulsory"`
	Elective     []CourseView `json:"elective"`
	SelectedIDs  []int        `json:"selectedIds"`
	TotalCredits int          `json:"totalCredits"`
	CreditStatus CreditStatus `json:"creditStatus"`
	Bounds       Bounds       `json:"bounds"`
	Status       Status       `json:"status"`
	CanSubmit    bool         `json:"canSubmit"`
	SubmissionID string       `json:"submissionId,omitempty"`
	Reason       string       `json:"reason,omitempty"`
}

type SelectLevelRequest struct {
	Level int `json:"level" validate:"required,oneof=100 200 300 400"`
}

// Submission is what an Approver decides on.
type Submission struct {
	ID           string   `json:"id"`
	Level        int      `json:"level"`
	CourseIDs    []int    `json:"courseIds"`
	CourseCodes  []string `json:"courseCodes"`
	TotalCredits int      `json:"totalCredits"`
}

type Decision struct {
	Approved bool
	Reason   string
}

type Approver interface {
	Decide(ctx context.Context, sub Submission) (Decision, error)
}

// AutoApprover approves every submission.
type AutoApprover struct{}

func (AutoApprover) Decide(context.Context, Submission) (Decision, error) {
	return Decision{Approved: true}, nil
}

type ApproverFunc func(ctx context.Context, sub Submission) (Decision, error)

func (f ApproverFunc) Decide(ctx context.Context, sub Submission) (Decision, error) {
	return f(ctx, sub)
}

// Event is published on every status change of a submission.
type Event struct {
	ID           string    `json:"id"`
	SubmissionID string    `json:"submissionId"`
	Status       Status    `json:"status"`
	Level        int       `json:"level"`
	CourseCodes  []string  `json:"courseCodes"`
	TotalCredits int       `json:"totalCredits"`
	Reason       string    `json:"reason,omitempty"`
	OccurredAt   time.Time `json:"occurredAt"`
}

// Publisher is satisfied by the NATS and Kafka producers.
type Publisher interface {
	Publish(ctx context.Context, key string, value interface{}) error
}
