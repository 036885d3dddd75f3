// Package pitches stores writer story proposals and their review.
package pitches

import (
	"errors"
	"time"
)

var (
	ErrNotFound  = errors.New("pitch not found")
	ErrInvalid   = errors.New("invalid pitch")
	ErrDisabled  = errors.New("pitch submissions are closed")
	ErrNotWriter = errors.New("only writers can submit pitches")
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusAccepted Status = "accepted"
	StatusRejected Status = "rejected"
)

func (s Status) Valid() bool {
	return s == StatusPending || s == StatusAccepted || s == StatusRejected
}

// Note is an admin review comment.
type Note struct {
	AuthorEmail string    `json:"authorEmail" bson:"authorEmail"`
	Content     string    `json:"content" bson:"content"`
	CreatedAt   time.Time `json:"createdAt" bson:"createdAt"`
}

type Pitch struct {
	ID          string     `json:"_id" bson:"_id,omitempty"`
	WriterID    string     `json:"writerId" bson:"writerId"`
	WriterEmail string     `json:"writerEmail" bson:"writerEmail"`
	Title       string     `json:"title" bson:"title"`
	Synopsis    string     `json:"synopsis" bson:"synopsis"`
	Category    string     `json:"category,omitempty" bson:"category,omitempty"`
	Status      Status     `json:"status" bson:"status"`
	Notes       []Note     `json:"notes" bson:"notes"`
	ReviewedAt  *time.Time `json:"reviewedAt,omitempty" bson:"reviewedAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt" bson:"updatedAt"`
}
