package models

import (
	"time"
)

type FeedbackStatus string

const (
	FeedbackPending  FeedbackStatus = "pending"
	FeedbackReviewed FeedbackStatus = "reviewed"
	FeedbackResolved FeedbackStatus = "resolved"
)

func (s FeedbackStatus) Valid() bool {
	return s == FeedbackPending || s == FeedbackReviewed || s == FeedbackResolved
}

type Feedback struct {
	ID            string         `json:"id"`
	AuthorID      string         `json:"authorId"`
	AuthorEmail   string         `json:"authorEmail"`
	AuthorKind    IdentityKind   `json:"authorKind"`
	Message       string         `json:"message"`
	Status        FeedbackStatus `json:"status"`
	AdminResponse string         `json:"adminResponse"`
	ReadByAuthor  bool           `json:"readByAuthor"`
	Created       time.Time      `json:"created"`
	Updated       time.Time      `json:"updated"`
}
