package models

import (
	"github.com/nicolastakashi/banshee-console/internal/banshee"
	"github.com/nicolastakashi/banshee-console/internal/view"
)

// Section is the JSON form of a lazily loaded page section.
type Section[T any] struct {
	State view.LoadState `json:"state"`
	Data  T              `json:"data,omitempty"`
	Error string         `json:"error,omitempty"`
}

func NewSection[T any](s *view.Section[T]) Section[T] {
	out := Section[T]{State: s.State(), Data: s.Value()}
	if err := s.Err(); err != nil {
		out.Error = banshee.Message(err)
	}
	return out
}

type ProjectDetail struct {
	ID       int                        `json:"id"`
	Project  Section[*banshee.Project]  `json:"project"`
	Rules    Section[[]view.RuleView]   `json:"rules"`
	Users    Section[[]banshee.User]    `json:"users"`
	WebHooks Section[[]banshee.WebHook] `json:"webhooks"`
	Events   Section[[]banshee.Event]   `json:"events"`
}
