package view

import (
	"context"
	"errors"

	"github.com/nicolastakashi/banshee-console/internal/banshee"
	"golang.org/x/sync/errgroup"
)

// ProjectSource is the part of the banshee API the project page reads.
type ProjectSource interface {
	Project(ctx context.Context, id int) (*banshee.Project, error)
	ProjectRules(ctx context.Context, id int) ([]banshee.Rule, error)
	ProjectUsers(ctx context.Context, id int) ([]banshee.User, error)
	ProjectWebHooks(ctx context.Context, id int) ([]banshee.WebHook, error)
	ProjectEvents(ctx context.Context, id int, q banshee.EventQuery) ([]banshee.Event, error)
}

// ProjectDetail is the project page: the project itself, its rules, its
// members, its webhooks and its recent events.
type ProjectDetail struct {
	ID int

	Project  Section[*banshee.Project]
	Rules    Section[[]banshee.Rule]
	Users    Section[[]banshee.User]
	WebHooks Section[[]banshee.WebHook]
	Events   Section[[]banshee.Event]

	src ProjectSource
}

func NewProjectDetail(src ProjectSource, id int) *ProjectDetail {
	return &ProjectDetail{ID: id, src: src}
}

// Load loads every section not loaded yet, concurrently. A failing section
// does not stop the others; the returned error joins the failures.
func (p *ProjectDetail) Load(ctx context.Context, q banshee.EventQuery) error {
	var (
		g    errgroup.Group
		errs = make([]error, 5)
	)
	g.Go(func() error {
		_, errs[0] = p.Project.Load(ctx, func(ctx context.Context) (*banshee.Project, error) {
			return p.src.Project(ctx, p.ID)
		})
		return nil
	})
	g.Go(func() error {
		_, errs[1] = p.LoadRules(ctx)
		return nil
	})
	g.Go(func() error {
		_, errs[2] = p.LoadUsers(ctx)
		return nil
	})
	g.Go(func() error {
		_, errs[3] = p.LoadWebHooks(ctx)
		return nil
	})
	g.Go(func() error {
		_, errs[4] = p.Events.Load(ctx, p.events(q))
		return nil
	})
	_ = g.Wait()
	return errors.Join(errs...)
}

func (p *ProjectDetail) LoadRules(ctx context.Context) ([]banshee.Rule, error) {
	return p.Rules.Load(ctx, func(ctx context.Context) ([]banshee.Rule, error) {
		return p.src.ProjectRules(ctx, p.ID)
	})
}

func (p *ProjectDetail) LoadUsers(ctx context.Context) ([]banshee.User, error) {
	return p.Users.Load(ctx, func(ctx context.Context) ([]banshee.User, error) {
		return p.src.ProjectUsers(ctx, p.ID)
	})
}

func (p *ProjectDetail) LoadWebHooks(ctx context.Context) ([]banshee.WebHook, error) {
	return p.WebHooks.Load(ctx, func(ctx context.Context) ([]banshee.WebHook, error) {
		return p.src.ProjectWebHooks(ctx, p.ID)
	})
}

// ReloadEvents refetches the events section with new filters.
func (p *ProjectDetail) ReloadEvents(ctx context.Context, q banshee.EventQuery) ([]banshee.Event, error) {
	return p.Events.Reload(ctx, p.events(q))
}

func (p *ProjectDetail) events(q banshee.EventQuery) func(context.Context) ([]banshee.Event, error) {
	return func(ctx context.Context) ([]banshee.Event, error) {
		return p.src.ProjectEvents(ctx, p.ID, q)
	}
}

// FilterCandidateUsers returns the users that can be added to a project:
// users that are not universal and not already members.
func FilterCandidateUsers(all, members []banshee.User) []banshee.User {
	isMember := make(map[int]struct{}, len(members))
	for _, m := range members {
		isMember[m.ID] = struct{}{}
	}
	var candidates []banshee.User
	for _, u := range all {
		if u.Universal {
			continue
		}
		if _, ok := isMember[u.ID]; ok {
			continue
		}
		candidates = append(candidates, u)
	}
	return candidates
}
