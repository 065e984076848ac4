// Package editor applies create, update and delete commands for banshee
// entities. Every admin dialog of the console goes through Apply.
package editor

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/nicolastakashi/banshee-console/internal/banshee"
	"github.com/nicolastakashi/banshee-console/internal/rules"
)

type Kind string

const (
	KindTeam           Kind = "team"
	KindProject        Kind = "project"
	KindRule           Kind = "rule"
	KindUser           Kind = "user"
	KindWebHook        Kind = "webhook"
	KindProjectUser    Kind = "project_user"
	KindProjectWebHook Kind = "project_webhook"
)

type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Command is one edit. ParentID is the team of a new project and the project
// of a rule or membership. ID is the entity to update or delete; for
// memberships it is the user or webhook id. Payload is the JSON entity for
// creates and updates; memberships take {"name": ...}.
type Command struct {
	Kind     Kind            `json:"kind"`
	Action   Action          `json:"action"`
	ParentID int             `json:"parentID,omitempty"`
	ID       int             `json:"id,omitempty"`
	Payload  json.RawMessage `json:"payload,omitempty"`
}

// NewCommand builds a command with payload encoded as JSON.
func NewCommand(kind Kind, action Action, parentID, id int, payload any) (Command, error) {
	cmd := Command{Kind: kind, Action: action, ParentID: parentID, ID: id}
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return Command{}, fmt.Errorf("encode payload: %w", err)
		}
		cmd.Payload = b
	}
	return cmd, nil
}

func (k Kind) valid() bool {
	switch k {
	case KindTeam, KindProject, KindRule, KindUser, KindWebHook, KindProjectUser, KindProjectWebHook:
		return true
	}
	return false
}

// Destructive reports whether cmd needs confirmation.
func (c Command) Destructive() bool {
	return c.Action == ActionDelete
}

// Notice is a message to show after a successful command.
type Notice struct {
	Level string `json:"level"`
	Text  string `json:"text"`
}

const (
	NoticeSuccess = "success"
	NoticeWarning = "warning"
)

// Result is the outcome of a successful command. Entity is the entity
// returned by banshee for creates and updates, ID the removed id for deletes.
type Result struct {
	Kind   Kind    `json:"kind"`
	Action Action  `json:"action"`
	Entity any     `json:"entity,omitempty"`
	ID     int     `json:"id,omitempty"`
	Notice *Notice `json:"notice,omitempty"`
}

// Client is the part of the banshee API the editor writes through.
type Client interface {
	CreateTeam(ctx context.Context, name string) (*banshee.Team, error)
	UpdateTeam(ctx context.Context, id int, name string) (*banshee.Team, error)
	DeleteTeam(ctx context.Context, id int) error

	CreateProject(ctx context.Context, teamID int, name string) (*banshee.Project, error)
	UpdateProject(ctx context.Context, p *banshee.Project) (*banshee.Project, error)
	DeleteProject(ctx context.Context, id int) error

	CreateRule(ctx context.Context, projectID int, r *banshee.Rule) (*banshee.Rule, error)
	UpdateRule(ctx context.Context, r *banshee.Rule) (*banshee.Rule, error)
	DeleteRule(ctx context.Context, id int) error

	CreateUser(ctx context.Context, u *banshee.User) (*banshee.User, error)
	UpdateUser(ctx context.Context, u *banshee.User) (*banshee.User, error)
	DeleteUser(ctx context.Context, id int) error

	CreateWebHook(ctx context.Context, h *banshee.WebHook) (*banshee.WebHook, error)
	UpdateWebHook(ctx context.Context, h *banshee.WebHook) (*banshee.WebHook, error)
	DeleteWebHook(ctx context.Context, id int) error

	AddProjectUser(ctx context.Context, projectID int, name string) (*banshee.User, error)
	RemoveProjectUser(ctx context.Context, projectID, userID int) error
	AddProjectWebHook(ctx context.Context, projectID int, name string) (*banshee.WebHook, error)
	RemoveProjectWebHook(ctx context.Context, projectID, webhookID int) error

	Interval(ctx context.Context) (uint32, error)
}

// ConfirmFunc asks the user to confirm prompt. Returning false cancels the command.
type ConfirmFunc func(ctx context.Context, cmd Command, prompt string) (bool, error)

// AlwaysConfirm accepts every command; for callers that confirmed upstream.
func AlwaysConfirm(context.Context, Command, string) (bool, error) {
	return true, nil
}

type Editor struct {
	client  Client
	phrases rules.Phrases
	confirm ConfirmFunc
}

type Option func(*Editor)

func WithConfirm(fn ConfirmFunc) Option {
	return func(e *Editor) {
		e.confirm = fn
	}
}

// New returns an Editor. Without WithConfirm every destructive command is
// cancelled.
func New(client Client, phrases rules.Phrases, opts ...Option) *Editor {
	e := &Editor{
		client:  client,
		phrases: phrases,
		confirm: func(context.Context, Command, string) (bool, error) { return false, nil },
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Apply executes cmd against banshee. Destructive commands are confirmed
// first. Server rejections come back as *banshee.APIError and are never
// retried.
func (e *Editor) Apply(ctx context.Context, cmd Command) (*Result, error) {
	if !cmd.Kind.valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, cmd.Kind)
	}
	if cmd.Destructive() {
		ok, err := e.confirm(ctx, cmd, e.Prompt(cmd))
		if err != nil {
			return nil, fmt.Errorf("confirm %s %s: %w", cmd.Action, cmd.Kind, err)
		}
		if !ok {
			return nil, ErrCancelled
		}
	}

	res, err := e.apply(ctx, cmd)
	if err != nil {
		slog.Debug("editor.apply", "kind", cmd.Kind, "action", cmd.Action, "id", cmd.ID, "err", err)
		return nil, err
	}
	res.Kind, res.Action = cmd.Kind, cmd.Action
	if res.Notice == nil {
		res.Notice = e.successNotice(cmd)
	}
	slog.Info("editor.apply", "kind", cmd.Kind, "action", cmd.Action, "id", res.ID)
	return res, nil
}

// Prompt is the confirmation text for a destructive command.
func (e *Editor) Prompt(cmd Command) string {
	key := map[Kind]string{
		KindTeam:           "ADMIN_TEAM_DELETE_TEXT",
		KindProject:        "ADMIN_PROJECT_DELETE_TEXT",
		KindRule:           "ADMIN_RULE_DELETE_TEXT",
		KindUser:           "ADMIN_USER_DELETE_TEXT",
		KindWebHook:        "ADMIN_WEBHOOK_DELETE_TEXT",
		KindProjectUser:    "ADMIN_USER_REMOVE_TEXT",
		KindProjectWebHook: "ADMIN_WEBHOOK_REMOVE_TEXT",
	}[cmd.Kind]
	if key == "" {
		return ""
	}
	return e.phrases.Phrase(key, nil)
}

func (e *Editor) successNotice(cmd Command) *Notice {
	key := "SAVE_SUCCESS"
	if cmd.Destructive() {
		key = "DELETE_SUCCESS"
	}
	return &Notice{Level: NoticeSuccess, Text: e.phrases.Phrase(key, nil)}
}

func decode[T any](cmd Command) (*T, error) {
	v := new(T)
	if len(cmd.Payload) == 0 {
		return nil, fmt.Errorf("%w: %s %s needs a payload", ErrInvalidPayload, cmd.Action, cmd.Kind)
	}
	if err := json.Unmarshal(cmd.Payload, v); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return v, nil
}

type named struct {
	Name string `json:"name"`
}

func (e *Editor) apply(ctx context.Context, cmd Command) (*Result, error) {
	switch cmd.Kind {
	case KindTeam:
		return e.applyTeam(ctx, cmd)
	case KindProject:
		return e.applyProject(ctx, cmd)
	case KindRule:
		return e.applyRule(ctx, cmd)
	case KindUser:
		return e.applyUser(ctx, cmd)
	case KindWebHook:
		return e.applyWebHook(ctx, cmd)
	case KindProjectUser, KindProjectWebHook:
		return e.applyMembership(ctx, cmd)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownKind, cmd.Kind)
}

func (e *Editor) applyTeam(ctx context.Context, cmd Command) (*Result, error) {
	switch cmd.Action {
	case ActionCreate, ActionUpdate:
		n, err := decode[named](cmd)
		if err != nil {
			return nil, err
		}
		var team *banshee.Team
		if cmd.Action == ActionCreate {
			team, err = e.client.CreateTeam(ctx, n.Name)
		} else {
			team, err = e.client.UpdateTeam(ctx, cmd.ID, n.Name)
		}
		if err != nil {
			return nil, err
		}
		return &Result{Entity: team, ID: team.ID}, nil
	case ActionDelete:
		if err := e.client.DeleteTeam(ctx, cmd.ID); err != nil {
			return nil, err
		}
		return &Result{ID: cmd.ID}, nil
	}
	return nil, unsupported(cmd)
}

func (e *Editor) applyProject(ctx context.Context, cmd Command) (*Result, error) {
	switch cmd.Action {
	case ActionCreate:
		p, err := decode[banshee.Project](cmd)
		if err != nil {
			return nil, err
		}
		teamID := cmd.ParentID
		if teamID == 0 {
			teamID = p.TeamID
		}
		project, err := e.client.CreateProject(ctx, teamID, p.Name)
		if err != nil {
			return nil, err
		}
		return &Result{Entity: project, ID: project.ID}, nil
	case ActionUpdate:
		p, err := decode[banshee.Project](cmd)
		if err != nil {
			return nil, err
		}
		if cmd.ID != 0 {
			p.ID = cmd.ID
		}
		project, err := e.client.UpdateProject(ctx, p)
		if err != nil {
			return nil, err
		}
		return &Result{Entity: project, ID: project.ID}, nil
	case ActionDelete:
		if err := e.client.DeleteProject(ctx, cmd.ID); err != nil {
			return nil, err
		}
		return &Result{ID: cmd.ID}, nil
	}
	return nil, unsupported(cmd)
}

func (e *Editor) applyRule(ctx context.Context, cmd Command) (*Result, error) {
	switch cmd.Action {
	case ActionCreate:
		r, err := decode[banshee.Rule](cmd)
		if err != nil {
			return nil, err
		}
		projectID := cmd.ParentID
		if projectID == 0 {
			projectID = r.ProjectID
		}
		rule, err := e.client.CreateRule(ctx, projectID, r)
		if err != nil {
			return nil, err
		}
		return &Result{Entity: rule, ID: rule.ID, Notice: e.ruleAddedNotice(ctx, rule)}, nil
	case ActionUpdate:
		r, err := decode[banshee.Rule](cmd)
		if err != nil {
			return nil, err
		}
		if cmd.ID != 0 {
			r.ID = cmd.ID
		}
		rule, err := e.client.UpdateRule(ctx, r)
		if err != nil {
			return nil, err
		}
		return &Result{Entity: rule, ID: rule.ID}, nil
	case ActionDelete:
		if err := e.client.DeleteRule(ctx, cmd.ID); err != nil {
			return nil, err
		}
		return &Result{ID: cmd.ID}, nil
	}
	return nil, unsupported(cmd)
}

// ruleAddedNotice warns when a new rule matches nothing the detector
// supports yet; banshee expands and counts rules once per interval.
func (e *Editor) ruleAddedNotice(ctx context.Context, rule *banshee.Rule) *Notice {
	interval, err := e.client.Interval(ctx)
	if err != nil {
		slog.Warn("unable to load detection interval", "err", err)
	}
	vars := map[string]string{"Interval": strconv.FormatUint(uint64(interval), 10)}
	if rules.ClassifyRule(rule) != rules.CheckOK {
		return &Notice{Level: NoticeWarning, Text: e.phrases.Phrase("ADMIN_RULE_POST_ADD_CHECK_FAILED_TEXT", vars)}
	}
	return &Notice{Level: NoticeSuccess, Text: e.phrases.Phrase("ADMIN_RULE_POST_ADD_TEXT", vars)}
}

func (e *Editor) applyUser(ctx context.Context, cmd Command) (*Result, error) {
	switch cmd.Action {
	case ActionCreate, ActionUpdate:
		u, err := decode[banshee.User](cmd)
		if err != nil {
			return nil, err
		}
		var user *banshee.User
		if cmd.Action == ActionCreate {
			user, err = e.client.CreateUser(ctx, u)
		} else {
			if cmd.ID != 0 {
				u.ID = cmd.ID
			}
			user, err = e.client.UpdateUser(ctx, u)
		}
		if err != nil {
			return nil, err
		}
		return &Result{Entity: user, ID: user.ID}, nil
	case ActionDelete:
		if err := e.client.DeleteUser(ctx, cmd.ID); err != nil {
			return nil, err
		}
		return &Result{ID: cmd.ID}, nil
	}
	return nil, unsupported(cmd)
}

func (e *Editor) applyWebHook(ctx context.Context, cmd Command) (*Result, error) {
	switch cmd.Action {
	case ActionCreate, ActionUpdate:
		h, err := decode[banshee.WebHook](cmd)
		if err != nil {
			return nil, err
		}
		var hook *banshee.WebHook
		if cmd.Action == ActionCreate {
			hook, err = e.client.CreateWebHook(ctx, h)
		} else {
			if cmd.ID != 0 {
				h.ID = cmd.ID
			}
			hook, err = e.client.UpdateWebHook(ctx, h)
		}
		if err != nil {
			return nil, err
		}
		return &Result{Entity: hook, ID: hook.ID}, nil
	case ActionDelete:
		if err := e.client.DeleteWebHook(ctx, cmd.ID); err != nil {
			return nil, err
		}
		return &Result{ID: cmd.ID}, nil
	}
	return nil, unsupported(cmd)
}

func (e *Editor) applyMembership(ctx context.Context, cmd Command) (*Result, error) {
	switch cmd.Action {
	case ActionCreate:
		n, err := decode[named](cmd)
		if err != nil {
			return nil, err
		}
		if cmd.Kind == KindProjectUser {
			user, err := e.client.AddProjectUser(ctx, cmd.ParentID, n.Name)
			if err != nil {
				return nil, err
			}
			return &Result{Entity: user, ID: user.ID}, nil
		}
		hook, err := e.client.AddProjectWebHook(ctx, cmd.ParentID, n.Name)
		if err != nil {
			return nil, err
		}
		return &Result{Entity: hook, ID: hook.ID}, nil
	case ActionDelete:
		var err error
		if cmd.Kind == KindProjectUser {
			err = e.client.RemoveProjectUser(ctx, cmd.ParentID, cmd.ID)
		} else {
			err = e.client.RemoveProjectWebHook(ctx, cmd.ParentID, cmd.ID)
		}
		if err != nil {
			return nil, err
		}
		return &Result{ID: cmd.ID}, nil
	}
	return nil, unsupported(cmd)
}
