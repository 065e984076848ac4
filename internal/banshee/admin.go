package banshee

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"
)

type nameRequest struct {
	Name string `json:"name"`
}

// send is do with a JSON encoded body.
func (c *Client) send(ctx context.Context, method, endpoint string, args map[string]string, in, out any) error {
	r := request{method: method, endpoint: endpoint, args: args}
	if in != nil {
		body, err := jsonBody(in)
		if err != nil {
			return err
		}
		r.body = body
	}
	return c.do(ctx, r, out)
}

func (c *Client) get(ctx context.Context, endpoint string, args map[string]string, out any) error {
	return c.do(ctx, request{method: http.MethodGet, endpoint: endpoint, args: args}, out)
}

// Teams

func (c *Client) Teams(ctx context.Context) ([]Team, error) {
	var teams []Team
	if err := c.get(ctx, "/api/teams", nil, &teams); err != nil {
		return nil, err
	}
	return teams, nil
}

func (c *Client) Team(ctx context.Context, id int) (*Team, error) {
	if err := checkID("team", id); err != nil {
		return nil, err
	}
	team := &Team{}
	if err := c.get(ctx, "/api/team/:id", idArg(id), team); err != nil {
		return nil, err
	}
	return team, nil
}

func (c *Client) CreateTeam(ctx context.Context, name string) (*Team, error) {
	team := &Team{}
	if err := c.send(ctx, http.MethodPost, "/api/team", nil, nameRequest{Name: name}, team); err != nil {
		return nil, err
	}
	return team, nil
}

func (c *Client) UpdateTeam(ctx context.Context, id int, name string) (*Team, error) {
	if err := checkID("team", id); err != nil {
		return nil, err
	}
	team := &Team{}
	if err := c.send(ctx, http.MethodPatch, "/api/team/:id", idArg(id), nameRequest{Name: name}, team); err != nil {
		return nil, err
	}
	return team, nil
}

func (c *Client) DeleteTeam(ctx context.Context, id int) error {
	if err := checkID("team", id); err != nil {
		return err
	}
	return c.send(ctx, http.MethodDelete, "/api/team/:id", idArg(id), nil, nil)
}

func (c *Client) TeamProjects(ctx context.Context, id int) ([]Project, error) {
	if err := checkID("team", id); err != nil {
		return nil, err
	}
	var projects []Project
	if err := c.get(ctx, "/api/team/:id/projects", idArg(id), &projects); err != nil {
		return nil, err
	}
	return projects, nil
}

// Projects

func (c *Client) Projects(ctx context.Context) ([]Project, error) {
	var projects []Project
	if err := c.get(ctx, "/api/projects", nil, &projects); err != nil {
		return nil, err
	}
	return projects, nil
}

func (c *Client) Project(ctx context.Context, id int) (*Project, error) {
	if err := checkID("project", id); err != nil {
		return nil, err
	}
	project := &Project{}
	if err := c.get(ctx, "/api/project/:id", idArg(id), project); err != nil {
		return nil, err
	}
	return project, nil
}

// CreateProject creates a project named name under team teamID.
func (c *Client) CreateProject(ctx context.Context, teamID int, name string) (*Project, error) {
	if err := checkID("team", teamID); err != nil {
		return nil, err
	}
	project := &Project{}
	if err := c.send(ctx, http.MethodPost, "/api/team/:id/project", idArg(teamID), nameRequest{Name: name}, project); err != nil {
		return nil, err
	}
	return project, nil
}

type updateProjectRequest struct {
	Name            string `json:"name"`
	EnableSilent    bool   `json:"enableSilent"`
	SilentTimeStart int    `json:"silentTimeStart"`
	SilentTimeEnd   int    `json:"silentTimeEnd"`
	TeamID          int    `json:"teamID"`
}

func (c *Client) UpdateProject(ctx context.Context, p *Project) (*Project, error) {
	if err := checkID("project", p.ID); err != nil {
		return nil, err
	}
	req := updateProjectRequest{
		Name:            p.Name,
		EnableSilent:    p.EnableSilent,
		SilentTimeStart: p.SilentTimeStart,
		SilentTimeEnd:   p.SilentTimeEnd,
		TeamID:          p.TeamID,
	}
	project := &Project{}
	if err := c.send(ctx, http.MethodPatch, "/api/project/:id", idArg(p.ID), req, project); err != nil {
		return nil, err
	}
	return project, nil
}

func (c *Client) DeleteProject(ctx context.Context, id int) error {
	if err := checkID("project", id); err != nil {
		return err
	}
	return c.send(ctx, http.MethodDelete, "/api/project/:id", idArg(id), nil, nil)
}

func (c *Client) ProjectUsers(ctx context.Context, id int) ([]User, error) {
	if err := checkID("project", id); err != nil {
		return nil, err
	}
	var users []User
	if err := c.get(ctx, "/api/project/:id/users", idArg(id), &users); err != nil {
		return nil, err
	}
	return users, nil
}

// AddProjectUser adds the user named name to the project and returns it.
func (c *Client) AddProjectUser(ctx context.Context, projectID int, name string) (*User, error) {
	if err := checkID("project", projectID); err != nil {
		return nil, err
	}
	user := &User{}
	if err := c.send(ctx, http.MethodPost, "/api/project/:id/user", idArg(projectID), nameRequest{Name: name}, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (c *Client) RemoveProjectUser(ctx context.Context, projectID, userID int) error {
	if err := checkID("project", projectID); err != nil {
		return err
	}
	if err := checkID("user", userID); err != nil {
		return err
	}
	args := map[string]string{"id": strconv.Itoa(projectID), "user_id": strconv.Itoa(userID)}
	return c.send(ctx, http.MethodDelete, "/api/project/:id/user/:user_id", args, nil, nil)
}

func (c *Client) ProjectWebHooks(ctx context.Context, id int) ([]WebHook, error) {
	if err := checkID("project", id); err != nil {
		return nil, err
	}
	var hooks []WebHook
	if err := c.get(ctx, "/api/project/:id/webhooks", idArg(id), &hooks); err != nil {
		return nil, err
	}
	return hooks, nil
}

func (c *Client) AddProjectWebHook(ctx context.Context, projectID int, name string) (*WebHook, error) {
	if err := checkID("project", projectID); err != nil {
		return nil, err
	}
	hook := &WebHook{}
	if err := c.send(ctx, http.MethodPost, "/api/project/:id/webhook", idArg(projectID), nameRequest{Name: name}, hook); err != nil {
		return nil, err
	}
	return hook, nil
}

func (c *Client) RemoveProjectWebHook(ctx context.Context, projectID, webhookID int) error {
	if err := checkID("project", projectID); err != nil {
		return err
	}
	if err := checkID("webhook", webhookID); err != nil {
		return err
	}
	args := map[string]string{"id": strconv.Itoa(projectID), "webhook_id": strconv.Itoa(webhookID)}
	return c.send(ctx, http.MethodDelete, "/api/project/:id/webhook/:webhook_id", args, nil, nil)
}

// Rules

func (c *Client) ProjectRules(ctx context.Context, id int) ([]Rule, error) {
	if err := checkID("project", id); err != nil {
		return nil, err
	}
	var rules []Rule
	if err := c.get(ctx, "/api/project/:id/rules", idArg(id), &rules); err != nil {
		return nil, err
	}
	return rules, nil
}

func (c *Client) CreateRule(ctx context.Context, projectID int, r *Rule) (*Rule, error) {
	if err := checkID("project", projectID); err != nil {
		return nil, err
	}
	rule := &Rule{}
	if err := c.send(ctx, http.MethodPost, "/api/project/:id/rule", idArg(projectID), r, rule); err != nil {
		return nil, err
	}
	return rule, nil
}

func (c *Client) UpdateRule(ctx context.Context, r *Rule) (*Rule, error) {
	if err := checkID("rule", r.ID); err != nil {
		return nil, err
	}
	rule := &Rule{}
	if err := c.send(ctx, http.MethodPatch, "/api/rule/:id", idArg(r.ID), r, rule); err != nil {
		return nil, err
	}
	return rule, nil
}

func (c *Client) DeleteRule(ctx context.Context, id int) error {
	if err := checkID("rule", id); err != nil {
		return err
	}
	return c.send(ctx, http.MethodDelete, "/api/rule/:id", idArg(id), nil, nil)
}

// ImportRules uploads rules to the project as a JSON array in the multipart
// field "file". The result holds one status per row in upload order; rows
// are accepted or rejected independently.
func (c *Client) ImportRules(ctx context.Context, projectID int, rules []Rule) ([]RuleImportStatus, error) {
	if err := checkID("project", projectID); err != nil {
		return nil, err
	}
	payload, err := json.Marshal(rules)
	if err != nil {
		return nil, fmt.Errorf("encode rules: %w", err)
	}
	return c.ImportRulesFile(ctx, projectID, "rules.json", payload)
}

// ImportRulesFile uploads an already encoded rules file.
func (c *Client) ImportRulesFile(ctx context.Context, projectID int, filename string, content []byte) ([]RuleImportStatus, error) {
	if err := checkID("project", projectID); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(content); err != nil {
		return nil, fmt.Errorf("write form file: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("close multipart writer: %w", err)
	}

	var statuses []RuleImportStatus
	r := request{
		method:      http.MethodPost,
		endpoint:    "/api/project/:id/rules",
		args:        idArg(projectID),
		body:        &buf,
		contentType: mw.FormDataContentType(),
	}
	if err := c.do(ctx, r, &statuses); err != nil {
		return nil, err
	}
	return statuses, nil
}

// Users

type userRequest struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	EnableEmail bool   `json:"enableEmail"`
	Phone       string `json:"phone"`
	EnablePhone bool   `json:"enablePhone"`
	Universal   bool   `json:"universal"`
	RuleLevel   int    `json:"ruleLevel"`
}

func newUserRequest(u *User) userRequest {
	return userRequest{
		Name:        u.Name,
		Email:       u.Email,
		EnableEmail: u.EnableEmail,
		Phone:       u.Phone,
		EnablePhone: u.EnablePhone,
		Universal:   u.Universal,
		RuleLevel:   u.RuleLevel,
	}
}

func (c *Client) Users(ctx context.Context) ([]User, error) {
	var users []User
	if err := c.get(ctx, "/api/users", nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (c *Client) User(ctx context.Context, id int) (*User, error) {
	if err := checkID("user", id); err != nil {
		return nil, err
	}
	user := &User{}
	if err := c.get(ctx, "/api/user/:id", idArg(id), user); err != nil {
		return nil, err
	}
	return user, nil
}

func (c *Client) CreateUser(ctx context.Context, u *User) (*User, error) {
	user := &User{}
	if err := c.send(ctx, http.MethodPost, "/api/user", nil, newUserRequest(u), user); err != nil {
		return nil, err
	}
	return user, nil
}

func (c *Client) UpdateUser(ctx context.Context, u *User) (*User, error) {
	if err := checkID("user", u.ID); err != nil {
		return nil, err
	}
	user := &User{}
	if err := c.send(ctx, http.MethodPatch, "/api/user/:id", idArg(u.ID), newUserRequest(u), user); err != nil {
		return nil, err
	}
	return user, nil
}

func (c *Client) DeleteUser(ctx context.Context, id int) error {
	if err := checkID("user", id); err != nil {
		return err
	}
	return c.send(ctx, http.MethodDelete, "/api/user/:id", idArg(id), nil, nil)
}

func (c *Client) UserProjects(ctx context.Context, id int) ([]Project, error) {
	if err := checkID("user", id); err != nil {
		return nil, err
	}
	var projects []Project
	if err := c.get(ctx, "/api/user/:id/projects", idArg(id), &projects); err != nil {
		return nil, err
	}
	return projects, nil
}

// WebHooks

type webHookRequest struct {
	Name      string `json:"name"`
	Type      string `json:"type"`
	URL       string `json:"url"`
	RuleLevel int    `json:"ruleLevel"`
	Universal bool   `json:"universal"`
}

func newWebHookRequest(h *WebHook) webHookRequest {
	return webHookRequest{Name: h.Name, Type: h.Type, URL: h.URL, RuleLevel: h.RuleLevel, Universal: h.Universal}
}

func (c *Client) WebHooks(ctx context.Context) ([]WebHook, error) {
	var hooks []WebHook
	if err := c.get(ctx, "/api/webhooks", nil, &hooks); err != nil {
		return nil, err
	}
	return hooks, nil
}

func (c *Client) WebHook(ctx context.Context, id int) (*WebHook, error) {
	if err := checkID("webhook", id); err != nil {
		return nil, err
	}
	hook := &WebHook{}
	if err := c.get(ctx, "/api/webhook/:id", idArg(id), hook); err != nil {
		return nil, err
	}
	return hook, nil
}

func (c *Client) CreateWebHook(ctx context.Context, h *WebHook) (*WebHook, error) {
	hook := &WebHook{}
	if err := c.send(ctx, http.MethodPost, "/api/webhook", nil, newWebHookRequest(h), hook); err != nil {
		return nil, err
	}
	return hook, nil
}

func (c *Client) UpdateWebHook(ctx context.Context, h *WebHook) (*WebHook, error) {
	if err := checkID("webhook", h.ID); err != nil {
		return nil, err
	}
	hook := &WebHook{}
	if err := c.send(ctx, http.MethodPatch, "/api/webhook/:id", idArg(h.ID), newWebHookRequest(h), hook); err != nil {
		return nil, err
	}
	return hook, nil
}

func (c *Client) DeleteWebHook(ctx context.Context, id int) error {
	if err := checkID("webhook", id); err != nil {
		return err
	}
	return c.send(ctx, http.MethodDelete, "/api/webhook/:id", idArg(id), nil, nil)
}

func (c *Client) WebHookProjects(ctx context.Context, id int) ([]Project, error) {
	if err := checkID("webhook", id); err != nil {
		return nil, err
	}
	var projects []Project
	if err := c.get(ctx, "/api/webhook/:id/projects", idArg(id), &projects); err != nil {
		return nil, err
	}
	return projects, nil
}
