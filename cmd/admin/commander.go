package admin

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/nicolastakashi/banshee-console/internal/banshee"
	"github.com/nicolastakashi/banshee-console/internal/editor"
	"github.com/nicolastakashi/banshee-console/internal/format"
	"github.com/nicolastakashi/banshee-console/internal/i18n"
	"github.com/nicolastakashi/banshee-console/internal/importer"
	"github.com/nicolastakashi/banshee-console/internal/view"
)

var (
	errUsage = errors.New("usage: admin <list|rules|events|apply|import|info> [args]")

	headerStyle = lipgloss.NewStyle().Bold(true)
)

type options struct {
	kind     string
	action   string
	parentID int
	id       int
	payload  string
	yes      bool
	past     int
	level    int
}

type commander struct {
	client  *banshee.Client
	phrases *i18n.Catalog
	in      io.Reader
	out     io.Writer
	opts    options
	now     func() time.Time
}

func (c *commander) run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	switch args[0] {
	case "list":
		return c.list(ctx, args[1:])
	case "rules":
		return c.rules(ctx, args[1:])
	case "events":
		return c.events(ctx, args[1:])
	case "apply":
		return c.apply(ctx)
	case "import":
		return c.importRules(ctx, args[1:])
	case "info":
		return c.info(ctx)
	}
	return fmt.Errorf("unknown command %q: %w", args[0], errUsage)
}

func projectArg(args []string, required bool) (int, error) {
	if len(args) == 0 {
		if required {
			return 0, fmt.Errorf("a project id is required: %w", errUsage)
		}
		return 0, nil
	}
	id, err := strconv.Atoi(args[0])
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("project %q: %w", args[0], banshee.ErrInvalidID)
	}
	return id, nil
}

func renderTable(headers []string, rows [][]string) string {
	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return lipgloss.NewStyle()
		}).
		String()
}

func (c *commander) print(s string) {
	fmt.Fprintln(c.out, s)
}

func (c *commander) list(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("list what: %w", errUsage)
	}
	project, err := projectArg(args[1:], false)
	if err != nil {
		return err
	}

	var (
		headers []string
		rows    [][]string
	)
	switch args[0] {
	case "teams":
		teams, err := c.client.Teams(ctx)
		if err != nil {
			return err
		}
		headers = []string{"ID", "NAME"}
		for _, t := range teams {
			rows = append(rows, []string{strconv.Itoa(t.ID), t.Name})
		}
	case "projects":
		// the optional argument is a team id here
		var projects []banshee.Project
		if project > 0 {
			projects, err = c.client.TeamProjects(ctx, project)
		} else {
			projects, err = c.client.Projects(ctx)
		}
		if err != nil {
			return err
		}
		headers, rows = projectRows(projects)
	case "user-projects", "webhook-projects":
		if project == 0 {
			return fmt.Errorf("%s needs an id: %w", args[0], errUsage)
		}
		var projects []banshee.Project
		if args[0] == "user-projects" {
			projects, err = c.client.UserProjects(ctx, project)
		} else {
			projects, err = c.client.WebHookProjects(ctx, project)
		}
		if err != nil {
			return err
		}
		headers, rows = projectRows(projects)
	case "users":
		var users []banshee.User
		if project > 0 {
			users, err = c.client.ProjectUsers(ctx, project)
		} else {
			users, err = c.client.Users(ctx)
		}
		if err != nil {
			return err
		}
		headers = []string{"ID", "NAME", "EMAIL", "UNIVERSAL"}
		for _, u := range users {
			rows = append(rows, []string{strconv.Itoa(u.ID), u.Name, u.Email, strconv.FormatBool(u.Universal)})
		}
	case "webhooks":
		var hooks []banshee.WebHook
		if project > 0 {
			hooks, err = c.client.ProjectWebHooks(ctx, project)
		} else {
			hooks, err = c.client.WebHooks(ctx)
		}
		if err != nil {
			return err
		}
		headers = []string{"ID", "NAME", "TYPE", "URL"}
		for _, h := range hooks {
			rows = append(rows, []string{strconv.Itoa(h.ID), h.Name, h.Type, h.URL})
		}
	default:
		return fmt.Errorf("cannot list %q: %w", args[0], errUsage)
	}

	c.print(renderTable(headers, rows))
	return nil
}

func projectRows(projects []banshee.Project) ([]string, [][]string) {
	rows := make([][]string, 0, len(projects))
	for _, p := range projects {
		rows = append(rows, []string{strconv.Itoa(p.ID), p.Name, strconv.Itoa(p.TeamID)})
	}
	return []string{"ID", "NAME", "TEAM"}, rows
}

// info prints the upstream settings the console depends on.
func (c *commander) info(ctx context.Context) error {
	interval, err := c.client.Interval(ctx)
	if err != nil {
		return err
	}
	graphite, err := c.client.GraphiteURL(ctx)
	if err != nil {
		return err
	}
	doc, err := c.client.PrivateDocURL(ctx)
	if err != nil {
		return err
	}
	c.print(renderTable([]string{"SETTING", "VALUE"}, [][]string{
		{"interval", format.SecondsToTimespanString(int(interval))},
		{"graphite", graphite},
		{"documentation", doc},
	}))
	return nil
}

func (c *commander) rules(ctx context.Context, args []string) error {
	project, err := projectArg(args, true)
	if err != nil {
		return err
	}
	rs, err := c.client.ProjectRules(ctx, project)
	if err != nil {
		return err
	}

	now := time.Now
	if c.now != nil {
		now = c.now
	}
	rows := make([][]string, 0, len(rs))
	for _, r := range view.AnnotateRules(rs, c.phrases, now()) {
		rows = append(rows, []string{
			strconv.Itoa(r.ID),
			r.DisplayPattern,
			r.TranslatedExpression,
			r.Check.String(),
			strconv.FormatBool(r.DisabledNow),
		})
	}
	c.print(renderTable([]string{"ID", "PATTERN", "EXPRESSION", "CHECK", "DISABLED"}, rows))
	return nil
}

func (c *commander) events(ctx context.Context, args []string) error {
	project, err := projectArg(args, true)
	if err != nil {
		return err
	}
	events, err := c.client.ProjectEvents(ctx, project, banshee.EventQuery{Past: c.opts.past, Level: c.opts.level})
	if err != nil {
		return err
	}

	rows := make([][]string, 0, len(events))
	for _, e := range events {
		comment := e.TranslatedComment
		if comment == "" {
			comment = e.Comment
		}
		rows = append(rows, []string{
			format.DateToString(time.Unix(int64(e.Stamp), 0)),
			e.Name,
			strconv.FormatFloat(e.Score, 'f', 2, 64),
			format.FoldNumber(e.Value),
			comment,
		})
	}
	c.print(renderTable([]string{"TIME", "METRIC", "SCORE", "VALUE", "COMMENT"}, rows))
	return nil
}

func (c *commander) readPayload() ([]byte, error) {
	p := c.opts.payload
	if p == "" {
		return nil, nil
	}
	if path, ok := strings.CutPrefix(p, "@"); ok {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read payload: %w", err)
		}
		return b, nil
	}
	return []byte(p), nil
}

func (c *commander) apply(ctx context.Context) error {
	payload, err := c.readPayload()
	if err != nil {
		return err
	}
	cmd := editor.Command{
		Kind:     editor.Kind(c.opts.kind),
		Action:   editor.Action(c.opts.action),
		ParentID: c.opts.parentID,
		ID:       c.opts.id,
		Payload:  payload,
	}

	confirm := c.confirm
	if c.opts.yes {
		confirm = editor.AlwaysConfirm
	}
	res, err := editor.New(c.client, c.phrases, editor.WithConfirm(confirm)).Apply(ctx, cmd)
	if err != nil {
		if errors.Is(err, editor.ErrCancelled) {
			c.print(string(cmd.Action) + " " + string(cmd.Kind) + ": " + err.Error())
			return nil
		}
		return errors.New(banshee.Message(err))
	}

	if res.Notice != nil {
		c.print(res.Notice.Text)
	}
	if res.ID > 0 {
		c.print(fmt.Sprintf("id: %d", res.ID))
	}
	return nil
}

// confirm asks on the terminal. Only an explicit yes confirms.
func (c *commander) confirm(_ context.Context, _ editor.Command, prompt string) (bool, error) {
	yes, no := c.phrases.Phrase("YES", nil), c.phrases.Phrase("NO", nil)
	fmt.Fprintf(c.out, "%s [%s/%s]: ", prompt, yes, no)

	line, err := bufio.NewReader(c.in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, err
	}
	answer := strings.TrimSpace(line)
	return strings.EqualFold(answer, yes) || strings.EqualFold(answer, "y") || strings.EqualFold(answer, "yes"), nil
}

func (c *commander) importRules(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("import needs a project id and a file: %w", errUsage)
	}
	project, err := projectArg(args, true)
	if err != nil {
		return err
	}

	report, err := importer.New(c.client, prometheus.NewRegistry()).ImportFile(ctx, project, args[1])
	if err != nil {
		return errors.New(banshee.Message(err))
	}

	c.print(report.Table(c.phrases.Phrase("ADMIN_RULE_IMPORT_OK", nil)))
	c.print(fmt.Sprintf("%d imported, %d rejected", report.Imported, report.Rejected))
	return nil
}
