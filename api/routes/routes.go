package routes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strconv"
	"time"

	"github.com/metalmatze/signal/server/signalhttp"
	"github.com/nicolastakashi/banshee-console/api/models"
	"github.com/nicolastakashi/banshee-console/api/response"
	"github.com/nicolastakashi/banshee-console/internal/banshee"
	"github.com/nicolastakashi/banshee-console/internal/config"
	"github.com/nicolastakashi/banshee-console/internal/editor"
	"github.com/nicolastakashi/banshee-console/internal/feed"
	"github.com/nicolastakashi/banshee-console/internal/i18n"
	"github.com/nicolastakashi/banshee-console/internal/importer"
	"github.com/nicolastakashi/banshee-console/internal/rules"
	"github.com/nicolastakashi/banshee-console/internal/view"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

// ConfirmHeader confirms a destructive edit command. Without it deletes are
// answered with 428 and the confirmation prompt.
const ConfirmHeader = "X-Confirm"

const (
	maxImportSize     = 8 << 20
	feedFetchParallel = 8
)

type routes struct {
	handler http.Handler
	mux     *http.ServeMux

	client   *banshee.Client
	importer *importer.Importer
	language string
	cfg      *config.Config
	now      func() time.Time

	proxyErrors *prometheus.CounterVec
}

type Option func(*routes)

// WithClient sets the banshee client behind every render and edit endpoint.
func WithClient(client *banshee.Client, reg prometheus.Registerer) Option {
	return func(r *routes) {
		r.client = client
		r.importer = importer.New(client, reg)
		r.proxyErrors = promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "banshee_console_proxy_errors_total",
			Help: "Failed banshee API calls proxied for the browser console, by status code.",
		}, []string{"code"})
	}
}

// WithLanguage overrides the language banshee reports.
func WithLanguage(language string) Option {
	return func(r *routes) {
		r.language = language
	}
}

func WithConfig(cfg *config.Config) Option {
	return func(r *routes) {
		r.cfg = cfg
	}
}

func WithHandlers(registry *prometheus.Registry, isTracingEnabled bool) Option {
	return func(r *routes) {
		i := signalhttp.NewHandlerInstrumenter(registry, []string{"handler"})
		instrument := func(name string, h http.HandlerFunc) http.Handler {
			var handler http.Handler = h
			if isTracingEnabled {
				handler = otelhttp.NewHandler(h, name)
			}
			return i.NewHandler(prometheus.Labels{"handler": name}, handler)
		}

		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
		mux.Handle("/api/", instrument("passthrough", r.passthrough))
		mux.Handle("GET /api/v1/rules/{project}", instrument("rules", r.projectRules))
		mux.Handle("GET /api/v1/feeds", instrument("feeds", r.feeds))
		mux.Handle("GET /api/v1/names/{name}", instrument("names", r.metricName))
		mux.Handle("POST /api/v1/edit", instrument("edit", r.edit))
		mux.Handle("POST /api/v1/import/{project}", instrument("import", r.importRules))
		mux.Handle("GET /api/v1/projects/{id}", instrument("project", r.projectDetail))
		mux.Handle("GET /api/v1/projects/{id}/candidates", instrument("candidates", r.candidateUsers))
		mux.Handle("GET /api/v1/configs", http.HandlerFunc(r.configs))
		r.mux = mux
	}
}

// WithProxy forwards every banshee API call the console makes to upstream.
func WithProxy(upstream *url.URL) Option {
	return func(r *routes) {
		proxy := httputil.NewSingleHostReverseProxy(upstream)
		originalDirector := proxy.Director
		proxy.Director = func(req *http.Request) {
			originalDirector(req)
			req.Host = upstream.Host // Set the Host header to the target host
		}
		r.handler = proxy
	}
}

func NewRoutes(opts ...Option) (*routes, error) {
	r := &routes{
		mux: http.NewServeMux(), // Initialize mux to avoid nil pointer dereference
		now: time.Now,
	}

	for _, opt := range opts {
		opt(r)
	}

	if r.client == nil {
		return nil, fmt.Errorf("a banshee client is required")
	}
	if r.handler == nil {
		return nil, fmt.Errorf("an upstream proxy is required")
	}
	return r, nil
}

func (r *routes) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

func (r *routes) passthrough(w http.ResponseWriter, req *http.Request) {
	if req.Method == http.MethodGet || req.Method == http.MethodHead {
		r.handler.ServeHTTP(w, req)
		return
	}

	recw := response.NewResponseWriter(w)
	r.handler.ServeHTTP(recw, req)
	if e := recw.ParseBansheeError(); e != nil {
		r.proxyErrors.WithLabelValues(strconv.Itoa(recw.GetStatusCode())).Inc()
		slog.Warn("proxy.mutation_rejected", "method", req.Method, "path", req.URL.Path, "code", e.Code, "msg", e.Msg)
	}
}

// phrases returns the catalog of the configured language, or of the
// language banshee reports.
func (r *routes) phrases(ctx context.Context) *i18n.Catalog {
	if r.language != "" {
		return i18n.Lookup(r.language)
	}
	lang, err := r.client.Language(ctx)
	if err != nil {
		slog.Warn("unable to retrieve banshee language, using english", "err", err)
	}
	return i18n.Lookup(lang)
}

func pathID(req *http.Request, name string) (int, error) {
	id, err := strconv.Atoi(req.PathValue(name))
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s parameter %q: %w", name, req.PathValue(name), banshee.ErrInvalidID)
	}
	return id, nil
}

func getQueryParamAsInt64(req *http.Request, param string, defaultValue int64) (int64, error) {
	value := req.URL.Query().Get(param)
	if value == "" {
		return defaultValue, nil
	}
	return strconv.ParseInt(value, 10, 64)
}

func (r *routes) projectRules(w http.ResponseWriter, req *http.Request) {
	id, err := pathID(req, "project")
	if err != nil {
		writeErrorResponse(req, w, err, http.StatusBadRequest)
		return
	}

	rs, err := r.client.ProjectRules(req.Context(), id)
	if err != nil {
		slog.Error("unable to retrieve project rules", "err", err, "project", id)
		writeErrorResponse(req, w, err, statusFor(err))
		return
	}

	writeJSONResponse(req, w, view.AnnotateRules(rs, r.phrases(req.Context()), r.now()))
}

// feeds returns the dense feed of every requested metric over the window
// [start, stop) in epoch milliseconds. A metric whose data cannot be read
// carries its error and no points.
func (r *routes) feeds(w http.ResponseWriter, req *http.Request) {
	names := req.URL.Query()["name"]
	if len(names) == 0 {
		writeErrorResponse(req, w, fmt.Errorf("missing name parameter"), http.StatusBadRequest)
		return
	}

	mode := feed.ModeValue
	if m := req.URL.Query().Get("mode"); m != "" {
		parsed, err := feed.ParseMode(m)
		if err != nil {
			writeErrorResponse(req, w, err, http.StatusBadRequest)
			return
		}
		mode = parsed
	}

	stop, err := getQueryParamAsInt64(req, "stop", r.now().UnixMilli())
	if err != nil {
		writeErrorResponse(req, w, fmt.Errorf("invalid stop parameter: %w", err), http.StatusBadRequest)
		return
	}
	step, err := getQueryParamAsInt64(req, "step", 0)
	if err != nil {
		writeErrorResponse(req, w, fmt.Errorf("invalid step parameter: %w", err), http.StatusBadRequest)
		return
	}
	if step == 0 {
		interval, err := r.client.Interval(req.Context())
		if err != nil {
			slog.Error("unable to retrieve detection interval", "err", err)
			writeErrorResponse(req, w, err, statusFor(err))
			return
		}
		step = int64(interval) * 1000
	}
	start, err := getQueryParamAsInt64(req, "start", stop-120*step)
	if err != nil {
		writeErrorResponse(req, w, fmt.Errorf("invalid start parameter: %w", err), http.StatusBadRequest)
		return
	}
	if step < 1000 || start < 0 || stop < start {
		writeErrorResponse(req, w, fmt.Errorf("%w: start=%d stop=%d step=%d", feed.ErrInvalidWindow, start, stop, step), http.StatusBadRequest)
		return
	}

	out := models.FeedsResponse{Start: start, Stop: stop, Step: step, Feeds: make([]models.Feed, len(names))}
	g, ctx := errgroup.WithContext(req.Context())
	g.SetLimit(feedFetchParallel)
	for i, name := range names {
		g.Go(func() error {
			f := models.Feed{Name: name, Mode: string(mode), Points: []float64{}}
			samples, err := r.client.MetricData(ctx, name, uint32(start/1000), uint32(stop/1000))
			if err == nil {
				f.Points, err = feed.Fill(samples, start, stop, step, mode)
			}
			if err != nil {
				slog.Debug("feed.fetch_error", "name", name, "err", err)
				f.Error = banshee.Message(err)
			}
			out.Feeds[i] = f
			return nil
		})
	}
	_ = g.Wait()

	writeJSONResponse(req, w, out)
}

func (r *routes) metricName(w http.ResponseWriter, req *http.Request) {
	name := req.PathValue("name")
	if name == "" {
		writeErrorResponse(req, w, fmt.Errorf("missing name parameter"), http.StatusBadRequest)
		return
	}

	out := models.MetricName{
		Name:       name,
		IsGraphite: rules.IsGraphiteName(name),
		Display:    rules.DisplayName(name),
	}
	if internal, ok := rules.TranslateGraphiteName(name); ok {
		out.Internal = internal
	}
	if graphite, ok := rules.GetGraphiteName(name); ok {
		out.Graphite = graphite
	}

	tpl, err := r.client.GraphiteURL(req.Context())
	if err != nil {
		slog.Warn("unable to retrieve graphite url", "err", err)
	} else if tpl != "" {
		target := name
		if out.Internal != "" {
			target = out.Internal
		}
		out.Link = feed.GraphiteLink(tpl, target)
	}

	writeJSONResponse(req, w, out)
}

func (r *routes) edit(w http.ResponseWriter, req *http.Request) {
	var cmd editor.Command
	if err := json.NewDecoder(req.Body).Decode(&cmd); err != nil {
		writeErrorResponse(req, w, fmt.Errorf("invalid request body: %w", err), http.StatusBadRequest)
		return
	}

	confirmed := req.Header.Get(ConfirmHeader) == "true"
	var prompt string
	ed := editor.New(r.client, r.phrases(req.Context()), editor.WithConfirm(
		func(_ context.Context, _ editor.Command, p string) (bool, error) {
			prompt = p
			return confirmed, nil
		},
	))

	res, err := ed.Apply(req.Context(), cmd)
	if errors.Is(err, editor.ErrCancelled) {
		writeErrorResponse(req, w, errors.New(prompt), http.StatusPreconditionRequired)
		return
	}
	if err != nil {
		slog.Error("unable to apply edit", "err", err, "kind", cmd.Kind, "action", cmd.Action)
		writeErrorResponse(req, w, errors.New(banshee.Message(err)), statusFor(err))
		return
	}

	writeJSONResponse(req, w, res)
}

// importRules uploads the multipart "file" field to banshee and answers
// with the per-row report.
func (r *routes) importRules(w http.ResponseWriter, req *http.Request) {
	id, err := pathID(req, "project")
	if err != nil {
		writeErrorResponse(req, w, err, http.StatusBadRequest)
		return
	}

	if err := req.ParseMultipartForm(maxImportSize); err != nil {
		writeErrorResponse(req, w, fmt.Errorf("invalid multipart body: %w", err), http.StatusBadRequest)
		return
	}
	file, header, err := req.FormFile("file")
	if err != nil {
		writeErrorResponse(req, w, fmt.Errorf("missing file field: %w", err), http.StatusBadRequest)
		return
	}
	defer file.Close()

	content, err := io.ReadAll(io.LimitReader(file, maxImportSize))
	if err != nil {
		writeErrorResponse(req, w, fmt.Errorf("unable to read file: %w", err), http.StatusBadRequest)
		return
	}

	report, err := r.importer.Import(req.Context(), id, header.Filename, content)
	if err != nil {
		slog.Error("unable to import rules", "err", err, "project", id)
		writeErrorResponse(req, w, errors.New(banshee.Message(err)), statusFor(err))
		return
	}

	writeJSONResponse(req, w, report)
}

func (r *routes) projectDetail(w http.ResponseWriter, req *http.Request) {
	id, err := pathID(req, "id")
	if err != nil {
		writeErrorResponse(req, w, err, http.StatusBadRequest)
		return
	}
	past, err := getQueryParamAsInt64(req, "past", banshee.DefaultEventsPast)
	if err != nil {
		writeErrorResponse(req, w, fmt.Errorf("invalid past parameter: %w", err), http.StatusBadRequest)
		return
	}
	level, err := getQueryParamAsInt64(req, "level", 0)
	if err != nil || level < banshee.RuleLevelLow || level > banshee.RuleLevelHigh {
		writeErrorResponse(req, w, fmt.Errorf("invalid level parameter %q", req.URL.Query().Get("level")), http.StatusBadRequest)
		return
	}

	detail := view.NewProjectDetail(r.client, id)
	if err := detail.Load(req.Context(), banshee.EventQuery{Past: int(past), Level: int(level)}); err != nil {
		slog.Warn("project detail loaded partially", "project", id, "err", err)
	}
	if err := detail.Project.Err(); errors.Is(err, banshee.ErrNotFound) {
		writeErrorResponse(req, w, errors.New(banshee.Message(err)), http.StatusNotFound)
		return
	}

	rulesSection := models.Section[[]view.RuleView]{State: detail.Rules.State()}
	if err := detail.Rules.Err(); err != nil {
		rulesSection.Error = banshee.Message(err)
	} else {
		rulesSection.Data = view.AnnotateRules(detail.Rules.Value(), r.phrases(req.Context()), r.now())
	}

	writeJSONResponse(req, w, models.ProjectDetail{
		ID:       id,
		Project:  models.NewSection(&detail.Project),
		Rules:    rulesSection,
		Users:    models.NewSection(&detail.Users),
		WebHooks: models.NewSection(&detail.WebHooks),
		Events:   models.NewSection(&detail.Events),
	})
}

// candidateUsers lists the users that can still be added to a project.
func (r *routes) candidateUsers(w http.ResponseWriter, req *http.Request) {
	id, err := pathID(req, "id")
	if err != nil {
		writeErrorResponse(req, w, err, http.StatusBadRequest)
		return
	}

	var all, members []banshee.User
	g, ctx := errgroup.WithContext(req.Context())
	g.Go(func() (err error) {
		all, err = r.client.Users(ctx)
		return err
	})
	g.Go(func() (err error) {
		members, err = r.client.ProjectUsers(ctx, id)
		return err
	})
	if err := g.Wait(); err != nil {
		slog.Error("unable to retrieve users", "err", err, "project", id)
		writeErrorResponse(req, w, errors.New(banshee.Message(err)), statusFor(err))
		return
	}

	writeJSONResponse(req, w, view.FilterCandidateUsers(all, members))
}

func (r *routes) configs(w http.ResponseWriter, req *http.Request) {
	if r.cfg == nil {
		writeErrorResponse(req, w, fmt.Errorf("configuration not available"), http.StatusNotFound)
		return
	}
	writeJSONResponse(req, w, r.cfg.GetSanitizedConfig())
}

// statusFor maps err to the status the console answers with. Banshee
// rejections keep their status.
func statusFor(err error) int {
	var apiErr *banshee.APIError
	switch {
	case errors.As(err, &apiErr):
		return apiErr.Code
	case errors.Is(err, banshee.ErrInvalidID),
		errors.Is(err, editor.ErrInvalidPayload),
		errors.Is(err, editor.ErrUnknownKind),
		errors.Is(err, editor.ErrUnknownAction),
		errors.Is(err, feed.ErrInvalidWindow),
		errors.Is(err, feed.ErrInvalidMode),
		errors.Is(err, importer.ErrMalformedFile):
		return http.StatusBadRequest
	case errors.Is(err, editor.ErrCancelled):
		return http.StatusPreconditionRequired
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusBadGateway
}

func writeJSONResponse(req *http.Request, w http.ResponseWriter, response interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		slog.Error("failed to encode JSON response", "err", err)
		writeErrorResponse(req, w, fmt.Errorf("failed to encode response: %w", err), http.StatusInternalServerError)
		return
	}
}

func writeErrorResponse(r *http.Request, w http.ResponseWriter, err error, status int) {
	response := struct {
		Error   string `json:"error"`
		Code    int    `json:"code"`
		TraceID string `json:"traceId,omitempty"`
	}{
		Error:   err.Error(),
		Code:    status,
		TraceID: trace.SpanFromContext(r.Context()).SpanContext().TraceID().String(),
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	err = json.NewEncoder(w).Encode(response)
	if err != nil {
		slog.Error("failed to encode JSON response", "err", err)
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
		return
	}
}
