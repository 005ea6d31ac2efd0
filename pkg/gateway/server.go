// Package gateway is the HTTP front end: it turns a browser query into a
// Gemini fetch and embeds the rendered document in the page template.
package gateway

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
	"golang.org/x/sync/errgroup"

	"github.com/beeper/gemini-gateway/pkg/gemini"
	"github.com/beeper/gemini-gateway/pkg/gemtext"
)

//go:embed static
var staticFS embed.FS

var pageTemplate = template.Must(template.ParseFS(staticFS, "static/index.html"))

const requestIDHeader = "X-Request-ID"

// Fetcher retrieves a Gemini document. *gemini.Client implements it.
type Fetcher interface {
	Fetch(ctx context.Context, req gemini.Request) (*gemini.Document, error)
}

// Server serves the gateway page, its assets and metrics.
type Server struct {
	cfg      *Config
	fetcher  Fetcher
	log      zerolog.Logger
	registry *prometheus.Registry
	metrics  *metrics
}

func NewServer(cfg *Config, fetcher Fetcher, log zerolog.Logger) *Server {
	cfg = cfg.WithDefaults()
	if fetcher == nil {
		fetcher = gemini.NewClient(&cfg.Gemini, nil, &log)
	}
	registry := prometheus.NewRegistry()
	return &Server{
		cfg:      cfg,
		fetcher:  fetcher,
		log:      log,
		registry: registry,
		metrics:  newMetrics(registry),
	}
}

// Handler returns the full middleware-wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	assets, err := fs.Sub(staticFS, "static/assets")
	if err != nil {
		panic(err)
	}
	mux.Handle("GET /assets/", http.StripPrefix("/assets/", http.FileServerFS(assets)))
	if s.cfg.Metrics.Enabled {
		mux.Handle("GET "+s.cfg.Metrics.Path, promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	}

	var handler http.Handler = mux
	handler = hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		hlog.FromRequest(r).Debug().
			Str("method", r.Method).
			Stringer("url", r.URL).
			Int("status", status).
			Int("size", size).
			Dur("duration", duration).
			Msg("HTTP request")
	})(handler)
	handler = requestIDHandler(handler)
	handler = hlog.NewHandler(s.log)(handler)
	return handler
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.log.Info().Str("listen", s.cfg.Listen).Msg("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.log.Info().Msg("Shutting down HTTP server")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// requestIDHandler reuses a well-formed incoming X-Request-ID or generates one,
// and adds it to the request logger.
func requestIDHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get(requestIDHeader)
		if !validRequestID(reqID) {
			reqID = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, reqID)
		log := zerolog.Ctx(r.Context()).With().Str("request_id", reqID).Logger()
		next.ServeHTTP(w, r.WithContext(log.WithContext(r.Context())))
	})
}

const maxRequestIDLength = 64

// validRequestID accepts short IDs made of letters, digits, '-', '_' and '.'.
func validRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLength {
		return false
	}
	for _, c := range id {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case c == '-', c == '_', c == '.':
		default:
			return false
		}
	}
	return true
}

type prompt struct {
	Text string
	URL  string
}

type pageData struct {
	Title   string
	Search  string
	Content template.HTML
	Error   string
	Prompt  *prompt
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	data := pageData{Search: query.Get("search")}
	if query.Has("search") {
		s.lookup(r.Context(), &data, gemini.Request{
			Address: data.Search,
			Input:   query.Get("input"),
		})
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pageTemplate.Execute(w, &data); err != nil {
		zerolog.Ctx(r.Context()).Err(err).Msg("Failed to render page template")
	}
}

// lookup fetches req and fills the page with either the rendered document, an
// input prompt, or the human-readable error.
func (s *Server) lookup(ctx context.Context, data *pageData, req gemini.Request) {
	log := zerolog.Ctx(ctx)
	ctx, cancel := context.WithTimeout(ctx, s.cfg.requestTimeout())
	defer cancel()

	start := time.Now()
	doc, err := s.fetcher.Fetch(ctx, req)
	s.metrics.duration.Observe(time.Since(start).Seconds())
	s.metrics.fetches.WithLabelValues(outcome(err)).Inc()
	if err != nil {
		var fe *gemini.FetchError
		if errors.As(err, &fe) && errors.Is(err, gemini.ErrInputRequired) {
			data.Prompt = &prompt{Text: gemini.HumanMessage(err), URL: fe.URL}
			return
		}
		log.Warn().Err(err).Str("search", req.Address).Msg("Gemini fetch failed")
		data.Error = gemini.HumanMessage(err)
		return
	}
	s.metrics.redirects.Add(float64(doc.Redirects))

	renderer := gemtext.Renderer{OriginHost: doc.Host, EscapePreformatted: s.cfg.EscapePreformatted}
	rendered := renderer.Render(doc.Body)
	data.Content = template.HTML(rendered)
	data.Title = pageTitle(rendered)
	log.Debug().
		Str("gemini_url", doc.URL).
		Int("redirects", doc.Redirects).
		Int64("took_ms", doc.TookMs).
		Msg("Rendered Gemini document")
}

// pageTitle returns the text of the first heading in a rendered document.
func pageTitle(rendered string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rendered))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(doc.Find("h1, h2, h3, h4, h5, h6").First().Text())
}
