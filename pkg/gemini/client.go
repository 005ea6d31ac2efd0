package gemini

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Request is one fetch asked for by the front end.
type Request struct {
	Address string
	// Input answers an input-required prompt; it is sent as the request query.
	Input string
}

// Document is the final successful response of a fetch.
type Document struct {
	URL       string
	Host      string
	MIMEType  string
	Body      string
	Redirects int
	TookMs    int64
}

// Client drives the transport and decoder through the redirect loop.
type Client struct {
	cfg       *Config
	transport Transport
	log       *zerolog.Logger
}

func NewClient(cfg *Config, transport Transport, log *zerolog.Logger) *Client {
	cfg = cfg.WithDefaults()
	if transport == nil {
		transport = NewTLSTransport(cfg.Transport)
	}
	return &Client{cfg: cfg, transport: transport, log: log}
}

// Fetch resolves req.Address into a document, following up to MaxRedirects redirects.
// Every failure is returned as a *FetchError.
func (c *Client) Fetch(ctx context.Context, req Request) (*Document, error) {
	target, err := ParseTarget(req.Address, c.cfg.DefaultPort)
	if err != nil {
		return nil, err
	}
	if req.Input != "" {
		target = target.WithQuery(req.Input)
	}

	log := LoggerFromContext(ctx, c.log).With().Str("gemini_url", target.String()).Logger()
	start := time.Now()
	redirects := 0
	for {
		raw, err := c.transport.Exchange(ctx, target.Authority(), target.RequestLine())
		if err != nil {
			return nil, newFetchError(ErrConnectionFailed, target.String(), err)
		}
		resp, err := ParseResponse(raw)
		if err != nil {
			return nil, newFetchError(ErrDecode, target.String(), err)
		}
		log.Debug().
			Str("authority", target.Authority()).
			Str("request", target.RequestLine()).
			Int("status", int(resp.Status)).
			Str("meta", resp.Meta).
			Msg("Gemini response")

		switch resp.Status.Category() {
		case CategorySuccess:
			mimeType, text := decodeBody(resp.Meta, resp.Body)
			return &Document{
				URL:       target.String(),
				Host:      target.Host(),
				MIMEType:  mimeType,
				Body:      text,
				Redirects: redirects,
				TookMs:    time.Since(start).Milliseconds(),
			}, nil
		case CategoryRedirect:
			if redirects >= c.cfg.MaxRedirects {
				return nil, &FetchError{Kind: ErrTooManyRedirects, URL: target.String(), Status: resp.Status, Meta: resp.Meta}
			}
			next, err := target.Resolve(resp.Meta)
			if err != nil {
				return nil, err
			}
			log.Debug().Str("location", next.String()).Int("redirects", redirects+1).Msg("Following redirect")
			target = next
			redirects++
		case CategoryInput:
			kind := ErrInputRequired
			if resp.Status == StatusSensitiveInput {
				kind = ErrUnsupported
			}
			return nil, &FetchError{Kind: kind, URL: target.String(), Status: resp.Status, Meta: resp.Meta}
		default:
			return nil, &FetchError{Kind: ErrUpstream, URL: target.String(), Status: resp.Status, Meta: resp.Meta}
		}
	}
}
