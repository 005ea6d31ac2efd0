package gemini

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"time"
)

// Transport performs one request/response exchange with a Gemini server.
type Transport interface {
	// Exchange dials authority, sends "gemini://" + requestLine + "\r\n" and
	// returns everything the server sent until it closed the connection.
	Exchange(ctx context.Context, authority, requestLine string) ([]byte, error)
}

// TLSTransport is the production Transport: TCP, TLS, one request, read until close.
type TLSTransport struct {
	cfg TransportConfig
}

func NewTLSTransport(cfg TransportConfig) *TLSTransport {
	return &TLSTransport{cfg: cfg.withDefaults()}
}

func (t *TLSTransport) tlsConfig(serverName string) *tls.Config {
	return &tls.Config{
		ServerName: serverName,
		MinVersion: parseTLSVersion(t.cfg.MinTLSVersion),
		// Self-signed capsules must be reachable, so verification is off unless
		// the operator turns it back on.
		InsecureSkipVerify: t.cfg.insecure(),
	}
}

func (t *TLSTransport) Exchange(ctx context.Context, authority, requestLine string) ([]byte, error) {
	serverName, _, err := net.SplitHostPort(authority)
	if err != nil {
		return nil, fmt.Errorf("split authority %q: %w", authority, err)
	}
	dialer := &tls.Dialer{
		NetDialer: &net.Dialer{Timeout: t.cfg.dialTimeout()},
		Config:    t.tlsConfig(serverName),
	}
	conn, err := dialer.DialContext(ctx, "tcp", authority)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", authority, err)
	}
	defer conn.Close()
	stop := context.AfterFunc(ctx, func() {
		_ = conn.Close()
	})
	defer stop()

	deadline := time.Now().Add(t.cfg.readTimeout())
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}
	if err = conn.SetDeadline(deadline); err != nil {
		return nil, fmt.Errorf("set deadline: %w", err)
	}

	if _, err = io.WriteString(conn, schemePrefix+requestLine+"\r\n"); err != nil {
		return nil, wrapIOError(ctx, "write request", err)
	}

	limit := t.cfg.MaxResponseBytes
	body, err := io.ReadAll(io.LimitReader(conn, limit+1))
	if err != nil {
		return nil, wrapIOError(ctx, "read response", err)
	}
	if int64(len(body)) > limit {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrResponseTooLarge, limit)
	}
	return body, nil
}

func wrapIOError(ctx context.Context, action string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%s: %w", action, ctxErr)
	}
	return fmt.Errorf("%s: %w", action, err)
}
