package gemini

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type exchange struct {
	authority string
	request   string
}

// scriptedTransport answers each call with the next reply, repeating the last one.
type scriptedTransport struct {
	replies []string
	err     error
	calls   []exchange
}

func (s *scriptedTransport) Exchange(_ context.Context, authority, requestLine string) ([]byte, error) {
	s.calls = append(s.calls, exchange{authority: authority, request: requestLine})
	if s.err != nil {
		return nil, s.err
	}
	idx := len(s.calls) - 1
	if idx >= len(s.replies) {
		idx = len(s.replies) - 1
	}
	return []byte(s.replies[idx]), nil
}

func newTestClient(transport Transport) *Client {
	return NewClient(nil, transport, nil)
}

func TestFetchSuccess(t *testing.T) {
	transport := &scriptedTransport{replies: []string{"20 text/gemini\r\n# Hello\n=> /next Next\n"}}
	doc, err := newTestClient(transport).Fetch(context.Background(), Request{Address: "example.org/index.gmi"})
	require.NoError(t, err)

	assert.Equal(t, "# Hello\n=> /next Next\n", doc.Body)
	assert.Equal(t, "example.org", doc.Host)
	assert.Equal(t, "text/gemini", doc.MIMEType)
	assert.Equal(t, "gemini://example.org/index.gmi", doc.URL)
	assert.Equal(t, 0, doc.Redirects)
	assert.Equal(t, []exchange{{authority: "example.org:1965", request: "example.org/index.gmi"}}, transport.calls)
}

func TestFetchEmptyQueryDoesNoIO(t *testing.T) {
	transport := &scriptedTransport{replies: []string{"20 text/gemini\r\n"}}
	_, err := newTestClient(transport).Fetch(context.Background(), Request{Address: ""})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrEmptyQuery))
	assert.Empty(t, transport.calls)
	assert.Equal(t, "ERROR: empty search", HumanMessage(err))
}

func TestFetchBadURLDoesNoIO(t *testing.T) {
	transport := &scriptedTransport{replies: []string{"20 text/gemini\r\n"}}
	_, err := newTestClient(transport).Fetch(context.Background(), Request{Address: "example.org/%zz"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrBadURL))
	assert.Empty(t, transport.calls)
}

func TestFetchFollowsRedirects(t *testing.T) {
	transport := &scriptedTransport{replies: []string{
		"30 /moved\r\n",
		"31 gemini://other.net:1970/final.gmi\r\n",
		"20 text/gemini\r\nfinal\n",
	}}
	doc, err := newTestClient(transport).Fetch(context.Background(), Request{Address: "example.org/start"})
	require.NoError(t, err)

	assert.Equal(t, "final\n", doc.Body)
	assert.Equal(t, "other.net:1970", doc.Host)
	assert.Equal(t, 2, doc.Redirects)
	assert.Equal(t, []exchange{
		{authority: "example.org:1965", request: "example.org/start"},
		{authority: "example.org:1965", request: "example.org/moved"},
		{authority: "other.net:1970", request: "other.net/final.gmi"},
	}, transport.calls)
}

func TestFetchRedirectBudget(t *testing.T) {
	t.Run("fifteen redirects are followed", func(t *testing.T) {
		replies := make([]string, 0, DefaultMaxRedirects+1)
		for i := 0; i < DefaultMaxRedirects; i++ {
			replies = append(replies, fmt.Sprintf("30 /hop%d\r\n", i))
		}
		replies = append(replies, "20 text/gemini\r\ndone")
		transport := &scriptedTransport{replies: replies}

		doc, err := newTestClient(transport).Fetch(context.Background(), Request{Address: "example.org"})
		require.NoError(t, err)
		assert.Equal(t, DefaultMaxRedirects, doc.Redirects)
		assert.Len(t, transport.calls, DefaultMaxRedirects+1)
	})

	t.Run("sixteenth redirect fails", func(t *testing.T) {
		transport := &scriptedTransport{replies: []string{"30 /again\r\n"}}

		_, err := newTestClient(transport).Fetch(context.Background(), Request{Address: "example.org"})
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrTooManyRedirects))
		assert.Len(t, transport.calls, DefaultMaxRedirects+1)
	})

	t.Run("configured budget", func(t *testing.T) {
		transport := &scriptedTransport{replies: []string{"31 /again\r\n"}}
		client := NewClient(&Config{MaxRedirects: 2}, transport, nil)

		_, err := client.Fetch(context.Background(), Request{Address: "example.org"})
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrTooManyRedirects))
		assert.Len(t, transport.calls, 3)
	})
}

func TestFetchInvalidRedirect(t *testing.T) {
	for _, location := range []string{"", "https://example.org/", "gemini://exa mple.org/"} {
		t.Run(location, func(t *testing.T) {
			transport := &scriptedTransport{replies: []string{"30 " + location + "\r\n"}}
			_, err := newTestClient(transport).Fetch(context.Background(), Request{Address: "example.org"})
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidRedirect), "got %v", err)
			assert.Len(t, transport.calls, 1)
			assert.Equal(t, "ERROR: Invalid redirect", HumanMessage(err))
		})
	}
}

func TestFetchInput(t *testing.T) {
	t.Run("prompt is surfaced", func(t *testing.T) {
		transport := &scriptedTransport{replies: []string{"10 What is your name?\r\n"}}
		_, err := newTestClient(transport).Fetch(context.Background(), Request{Address: "example.org/hello"})
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInputRequired))

		var fe *FetchError
		require.True(t, errors.As(err, &fe))
		assert.Equal(t, "What is your name?", fe.Meta)
		assert.Equal(t, "gemini://example.org/hello", fe.URL)
		assert.Len(t, transport.calls, 1, "input requests must not be re-issued")
	})

	t.Run("answer is sent as query", func(t *testing.T) {
		transport := &scriptedTransport{replies: []string{"20 text/gemini\r\nHi Ada"}}
		doc, err := newTestClient(transport).Fetch(context.Background(), Request{Address: "example.org/hello", Input: "Ada Lovelace"})
		require.NoError(t, err)
		assert.Equal(t, "Hi Ada", doc.Body)
		assert.Equal(t, "example.org/hello?Ada%20Lovelace", transport.calls[0].request)
	})

	t.Run("sensitive input is unsupported", func(t *testing.T) {
		transport := &scriptedTransport{replies: []string{"11 Password\r\n"}}
		_, err := newTestClient(transport).Fetch(context.Background(), Request{Address: "example.org/login"})
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrUnsupported))
		assert.Len(t, transport.calls, 1)
	})
}

func TestFetchTerminalStatuses(t *testing.T) {
	tests := []struct {
		reply string
		label string
	}{
		{reply: "40 try later\r\n", label: "temporary failure"},
		{reply: "44 10\r\n", label: "slow down"},
		{reply: "51 Not here\r\n", label: "not found"},
		{reply: "59 nope\r\n", label: "bad request"},
		{reply: "60 cert please\r\n", label: "client certificate required"},
		{reply: "62 bad cert\r\n", label: "certificate not valid"},
	}

	for _, tc := range tests {
		t.Run(tc.label, func(t *testing.T) {
			transport := &scriptedTransport{replies: []string{tc.reply}}
			_, err := newTestClient(transport).Fetch(context.Background(), Request{Address: "example.org"})
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrUpstream))
			assert.Equal(t, tc.label, HumanMessage(err))
			assert.Len(t, transport.calls, 1, "terminal statuses are not retried")
		})
	}
}

func TestFetchConnectionFailure(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	transport := &scriptedTransport{err: cause}
	_, err := newTestClient(transport).Fetch(context.Background(), Request{Address: "example.org"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrConnectionFailed))
	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, "ERROR: connection fail", HumanMessage(err))
	assert.Len(t, transport.calls, 1)
}

func TestFetchMalformedResponse(t *testing.T) {
	for _, reply := range []string{"", "20", "20 no terminator", "77 odd\r\n", "ab\r\n"} {
		t.Run(reply, func(t *testing.T) {
			transport := &scriptedTransport{replies: []string{reply}}
			_, err := newTestClient(transport).Fetch(context.Background(), Request{Address: "example.org"})
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrDecode), "got %v", err)
		})
	}
}

func TestFetchLossyUTF8(t *testing.T) {
	transport := &scriptedTransport{replies: []string{"20 text/gemini\r\nok \xff\xfe end"}}
	doc, err := newTestClient(transport).Fetch(context.Background(), Request{Address: "example.org"})
	require.NoError(t, err)
	assert.Equal(t, "ok � end", doc.Body)
}

func TestFetchCharset(t *testing.T) {
	transport := &scriptedTransport{replies: []string{"20 text/gemini; charset=iso-8859-1\r\ncaf\xe9"}}
	doc, err := newTestClient(transport).Fetch(context.Background(), Request{Address: "example.org"})
	require.NoError(t, err)
	assert.Equal(t, "café", doc.Body)
	assert.Equal(t, "text/gemini", doc.MIMEType)
}
