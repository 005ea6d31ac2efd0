package gemini

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
)

var crlf = []byte("\r\n")

// Response is one decoded reply from a Gemini server.
type Response struct {
	Status Status
	// Meta is a URL on redirect, a prompt on input, an error message on failure
	// and a MIME type on success.
	Meta string
	Body []byte
}

// ParseResponse splits a raw reply into status, meta and body.
//
// The first two bytes are the status digits, an optional single space follows,
// and the meta runs until the first CRLF. Everything after the CRLF is the body.
func ParseResponse(buf []byte) (*Response, error) {
	if len(buf) < 4 {
		return nil, fmt.Errorf("%w: %d bytes is too short for a status line", ErrDecode, len(buf))
	}
	d1, d2 := buf[0], buf[1]
	if !isDigit(d1) || !isDigit(d2) {
		return nil, fmt.Errorf("%w: status %q is not two digits", ErrDecode, buf[:2])
	}
	status, err := ParseStatus(int(d1-'0')*10 + int(d2-'0'))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}

	start := 2
	if buf[2] == ' ' {
		start++
	}
	end := bytes.Index(buf[start:], crlf)
	if end < 0 {
		return nil, fmt.Errorf("%w: missing end of status line", ErrDecode)
	}
	end += start

	return &Response{
		Status: status,
		Meta:   strings.ToValidUTF8(string(buf[start:end]), "�"),
		Body:   bytes.Clone(buf[end+len(crlf):]),
	}, nil
}

// Encode writes the response in wire form: "<code> <meta>\r\n<body>".
func (r *Response) Encode() []byte {
	var out bytes.Buffer
	out.Grow(len(r.Meta) + len(r.Body) + 5)
	out.WriteString(strconv.Itoa(int(r.Status)))
	out.WriteByte(' ')
	out.WriteString(r.Meta)
	out.Write(crlf)
	out.Write(r.Body)
	return out.Bytes()
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}
