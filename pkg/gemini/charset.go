package gemini

import (
	"mime"
	"strings"

	"golang.org/x/text/encoding/htmlindex"
)

// decodeBody turns a success body into text using the charset named in the
// meta MIME type. Invalid sequences are replaced, never fatal.
func decodeBody(meta string, body []byte) (mimeType, text string) {
	mimeType, params, err := mime.ParseMediaType(meta)
	if err != nil {
		mimeType = strings.TrimSpace(strings.SplitN(meta, ";", 2)[0])
	}
	if mimeType == "" {
		mimeType = "text/gemini"
	}
	charset := strings.ToLower(strings.TrimSpace(params["charset"]))
	if charset != "" && charset != "utf-8" && charset != "utf8" {
		if enc, err := htmlindex.Get(charset); err == nil {
			if decoded, err := enc.NewDecoder().Bytes(body); err == nil {
				return mimeType, strings.ToValidUTF8(string(decoded), "�")
			}
		}
	}
	return mimeType, strings.ToValidUTF8(string(body), "�")
}
