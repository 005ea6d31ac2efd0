// Package gemtext converts gemtext documents into HTML fragments whose links
// point back through the gateway.
package gemtext

import (
	"html"
	"strconv"
	"strings"
)

// Mode is the line type the renderer is currently in.
type Mode int

const (
	ModeText Mode = iota
	ModeHeading
	ModeLinkLine
	ModeQuoteLine
	ModeListItem
	ModePreformatted
)

func (m Mode) String() string {
	switch m {
	case ModeText:
		return "text"
	case ModeHeading:
		return "heading"
	case ModeLinkLine:
		return "link"
	case ModeQuoteLine:
		return "quote"
	case ModeListItem:
		return "list"
	case ModePreformatted:
		return "preformatted"
	default:
		return "unknown"
	}
}

const (
	preformatFence  = "```"
	maxHeadingLevel = 6
)

// Renderer holds the per-document settings. It carries no line state; the
// mode is passed into and returned from Line.
type Renderer struct {
	// OriginHost is the host relative links are resolved against.
	OriginHost string
	// EscapePreformatted escapes preformatted lines instead of emitting them raw.
	EscapePreformatted bool
}

// Render converts a whole document using the default settings.
func Render(document, originHost string) string {
	r := Renderer{OriginHost: originHost}
	return r.Render(document)
}

func (r Renderer) Render(document string) string {
	var out strings.Builder
	out.Grow(len(document) + len(document)/4)
	mode := ModeText
	for _, line := range splitLines(document) {
		var fragment string
		mode, fragment = r.Line(mode, line)
		out.WriteString(fragment)
	}
	out.WriteString(r.Finish(mode))
	return out.String()
}

// Line renders one physical line given the mode left by the previous line and
// returns the next mode together with the HTML it produced.
func (r Renderer) Line(mode Mode, line string) (Mode, string) {
	if mode == ModePreformatted {
		if strings.HasPrefix(line, preformatFence) {
			return ModeText, "</pre>"
		}
		if r.EscapePreformatted {
			line = html.EscapeString(line)
		}
		return ModePreformatted, line + "\n"
	}

	if strings.HasPrefix(line, preformatFence) {
		return ModePreformatted, closeList(mode) + "<pre>"
	}

	switch {
	case strings.HasPrefix(line, "#"):
		return ModeHeading, closeList(mode) + renderHeading(line)
	case strings.HasPrefix(line, "=> "):
		return ModeLinkLine, closeList(mode) + renderLink(line[2:], r.OriginHost)
	case strings.HasPrefix(line, "* "):
		var prefix string
		if mode != ModeListItem {
			prefix = "<ul>"
		}
		return ModeListItem, prefix + "<li>" + html.EscapeString(line[2:]) + "</li>"
	case strings.HasPrefix(line, "> "):
		return ModeQuoteLine, closeList(mode) + "<blockquote>" + html.EscapeString(line[2:]) + "</blockquote>"
	default:
		return ModeText, closeList(mode) + "<p>" + html.EscapeString(line) + "</p>"
	}
}

// Finish closes whatever block is still open at the end of the document.
func (r Renderer) Finish(mode Mode) string {
	switch mode {
	case ModeListItem:
		return "</ul>"
	case ModePreformatted:
		return "</pre>"
	default:
		return ""
	}
}

func closeList(mode Mode) string {
	if mode == ModeListItem {
		return "</ul>"
	}
	return ""
}

// renderHeading counts up to six leading '#'; any beyond that are absorbed.
// A heading without text produces nothing.
func renderHeading(line string) string {
	level := 0
	i := 0
	for i < len(line) && line[i] == '#' {
		if level < maxHeadingLevel {
			level++
		}
		i++
	}
	text := strings.TrimLeft(line[i:], " \t")
	if text == "" {
		return ""
	}
	tag := "h" + strconv.Itoa(level)
	return "<" + tag + ">" + html.EscapeString(text) + "</" + tag + ">"
}

// splitLines splits on '\n', drops a trailing '\r' from each line and ignores
// the empty line after a final newline.
func splitLines(document string) []string {
	if document == "" {
		return nil
	}
	lines := strings.Split(document, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}
