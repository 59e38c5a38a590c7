package parse

import (
	"regexp"
	"strings"
	"time"
)

// headerRe matches the first line of a message in both export flavours:
//
//	[01/02/2023, 10:00:00] Alice: Hello
//	01/02/2023, 10:00 - Alice: Hello
var headerRe = regexp.MustCompile(
	`^\x{200E}?\[?(\d{1,4}[/.\-]\d{1,2}[/.\-]\d{1,4}),?\s*` +
		`(\d{1,2}:\d{2}(?::\d{2})?(?:[\s\x{202F}\x{00A0}]*[AaPp]\.?[Mm]\.?)?)` +
		`\]?\s*(?:[-\x{2013}]\s*)?([^:]+?):\s?(.*)$`)

// Parser reads WhatsApp chat exports. The zero value interprets timestamps
// in time.Local and falls back to time.Now.
type Parser struct {
	Location *time.Location
	Now      func() time.Time
}

func (p *Parser) location() *time.Location {
	if p.Location != nil {
		return p.Location
	}
	return time.Local
}

func (p *Parser) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

// Parse splits a transcript into messages using a zero Parser.
func Parse(text string) []Message {
	var p Parser
	return p.Parse(text).Messages
}

// Parse splits a transcript into messages. Lines that do not start a
// message are appended to the previous one; blank lines are dropped.
func (p *Parser) Parse(text string) Result {
	var result Result
	var cur *Message

	flush := func() {
		if cur != nil {
			result.Messages = append(result.Messages, *cur)
			cur = nil
		}
	}

	// No per-line length limit.
	body := strings.TrimSuffix(text, "\n")
	if body == "" {
		return result
	}
	for _, line := range strings.Split(body, "\n") {
		result.Lines++
		line = strings.TrimSuffix(line, "\r")

		if m := headerRe.FindStringSubmatch(line); m != nil {
			flush()
			ts, ok := p.Resolve(m[1], m[2])
			if !ok {
				result.Fallbacks++
			}
			cur = &Message{
				Timestamp: ts,
				Author:    strings.TrimSpace(m[3]),
				Text:      strings.TrimSpace(m[4]),
				Line:      result.Lines,
			}
			continue
		}

		if cur == nil || strings.TrimSpace(line) == "" {
			continue
		}
		cur.Text += "\n" + line
	}
	flush()

	return result
}
