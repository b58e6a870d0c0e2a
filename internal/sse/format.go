package sse

import "strings"

// FormatMessage frames an SSE message. An empty id is omitted.
// Multi-line data is properly formatted with "data: " prefix on each line
func FormatMessage(eventName, id, data string) []byte {
	var b strings.Builder
	b.WriteString("event: ")
	b.WriteString(eventName)
	b.WriteByte('\n')
	if id != "" {
		b.WriteString("id: ")
		b.WriteString(id)
		b.WriteByte('\n')
	}
	for _, line := range strings.Split(strings.ReplaceAll(data, "\r\n", "\n"), "\n") {
		b.WriteString("data: ")
		b.WriteString(line)
		b.WriteByte('\n')
	}
	b.WriteByte('\n')
	return []byte(b.String())
}

// Message is a parsed SSE message
type Message struct {
	Event string
	ID    string
	Data  string
}

// Parser reassembles messages from a stream one line at a time
type Parser struct {
	current Message
	data    []string
}

// Feed consumes one line (without its newline). It returns a message when a
// blank line completes one. Comment lines are ignored.
func (p *Parser) Feed(line string) (Message, bool) {
	line = strings.TrimSuffix(line, "\r")
	if line == "" {
		if p.current.Event == "" && len(p.data) == 0 {
			return Message{}, false
		}
		msg := p.current
		msg.Data = strings.Join(p.data, "\n")
		if msg.Event == "" {
			msg.Event = "message"
		}
		p.current = Message{}
		p.data = nil
		return msg, true
	}
	if strings.HasPrefix(line, ":") {
		return Message{}, false
	}

	field, value, _ := strings.Cut(line, ":")
	value = strings.TrimPrefix(value, " ")
	switch field {
	case "event":
		p.current.Event = value
	case "id":
		p.current.ID = value
	case "data":
		p.data = append(p.data, value)
	}
	return Message{}, false
}
