package notifier

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"wikinotify/internal/domain/entity"
)

const formContentType = "application/x-www-form-urlencoded"

// EncodingError reports a payload that would not produce a valid JSON document.
type EncodingError struct {
	Field string
	Err   error
}

func (e *EncodingError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("encode webhook body: %v", e.Err)
	}
	return fmt.Sprintf("encode webhook body: field %s: %v", e.Field, e.Err)
}

func (e *EncodingError) Unwrap() error {
	return e.Err
}

// jsonEscape escapes the characters that would otherwise end a JSON string
// literal early or make it invalid: backslash and every control character.
// Double quotes are not touched: the payload builder already replaced them in
// the text, and a quote left in any field is reported as an EncodingError.
func jsonEscape(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r == '\\':
			b.WriteString(`\\`)
		case r == '\n':
			b.WriteString(`\n`)
		case r == '\r':
			b.WriteString(`\r`)
		case r == '\t':
			b.WriteString(`\t`)
		case r < 0x20:
			fmt.Fprintf(&b, `\u%04x`, r)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// EncodeBody renders the form body understood by Slack-style incoming webhooks:
//
//	payload={"text": "...", "username": "...", "attachments": [ { "color": "..." } ]}
//
// with a "channel" member between username and attachments when p.Channel is set.
// Values are escaped with url.QueryEscape. The layout, including whitespace,
// matches what existing webhook relays already parse.
func EncodeBody(p entity.Payload) (string, error) {
	fields := []struct {
		name, value string
	}{
		{"text", p.Text},
		{"username", p.SenderName},
		{"channel", p.Channel},
	}
	for _, f := range fields {
		if strings.Contains(f.value, `"`) {
			return "", &EncodingError{Field: f.name, Err: fmt.Errorf("unescaped double quote")}
		}
	}

	qe := func(s string) string {
		return url.QueryEscape(jsonEscape(s))
	}

	var b strings.Builder
	b.WriteString(`payload={"text": "`)
	b.WriteString(qe(p.Text))
	b.WriteString(`", "username": "`)
	b.WriteString(qe(p.SenderName))
	b.WriteString(`",`)
	if p.Channel != "" {
		b.WriteString(` "channel": "`)
		b.WriteString(qe(p.Channel))
		b.WriteString(`", `)
	}
	b.WriteString(` "attachments": [ { "color": "`)
	b.WriteString(qe(p.Severity.Color()))
	b.WriteString(`" } ]}`)

	body := b.String()
	if err := checkBody(body); err != nil {
		return "", err
	}
	return body, nil
}

// checkBody decodes the form value the way the receiving end does and
// verifies the result is a JSON document.
func checkBody(body string) error {
	values, err := url.ParseQuery(body)
	if err != nil {
		return &EncodingError{Err: err}
	}
	doc := values.Get("payload")
	if !json.Valid([]byte(doc)) {
		return &EncodingError{Err: fmt.Errorf("payload is not valid JSON: %.120q", doc)}
	}
	return nil
}
