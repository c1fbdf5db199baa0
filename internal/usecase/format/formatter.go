// Package format renders wiki events as single-line chat messages.
//
// Formatting is pure: it reads the event and the Linker and returns text.
// Wording follows what wiki operators already see in their channels, e.g.
//
//	<link|Alice> has deleted article <link|Foo> Reason: spam
package format

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"wikinotify/internal/domain/entity"
)

// Formatter turns events into message text.
type Formatter struct {
	links entity.Linker
}

// New creates a Formatter that renders links with links.
func New(links entity.Linker) *Formatter {
	return &Formatter{links: links}
}

// Format renders ev. It returns a *entity.MissingFieldError when a field the
// message needs is empty; optional fields are omitted together with their label.
func (f *Formatter) Format(ev entity.Event) (string, error) {
	if err := ev.Validate(); err != nil {
		return "", err
	}

	switch {
	case ev.Saved != nil:
		return f.articleSaved(ev.Saved), nil
	case ev.Created != nil:
		return f.articleCreated(ev.Created), nil
	case ev.Deleted != nil:
		return f.articleDeleted(ev.Deleted), nil
	case ev.Moved != nil:
		return f.articleMoved(ev.Moved), nil
	case ev.Account != nil:
		return f.accountCreated(ev.Account), nil
	case ev.Blocked != nil:
		return f.userBlocked(ev.Blocked), nil
	case ev.Uploaded != nil:
		return f.fileUploaded(ev.Uploaded), nil
	default:
		return "", entity.ErrUnknownKind
	}
}

func (f *Formatter) articleSaved(e *entity.ArticleSaved) string {
	verb := "edited"
	if e.Minor {
		verb = "made minor edit to"
	}
	msg := fmt.Sprintf("%s has %s article %s", f.links.User(e.Actor), verb, f.links.Article(e.Article))
	return withSummary(msg, e.Summary)
}

func (f *Formatter) articleCreated(e *entity.ArticleCreated) string {
	msg := fmt.Sprintf("%s has created article %s", f.links.User(e.Actor), f.links.Article(e.Article))
	return withSummary(msg, e.Summary)
}

func (f *Formatter) articleDeleted(e *entity.ArticleDeleted) string {
	return fmt.Sprintf("%s has deleted article %s Reason: %s",
		f.links.User(e.Actor), f.links.Article(e.Article), e.Reason)
}

func (f *Formatter) articleMoved(e *entity.ArticleMoved) string {
	msg := fmt.Sprintf("%s has moved article %s to %s",
		f.links.User(e.Actor), f.links.Title(e.OldTitle), f.links.Title(e.NewTitle))
	if present(e.Reason) {
		msg += ". Reason: " + e.Reason
	}
	return msg
}

func (f *Formatter) accountCreated(e *entity.AccountCreated) string {
	return "New user account " + f.links.User(e.Account) + " was just created" +
		details(clause{"email", e.Email}, clause{"real name", e.RealName})
}

func (f *Formatter) userBlocked(e *entity.UserBlocked) string {
	var b strings.Builder
	b.WriteString(f.links.User(e.Actor))
	b.WriteString(" has blocked ")
	b.WriteString(f.links.User(e.Target))
	if present(e.Reason) {
		b.WriteString(" with reason '")
		b.WriteString(e.Reason)
		b.WriteString("'.")
	}
	b.WriteString(" Block expiration: ")
	b.WriteString(e.Expiry)
	b.WriteString(". ")
	b.WriteString(f.links.BlockList())
	b.WriteString(".")
	return b.String()
}

func (f *Formatter) fileUploaded(e *entity.FileUploaded) string {
	return fmt.Sprintf("%s has uploaded file %s", f.links.User(e.Actor), f.links.Article(e.File)) +
		details(
			clause{"format", e.MimeType},
			clause{"size", FormatMegabytes(e.SizeBytes) + " MB"},
			clause{"summary", e.Description},
		)
}

// FormatMegabytes renders a byte count in MiB rounded to three decimals,
// without trailing zeros: 1536 -> "0.001", 1048576 -> "1", 2621440 -> "2.5".
func FormatMegabytes(bytes int64) string {
	mb := float64(bytes) / 1024 / 1024
	rounded := math.Round(mb*1000) / 1000
	return strconv.FormatFloat(rounded, 'f', -1, 64)
}

func withSummary(msg, summary string) string {
	if !present(summary) {
		return msg
	}
	return msg + " Summary: " + summary
}

// clause is one "label: value" item of a parenthesised detail list.
type clause struct {
	label, value string
}

// details renders " (a: x, b: y)" from the present clauses, or "" when none is.
func details(clauses ...clause) string {
	parts := make([]string, 0, len(clauses))
	for _, c := range clauses {
		if present(c.value) {
			parts = append(parts, c.label+": "+c.value)
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return " (" + strings.Join(parts, ", ") + ")"
}

func present(s string) bool {
	return strings.TrimSpace(s) != ""
}
