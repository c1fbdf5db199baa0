package entity

import (
	"fmt"
	"net/url"
	"strings"
)

// maxURLLength defines the maximum allowed length for URLs.
const maxURLLength = 2048

// ValidateEndpointURL validates the format of a webhook endpoint URL.
// It checks that the URL is well-formed, uses HTTP/HTTPS scheme, and has a host.
// Private addresses are allowed: webhook relays commonly live on internal networks.
func ValidateEndpointURL(rawURL string) error {
	if rawURL == "" {
		return &ValidationError{Field: "url", Message: "URL is required"}
	}

	if len(rawURL) > maxURLLength {
		return &ValidationError{
			Field:   "url",
			Message: fmt.Sprintf("url must not exceed %d characters", maxURLLength),
		}
	}

	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("parse URL: %w", err)
	}

	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return &ValidationError{Field: "url", Message: "URL must use http or https scheme"}
	}

	if parsedURL.Host == "" {
		return &ValidationError{Field: "url", Message: "URL must have a valid host"}
	}

	return nil
}

// Validate checks that every field needed to render the event is present.
// It returns a *MissingFieldError naming the first absent field.
func (e Event) Validate() error {
	kind := e.Kind()
	missing := func(field string) error {
		return &MissingFieldError{Kind: kind, Field: field}
	}
	blank := func(s string) bool { return strings.TrimSpace(s) == "" }

	switch {
	case e.Saved != nil:
		if blank(e.Saved.Actor.Name) {
			return missing("actor")
		}
		if blank(e.Saved.Article.FullName) {
			return missing("article")
		}
	case e.Created != nil:
		if blank(e.Created.Actor.Name) {
			return missing("actor")
		}
		if blank(e.Created.Article.FullName) {
			return missing("article")
		}
	case e.Deleted != nil:
		if blank(e.Deleted.Actor.Name) {
			return missing("actor")
		}
		if blank(e.Deleted.Article.FullName) {
			return missing("article")
		}
		if blank(e.Deleted.Reason) {
			return missing("reason")
		}
	case e.Moved != nil:
		if blank(e.Moved.Actor.Name) {
			return missing("actor")
		}
		if blank(e.Moved.OldTitle.FullName) {
			return missing("old_title")
		}
		if blank(e.Moved.NewTitle.FullName) {
			return missing("new_title")
		}
	case e.Account != nil:
		if blank(e.Account.Account.Name) {
			return missing("account")
		}
	case e.Blocked != nil:
		if blank(e.Blocked.Actor.Name) {
			return missing("actor")
		}
		if blank(e.Blocked.Target.Name) {
			return missing("target")
		}
		if blank(e.Blocked.Expiry) {
			return missing("expiry")
		}
	case e.Uploaded != nil:
		if blank(e.Uploaded.Actor.Name) {
			return missing("actor")
		}
		if blank(e.Uploaded.File.FullName) {
			return missing("file")
		}
		if e.Uploaded.SizeBytes < 0 {
			return &ValidationError{Field: "size", Message: "size must not be negative"}
		}
	default:
		return fmt.Errorf("%w: empty event", ErrUnknownKind)
	}
	return nil
}
