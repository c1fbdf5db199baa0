// Package hook receives wiki events over HTTP and hands them to the router.
//
// The wiki posts one JSON object per event to POST /v1/events:
//
//	{"type": "article_deleted", "actor": "Alice", "title": "Foo", "reason": "spam"}
//
// The endpoint answers 202 as soon as the event is decoded and valid; delivery
// to the chat webhook happens afterwards and its outcome is never reported back.
package hook

import (
	"wikinotify/internal/domain/entity"
)

// EventRequest is the JSON body of POST /v1/events.
// Which fields are read depends on Type.
type EventRequest struct {
	Type string `json:"type" validate:"required,max=32"`

	// Actor performed the action (all kinds but account_created).
	Actor string `json:"actor" validate:"max=255"`

	// Title and Namespace name the page or file.
	Title     string `json:"title" validate:"max=512"`
	Namespace string `json:"namespace" validate:"max=255"`

	Summary string `json:"summary" validate:"max=2048"`
	Minor   bool   `json:"minor"`
	IsNew   bool   `json:"is_new"`
	Reason  string `json:"reason" validate:"max=2048"`

	// article_moved
	NewTitle     string `json:"new_title" validate:"max=512"`
	NewNamespace string `json:"new_namespace" validate:"max=255"`

	// account_created
	Account  string `json:"account" validate:"max=255"`
	Email    string `json:"email" validate:"omitempty,max=255"`
	RealName string `json:"real_name" validate:"max=255"`

	// user_blocked
	Target string `json:"target" validate:"max=255"`
	Expiry string `json:"expiry" validate:"max=255"`

	// file_uploaded
	MimeType    string `json:"mime_type" validate:"max=255"`
	Size        int64  `json:"size" validate:"gte=0"`
	Description string `json:"description" validate:"max=2048"`
}

// EventResponse acknowledges an accepted event.
type EventResponse struct {
	RequestID string `json:"request_id"`
	Kind      string `json:"kind"`
}

// ErrorResponse describes a rejected request.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ToEvent maps the request onto the domain event for kind.
func (r EventRequest) ToEvent(kind entity.Kind) entity.Event {
	actor := entity.UserRef{Name: r.Actor}
	page := entity.NewEntityRef(r.Title, r.Namespace)

	switch kind {
	case entity.KindArticleSaved:
		return entity.NewArticleSaved(entity.ArticleSaved{
			Actor: actor, Article: page, Summary: r.Summary, Minor: r.Minor, IsNew: r.IsNew,
		})
	case entity.KindArticleCreated:
		return entity.NewArticleCreated(entity.ArticleCreated{
			Actor: actor, Article: page, Summary: r.Summary,
		})
	case entity.KindArticleDeleted:
		return entity.NewArticleDeleted(entity.ArticleDeleted{
			Actor: actor, Article: page, Reason: r.Reason,
		})
	case entity.KindArticleMoved:
		return entity.NewArticleMoved(entity.ArticleMoved{
			Actor:    actor,
			OldTitle: page,
			NewTitle: entity.NewEntityRef(r.NewTitle, r.NewNamespace),
			Reason:   r.Reason,
		})
	case entity.KindAccountCreated:
		return entity.NewAccountCreated(entity.AccountCreated{
			Account: entity.UserRef{Name: r.Account}, Email: r.Email, RealName: r.RealName,
		})
	case entity.KindUserBlocked:
		return entity.NewUserBlocked(entity.UserBlocked{
			Actor: actor, Target: entity.UserRef{Name: r.Target}, Reason: r.Reason, Expiry: r.Expiry,
		})
	case entity.KindFileUploaded:
		return entity.NewFileUploaded(entity.FileUploaded{
			Actor:       actor,
			File:        page,
			MimeType:    r.MimeType,
			SizeBytes:   r.Size,
			Description: r.Description,
		})
	default:
		return entity.Event{}
	}
}
