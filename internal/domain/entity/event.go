package entity

import (
	"fmt"
	"strings"
)

// Kind identifies one of the wiki events the notifier reports.
type Kind string

const (
	KindArticleSaved   Kind = "article_saved"
	KindArticleCreated Kind = "article_created"
	KindArticleDeleted Kind = "article_deleted"
	KindArticleMoved   Kind = "article_moved"
	KindAccountCreated Kind = "account_created"
	KindUserBlocked    Kind = "user_blocked"
	KindFileUploaded   Kind = "file_uploaded"
)

// Kinds lists every supported kind in a stable order.
func Kinds() []Kind {
	return []Kind{
		KindArticleSaved,
		KindArticleCreated,
		KindArticleDeleted,
		KindArticleMoved,
		KindAccountCreated,
		KindUserBlocked,
		KindFileUploaded,
	}
}

// ParseKind converts a wire name into a Kind.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Kinds() {
		if k == known {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// FileNamespace is the namespace holding uploaded media description pages.
const FileNamespace = "File"

// UserRef is a read-only reference to a wiki account or IP address.
type UserRef struct {
	Name string
}

// EntityRef is a read-only reference to a wiki page.
type EntityRef struct {
	// FullName is the namespace-qualified title, e.g. "File:Logo.png".
	FullName string
	// Namespace is the canonical namespace name, empty for the main namespace.
	Namespace string
}

// NewEntityRef builds a reference and derives the namespace from the
// "Namespace:Title" prefix when it is not given explicitly.
func NewEntityRef(fullName, namespace string) EntityRef {
	fullName = strings.TrimSpace(fullName)
	namespace = strings.TrimSpace(namespace)
	if namespace == "" {
		if ns, _, ok := strings.Cut(fullName, ":"); ok {
			namespace = ns
		}
	}
	return EntityRef{FullName: fullName, Namespace: namespace}
}

// InNamespace reports whether the page lives in the given namespace (case-insensitive).
func (r EntityRef) InNamespace(ns string) bool {
	return strings.EqualFold(r.Namespace, ns)
}

// ArticleSaved is raised after an existing page was edited.
type ArticleSaved struct {
	Actor   UserRef
	Article EntityRef
	Summary string
	Minor   bool
	// IsNew is set when the save actually created the page.
	IsNew bool
}

// ArticleCreated is raised after a new page was inserted.
type ArticleCreated struct {
	Actor   UserRef
	Article EntityRef
	Summary string
}

// ArticleDeleted is raised after a page was removed.
type ArticleDeleted struct {
	Actor   UserRef
	Article EntityRef
	Reason  string
}

// ArticleMoved is raised after a page was renamed.
type ArticleMoved struct {
	Actor    UserRef
	OldTitle EntityRef
	NewTitle EntityRef
	Reason   string
}

// AccountCreated is raised after a user account was registered.
type AccountCreated struct {
	Account  UserRef
	Email    string
	RealName string
}

// UserBlocked is raised after a user or IP address was blocked.
type UserBlocked struct {
	Actor  UserRef
	Target UserRef
	Reason string
	// Expiry is the host's rendering of the block expiry ("infinity", a timestamp, ...).
	Expiry string
}

// FileUploaded is raised after a file upload completed.
type FileUploaded struct {
	Actor       UserRef
	File        EntityRef
	MimeType    string
	SizeBytes   int64
	Description string
}

// Event is a tagged union over the supported wiki events.
// Exactly one variant pointer is set; use the New* constructors.
type Event struct {
	Saved    *ArticleSaved
	Created  *ArticleCreated
	Deleted  *ArticleDeleted
	Moved    *ArticleMoved
	Account  *AccountCreated
	Blocked  *UserBlocked
	Uploaded *FileUploaded
}

func NewArticleSaved(v ArticleSaved) Event     { return Event{Saved: &v} }
func NewArticleCreated(v ArticleCreated) Event { return Event{Created: &v} }
func NewArticleDeleted(v ArticleDeleted) Event { return Event{Deleted: &v} }
func NewArticleMoved(v ArticleMoved) Event     { return Event{Moved: &v} }
func NewAccountCreated(v AccountCreated) Event { return Event{Account: &v} }
func NewUserBlocked(v UserBlocked) Event       { return Event{Blocked: &v} }
func NewFileUploaded(v FileUploaded) Event     { return Event{Uploaded: &v} }

// Kind returns the kind of the populated variant, or "" for an empty event.
func (e Event) Kind() Kind {
	switch {
	case e.Saved != nil:
		return KindArticleSaved
	case e.Created != nil:
		return KindArticleCreated
	case e.Deleted != nil:
		return KindArticleDeleted
	case e.Moved != nil:
		return KindArticleMoved
	case e.Account != nil:
		return KindAccountCreated
	case e.Blocked != nil:
		return KindUserBlocked
	case e.Uploaded != nil:
		return KindFileUploaded
	default:
		return ""
	}
}

// Actor returns the user responsible for the event, used for log fields.
func (e Event) Actor() string {
	switch {
	case e.Saved != nil:
		return e.Saved.Actor.Name
	case e.Created != nil:
		return e.Created.Actor.Name
	case e.Deleted != nil:
		return e.Deleted.Actor.Name
	case e.Moved != nil:
		return e.Moved.Actor.Name
	case e.Account != nil:
		return e.Account.Account.Name
	case e.Blocked != nil:
		return e.Blocked.Actor.Name
	case e.Uploaded != nil:
		return e.Uploaded.Actor.Name
	default:
		return ""
	}
}
