package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvent_Kind(t *testing.T) {
	tests := []struct {
		event Event
		want  Kind
	}{
		{NewArticleSaved(ArticleSaved{}), KindArticleSaved},
		{NewArticleCreated(ArticleCreated{}), KindArticleCreated},
		{NewArticleDeleted(ArticleDeleted{}), KindArticleDeleted},
		{NewArticleMoved(ArticleMoved{}), KindArticleMoved},
		{NewAccountCreated(AccountCreated{}), KindAccountCreated},
		{NewUserBlocked(UserBlocked{}), KindUserBlocked},
		{NewFileUploaded(FileUploaded{}), KindFileUploaded},
		{Event{}, ""},
	}

	for _, tt := range tests {
		t.Run(string(tt.want), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.event.Kind())
		})
	}
}

func TestParseKind(t *testing.T) {
	for _, k := range Kinds() {
		got, err := ParseKind(" " + string(k) + " ")
		require.NoError(t, err)
		assert.Equal(t, k, got)
	}

	_, err := ParseKind("page_protected")
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestNewEntityRef_DerivesNamespace(t *testing.T) {
	ref := NewEntityRef("File:Logo.png", "")
	assert.Equal(t, "File", ref.Namespace)
	assert.True(t, ref.InNamespace("file"))

	main := NewEntityRef("Main Page", "")
	assert.Empty(t, main.Namespace)
	assert.False(t, main.InNamespace(FileNamespace))

	explicit := NewEntityRef("Foo", "Help")
	assert.Equal(t, "Help", explicit.Namespace)
}

func TestEvent_Actor(t *testing.T) {
	ev := NewAccountCreated(AccountCreated{Account: UserRef{Name: "Newbie"}})
	assert.Equal(t, "Newbie", ev.Actor())
	assert.Equal(t, "", Event{}.Actor())
}
