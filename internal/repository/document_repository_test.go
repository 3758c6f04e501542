package repository

import (
	"testing"
	"time"

	gormsqlite "github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"docuchat/internal/model"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(gormsqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&model.Conversation{},
		&model.Message{},
		&model.Document{},
	))
	return db
}

func TestDocumentRepository_GetByConversationID_AbsenceIsNotAnError(t *testing.T) {
	repo := NewDocumentRepository(openTestDB(t))

	doc, err := repo.GetByConversationID(99)
	require.NoError(t, err)
	require.Nil(t, doc)
}

func TestDocumentRepository_GetByConversationID_OldestWins(t *testing.T) {
	db := openTestDB(t)
	repo := NewDocumentRepository(db)

	base := time.Now().Add(-time.Hour)
	require.NoError(t, db.Create(&model.Document{
		UserID: 1, ConversationID: 5, Name: "second.pdf", CreatedAt: base.Add(time.Minute),
	}).Error)
	require.NoError(t, db.Create(&model.Document{
		UserID: 1, ConversationID: 5, Name: "first.pdf", CreatedAt: base,
	}).Error)

	doc, err := repo.GetByConversationID(5)
	require.NoError(t, err)
	require.NotNil(t, doc)
	require.Equal(t, "first.pdf", doc.Name)
}

func TestMessageRepository_ListByConversationID_OrdersOldestFirst(t *testing.T) {
	db := openTestDB(t)
	repo := NewMessageRepository(db)

	base := time.Now().Add(-time.Hour)
	require.NoError(t, db.Create(&model.Message{
		ConversationID: 1, Content: "reply", IsUser: false, CreatedAt: base.Add(time.Second),
	}).Error)
	require.NoError(t, db.Create(&model.Message{
		ConversationID: 1, Content: "question", IsUser: true, CreatedAt: base,
	}).Error)
	require.NoError(t, db.Create(&model.Message{
		ConversationID: 2, Content: "other conversation", IsUser: true, CreatedAt: base,
	}).Error)

	messages, err := repo.ListByConversationID(1, 0)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	require.Equal(t, "question", messages[0].Content)
	require.Equal(t, "reply", messages[1].Content)
}

func TestMessageRepository_ListByConversationID_HonorsLimit(t *testing.T) {
	db := openTestDB(t)
	repo := NewMessageRepository(db)

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		require.NoError(t, db.Create(&model.Message{
			ConversationID: 1, Content: "m", IsUser: true, CreatedAt: base.Add(time.Duration(i) * time.Second),
		}).Error)
	}

	messages, err := repo.ListByConversationID(1, 3)
	require.NoError(t, err)
	require.Len(t, messages, 3)
}
