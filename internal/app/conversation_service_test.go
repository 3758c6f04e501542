package app

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"docuchat/internal/model"
	"docuchat/internal/repository"
)

type recordingBlobRemover struct {
	mu      sync.Mutex
	removed []string
}

func (r *recordingBlobRemover) Remove(path string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.removed = append(r.removed, path)
	return nil
}

func newConversationService(t *testing.T) (*ConversationService, *gorm.DB, *recordingBlobRemover) {
	t.Helper()
	db := openTestDB(t)
	remover := &recordingBlobRemover{}
	svc := NewConversationService(
		repository.NewConversationRepository(db),
		repository.NewMessageRepository(db),
		repository.NewDocumentRepository(db),
		nil,
		remover,
		nil,
	)
	return svc, db, remover
}

func TestConversationService_DeleteCascades(t *testing.T) {
	svc, db, remover := newConversationService(t)

	require.NoError(t, db.Create(&model.Conversation{UserID: 1, Title: "t"}).Error)
	require.NoError(t, db.Create(&model.Message{ConversationID: 1, Content: "hi", IsUser: true}).Error)
	require.NoError(t, db.Create(&model.Document{
		UserID: 1, ConversationID: 1, Name: "d.txt", StoragePath: "1/1/d.txt",
	}).Error)

	require.NoError(t, svc.Delete(1, 1))

	for _, target := range []interface{}{&model.Conversation{}, &model.Message{}, &model.Document{}} {
		var count int64
		require.NoError(t, db.Model(target).Count(&count).Error)
		require.Zero(t, count)
	}
	require.Equal(t, []string{"1/1/d.txt"}, remover.removed)
}

func TestConversationService_DeleteRejectsForeignConversation(t *testing.T) {
	svc, db, _ := newConversationService(t)

	require.NoError(t, db.Create(&model.Conversation{UserID: 2, Title: "not yours"}).Error)

	err := svc.Delete(1, 1)
	require.ErrorIs(t, err, ErrConversationNotFound)

	var count int64
	require.NoError(t, db.Model(&model.Conversation{}).Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestConversationService_ListOrdersByRecency(t *testing.T) {
	svc, db, _ := newConversationService(t)

	require.NoError(t, db.Create(&model.Conversation{UserID: 1, Title: "old"}).Error)
	require.NoError(t, db.Create(&model.Conversation{UserID: 1, Title: "new"}).Error)
	require.NoError(t, db.Create(&model.Conversation{UserID: 2, Title: "other user"}).Error)

	require.NoError(t, repository.NewConversationRepository(db).TouchUpdatedAt(2))

	conversations, err := svc.List(1)
	require.NoError(t, err)
	require.Len(t, conversations, 2)
	require.Equal(t, "new", conversations[0].Title)
	require.Equal(t, "old", conversations[1].Title)
}
