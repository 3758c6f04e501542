package app

import (
	"testing"

	"github.com/stretchr/testify/require"

	"docuchat/internal/model"
	"docuchat/internal/repository"
)

func TestStatsService_OverviewRequiresAdmin(t *testing.T) {
	db := openTestDB(t)
	roleRepo := repository.NewRoleRepository(db)
	svc := NewStatsService(
		repository.NewUserRepository(db),
		repository.NewConversationRepository(db),
		repository.NewMessageRepository(db),
		repository.NewDocumentRepository(db),
		roleRepo,
	)

	require.NoError(t, db.Create(&model.User{Username: "u", Email: "u@example.com", PasswordHash: "x"}).Error)

	_, err := svc.Overview(1)
	require.ErrorIs(t, err, ErrForbidden)

	require.NoError(t, roleRepo.Grant(1, model.RoleAdmin))

	require.NoError(t, db.Create(&model.Conversation{UserID: 1, Title: "t"}).Error)
	require.NoError(t, db.Create(&model.Message{ConversationID: 1, Content: "hi", IsUser: true}).Error)
	require.NoError(t, db.Create(&model.Message{ConversationID: 1, Content: "hello", IsUser: false}).Error)
	require.NoError(t, db.Create(&model.Document{UserID: 1, ConversationID: 1, Name: "d.txt"}).Error)

	stats, err := svc.Overview(1)
	require.NoError(t, err)
	require.EqualValues(t, 1, stats.Users)
	require.EqualValues(t, 1, stats.Conversations)
	require.EqualValues(t, 2, stats.Messages)
	require.EqualValues(t, 1, stats.Documents)
}
