package app

import (
	"docuchat/internal/model"
	"docuchat/internal/repository"
)

// StatsService serves the admin dashboard: aggregate usage counts across
// all users. Callers without the admin role are rejected.
type StatsService struct {
	userRepo         *repository.UserRepository
	conversationRepo *repository.ConversationRepository
	messageRepo      *repository.MessageRepository
	documentRepo     *repository.DocumentRepository
	roleRepo         *repository.RoleRepository
}

type UsageStats struct {
	Users         int64 `json:"users"`
	Conversations int64 `json:"conversations"`
	Messages      int64 `json:"messages"`
	Documents     int64 `json:"documents"`
}

func NewStatsService(
	userRepo *repository.UserRepository,
	conversationRepo *repository.ConversationRepository,
	messageRepo *repository.MessageRepository,
	documentRepo *repository.DocumentRepository,
	roleRepo *repository.RoleRepository,
) *StatsService {
	return &StatsService{
		userRepo:         userRepo,
		conversationRepo: conversationRepo,
		messageRepo:      messageRepo,
		documentRepo:     documentRepo,
		roleRepo:         roleRepo,
	}
}

func (s *StatsService) Overview(userID uint) (*UsageStats, error) {
	if userID == 0 {
		return nil, ErrInvalidInput
	}

	isAdmin, err := s.roleRepo.HasRole(userID, model.RoleAdmin)
	if err != nil {
		return nil, err
	}
	if !isAdmin {
		return nil, ErrForbidden
	}

	stats := &UsageStats{}
	if stats.Users, err = s.userRepo.Count(); err != nil {
		return nil, err
	}
	if stats.Conversations, err = s.conversationRepo.Count(); err != nil {
		return nil, err
	}
	if stats.Messages, err = s.messageRepo.Count(); err != nil {
		return nil, err
	}
	if stats.Documents, err = s.documentRepo.Count(); err != nil {
		return nil, err
	}
	return stats, nil
}
