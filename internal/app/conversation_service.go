package app

import (
	"context"

	"go.uber.org/zap"

	"docuchat/internal/model"
	"docuchat/internal/repository"
)

// BlobRemover deletes stored objects; used when a conversation's documents
// are removed along with it.
type BlobRemover interface {
	Remove(path string) error
}

// ConversationService backs the history-list collaborator: listing,
// selecting, and deleting persisted conversations.
type ConversationService struct {
	conversationRepo *repository.ConversationRepository
	messageRepo      *repository.MessageRepository
	documentRepo     *repository.DocumentRepository
	cache            HistoryCache
	blobs            BlobRemover
	logger           *zap.Logger
}

func NewConversationService(
	conversationRepo *repository.ConversationRepository,
	messageRepo *repository.MessageRepository,
	documentRepo *repository.DocumentRepository,
	cache HistoryCache,
	blobs BlobRemover,
	logger *zap.Logger,
) *ConversationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConversationService{
		conversationRepo: conversationRepo,
		messageRepo:      messageRepo,
		documentRepo:     documentRepo,
		cache:            cache,
		blobs:            blobs,
		logger:           logger,
	}
}

func (s *ConversationService) List(userID uint) ([]model.Conversation, error) {
	if userID == 0 {
		return nil, ErrInvalidInput
	}
	return s.conversationRepo.ListByUserID(userID)
}

// Delete removes a conversation with its messages and attached document.
// Blob removal is best effort; orphaned objects are harmless.
func (s *ConversationService) Delete(userID, conversationID uint) error {
	if userID == 0 || conversationID == 0 {
		return ErrInvalidInput
	}

	conversation, err := s.conversationRepo.GetByIDAndUserID(conversationID, userID)
	if err != nil {
		return err
	}
	if conversation == nil {
		return ErrConversationNotFound
	}

	if doc, docErr := s.documentRepo.GetByConversationID(conversationID); docErr == nil && doc != nil && s.blobs != nil {
		if rmErr := s.blobs.Remove(doc.StoragePath); rmErr != nil {
			s.logger.Warn("remove document blob failed",
				zap.String("path", doc.StoragePath),
				zap.Error(rmErr))
		}
	}
	if err := s.documentRepo.DeleteByConversationID(conversationID); err != nil {
		return err
	}
	if err := s.messageRepo.DeleteByConversationID(conversationID); err != nil {
		return err
	}
	if err := s.conversationRepo.DeleteByIDAndUserID(conversationID, userID); err != nil {
		return err
	}
	if s.cache != nil {
		_ = s.cache.DeleteHistory(context.Background(), conversationID)
	}
	return nil
}

func (s *ConversationService) ListDocuments(userID uint) ([]model.Document, error) {
	if userID == 0 {
		return nil, ErrInvalidInput
	}
	return s.documentRepo.ListByUserID(userID)
}
