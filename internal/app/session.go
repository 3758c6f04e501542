package app

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"docuchat/internal/ai"
	"docuchat/internal/blobstore"
	"docuchat/internal/model"
	"docuchat/internal/pkg/pdfextract"
	"docuchat/internal/repository"
)

const (
	SenderUser = "user"
	SenderBot  = "bot"

	messageTitleLimit = 30
	urlTitleLimit     = 50
	previewRuneLimit  = 1000

	defaultConversationTitle = "New conversation"
	apologyMessage           = "Sorry, something went wrong while talking to the server."
)

// TimelineMessage is one entry in the in-memory timeline of an open chat
// view. Append-only and immutable once created; IDs are local and carry no
// relation to persisted row IDs.
type TimelineMessage struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Sender    string    `json:"sender"`
	Timestamp time.Time `json:"timestamp"`
}

type AsyncMessagePublisher interface {
	Publish(ctx context.Context, msg model.Message) error
}

type HistoryCache interface {
	GetHistory(ctx context.Context, conversationID uint) ([]model.Message, bool, error)
	SetHistory(ctx context.Context, conversationID uint, messages []model.Message) error
	DeleteHistory(ctx context.Context, conversationID uint) error
	MarkDirty(ctx context.Context, conversationID uint) error
	IsDirty(ctx context.Context, conversationID uint) (bool, error)
}

type InferenceBackend interface {
	Chat(ctx context.Context, message, documentName string) (string, error)
	UploadDocument(ctx context.Context, fileName string, content io.Reader) error
	SubmitURL(ctx context.Context, url string) (*ai.URLResult, error)
}

type BlobStore interface {
	Upload(path string, r io.Reader, opts blobstore.UploadOptions) error
}

// SessionHooks let sibling components react to session side effects. The
// upload hook fires as soon as document metadata is persisted, before the
// delayed chat acknowledgment.
type SessionHooks struct {
	OnConversationCreated func(conversationID uint)
	OnFileUploaded        func(fileName string, conversationID uint)
}

type SessionOptions struct {
	WelcomeMessage string
	AckDelay       time.Duration
	HistoryLimit   int
	CacheControl   string
}

type SessionDeps struct {
	Conversations *repository.ConversationRepository
	Messages      *repository.MessageRepository
	Documents     *repository.DocumentRepository
	Publisher     AsyncMessagePublisher
	Cache         HistoryCache // optional
	Inference     InferenceBackend
	Blobs         BlobStore
	Notifier      Notifier
	Logger        *zap.Logger
	Options       SessionOptions
	Hooks         SessionHooks
}

// Session orchestrates one open chat view: it owns the message timeline,
// lazily materializes the persisted conversation, and reconciles the
// persistence backend, blob store, and inference backend into a single
// linear history. Timeline updates are optimistic; persistence is
// fire-and-forget through the message queue.
type Session struct {
	userID uint
	deps   SessionDeps

	mu             sync.Mutex
	conversationID uint
	documentName   string
	timeline       []TimelineMessage
	draft          string
	busy           bool
	ackTimers      []*time.Timer

	createGroup singleflight.Group
}

type FileUpload struct {
	Name        string
	ContentType string
	Size        int64
	Content     []byte
}

func NewSession(userID uint, deps SessionDeps) *Session {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Options.WelcomeMessage == "" {
		deps.Options.WelcomeMessage = "Hello! Upload a document or ask me anything to get started."
	}
	s := &Session{
		userID: userID,
		deps:   deps,
	}
	s.Reset()
	return s
}

// Reset returns the session to the no-conversation state: a single
// synthetic welcome message, no attached document. Starting a new
// conversation goes through here.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, t := range s.ackTimers {
		t.Stop()
	}
	s.ackTimers = nil
	s.conversationID = 0
	s.documentName = ""
	s.draft = ""
	s.busy = false
	s.timeline = []TimelineMessage{{
		ID:        uuid.NewString(),
		Text:      s.deps.Options.WelcomeMessage,
		Sender:    SenderBot,
		Timestamp: time.Now(),
	}}
}

// Close stops any pending delayed acknowledgments. Called on view unmount.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.ackTimers {
		t.Stop()
	}
	s.ackTimers = nil
}

// LoadConversation replaces the timeline wholesale from a persisted
// conversation. A failed message fetch is surfaced and leaves the timeline
// empty; a missing document row is the normal "no document attached" state
// and raises nothing.
func (s *Session) LoadConversation(ctx context.Context, conversationID uint) {
	s.mu.Lock()
	s.conversationID = conversationID
	s.busy = true
	s.mu.Unlock()
	defer s.setBusy(false)

	messages, err := s.fetchHistory(ctx, conversationID)
	if err != nil {
		s.deps.Logger.Error("load conversation messages failed",
			zap.Uint("conversation_id", conversationID),
			zap.Error(err))
		s.notifyError("Error", "Failed to load conversation messages.")
		s.mu.Lock()
		s.timeline = nil
		s.documentName = ""
		s.mu.Unlock()
		return
	}

	documentName := ""
	doc, docErr := s.deps.Documents.GetByConversationID(conversationID)
	if docErr != nil {
		// Optional context only; treat lookup failure as "no document".
		s.deps.Logger.Warn("load conversation document failed",
			zap.Uint("conversation_id", conversationID),
			zap.Error(docErr))
	} else if doc != nil {
		documentName = doc.Name
	}

	timeline := make([]TimelineMessage, 0, len(messages))
	for _, m := range messages {
		sender := SenderBot
		if m.IsUser {
			sender = SenderUser
		}
		timeline = append(timeline, TimelineMessage{
			ID:        strconv.FormatUint(uint64(m.ID), 10),
			Text:      m.Content,
			Sender:    sender,
			Timestamp: m.CreatedAt,
		})
	}

	s.mu.Lock()
	s.timeline = timeline
	s.documentName = documentName
	s.mu.Unlock()
}

func (s *Session) fetchHistory(ctx context.Context, conversationID uint) ([]model.Message, error) {
	if s.deps.Cache != nil {
		if dirty, err := s.deps.Cache.IsDirty(ctx, conversationID); err == nil && !dirty {
			if cached, hit, cacheErr := s.deps.Cache.GetHistory(ctx, conversationID); cacheErr == nil && hit {
				return cached, nil
			}
		}
	}

	messages, err := s.deps.Messages.ListByConversationID(conversationID, s.deps.Options.HistoryLimit)
	if err != nil {
		return nil, err
	}
	if s.deps.Cache != nil {
		if dirty, dirtyErr := s.deps.Cache.IsDirty(ctx, conversationID); dirtyErr == nil && !dirty {
			_ = s.deps.Cache.SetHistory(ctx, conversationID, messages)
		}
	}
	return messages, nil
}

// EnsureConversation returns the active conversation id, creating the
// record on first use. Creation is single-flight: concurrent callers before
// the first insert resolves share one in-flight creation, so a session
// never spawns duplicate conversations.
func (s *Session) EnsureConversation(ctx context.Context, titleHint string) (uint, error) {
	s.mu.Lock()
	if s.conversationID != 0 {
		id := s.conversationID
		s.mu.Unlock()
		return id, nil
	}
	s.mu.Unlock()

	v, err, _ := s.createGroup.Do("create", func() (interface{}, error) {
		s.mu.Lock()
		if s.conversationID != 0 {
			id := s.conversationID
			s.mu.Unlock()
			return id, nil
		}
		s.mu.Unlock()

		title := strings.TrimSpace(titleHint)
		if title == "" {
			title = defaultConversationTitle
		}

		conversation := &model.Conversation{
			UserID: s.userID,
			Title:  title,
		}
		if err := s.deps.Conversations.Create(conversation); err != nil {
			return nil, err
		}

		s.mu.Lock()
		s.conversationID = conversation.ID
		s.mu.Unlock()

		if s.deps.Hooks.OnConversationCreated != nil {
			s.deps.Hooks.OnConversationCreated(conversation.ID)
		}
		return conversation.ID, nil
	})
	if err != nil {
		return 0, err
	}
	return v.(uint), nil
}

// SendMessage appends the user's message optimistically, then persists it
// and asks the inference backend for a reply. Every failure after the
// optimistic append is converted to a synthetic bot message and/or a
// notification; the user message is never rolled back.
func (s *Session) SendMessage(ctx context.Context, text string) {
	if strings.TrimSpace(text) == "" {
		return
	}

	s.mu.Lock()
	if s.busy {
		s.mu.Unlock()
		return
	}
	s.busy = true
	s.draft = ""
	s.timeline = append(s.timeline, TimelineMessage{
		ID:        uuid.NewString(),
		Text:      text,
		Sender:    SenderUser,
		Timestamp: time.Now(),
	})
	documentName := s.documentName
	s.mu.Unlock()
	defer s.setBusy(false)

	conversationID, err := s.EnsureConversation(ctx, truncateTitle(text, messageTitleLimit))
	if err != nil {
		s.deps.Logger.Error("create conversation failed", zap.Error(err))
		s.notifyError("Error", "Failed to create the conversation.")
	} else {
		s.enqueuePersist(ctx, conversationID, text, true)
	}

	reply, chatErr := s.deps.Inference.Chat(ctx, text, documentName)
	if chatErr != nil {
		s.deps.Logger.Error("inference chat failed", zap.Error(chatErr))
		s.appendBot(apologyMessage)
		s.notifyError("Error", "Failed to reach the assistant. Please try again.")
		return
	}

	s.appendBot(reply)
	if conversationID != 0 {
		s.enqueuePersist(ctx, conversationID, reply, false)
	}
}

// UploadFile stores the blob, records document metadata, and forwards the
// file to the inference backend for ingestion. The blob write is the only
// fatal step; ingestion failure is soft because the file is already durably
// stored.
func (s *Session) UploadFile(ctx context.Context, upload FileUpload) {
	name := strings.TrimSpace(upload.Name)
	if name == "" {
		return
	}

	s.notifyInfo("Uploading", fmt.Sprintf("Processing %q...", name))

	conversationID, err := s.EnsureConversation(ctx, name)
	if err != nil {
		s.deps.Logger.Error("create conversation for upload failed", zap.Error(err))
		s.notifyError("Upload failed", "Failed to create the conversation.")
		return
	}

	path := fmt.Sprintf("%d/%d/%s", s.userID, conversationID, name)
	if err := s.deps.Blobs.Upload(path, bytes.NewReader(upload.Content), blobstore.UploadOptions{
		CacheControl: s.deps.Options.CacheControl,
		Overwrite:    false,
	}); err != nil {
		s.deps.Logger.Error("blob upload failed", zap.String("path", path), zap.Error(err))
		s.notifyError("Upload failed", "Failed to store the file.")
		return
	}

	contentType := strings.TrimSpace(upload.ContentType)
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	doc := &model.Document{
		UserID:         s.userID,
		ConversationID: conversationID,
		Name:           name,
		ContentType:    contentType,
		Size:           upload.Size,
		StoragePath:    path,
		Preview:        documentPreview(name, contentType, upload.Content),
	}
	if err := s.deps.Documents.Create(doc); err != nil {
		s.deps.Logger.Error("save document metadata failed", zap.Error(err))
		s.notifyError("Upload failed", "Failed to save the document metadata.")
		return
	}

	// Best effort: the file is durably stored, so a failed ingestion still
	// leaves the document attached for future grounded replies.
	if err := s.deps.Inference.UploadDocument(ctx, name, bytes.NewReader(upload.Content)); err != nil {
		s.deps.Logger.Warn("backend ingestion failed, document remains attached",
			zap.String("document", name),
			zap.Error(err))
	}

	s.mu.Lock()
	s.documentName = name
	s.mu.Unlock()

	if s.deps.Hooks.OnFileUploaded != nil {
		s.deps.Hooks.OnFileUploaded(name, conversationID)
	}

	s.notifyInfo("Upload complete", fmt.Sprintf("File %q uploaded successfully.", name))

	uploadText := fmt.Sprintf("Uploaded document: %s", name)
	s.appendUser(uploadText)
	s.enqueuePersist(ctx, conversationID, uploadText, true)

	ack := fmt.Sprintf("Document %q uploaded successfully. You can now ask questions about its content.", name)
	s.scheduleAck(conversationID, ack)
}

// SubmitURL hands a link to the inference backend for ingestion and, on
// success, attaches the backend-reported document for future grounded
// replies.
func (s *Session) SubmitURL(ctx context.Context, url string) {
	if strings.TrimSpace(url) == "" {
		return
	}

	conversationID, err := s.EnsureConversation(ctx, truncateTitle(url, urlTitleLimit))
	if err != nil {
		s.deps.Logger.Error("create conversation for url failed", zap.Error(err))
		s.notifyError("Error", "Failed to create the conversation.")
		conversationID = 0
	}

	result, err := s.deps.Inference.SubmitURL(ctx, url)
	if err != nil {
		s.deps.Logger.Error("url ingestion failed", zap.String("url", url), zap.Error(err))
		s.notifyError("Error", "Failed to process the link.")
		return
	}

	documentName := result.DocumentName
	if documentName == "" {
		documentName = url
	}
	s.mu.Lock()
	s.documentName = documentName
	s.mu.Unlock()

	linkText := fmt.Sprintf("Link added: %s", url)
	s.appendUser(linkText)
	if conversationID != 0 {
		s.enqueuePersist(ctx, conversationID, linkText, true)
	}

	ack := result.Message
	if ack == "" {
		ack = fmt.Sprintf("URL %q processed successfully. You can now ask questions about its content.", url)
	}
	s.scheduleAck(conversationID, ack)
}

// Messages returns a copy of the timeline in append order.
func (s *Session) Messages() []TimelineMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]TimelineMessage(nil), s.timeline...)
}

func (s *Session) ConversationID() uint {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conversationID
}

func (s *Session) DocumentName() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.documentName
}

func (s *Session) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.busy
}

func (s *Session) SetDraft(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft = text
}

func (s *Session) Draft() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft
}

// scheduleAck appends a synthetic bot acknowledgment after a fixed delay.
// The delay is a UX affordance, not a processing signal; a non-positive
// delay appends inline.
func (s *Session) scheduleAck(conversationID uint, text string) {
	deliver := func() {
		s.appendBot(text)
		if conversationID != 0 {
			s.enqueuePersist(context.Background(), conversationID, text, false)
		}
	}

	if s.deps.Options.AckDelay <= 0 {
		deliver()
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.ackTimers = append(s.ackTimers, time.AfterFunc(s.deps.Options.AckDelay, deliver))
}

// enqueuePersist hands a message to the persist queue and invalidates the
// cached history. Publish failures are surfaced but never block the
// already-updated timeline.
func (s *Session) enqueuePersist(ctx context.Context, conversationID uint, content string, isUser bool) {
	if s.deps.Cache != nil {
		_ = s.deps.Cache.MarkDirty(ctx, conversationID)
		_ = s.deps.Cache.DeleteHistory(ctx, conversationID)
	}

	msg := model.Message{
		ConversationID: conversationID,
		Content:        content,
		IsUser:         isUser,
		CreatedAt:      time.Now(),
	}
	if err := s.deps.Publisher.Publish(ctx, msg); err != nil {
		s.deps.Logger.Error("enqueue message persist failed",
			zap.Uint("conversation_id", conversationID),
			zap.Error(err))
		s.notifyError("Error", "Failed to save the message.")
	}
}

func (s *Session) appendUser(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.timeline = append(s.timeline, TimelineMessage{
		ID:        uuid.NewString(),
		Text:      text,
		Sender:    SenderUser,
		Timestamp: time.Now(),
	})
}

func (s *Session) appendBot(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.timeline = append(s.timeline, TimelineMessage{
		ID:        uuid.NewString(),
		Text:      text,
		Sender:    SenderBot,
		Timestamp: time.Now(),
	})
}

func (s *Session) setBusy(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.busy = v
}

func (s *Session) notifyError(title, description string) {
	if s.deps.Notifier != nil {
		s.deps.Notifier.Notify(Notification{Level: NotifyError, Title: title, Description: description})
	}
}

func (s *Session) notifyInfo(title, description string) {
	if s.deps.Notifier != nil {
		s.deps.Notifier.Notify(Notification{Level: NotifyInfo, Title: title, Description: description})
	}
}

func truncateTitle(text string, limit int) string {
	trimmed := strings.TrimSpace(text)
	runes := []rune(trimmed)
	if limit <= 0 || len(runes) <= limit {
		return trimmed
	}
	return string(runes[:limit]) + "..."
}

func documentPreview(name, contentType string, content []byte) string {
	if contentType != "application/pdf" && !strings.HasSuffix(strings.ToLower(name), ".pdf") {
		return ""
	}
	return pdfextract.Preview(bytes.NewReader(content), previewRuneLimit)
}
