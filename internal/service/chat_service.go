package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"ai-board-of-directors/backend/ai"
	"ai-board-of-directors/backend/internal/models"
	"ai-board-of-directors/backend/internal/repository"
	"ai-board-of-directors/backend/pkg/logger"
	"ai-board-of-directors/backend/pkg/observability"
	"ai-board-of-directors/backend/pkg/resilience"

	"golang.org/x/sync/errgroup"
)

// Failure reasons reported per board member
const (
	ReasonTimeout     = "timeout"
	ReasonUnavailable = "unavailable"
	ReasonUpstream    = "upstream_error"
	ReasonPersist     = "persist_failed"
	ReasonCancelled   = "cancelled"
)

// ChatConfig tunes the fan-out
type ChatConfig struct {
	HistoryWindow     int
	Concurrency       int
	CompletionTimeout time.Duration
}

// SubmitRequest is one inbound user message addressed to a set of board members
type SubmitRequest struct {
	UserID         uint
	ConversationID uint
	Content        string
	Kind           string
	PersonaIDs     []uint
	Attachment     *models.Attachment
}

// Reply is a persisted board member message with the member who wrote it
type Reply struct {
	Message models.Message            `json:"message"`
	Member  models.BoardMemberSummary `json:"member"`
}

// Failure records a board member that produced no reply this turn
type Failure struct {
	PersonaID uint   `json:"personaId"`
	Reason    string `json:"reason"`
}

// SubmitResult holds the stored user message and the replies in requested order
type SubmitResult struct {
	UserMessage models.Message `json:"userMessage"`
	Replies     []Reply        `json:"aiResponses"`
	Failures    []Failure      `json:"failures"`
}

// FanOutObserver receives lifecycle events while a submission runs.
// Calls for one member are ordered typing, reply, stop typing; a failed member gets typing then failure.
type FanOutObserver interface {
	OnAccepted(msg models.Message)
	OnTyping(member models.BoardMemberSummary)
	OnReply(reply Reply)
	OnStopTyping(member models.BoardMemberSummary)
	OnFailure(member models.BoardMemberSummary, failure Failure)
}

type submitOptions struct {
	observer    FanOutObserver
	delay       func(index int) time.Duration
	concurrency int
}

// SubmitOption customises a single submission
type SubmitOption func(*submitOptions)

// WithObserver streams lifecycle events to o
func WithObserver(o FanOutObserver) SubmitOption {
	return func(so *submitOptions) { so.observer = o }
}

// WithStagger waits delay(i) before member i starts typing
func WithStagger(delay func(index int) time.Duration) SubmitOption {
	return func(so *submitOptions) { so.delay = delay }
}

// WithConcurrency overrides the configured fan-out width. Zero or less means one goroutine per member.
func WithConcurrency(n int) SubmitOption {
	return func(so *submitOptions) { so.concurrency = n }
}

// ChatService persists a user message and collects one reply per requested board member
type ChatService struct {
	conversations repository.ConversationRepository
	messages      repository.MessageRepository
	members       repository.BoardMemberRepository
	completer     ai.Completer
	metrics       *observability.Metrics
	cfg           ChatConfig
	log           *logger.Logger
	now           func() time.Time
}

func NewChatService(
	conversations repository.ConversationRepository,
	messages repository.MessageRepository,
	members repository.BoardMemberRepository,
	completer ai.Completer,
	metrics *observability.Metrics,
	cfg ChatConfig,
	log *logger.Logger,
) *ChatService {
	if cfg.HistoryWindow <= 0 {
		cfg.HistoryWindow = 10
	}
	if cfg.CompletionTimeout <= 0 {
		cfg.CompletionTimeout = 45 * time.Second
	}
	if metrics == nil {
		metrics = observability.NoopMetrics()
	}
	return &ChatService{
		conversations: conversations,
		messages:      messages,
		members:       members,
		completer:     completer,
		metrics:       metrics,
		cfg:           cfg,
		log:           log,
		now:           time.Now,
	}
}

// SubmitMessage validates the request, stores the user message, then asks every requested
// member for a reply. One member failing never fails the call; it is listed in Failures.
func (s *ChatService) SubmitMessage(ctx context.Context, req SubmitRequest, opts ...SubmitOption) (*SubmitResult, error) {
	so := submitOptions{concurrency: s.cfg.Concurrency}
	for _, opt := range opts {
		opt(&so)
	}

	log := s.log.FromContext(ctx).WithUserID(req.UserID)

	kind, err := validateSubmission(&req)
	if err != nil {
		return nil, err
	}

	var conv *models.Conversation
	if req.ConversationID != 0 {
		conv, err = s.conversations.GetByID(ctx, req.UserID, req.ConversationID)
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrConversationNotFound
		}
		if err != nil {
			return nil, err
		}
	}

	members, err := s.resolveMembers(ctx, req.UserID, req.PersonaIDs)
	if err != nil {
		return nil, err
	}

	userMsg := models.Message{
		SenderType:  models.SenderUser,
		Content:     req.Content,
		MessageType: kind,
		Metadata:    attachmentMetadata(req.Attachment).JSON(),
	}
	if conv == nil {
		conv = &models.Conversation{UserID: req.UserID, Title: titleFrom(req.Content)}
		if err := s.conversations.StartWithMessage(ctx, conv, &userMsg); err != nil {
			return nil, fmt.Errorf("start conversation: %w", err)
		}
		log = log.WithConversation(conv.ID)
		log.Info("Conversation created on first message")
	} else {
		log = log.WithConversation(conv.ID)
		userMsg.ConversationID = conv.ID
		if err := s.messages.Create(ctx, &userMsg); err != nil {
			return nil, fmt.Errorf("store user message: %w", err)
		}
		s.touch(ctx, conv.ID, log)
	}

	if so.observer != nil {
		so.observer.OnAccepted(userMsg)
	}

	history, err := s.messages.Tail(ctx, conv.ID, s.cfg.HistoryWindow, userMsg.ID)
	if err != nil {
		log.LogError(err, "Failed to load history, continuing without context")
		history = nil
	}
	turns := historyTurns(history)

	replies := make([]*Reply, len(members))
	failures := make([]*Failure, len(members))

	// Member goroutines always return nil so one failure never cancels its siblings.
	var g errgroup.Group
	if so.concurrency > 0 {
		g.SetLimit(so.concurrency)
	}
	for i := range members {
		i, member := i, members[i]
		g.Go(func() error {
			replies[i], failures[i] = s.generate(ctx, log, conv.ID, member, turns, req.Content, i, so)
			return nil
		})
	}
	_ = g.Wait()

	result := &SubmitResult{
		UserMessage: userMsg,
		Replies:     make([]Reply, 0, len(members)),
		Failures:    make([]Failure, 0),
	}
	for i := range members {
		if replies[i] != nil {
			result.Replies = append(result.Replies, *replies[i])
		}
		if failures[i] != nil {
			result.Failures = append(result.Failures, *failures[i])
		}
	}

	log.Info("Message fanned out",
		"requested", len(members),
		"replies", len(result.Replies),
		"failures", len(result.Failures),
	)
	return result, nil
}

func (s *ChatService) generate(
	ctx context.Context,
	log *logger.Logger,
	conversationID uint,
	member models.BoardMember,
	history []ai.Turn,
	content string,
	index int,
	so submitOptions,
) (*Reply, *Failure) {
	summary := member.Summary()
	log = log.With("member_id", member.ID, "member", member.Name)

	fail := func(reason string, err error) (*Reply, *Failure) {
		log.LogError(err, "Board member produced no reply", "reason", reason)
		s.metrics.PersonaFailure(ctx, string(member.Personality), reason)
		f := &Failure{PersonaID: member.ID, Reason: reason}
		if so.observer != nil {
			so.observer.OnFailure(summary, *f)
		}
		return nil, f
	}

	if so.delay != nil {
		if d := so.delay(index); d > 0 {
			timer := time.NewTimer(d)
			select {
			case <-ctx.Done():
				timer.Stop()
				return fail(ReasonCancelled, ctx.Err())
			case <-timer.C:
			}
		}
	}

	if so.observer != nil {
		so.observer.OnTyping(summary)
	}

	start := s.now()
	cctx, cancel := context.WithTimeout(ctx, s.cfg.CompletionTimeout)
	completion, err := s.completer.Complete(cctx, ai.CompletionRequest{
		SystemPrompt: member.SystemPrompt,
		History:      history,
		NewMessage:   content,
		PersonaName:  member.Name,
		Personality:  string(member.Personality),
	})
	cancel()
	if err != nil {
		return fail(failureReason(ctx, err), err)
	}

	reply := models.Message{
		ConversationID: conversationID,
		SenderType:     models.SenderPersona,
		SenderID:       &member.ID,
		Content:        completion.Text,
		MessageType:    models.KindText,
		Metadata: models.MessageMetadata{
			FollowUpQuestions: completion.Suggestions,
			Personality:       string(member.Personality),
		}.JSON(),
	}
	if err := s.messages.Create(ctx, &reply); err != nil {
		return fail(ReasonPersist, err)
	}
	s.touch(ctx, conversationID, log)
	s.metrics.PersonaReply(ctx, string(member.Personality), s.now().Sub(start))

	r := &Reply{Message: reply, Member: summary}
	if so.observer != nil {
		so.observer.OnReply(*r)
		so.observer.OnStopTyping(summary)
	}
	return r, nil
}

// resolveMembers returns the requested members in caller order, rejecting any that
// are missing, inactive or owned by someone else. Duplicate ids are collapsed.
func (s *ChatService) resolveMembers(ctx context.Context, userID uint, ids []uint) ([]models.BoardMember, error) {
	unique := make([]uint, 0, len(ids))
	seen := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}

	found, err := s.members.FindActive(ctx, userID, unique)
	if err != nil {
		return nil, err
	}
	byID := make(map[uint]models.BoardMember, len(found))
	for _, m := range found {
		byID[m.ID] = m
	}

	ordered := make([]models.BoardMember, 0, len(unique))
	for _, id := range unique {
		m, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("%w: %d", ErrBoardMemberNotFound, id)
		}
		ordered = append(ordered, m)
	}
	return ordered, nil
}

func (s *ChatService) touch(ctx context.Context, conversationID uint, log *logger.Logger) {
	if err := s.conversations.Touch(ctx, conversationID, s.now()); err != nil {
		log.LogError(err, "Failed to update conversation activity")
	}
}

func validateSubmission(req *SubmitRequest) (string, error) {
	if len(req.PersonaIDs) == 0 {
		return "", ErrEmptyPersonaSet
	}

	kind := strings.TrimSpace(req.Kind)
	if kind == "" {
		kind = models.KindText
	}
	if !models.ValidKind(kind) {
		return "", ErrInvalidMessageKind
	}

	hasAttachment := req.Attachment != nil && strings.TrimSpace(req.Attachment.URL) != ""
	if models.IsMedia(kind) && !hasAttachment {
		return "", ErrMissingAttachment
	}

	req.Content = strings.TrimSpace(req.Content)
	if req.Content == "" && !models.IsMedia(kind) {
		return "", ErrEmptyContent
	}
	return kind, nil
}

// titleFrom derives a conversation title from the first message
func titleFrom(content string) string {
	const max = 50
	r := []rune(strings.TrimSpace(content))
	if len(r) == 0 {
		return DefaultConversationTitle
	}
	if len(r) > max {
		return strings.TrimSpace(string(r[:max])) + "..."
	}
	return string(r)
}

func attachmentMetadata(a *models.Attachment) models.MessageMetadata {
	if a == nil {
		return models.MessageMetadata{}
	}
	return models.MessageMetadata{
		FileURL:      a.URL,
		MimeType:     a.MimeType,
		Size:         a.Size,
		OriginalName: a.OriginalName,
	}
}

func historyTurns(history []models.Message) []ai.Turn {
	turns := make([]ai.Turn, 0, len(history))
	for _, m := range history {
		role := ai.RoleAssistant
		if m.SenderType == models.SenderUser {
			role = ai.RoleUser
		}
		turns = append(turns, ai.Turn{Role: role, Content: ai.HistoryContent(m.MessageType, m.Content)})
	}
	return turns
}

func failureReason(parent context.Context, err error) string {
	switch {
	case parent.Err() != nil:
		return ReasonCancelled
	case errors.Is(err, context.DeadlineExceeded):
		return ReasonTimeout
	case errors.Is(err, resilience.ErrCircuitOpen), errors.Is(err, ai.ErrNotConfigured):
		return ReasonUnavailable
	default:
		return ReasonUpstream
	}
}
