// File: services/chat/controller.go
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"cakebox/models"
	"cakebox/services/gateway"
	"cakebox/services/notification"
	"cakebox/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CancelOrderCommand aborts the quick order flow when typed as the entire
// message (trimmed, case-insensitive).
const CancelOrderCommand = "cancel order"

const (
	msgConfirmStepReprompt = "Please use the 'Yes' or 'No' buttons above to respond to the order summary. Typing is disabled for this step."
	msgCancelAck           = "Okay, the quick order process has been cancelled. How else can I help you today? 👍"
	msgDeclined            = "Okay, the order request has been cancelled. Feel free to start a new quick order or ask any other questions! 😊"
	msgTrouble             = "I'm having a little trouble with the order details right now. Could you please rephrase that?"
	msgTransportFail       = "Oops! Something went wrong. Please try again in a moment. For immediate assistance, please contact us on WhatsApp at +91 7099032828 or email tcblweb@gmail.com."
	msgThankYou            = "Thank you, %s! We've received your quick order request. Our team will review your order and get in touch with you at %s within approximately 4 working hours (during 10 AM - 8 PM) to confirm the details, provide a final quote, and arrange payment. Please note, this order is tentative until confirmed by our team. 🎉"
)

// DefaultChatService owns all mutable session state. It enforces single
// flight per session: the external model call is the only suspension point,
// and a second submission while one is outstanding is rejected.
type DefaultChatService struct {
	Store    SessionStore
	Gateway  gateway.Gateway
	Notifier notification.OrderNotifier
	Schema   models.SlotSchema

	// NotifyTimeout bounds the fire-and-forget notification call.
	NotifyTimeout time.Duration

	inflight sync.Map
}

func NewDefaultChatService(store SessionStore, gw gateway.Gateway, notifier notification.OrderNotifier) *DefaultChatService {
	return &DefaultChatService{
		Store:         store,
		Gateway:       gw,
		Notifier:      notifier,
		Schema:        models.OrderSlots,
		NotifyTimeout: 15 * time.Second,
	}
}

func (s *DefaultChatService) acquire(sessionID string) bool {
	_, loaded := s.inflight.LoadOrStore(sessionID, struct{}{})
	return !loaded
}

func (s *DefaultChatService) release(sessionID string) {
	s.inflight.Delete(sessionID)
}

func (s *DefaultChatService) save(ctx context.Context, session *models.ChatSession) error {
	session.UpdatedAt = time.Now()
	return s.Store.Save(ctx, session)
}

func updateFor(session *models.ChatSession, replies ...string) *Update {
	return &Update{
		SessionID:            session.ID,
		Replies:              replies,
		Phase:                session.Order.Cursor.Phase,
		SlotKey:              session.Order.Cursor.SlotKey,
		AwaitingConfirmation: session.Order.Cursor.Phase == models.PhaseAwaitingConfirmation,
	}
}

func copyValues(values map[string]string) map[string]string {
	out := make(map[string]string, len(values))
	for k, v := range values {
		out[k] = v
	}
	return out
}

// CreateSession opens a fresh conversation seeded with the greeting turn.
func (s *DefaultChatService) CreateSession(ctx context.Context) (*models.ChatSession, error) {
	now := time.Now()
	session := &models.ChatSession{
		ID:        uuid.New().String(),
		Order:     models.NewOrderState(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	session.Append(models.TextTurn(models.RoleAssistant, gateway.InitialGreeting))
	if err := s.Store.Save(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// ResetSession discards the log and any order in progress, keeping the ID.
func (s *DefaultChatService) ResetSession(ctx context.Context, sessionID string) (*Update, error) {
	if !s.acquire(sessionID) {
		return nil, ErrSessionBusy
	}
	defer s.release(sessionID)

	session, err := s.Store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	session.Log = nil
	session.Order = models.NewOrderState()
	session.Attachments = nil
	session.Generation++
	session.Append(models.TextTurn(models.RoleAssistant, gateway.InitialGreeting))
	if err := s.save(ctx, session); err != nil {
		return nil, err
	}
	return updateFor(session, gateway.InitialGreeting), nil
}

// StartOrder begins the quick order flow: order state reset, cursor on the
// first slot, its prompt emitted as an assistant turn.
func (s *DefaultChatService) StartOrder(ctx context.Context, sessionID string) (*Update, error) {
	if !s.acquire(sessionID) {
		return nil, ErrSessionBusy
	}
	defer s.release(sessionID)

	session, err := s.Store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	first := s.Schema[0]
	session.Order = models.NewOrderState()
	session.Order.Cursor = models.Cursor{Phase: models.PhaseAskingSlot, SlotKey: first.Key}
	session.Generation++
	session.Append(models.TextTurn(models.RoleAssistant, first.Prompt))
	if err := s.save(ctx, session); err != nil {
		return nil, err
	}
	return updateFor(session, first.Prompt), nil
}

func (s *DefaultChatService) SubmitText(ctx context.Context, sessionID, text string) (*Update, error) {
	return s.submit(ctx, sessionID, text, nil, nil)
}

func (s *DefaultChatService) SubmitMedia(ctx context.Context, sessionID, text string, media models.ContentPart, attachment *models.Attachment) (*Update, error) {
	return s.submit(ctx, sessionID, text, &media, attachment)
}

func (s *DefaultChatService) submit(ctx context.Context, sessionID, text string, media *models.ContentPart, attachment *models.Attachment) (*Update, error) {
	if !s.acquire(sessionID) {
		return nil, ErrSessionBusy
	}
	defer s.release(sessionID)

	session, err := s.Store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	// The confirmation step only accepts the explicit confirm/decline
	// action. Free text mutates nothing, not even the log.
	if session.Order.Cursor.Phase == models.PhaseAwaitingConfirmation {
		return updateFor(session, msgConfirmStepReprompt), nil
	}

	trimmed := strings.TrimSpace(text)
	userTurn := models.Turn{Role: models.RoleUser}
	if trimmed != "" {
		userTurn.Parts = append(userTurn.Parts, models.ContentPart{Text: trimmed})
	}
	if media != nil {
		userTurn.Parts = append(userTurn.Parts, *media)
	}
	if len(userTurn.Parts) == 0 {
		return nil, ErrEmptyMessage
	}

	ordering := session.Order.Cursor.Phase == models.PhaseAskingSlot

	if ordering && strings.EqualFold(trimmed, CancelOrderCommand) {
		session.Append(userTurn)
		session.Order = models.NewOrderState()
		session.Generation++
		session.Append(models.TextTurn(models.RoleAssistant, msgCancelAck))
		if err := s.save(ctx, session); err != nil {
			return nil, err
		}
		return updateFor(session, msgCancelAck), nil
	}

	session.Append(userTurn)
	if attachment != nil {
		session.Attachments = append(session.Attachments, *attachment)
	}

	if ordering {
		return s.converseSlotFilling(ctx, session, trimmed, media != nil)
	}
	return s.converseFreeForm(ctx, session)
}

// converseSlotFilling runs one slot-filling round trip and applies the
// resulting transition. On any gateway failure the cursor and collected
// values stay exactly as they were.
func (s *DefaultChatService) converseSlotFilling(ctx context.Context, session *models.ChatSession, latestText string, imageAttached bool) (*Update, error) {
	logger := utils.GetLogger()
	gen := session.Generation

	sc := &gateway.SlotContext{
		Schema:         s.Schema,
		Values:         copyValues(session.Order.Values),
		LatestUserText: latestText,
		ImageAttached:  imageAttached,
	}
	reply, err := s.Gateway.Converse(ctx, session.Log, gateway.ModeSlotFilling, sc)
	if err != nil {
		return s.failSoft(ctx, session, err)
	}

	if stale, fresh := s.staleSince(ctx, session.ID, gen); stale {
		logger.Warn("Discarding stale slot-filling reply",
			zap.String("sessionID", session.ID),
			zap.Uint64("generation", gen))
		return updateFor(fresh), nil
	}

	// Reject an unknown next key before touching the order: a reply the
	// controller deems malformed must leave OrderState exactly as it was.
	nextKey := reply.Order.NextKey
	if nextKey != models.NextKeySummary {
		if _, ok := s.Schema.Lookup(nextKey); !ok {
			return s.failSoft(ctx, session, &gateway.MalformedReplyError{
				Err: errors.New("unknown next question key: " + nextKey),
			})
		}
	}

	session.Order.Merge(reply.Order.UpdatedValues)

	if nextKey == models.NextKeySummary {
		// The model proposes the summary; verify essentials locally before
		// honoring it, and re-ask the first gap instead of trusting blindly.
		if missing := s.Schema.MissingEssential(session.Order.Values); missing != "" {
			def, _ := s.Schema.Lookup(missing)
			logger.Warn("Rejecting premature summary proposal",
				zap.String("sessionID", session.ID),
				zap.String("missingSlot", missing))
			return s.transition(ctx, session, models.Cursor{Phase: models.PhaseAskingSlot, SlotKey: missing}, def.Prompt)
		}
		return s.transition(ctx, session, models.Cursor{Phase: models.PhaseAwaitingConfirmation}, reply.Order.ResponseText)
	}

	return s.transition(ctx, session, models.Cursor{Phase: models.PhaseAskingSlot, SlotKey: nextKey}, reply.Order.ResponseText)
}

func (s *DefaultChatService) converseFreeForm(ctx context.Context, session *models.ChatSession) (*Update, error) {
	gen := session.Generation

	reply, err := s.Gateway.Converse(ctx, session.Log, gateway.ModeFreeForm, nil)
	if err != nil {
		return s.failSoft(ctx, session, err)
	}

	if stale, fresh := s.staleSince(ctx, session.ID, gen); stale {
		utils.GetLogger().Warn("Discarding stale free-form reply",
			zap.String("sessionID", session.ID))
		return updateFor(fresh), nil
	}

	session.Append(models.TextTurn(models.RoleAssistant, reply.Text))
	if err := s.save(ctx, session); err != nil {
		return nil, err
	}
	return updateFor(session, reply.Text), nil
}

// transition commits a cursor move plus its assistant turn.
func (s *DefaultChatService) transition(ctx context.Context, session *models.ChatSession, cursor models.Cursor, reply string) (*Update, error) {
	session.Order.Cursor = cursor
	session.Generation++
	session.Append(models.TextTurn(models.RoleAssistant, reply))
	if err := s.save(ctx, session); err != nil {
		return nil, err
	}
	return updateFor(session, reply), nil
}

// failSoft maps a gateway failure to a user-facing assistant message without
// touching the cursor or the collected values.
func (s *DefaultChatService) failSoft(ctx context.Context, session *models.ChatSession, err error) (*Update, error) {
	logger := utils.GetLogger()

	var malformed *gateway.MalformedReplyError
	msg := msgTransportFail
	if errors.As(err, &malformed) {
		msg = msgTrouble
		logger.Warn("Gateway reply failed validation",
			zap.String("sessionID", session.ID),
			zap.Error(err))
	} else {
		logger.Error("Gateway call failed",
			zap.String("sessionID", session.ID),
			zap.Error(err))
	}

	session.Append(models.TextTurn(models.RoleAssistant, msg))
	if saveErr := s.save(ctx, session); saveErr != nil {
		return nil, saveErr
	}
	return updateFor(session, msg), nil
}

// staleSince reports whether the stored session has moved past the given
// generation while this call was suspended on the external model. A stale
// reply belongs to an order the user has since cancelled or reset and must
// be dropped, not merged.
func (s *DefaultChatService) staleSince(ctx context.Context, sessionID string, gen uint64) (bool, *models.ChatSession) {
	fresh, err := s.Store.Get(ctx, sessionID)
	if err != nil {
		return false, nil
	}
	if fresh.Generation != gen {
		return true, fresh
	}
	return false, nil
}

// ConfirmSummary finalizes or declines the order under confirmation. On
// confirm the notifier is invoked exactly once, fire-and-forget.
func (s *DefaultChatService) ConfirmSummary(ctx context.Context, sessionID string, confirm bool) (*Update, error) {
	if !s.acquire(sessionID) {
		return nil, ErrSessionBusy
	}
	defer s.release(sessionID)

	session, err := s.Store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Order.Cursor.Phase != models.PhaseAwaitingConfirmation {
		return nil, ErrNotAwaitingConfirmation
	}

	if !confirm {
		session.Order = models.NewOrderState()
		session.Generation++
		session.Append(models.TextTurn(models.RoleAssistant, msgDeclined))
		if err := s.save(ctx, session); err != nil {
			return nil, err
		}
		return updateFor(session, msgDeclined), nil
	}

	name := session.Order.Values["name"]
	if name == "" {
		name = "customer"
	}
	phone := session.Order.Values["phone"]
	if phone == "" {
		phone = "the provided number"
	}
	finalMsg := fmt.Sprintf(msgThankYou, name, phone)
	session.Append(models.TextTurn(models.RoleAssistant, finalMsg))

	// Snapshot before the reset; the notifier must see the finalized order.
	values := copyValues(session.Order.Values)
	logCopy := append([]models.Turn(nil), session.Log...)
	attachments := append([]models.Attachment(nil), session.Attachments...)

	go func() {
		nctx, cancel := context.WithTimeout(context.Background(), s.NotifyTimeout)
		defer cancel()
		if err := s.Notifier.Notify(nctx, sessionID, values, logCopy, attachments); err != nil {
			utils.GetLogger().Error("Order notification failed",
				zap.String("sessionID", sessionID),
				zap.Error(err))
		}
	}()

	session.Order = models.NewOrderState()
	session.Generation++
	if err := s.save(ctx, session); err != nil {
		return nil, err
	}
	return updateFor(session, finalMsg), nil
}
