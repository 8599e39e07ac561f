package chat

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"cakebox/models"
	"cakebox/services/gateway"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type converseResult struct {
	reply *gateway.Reply
	err   error
}

type converseCall struct {
	mode gateway.Mode
	sc   *gateway.SlotContext
	log  []models.Turn
}

// scriptedGateway returns pre-scripted results in order and records every
// call it receives.
type scriptedGateway struct {
	mu       sync.Mutex
	results  []converseResult
	calls    []converseCall
	beforeFn func()
}

func (g *scriptedGateway) Converse(ctx context.Context, log []models.Turn, mode gateway.Mode, sc *gateway.SlotContext) (*gateway.Reply, error) {
	g.mu.Lock()
	g.calls = append(g.calls, converseCall{mode: mode, sc: sc, log: append([]models.Turn(nil), log...)})
	if len(g.results) == 0 {
		g.mu.Unlock()
		return nil, &gateway.TransportError{Op: "test", Err: errors.New("no scripted result")}
	}
	result := g.results[0]
	g.results = g.results[1:]
	before := g.beforeFn
	g.mu.Unlock()

	if before != nil {
		before()
	}
	return result.reply, result.err
}

func (g *scriptedGateway) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.calls)
}

func (g *scriptedGateway) lastCall() converseCall {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls[len(g.calls)-1]
}

func slotResult(nextKey, text string, updates map[string]string) converseResult {
	return converseResult{reply: &gateway.Reply{
		Text: text,
		Order: &models.GatewayReply{
			UpdatedValues: updates,
			NextKey:       nextKey,
			ResponseText:  text,
		},
	}}
}

func textResult(text string) converseResult {
	return converseResult{reply: &gateway.Reply{Text: text}}
}

type notifyCall struct {
	sessionID   string
	values      map[string]string
	log         []models.Turn
	attachments []models.Attachment
}

type captureNotifier struct {
	calls chan notifyCall
}

func newCaptureNotifier() *captureNotifier {
	return &captureNotifier{calls: make(chan notifyCall, 4)}
}

func (n *captureNotifier) Notify(ctx context.Context, sessionID string, values map[string]string, log []models.Turn, attachments []models.Attachment) error {
	n.calls <- notifyCall{sessionID: sessionID, values: values, log: log, attachments: attachments}
	return nil
}

func newTestService(results ...converseResult) (*DefaultChatService, *scriptedGateway, *captureNotifier) {
	gw := &scriptedGateway{results: results}
	notifier := newCaptureNotifier()
	svc := NewDefaultChatService(NewMemorySessionStore(), gw, notifier)
	return svc, gw, notifier
}

func mustSession(t *testing.T, svc *DefaultChatService) string {
	t.Helper()
	session, err := svc.CreateSession(context.Background())
	require.NoError(t, err)
	return session.ID
}

func storedSession(t *testing.T, svc *DefaultChatService, id string) *models.ChatSession {
	t.Helper()
	session, err := svc.Store.Get(context.Background(), id)
	require.NoError(t, err)
	return session
}

func mutateSession(t *testing.T, svc *DefaultChatService, id string, fn func(*models.ChatSession)) {
	t.Helper()
	session := storedSession(t, svc, id)
	fn(session)
	require.NoError(t, svc.Store.Save(context.Background(), session))
}

func TestCreateSessionSeedsGreeting(t *testing.T) {
	svc, _, _ := newTestService()
	id := mustSession(t, svc)

	session := storedSession(t, svc, id)
	require.Len(t, session.Log, 1)
	assert.Equal(t, models.RoleAssistant, session.Log[0].Role)
	assert.Equal(t, models.PhaseIdle, session.Order.Cursor.Phase)
	assert.Empty(t, session.Order.Values)
}

func TestFreeFormRelaysResponse(t *testing.T) {
	svc, gw, _ := newTestService(textResult("We deliver all over Siliguri! 🎂"))
	id := mustSession(t, svc)

	update, err := svc.SubmitText(context.Background(), id, "Do you deliver?")
	require.NoError(t, err)

	assert.Equal(t, []string{"We deliver all over Siliguri! 🎂"}, update.Replies)
	assert.Equal(t, models.PhaseIdle, update.Phase)
	assert.Equal(t, gateway.ModeFreeForm, gw.lastCall().mode)

	session := storedSession(t, svc, id)
	require.Len(t, session.Log, 3) // greeting, user, assistant
	assert.Equal(t, models.RoleUser, session.Log[1].Role)
	assert.Equal(t, models.RoleAssistant, session.Log[2].Role)
}

func TestStartOrderEmitsFirstPrompt(t *testing.T) {
	svc, gw, _ := newTestService()
	id := mustSession(t, svc)

	update, err := svc.StartOrder(context.Background(), id)
	require.NoError(t, err)

	first := models.OrderSlots[0]
	assert.Equal(t, models.PhaseAskingSlot, update.Phase)
	assert.Equal(t, first.Key, update.SlotKey)
	assert.Equal(t, []string{first.Prompt}, update.Replies)
	assert.Zero(t, gw.callCount(), "starting an order must not call the model")

	session := storedSession(t, svc, id)
	assert.Empty(t, session.Order.Values)
}

func TestSlotFillingAdvancesCursor(t *testing.T) {
	svc, gw, _ := newTestService(
		slotResult("flavor", "What flavor would you like?", map[string]string{"occasion": "Birthday"}),
	)
	id := mustSession(t, svc)
	_, err := svc.StartOrder(context.Background(), id)
	require.NoError(t, err)

	update, err := svc.SubmitText(context.Background(), id, "It's a birthday")
	require.NoError(t, err)

	assert.Equal(t, models.PhaseAskingSlot, update.Phase)
	assert.Equal(t, "flavor", update.SlotKey)
	assert.Equal(t, []string{"What flavor would you like?"}, update.Replies)

	call := gw.lastCall()
	assert.Equal(t, gateway.ModeSlotFilling, call.mode)
	require.NotNil(t, call.sc)
	assert.Equal(t, "It's a birthday", call.sc.LatestUserText)
	assert.False(t, call.sc.ImageAttached)

	session := storedSession(t, svc, id)
	assert.Equal(t, "Birthday", session.Order.Values["occasion"])
}

func TestMergeNeverDropsCollectedValues(t *testing.T) {
	svc, _, _ := newTestService(
		slotResult("flavor", "What flavor?", map[string]string{"occasion": "Birthday"}),
		slotResult("size", "What size?", map[string]string{"flavor": "Chocolate"}),
	)
	id := mustSession(t, svc)
	_, err := svc.StartOrder(context.Background(), id)
	require.NoError(t, err)

	_, err = svc.SubmitText(context.Background(), id, "birthday")
	require.NoError(t, err)
	// Second reply omits "occasion" entirely; the merge must retain it.
	_, err = svc.SubmitText(context.Background(), id, "chocolate")
	require.NoError(t, err)

	session := storedSession(t, svc, id)
	assert.Equal(t, "Birthday", session.Order.Values["occasion"])
	assert.Equal(t, "Chocolate", session.Order.Values["flavor"])
}

func TestCancelOrderFromAnySlot(t *testing.T) {
	for _, slotKey := range []string{"occasion", "design", "phone"} {
		t.Run(slotKey, func(t *testing.T) {
			svc, gw, _ := newTestService()
			id := mustSession(t, svc)
			_, err := svc.StartOrder(context.Background(), id)
			require.NoError(t, err)
			mutateSession(t, svc, id, func(s *models.ChatSession) {
				s.Order.Cursor = models.Cursor{Phase: models.PhaseAskingSlot, SlotKey: slotKey}
				s.Order.Values["occasion"] = "Birthday"
			})

			update, err := svc.SubmitText(context.Background(), id, "  CANCEL Order ")
			require.NoError(t, err)

			assert.Equal(t, models.PhaseIdle, update.Phase)
			assert.Equal(t, []string{msgCancelAck}, update.Replies)
			assert.Zero(t, gw.callCount(), "cancel must not reach the model")

			session := storedSession(t, svc, id)
			assert.Empty(t, session.Order.Values)
		})
	}
}

func TestConfirmationStepRejectsFreeText(t *testing.T) {
	svc, gw, _ := newTestService()
	id := mustSession(t, svc)
	mutateSession(t, svc, id, func(s *models.ChatSession) {
		s.Order.Cursor = models.Cursor{Phase: models.PhaseAwaitingConfirmation}
		s.Order.Values["name"] = "Asha"
	})
	before := storedSession(t, svc, id)

	update, err := svc.SubmitText(context.Background(), id, "actually make it vanilla")
	require.NoError(t, err)

	assert.Equal(t, []string{msgConfirmStepReprompt}, update.Replies)
	assert.True(t, update.AwaitingConfirmation)
	assert.Zero(t, gw.callCount())

	after := storedSession(t, svc, id)
	assert.Equal(t, before.Generation, after.Generation)
	assert.Equal(t, before.Order, after.Order)
	assert.Len(t, after.Log, len(before.Log), "free text must not even reach the log")
}

func TestPrematureSummaryReasksMissingEssential(t *testing.T) {
	svc, _, _ := newTestService(
		slotResult(models.NextKeySummary, "Here is your summary!", map[string]string{"occasion": "Birthday"}),
	)
	id := mustSession(t, svc)
	_, err := svc.StartOrder(context.Background(), id)
	require.NoError(t, err)

	update, err := svc.SubmitText(context.Background(), id, "birthday")
	require.NoError(t, err)

	// "flavor" is the first essential slot still empty.
	flavor, _ := models.OrderSlots.Lookup("flavor")
	assert.Equal(t, models.PhaseAskingSlot, update.Phase)
	assert.Equal(t, "flavor", update.SlotKey)
	assert.Equal(t, []string{flavor.Prompt}, update.Replies)
	assert.False(t, update.AwaitingConfirmation)
}

func TestMalformedReplyPreservesState(t *testing.T) {
	svc, _, _ := newTestService(
		converseResult{err: &gateway.MalformedReplyError{Err: errors.New("bad json")}},
	)
	id := mustSession(t, svc)
	_, err := svc.StartOrder(context.Background(), id)
	require.NoError(t, err)
	mutateSession(t, svc, id, func(s *models.ChatSession) {
		s.Order.Cursor = models.Cursor{Phase: models.PhaseAskingSlot, SlotKey: "flavor"}
		s.Order.Values["occasion"] = "Birthday"
	})

	update, err := svc.SubmitText(context.Background(), id, "uhh chocolate i guess")
	require.NoError(t, err)

	assert.Equal(t, []string{msgTrouble}, update.Replies)
	assert.Equal(t, models.PhaseAskingSlot, update.Phase)
	assert.Equal(t, "flavor", update.SlotKey, "the slot being asked must survive a malformed reply")

	session := storedSession(t, svc, id)
	assert.Equal(t, map[string]string{"occasion": "Birthday"}, session.Order.Values)
}

func TestTransportErrorSuggestsManualContact(t *testing.T) {
	svc, _, _ := newTestService(
		converseResult{err: &gateway.TransportError{Op: "generate", Err: errors.New("boom")}},
	)
	id := mustSession(t, svc)

	update, err := svc.SubmitText(context.Background(), id, "hello")
	require.NoError(t, err)

	require.Len(t, update.Replies, 1)
	assert.Contains(t, update.Replies[0], "WhatsApp")
	assert.Equal(t, models.PhaseIdle, update.Phase)
}

func TestUnknownNextKeyIsSoftFailure(t *testing.T) {
	svc, _, _ := newTestService(
		slotResult("topping", "What topping?", map[string]string{"occasion": "Birthday"}),
	)
	id := mustSession(t, svc)
	_, err := svc.StartOrder(context.Background(), id)
	require.NoError(t, err)

	update, err := svc.SubmitText(context.Background(), id, "birthday")
	require.NoError(t, err)

	assert.Equal(t, []string{msgTrouble}, update.Replies)
	assert.Equal(t, models.OrderSlots[0].Key, update.SlotKey)

	// The values riding along with the rejected reply must not be persisted.
	session := storedSession(t, svc, id)
	assert.Empty(t, session.Order.Values, "malformed reply must not mutate the order")
}

func TestQuickOrderRoundTrip(t *testing.T) {
	answers := map[string]string{
		"occasion": "Birthday",
		"flavor":   "Chocolate",
		"size":     "3 pounds",
		"design":   "Superhero theme",
		"date":     "March 10, 2026",
		"address":  "12 Hill Cart Road, Siliguri",
		"name":     "Asha",
		"phone":    "+91 9000000000",
	}

	essentials := models.OrderSlots.EssentialKeys()
	var results []converseResult
	collected := map[string]string{}
	for i, key := range essentials {
		collected[key] = answers[key]
		updates := map[string]string{key: answers[key]}
		if i == len(essentials)-1 {
			results = append(results, slotResult(models.NextKeySummary, "Okay, let's review your order: 🎂", updates))
		} else {
			next := essentials[i+1]
			def, _ := models.OrderSlots.Lookup(next)
			results = append(results, slotResult(next, def.Prompt, updates))
		}
	}

	svc, _, notifier := newTestService(results...)
	id := mustSession(t, svc)
	_, err := svc.StartOrder(context.Background(), id)
	require.NoError(t, err)

	var update *Update
	for _, key := range essentials {
		update, err = svc.SubmitText(context.Background(), id, answers[key])
		require.NoError(t, err)
	}

	require.NotNil(t, update)
	assert.True(t, update.AwaitingConfirmation)
	assert.Equal(t, models.PhaseAwaitingConfirmation, update.Phase)

	session := storedSession(t, svc, id)
	expected := map[string]string{}
	for _, key := range essentials {
		expected[key] = answers[key]
	}
	assert.Equal(t, expected, session.Order.Values)

	update, err = svc.ConfirmSummary(context.Background(), id, true)
	require.NoError(t, err)
	require.Len(t, update.Replies, 1)
	assert.Contains(t, update.Replies[0], "Asha")
	assert.Contains(t, update.Replies[0], "+91 9000000000")
	assert.Equal(t, models.PhaseIdle, update.Phase)

	select {
	case call := <-notifier.calls:
		assert.Equal(t, id, call.sessionID)
		assert.Equal(t, expected, call.values)
		assert.NotEmpty(t, call.log)
	case <-time.After(2 * time.Second):
		t.Fatal("notifier was not invoked")
	}
	select {
	case <-notifier.calls:
		t.Fatal("notifier invoked more than once")
	case <-time.After(50 * time.Millisecond):
	}

	session = storedSession(t, svc, id)
	assert.Empty(t, session.Order.Values)
	assert.Equal(t, models.PhaseIdle, session.Order.Cursor.Phase)
}

func TestDeclineSummaryResetsWithoutNotification(t *testing.T) {
	svc, _, notifier := newTestService()
	id := mustSession(t, svc)
	mutateSession(t, svc, id, func(s *models.ChatSession) {
		s.Order.Cursor = models.Cursor{Phase: models.PhaseAwaitingConfirmation}
		s.Order.Values["name"] = "Asha"
	})

	update, err := svc.ConfirmSummary(context.Background(), id, false)
	require.NoError(t, err)

	assert.Equal(t, []string{msgDeclined}, update.Replies)
	assert.Equal(t, models.PhaseIdle, update.Phase)

	select {
	case <-notifier.calls:
		t.Fatal("declined order must not notify")
	case <-time.After(50 * time.Millisecond):
	}

	session := storedSession(t, svc, id)
	assert.Empty(t, session.Order.Values)
}

func TestConfirmOutsideSummaryStep(t *testing.T) {
	svc, _, _ := newTestService()
	id := mustSession(t, svc)

	_, err := svc.ConfirmSummary(context.Background(), id, true)
	assert.ErrorIs(t, err, ErrNotAwaitingConfirmation)
}

func TestSecondSubmissionRejectedWhileInFlight(t *testing.T) {
	entered := make(chan struct{})
	proceed := make(chan struct{})

	svc, gw, _ := newTestService(textResult("slow answer"))
	gw.beforeFn = func() {
		close(entered)
		<-proceed
	}
	id := mustSession(t, svc)

	done := make(chan error, 1)
	go func() {
		_, err := svc.SubmitText(context.Background(), id, "first")
		done <- err
	}()

	<-entered
	_, err := svc.SubmitText(context.Background(), id, "second")
	assert.ErrorIs(t, err, ErrSessionBusy)

	close(proceed)
	require.NoError(t, <-done)
}

func TestStaleReplyDiscarded(t *testing.T) {
	svc, gw, _ := newTestService(
		slotResult("flavor", "What flavor?", map[string]string{"occasion": "Birthday"}),
	)
	id := mustSession(t, svc)
	_, err := svc.StartOrder(context.Background(), id)
	require.NoError(t, err)

	// While the call is suspended, the stored session moves on (e.g. another
	// replica processed a reset). The delayed reply must be dropped.
	gw.beforeFn = func() {
		session, err := svc.Store.Get(context.Background(), id)
		if err != nil {
			panic(fmt.Sprintf("stale test setup: %v", err))
		}
		session.Generation++
		session.Order = models.NewOrderState()
		if err := svc.Store.Save(context.Background(), session); err != nil {
			panic(fmt.Sprintf("stale test setup: %v", err))
		}
	}

	update, err := svc.SubmitText(context.Background(), id, "birthday")
	require.NoError(t, err)

	assert.Empty(t, update.Replies)
	session := storedSession(t, svc, id)
	assert.Empty(t, session.Order.Values, "stale reply must not be merged")
	assert.Equal(t, models.PhaseIdle, session.Order.Cursor.Phase)
}

func TestSubmitMediaMarksImageAttached(t *testing.T) {
	svc, gw, _ := newTestService(
		slotResult("date", "Thanks for the design image! What date do you need the cake for?", map[string]string{"design": "as per uploaded image"}),
	)
	id := mustSession(t, svc)
	_, err := svc.StartOrder(context.Background(), id)
	require.NoError(t, err)
	mutateSession(t, svc, id, func(s *models.ChatSession) {
		s.Order.Cursor = models.Cursor{Phase: models.PhaseAskingSlot, SlotKey: "design"}
	})

	media := models.ContentPart{MIMEType: "image/png", Data: []byte{1, 2, 3}}
	attachment := &models.Attachment{URL: "https://img.example/cake.png", FileName: "cake.png", MIMEType: "image/png"}
	update, err := svc.SubmitMedia(context.Background(), id, "see image", media, attachment)
	require.NoError(t, err)

	assert.Equal(t, "date", update.SlotKey)
	call := gw.lastCall()
	require.NotNil(t, call.sc)
	assert.True(t, call.sc.ImageAttached)

	session := storedSession(t, svc, id)
	require.Len(t, session.Attachments, 1)
	assert.Equal(t, "https://img.example/cake.png", session.Attachments[0].URL)
}

func TestEmptyMessageRejectedLocally(t *testing.T) {
	svc, gw, _ := newTestService()
	id := mustSession(t, svc)

	_, err := svc.SubmitText(context.Background(), id, "   ")
	assert.ErrorIs(t, err, ErrEmptyMessage)
	assert.Zero(t, gw.callCount())
}

func TestResetSessionClearsEverything(t *testing.T) {
	svc, _, _ := newTestService()
	id := mustSession(t, svc)
	mutateSession(t, svc, id, func(s *models.ChatSession) {
		s.Order.Cursor = models.Cursor{Phase: models.PhaseAskingSlot, SlotKey: "size"}
		s.Order.Values["occasion"] = "Birthday"
		s.Attachments = []models.Attachment{{URL: "https://img.example/x.png"}}
	})

	update, err := svc.ResetSession(context.Background(), id)
	require.NoError(t, err)

	assert.Equal(t, models.PhaseIdle, update.Phase)
	session := storedSession(t, svc, id)
	require.Len(t, session.Log, 1)
	assert.Empty(t, session.Order.Values)
	assert.Empty(t, session.Attachments)
}

func TestSubmitToUnknownSession(t *testing.T) {
	svc, _, _ := newTestService()
	_, err := svc.SubmitText(context.Background(), "nope", "hello")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}
