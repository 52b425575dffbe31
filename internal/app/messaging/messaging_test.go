package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studiosite/internal/app/apiclient"
	"studiosite/internal/app/kv"
	"studiosite/internal/app/session"
)

type fakeAPI struct {
	online    []apiclient.OnlineUser
	onlineErr error

	guestSendErr error
	anonSendErr  error
	guestHistErr error
	anonHistErr  error

	guestHistory []apiclient.ChatMessage
	anonHistory  []apiclient.ChatMessage

	anonSent      []string
	anonHistCalls int
}

func (f *fakeAPI) GuestOnline(context.Context) ([]apiclient.OnlineUser, error) {
	return f.online, f.onlineErr
}

func (f *fakeAPI) GuestSend(_ context.Context, senderID, receiverID, text string) (*apiclient.ChatMessage, error) {
	if f.guestSendErr != nil {
		return nil, f.guestSendErr
	}
	return &apiclient.ChatMessage{ID: "m1", SenderID: senderID, ReceiverID: receiverID, Message: text}, nil
}

func (f *fakeAPI) GuestMessages(context.Context, string, string) ([]apiclient.ChatMessage, error) {
	return f.guestHistory, f.guestHistErr
}

func (f *fakeAPI) AnonymousSend(_ context.Context, visitorKey, name, text string) (*apiclient.AnonymousReceipt, error) {
	if f.anonSendErr != nil {
		return nil, f.anonSendErr
	}
	f.anonSent = append(f.anonSent, visitorKey+"|"+name+"|"+text)
	raw := json.RawMessage(`{"success":true}`)
	return &apiclient.AnonymousReceipt{Success: true, Raw: raw}, nil
}

func (f *fakeAPI) AnonymousMessages(context.Context, string) (*apiclient.AnonymousHistory, error) {
	f.anonHistCalls++
	if f.anonHistErr != nil {
		return nil, f.anonHistErr
	}
	return &apiclient.AnonymousHistory{Messages: f.anonHistory}, nil
}

func newFacade(t *testing.T, api API, v session.VisitorIdentity) *Facade {
	t.Helper()
	sess := session.New(kv.NewBucket(kv.NewMemoryStore(), "visitor"), nil)
	require.NoError(t, sess.SaveVisitor(context.Background(), v))
	return New(api, sess)
}

var guestVisitor = session.VisitorIdentity{VisitorKey: "vk-1", GuestUserID: "guest_1_2", DisplayName: "Ada"}

func TestAttemptShortCircuits(t *testing.T) {
	var ran []string
	strategy := func(name string, err error) Strategy[int] {
		return Strategy[int]{Name: name, Run: func(context.Context) (int, error) {
			ran = append(ran, name)
			return len(ran), err
		}}
	}

	out, name, err := Attempt(context.Background(),
		strategy("a", errors.New("down")),
		strategy("b", nil),
		strategy("c", nil),
	)
	require.NoError(t, err)
	assert.Equal(t, 2, out)
	assert.Equal(t, "b", name)
	assert.Equal(t, []string{"a", "b"}, ran)
}

func TestAttemptAggregatesFailures(t *testing.T) {
	down := errors.New("down")
	_, _, err := Attempt(context.Background(),
		Strategy[int]{Name: "a", Run: func(context.Context) (int, error) { return 0, down }},
		Strategy[int]{Name: "b", Run: func(context.Context) (int, error) { return 0, down }},
	)

	var merr *multierror.Error
	require.ErrorAs(t, err, &merr)
	assert.Len(t, merr.Errors, 2)
	assert.ErrorIs(t, err, down)
}

func TestAttemptHaltEndsChain(t *testing.T) {
	final := errors.New("final")
	called := false
	_, _, err := Attempt(context.Background(),
		Strategy[int]{Name: "a", Run: func(context.Context) (int, error) { return 0, Halt(final) }},
		Strategy[int]{Name: "b", Run: func(context.Context) (int, error) {
			called = true
			return 1, nil
		}},
	)

	var merr *multierror.Error
	require.ErrorAs(t, err, &merr)
	assert.Len(t, merr.Errors, 1)
	assert.ErrorIs(t, err, final)
	assert.False(t, called)
}

func TestAttemptStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	_, _, err := Attempt(ctx, Strategy[int]{Name: "a", Run: func(context.Context) (int, error) {
		called = true
		return 1, nil
	}})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestListOnlineUsersDegradesToEmpty(t *testing.T) {
	api := &fakeAPI{onlineErr: &apiclient.TransportUnavailable{Op: "guestOnline", Err: errors.New("refused")}}
	f := newFacade(t, api, guestVisitor)

	users := f.ListOnlineUsers(context.Background())
	assert.NotNil(t, users)
	assert.Empty(t, users)
}

func TestListOnlineUsers(t *testing.T) {
	api := &fakeAPI{online: []apiclient.OnlineUser{{UserID: "guest_9_9", Name: "Bob"}}}
	f := newFacade(t, api, guestVisitor)

	assert.Equal(t, api.online, f.ListOnlineUsers(context.Background()))
}

func TestSendGuestMessagePrimary(t *testing.T) {
	api := &fakeAPI{}
	f := newFacade(t, api, guestVisitor)

	res, err := f.SendGuestMessage(context.Background(), "guest_9_9", "hi")
	require.NoError(t, err)
	assert.Equal(t, PathGuest, res.Path)
	require.NotNil(t, res.Message)
	assert.Equal(t, "guest_1_2", res.Message.SenderID)
	assert.Empty(t, api.anonSent)
}

func TestSendGuestMessageFallsBackToAnonymous(t *testing.T) {
	api := &fakeAPI{guestSendErr: &apiclient.RequestFailed{Op: "guestSend", Status: 500}}
	f := newFacade(t, api, guestVisitor)

	res, err := f.SendGuestMessage(context.Background(), "guest_9_9", "hi")
	require.NoError(t, err)
	assert.Equal(t, PathAnonymous, res.Path)
	assert.JSONEq(t, `{"success":true}`, string(res.Raw))
	assert.Equal(t, []string{"vk-1|Ada|hi"}, api.anonSent)
}

func TestSendGuestMessageWithoutGuestIDUsesAnonymous(t *testing.T) {
	api := &fakeAPI{}
	f := newFacade(t, api, session.VisitorIdentity{VisitorKey: "vk-1", DisplayName: "Ada"})

	res, err := f.SendGuestMessage(context.Background(), "guest_9_9", "hi")
	require.NoError(t, err)
	assert.Equal(t, PathAnonymous, res.Path)
}

func TestSendGuestMessageBothPathsFail(t *testing.T) {
	api := &fakeAPI{
		guestSendErr: &apiclient.RequestFailed{Op: "guestSend", Status: 500},
		anonSendErr:  &apiclient.RequestFailed{Op: "anonymousSend", Status: 503},
	}
	f := newFacade(t, api, guestVisitor)

	_, err := f.SendGuestMessage(context.Background(), "guest_9_9", "hi")
	require.Error(t, err)
	assert.True(t, apiclient.IsFailure(err))
}

func TestFetchGuestMessagesPrimary(t *testing.T) {
	api := &fakeAPI{guestHistory: []apiclient.ChatMessage{{ID: "2"}, {ID: "1"}}}
	f := newFacade(t, api, guestVisitor)

	messages, err := f.FetchGuestMessages(context.Background(), "guest_9_9")
	require.NoError(t, err)
	assert.Equal(t, []string{"2", "1"}, ids(messages))
}

func TestFetchGuestMessagesNormalizesAnonymousShape(t *testing.T) {
	api := &fakeAPI{
		guestHistErr: &apiclient.RequestFailed{Op: "guestMessages", Status: 404},
		anonHistory:  []apiclient.ChatMessage{{ID: "a1"}, {ID: "a2"}},
	}
	f := newFacade(t, api, guestVisitor)

	messages, err := f.FetchGuestMessages(context.Background(), "guest_9_9")
	require.NoError(t, err)
	assert.Equal(t, []string{"a1", "a2"}, ids(messages))
}

func TestFetchGuestMessagesEmptyIsNotNil(t *testing.T) {
	api := &fakeAPI{guestHistErr: &apiclient.TransportUnavailable{Op: "guestMessages", Err: errors.New("refused")}}
	f := newFacade(t, api, guestVisitor)

	messages, err := f.FetchGuestMessages(context.Background(), "guest_9_9")
	require.NoError(t, err)
	assert.NotNil(t, messages)
	assert.Empty(t, messages)
}

func TestSendGuestMessageUndecodableReplyIsDelivered(t *testing.T) {
	body := []byte(`{"id":42,"createdAt":"2024-01-01 10:00:00"}`)
	api := &fakeAPI{guestSendErr: &apiclient.DecodeError{Op: "guestSend", Body: body, Err: errors.New("bad id")}}
	f := newFacade(t, api, guestVisitor)

	res, err := f.SendGuestMessage(context.Background(), "guest_9_9", "hi")
	require.NoError(t, err)
	assert.Equal(t, PathGuest, res.Path)
	assert.Nil(t, res.Message)
	assert.JSONEq(t, string(body), string(res.Raw))
	assert.Empty(t, api.anonSent, "anonymous endpoint must not be called")
}

func TestSendGuestMessageUndecodablePlainTextReply(t *testing.T) {
	api := &fakeAPI{guestSendErr: &apiclient.DecodeError{Op: "guestSend", Body: []byte("OK"), Err: errors.New("invalid character")}}
	f := newFacade(t, api, guestVisitor)

	res, err := f.SendGuestMessage(context.Background(), "guest_9_9", "hi")
	require.NoError(t, err)

	encoded, err := json.Marshal(res)
	require.NoError(t, err)
	assert.JSONEq(t, `{"path":"guest","raw":"OK"}`, string(encoded))
	assert.Empty(t, api.anonSent)
}

func TestSendGuestMessageLocalErrorDoesNotFallBack(t *testing.T) {
	api := &fakeAPI{guestSendErr: errors.New("failed to read auth token")}
	f := newFacade(t, api, guestVisitor)

	_, err := f.SendGuestMessage(context.Background(), "guest_9_9", "hi")
	require.Error(t, err)
	assert.False(t, apiclient.IsFailure(err))
	assert.Empty(t, api.anonSent)
}

func TestFetchGuestMessagesUndecodableReplyDoesNotFallBack(t *testing.T) {
	api := &fakeAPI{
		guestHistErr: &apiclient.DecodeError{Op: "guestMessages", Body: []byte("<html>"), Err: errors.New("invalid character")},
		anonHistory:  []apiclient.ChatMessage{{ID: "a1"}},
	}
	f := newFacade(t, api, guestVisitor)

	_, err := f.FetchGuestMessages(context.Background(), "guest_9_9")
	require.Error(t, err)

	var undecodable *apiclient.DecodeError
	assert.ErrorAs(t, err, &undecodable)
	assert.Zero(t, api.anonHistCalls)
}

func ids(messages []apiclient.ChatMessage) []string {
	out := make([]string, 0, len(messages))
	for _, m := range messages {
		out = append(out, m.ID)
	}
	return out
}
