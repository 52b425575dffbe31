package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"studiosite/internal/app/apiclient"
	"studiosite/internal/app/session"
	"studiosite/internal/pkg/logx"
)

// Delivery paths reported in SendResult.Path.
const (
	PathGuest     = "guest"
	PathAnonymous = "anonymous"
)

// ErrNoGuestIdentity is returned by the guest strategies when the visitor has no guest id yet.
var ErrNoGuestIdentity = errors.New("visitor has no guest identity")

// API is the part of the remote API the facade talks to. *apiclient.Client implements it.
type API interface {
	GuestOnline(ctx context.Context) ([]apiclient.OnlineUser, error)
	GuestSend(ctx context.Context, senderID, receiverID, text string) (*apiclient.ChatMessage, error)
	GuestMessages(ctx context.Context, userID, peerID string) ([]apiclient.ChatMessage, error)
	AnonymousSend(ctx context.Context, visitorKey, name, text string) (*apiclient.AnonymousReceipt, error)
	AnonymousMessages(ctx context.Context, visitorKey string) (*apiclient.AnonymousHistory, error)
}

// SendResult describes a delivered message. Message is nil when the API answered without
// a decodable message object; Raw then holds the body as received, as JSON.
type SendResult struct {
	Path    string                 `json:"path"`
	Message *apiclient.ChatMessage `json:"message,omitempty"`
	Raw     json.RawMessage        `json:"raw,omitempty"`
}

// Facade performs guest chat operations for one visitor.
type Facade struct {
	api  API
	sess *session.Context
}

func New(api API, sess *session.Context) *Facade {
	return &Facade{api: api, sess: sess}
}

// ListOnlineUsers returns the guests currently present. Presence is best effort:
// any failure yields an empty list and no error.
func (f *Facade) ListOnlineUsers(ctx context.Context) []apiclient.OnlineUser {
	users, err := f.api.GuestOnline(ctx)
	if err != nil {
		logx.Ctx(ctx).Warn().Err(err).Msg("Guest presence unavailable, reporting nobody online")
		return []apiclient.OnlineUser{}
	}
	if users == nil {
		return []apiclient.OnlineUser{}
	}
	return users
}

// SendGuestMessage sends text to receiverID through the guest endpoint, or through the
// anonymous endpoint signed with the cached display name when the guest request fails.
// Only a failed request falls back; a 2xx reply that does not decode counts as delivered.
func (f *Facade) SendGuestMessage(ctx context.Context, receiverID, text string) (SendResult, error) {
	v, err := f.sess.Visitor(ctx)
	if err != nil {
		return SendResult{}, fmt.Errorf("failed to read visitor identity: %w", err)
	}

	res, _, err := Attempt(ctx,
		Strategy[SendResult]{
			Name: PathGuest,
			Run: func(ctx context.Context) (SendResult, error) {
				if v.GuestUserID == "" {
					return SendResult{}, ErrNoGuestIdentity
				}
				msg, err := f.api.GuestSend(ctx, v.GuestUserID, receiverID, text)
				var undecodable *apiclient.DecodeError
				switch {
				case err == nil:
					return SendResult{Path: PathGuest, Message: msg}, nil
				case errors.As(err, &undecodable):
					// Accepted by the API; resending through the anonymous path would duplicate it.
					logx.Ctx(ctx).Warn().Err(err).Msg("Guest send accepted with an unreadable reply")
					return SendResult{Path: PathGuest, Raw: apiclient.RawJSON(undecodable.Body)}, nil
				case apiclient.IsFailure(err):
					return SendResult{}, err
				default:
					return SendResult{}, Halt(err)
				}
			},
		},
		Strategy[SendResult]{
			Name: PathAnonymous,
			Run: func(ctx context.Context) (SendResult, error) {
				receipt, err := f.api.AnonymousSend(ctx, v.VisitorKey, v.DisplayName, text)
				if err != nil {
					return SendResult{}, err
				}
				return SendResult{Path: PathAnonymous, Message: receipt.Message, Raw: receipt.Raw}, nil
			},
		},
	)
	if err != nil {
		return SendResult{}, err
	}
	return res, nil
}

// FetchGuestMessages returns the history with peerID from the guest endpoint, or the
// visitor's anonymous history when the guest request fails. A guest reply that does not
// decode is returned as an error. Order is the server's.
func (f *Facade) FetchGuestMessages(ctx context.Context, peerID string) ([]apiclient.ChatMessage, error) {
	v, err := f.sess.Visitor(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read visitor identity: %w", err)
	}

	messages, _, err := Attempt(ctx,
		Strategy[[]apiclient.ChatMessage]{
			Name: PathGuest,
			Run: func(ctx context.Context) ([]apiclient.ChatMessage, error) {
				if v.GuestUserID == "" {
					return nil, ErrNoGuestIdentity
				}
				messages, err := f.api.GuestMessages(ctx, v.GuestUserID, peerID)
				if err != nil && !apiclient.IsFailure(err) {
					return nil, Halt(err)
				}
				return messages, err
			},
		},
		Strategy[[]apiclient.ChatMessage]{
			Name: PathAnonymous,
			Run: func(ctx context.Context) ([]apiclient.ChatMessage, error) {
				history, err := f.api.AnonymousMessages(ctx, v.VisitorKey)
				if err != nil {
					return nil, err
				}
				return history.Messages, nil
			},
		},
	)
	if err != nil {
		return nil, err
	}
	if messages == nil {
		messages = []apiclient.ChatMessage{}
	}
	return messages, nil
}
