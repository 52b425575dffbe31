package apiclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
)

// ListConversations returns the signed-in user's threads.
func (c *Client) ListConversations(ctx context.Context) ([]Conversation, error) {
	var conversations []Conversation
	if _, err := c.call(ctx, "listConversations", http.MethodGet, "/chat/conversations", nil, &conversations); err != nil {
		return nil, err
	}
	return conversations, nil
}

// ListConversationMessages returns the signed-in user's history with peerID.
func (c *Client) ListConversationMessages(ctx context.Context, peerID string) ([]ChatMessage, error) {
	var messages []ChatMessage
	if _, err := c.call(ctx, "listConversationMessages", http.MethodGet, "/chat/messages/"+url.PathEscape(peerID), nil, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

// SendChatMessage sends text from the signed-in user to receiverID.
func (c *Client) SendChatMessage(ctx context.Context, receiverID, text string) (*ChatMessage, error) {
	body := map[string]string{"receiverId": receiverID, "message": text}

	var msg ChatMessage
	if _, err := c.call(ctx, "sendChatMessage", http.MethodPost, "/chat/send", body, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// GuestInit asks the API for a guest identity. visitorKey may be empty.
func (c *Client) GuestInit(ctx context.Context, visitorKey, name string) (*GuestInitResponse, error) {
	body := map[string]string{}
	if visitorKey != "" {
		body["visitorKey"] = visitorKey
	}
	if name != "" {
		body["name"] = name
	}

	var res GuestInitResponse
	if _, err := c.call(ctx, "guestInit", http.MethodPost, "/guest/init", body, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// GuestOnline lists guests currently present in chat.
func (c *Client) GuestOnline(ctx context.Context) ([]OnlineUser, error) {
	var users []OnlineUser
	if _, err := c.call(ctx, "guestOnline", http.MethodGet, "/guest/online", nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// GuestSend sends a guest-to-guest message.
func (c *Client) GuestSend(ctx context.Context, senderID, receiverID, text string) (*ChatMessage, error) {
	body := map[string]string{"senderId": senderID, "receiverId": receiverID, "message": text}

	var msg ChatMessage
	if _, err := c.call(ctx, "guestSend", http.MethodPost, "/guest/send", body, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// GuestMessages returns the guest-to-guest history between userID and peerID as an array.
func (c *Client) GuestMessages(ctx context.Context, userID, peerID string) ([]ChatMessage, error) {
	path := "/guest/messages/" + url.PathEscape(userID) + "/" + url.PathEscape(peerID)

	var messages []ChatMessage
	if _, err := c.call(ctx, "guestMessages", http.MethodGet, path, nil, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

// AnonymousSend posts a message through the anonymous path, signed with a display name.
func (c *Client) AnonymousSend(ctx context.Context, visitorKey, name, text string) (*AnonymousReceipt, error) {
	body := map[string]string{"visitorKey": visitorKey, "name": name, "message": text}

	raw, err := c.call(ctx, "anonymousSend", http.MethodPost, "/anonymous/send", body, nil)
	if err != nil {
		return nil, err
	}

	// A non-JSON body still counts as delivered.
	var receipt AnonymousReceipt
	_ = json.Unmarshal(raw, &receipt)
	receipt.Raw = RawJSON(raw)
	return &receipt, nil
}

// AnonymousMessages returns the anonymous history for visitorKey, wrapped in {messages: [...]}.
func (c *Client) AnonymousMessages(ctx context.Context, visitorKey string) (*AnonymousHistory, error) {
	var history AnonymousHistory
	if _, err := c.call(ctx, "anonymousMessages", http.MethodGet, "/anonymous/messages/"+url.PathEscape(visitorKey), nil, &history); err != nil {
		return nil, err
	}
	return &history, nil
}
