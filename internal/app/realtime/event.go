/*
Package realtime relays the remote API's chat socket to browser tabs.

Each chat identity gets one Relay: a single upstream socket that joins the identity's room
and fans every inbound message out to all of that identity's open tabs. The Hub owns the
relays and removes them once they go idle.
*/
package realtime

import (
	"encoding/json"
	"errors"

	"studiosite/internal/pkg/errs"
)

// Event names used on both sockets.
const (
	// EventJoin asks the upstream to subscribe the socket to a user's room.
	EventJoin = "join"

	// EventReceiveMessage carries an inbound chat message.
	EventReceiveMessage = "receive_message"

	// EventReady tells a tab that its relay joined the upstream room.
	EventReady = "ready"

	// EventError reports a relay failure to a tab.
	EventError = "error"
)

// Event is a frame on either socket: {"event": "...", "data": ...}.
type Event struct {
	Name string          `json:"event"`
	Data json.RawMessage `json:"data,omitempty"`
}

// ErrorData is the data of an EventError frame.
type ErrorData struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// ReadyData is the data of an EventReady frame.
type ReadyData struct {
	ParticipantID string `json:"participantId"`
}

// NewEvent marshals data into an Event frame.
func NewEvent(name string, data any) ([]byte, error) {
	ev := Event{Name: name}

	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return nil, err
		}
		ev.Data = raw
	}

	return json.Marshal(ev)
}

// errorEvent builds an EventError frame from err.
func errorEvent(err error) []byte {
	var customErr *errs.CustomError
	if !errors.As(err, &customErr) {
		customErr = errs.NewError(errs.ErrUnknown)
	}

	frame, marshalErr := NewEvent(EventError, ErrorData{Code: customErr.Code, Message: customErr.Message})
	if marshalErr != nil {
		return []byte(`{"event":"error"}`)
	}
	return frame
}
