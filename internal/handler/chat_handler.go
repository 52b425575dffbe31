package handler

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"studiosite/internal/app/guest"
	"studiosite/internal/pkg/errs"
	"studiosite/internal/pkg/logx"
	"studiosite/internal/pkg/req"
	"studiosite/internal/pkg/resp"
)

// MaxChatMessageLength caps a single chat message, in characters.
const MaxChatMessageLength = 2000

// SendMessageInput is the body of both send endpoints.
type SendMessageInput struct {
	ReceiverID string `json:"receiverId"`
	Message    string `json:"message"`
}

func (in *SendMessageInput) validate() *errs.CustomError {
	in.ReceiverID = strings.TrimSpace(in.ReceiverID)
	in.Message = strings.TrimSpace(in.Message)

	if in.Message == "" {
		return errs.NewError(errs.ErrInvalidParams)
	}
	if len([]rune(in.Message)) > MaxChatMessageLength {
		return errs.NewError(errs.ErrMessageContentTooLong)
	}
	return nil
}

// GuestSessionInput carries the display name and browser signals of a guest.
type GuestSessionInput struct {
	Name string `json:"name"`
	guest.Environment
}

// HandleListConversations lists the signed-in user's chat threads.
func HandleListConversations(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conversations, err := deps.Client(r).ListConversations(r.Context())
		if err != nil {
			respondUpstreamError(w, r, err, "list conversations", "Failed to load conversations.")
			return
		}

		resp.RespondSuccess(w, r, conversations)
	}
}

// HandleListConversationMessages returns the thread with {peerId}.
func HandleListConversationMessages(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		messages, err := deps.Client(r).ListConversationMessages(r.Context(), chi.URLParam(r, "peerId"))
		if err != nil {
			respondUpstreamError(w, r, err, "list conversation messages", "Failed to load messages.")
			return
		}

		resp.RespondSuccess(w, r, messages)
	}
}

// HandleSendChatMessage sends a message as the signed-in user.
func HandleSendChatMessage(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input SendMessageInput
		if customErr := req.BindJSON(r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}
		if customErr := input.validate(); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}
		if input.ReceiverID == "" {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		msg, err := deps.Client(r).SendChatMessage(r.Context(), input.ReceiverID, input.Message)
		if err != nil {
			respondUpstreamError(w, r, err, "send chat message", "Failed to send message.")
			return
		}

		resp.RespondCreated(w, r, msg)
	}
}

// HandleGuestSession makes sure the visitor has a guest identity and returns it.
// The body is optional; missing browser signals fall back to request headers.
func HandleGuestSession(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input GuestSessionInput
		if customErr := req.BindOptionalJSON(r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		env := input.Environment
		if env.UserAgent == "" {
			env.UserAgent = r.UserAgent()
		}
		if env.Locale == "" {
			env.Locale = primaryLanguage(r.Header.Get("Accept-Language"))
		}

		identity, err := deps.Guests.EnsureGuestSession(r.Context(), deps.Session(r), &env, strings.TrimSpace(input.Name))
		if err != nil {
			logx.Error(err, "Failed to persist guest identity")
			resp.RespondError(w, r, errs.NewError(errs.ErrStorageFailed))
			return
		}

		resp.RespondSuccess(w, r, identity)
	}
}

// HandleGuestOnline lists guests currently present. It never fails.
func HandleGuestOnline(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp.RespondSuccess(w, r, deps.Messaging(r).ListOnlineUsers(r.Context()))
	}
}

// HandleGuestSend sends a guest message, falling back to the anonymous endpoint.
func HandleGuestSend(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input SendMessageInput
		if customErr := req.BindJSON(r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}
		if customErr := input.validate(); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		result, err := deps.Messaging(r).SendGuestMessage(r.Context(), input.ReceiverID, input.Message)
		if err != nil {
			respondUpstreamError(w, r, err, "send guest message", "Failed to send message.")
			return
		}

		resp.RespondCreated(w, r, result)
	}
}

// HandleGuestMessages returns the guest's thread with {peerId}. When both history
// endpoints fail the visitor sees an empty thread.
func HandleGuestMessages(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		messages, err := deps.Messaging(r).FetchGuestMessages(r.Context(), chi.URLParam(r, "peerId"))
		if err != nil {
			logx.Ctx(r.Context()).Warn().Err(err).Msg("Guest history unavailable, returning an empty thread")
			resp.RespondSuccess(w, r, []any{})
			return
		}

		resp.RespondSuccess(w, r, messages)
	}
}

// primaryLanguage returns the first tag of an Accept-Language header.
func primaryLanguage(header string) string {
	tag, _, _ := strings.Cut(header, ",")
	tag, _, _ = strings.Cut(tag, ";")
	return strings.TrimSpace(tag)
}
