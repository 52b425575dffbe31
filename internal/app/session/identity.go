package session

// VisitorIdentity is the guest identity of one browser install.
type VisitorIdentity struct {
	// VisitorKey is an opaque correlation token, server-issued or generated locally.
	VisitorKey string `json:"visitorKey"`

	// GuestUserID is the sender id used for guest messaging.
	GuestUserID string `json:"guestUserId"`

	// DisplayName is the user-chosen or generated label.
	DisplayName string `json:"name"`

	// Source records who issued GuestUserID: SourceServer or SourceLocal.
	Source string `json:"-"`
}

// Guest id sources.
const (
	SourceServer = "server"
	SourceLocal  = "local"
)

// Identity is who the current visitor is, as far as messaging is concerned.
// It is either Authenticated or Guest; call sites switch on the concrete type.
type Identity interface {
	// ParticipantID is the id used as sender/receiver in chat.
	ParticipantID() string

	// DisplayName is the label shown to other participants.
	DisplayName() string

	isIdentity()
}

// Authenticated is a signed-in user holding a remote API token.
type Authenticated struct {
	Token  string
	UserID string
	Name   string
	Role   string
}

func (a Authenticated) ParticipantID() string { return a.UserID }
func (a Authenticated) DisplayName() string   { return a.Name }
func (Authenticated) isIdentity()             {}

// IsAdmin reports whether the user may use the admin pages.
func (a Authenticated) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// Guest is an unauthenticated visitor with an established guest id.
type Guest struct {
	VisitorKey  string
	GuestUserID string
	Name        string
}

func (g Guest) ParticipantID() string { return g.GuestUserID }
func (g Guest) DisplayName() string   { return g.Name }
func (Guest) isIdentity()             {}

// RoleAdmin is the remote API role allowed to manage content.
const RoleAdmin = "admin"
