/*
Package guest establishes the chat identity of an unauthenticated visitor.

The Bootstrapper asks the remote API for a guest identity and caches it in the visitor's
session. When the API cannot answer, the Generator derives a local id from browser signals
so the visitor can still chat.
*/
package guest

import (
	"fmt"
	"strconv"
	"time"
	"unicode/utf16"

	"studiosite/internal/app/session"
	"studiosite/internal/pkg/randx"
)

// Environment holds the browser signals a fingerprint is derived from.
type Environment struct {
	UserAgent      string `json:"userAgent"`
	Locale         string `json:"locale"`
	ScreenWidth    int    `json:"screenWidth"`
	ScreenHeight   int    `json:"screenHeight"`
	TimezoneOffset int    `json:"timezoneOffset"`
}

// Signals concatenates the environment into the hashed string.
func (e Environment) Signals() string {
	return e.UserAgent + e.Locale +
		strconv.Itoa(e.ScreenWidth) +
		strconv.Itoa(e.ScreenHeight) +
		strconv.Itoa(e.TimezoneOffset)
}

// Hash is the 32-bit rolling hash of s over its UTF-16 code units: h = h*31 + c,
// wrapped to a signed 32-bit integer after every step.
func Hash(s string) int32 {
	var h int32
	for _, u := range utf16.Encode([]rune(s)) {
		h = (h << 5) - h + int32(u)
	}
	return h
}

// LocalGuest is an identity synthesized without the remote API.
type LocalGuest struct {
	UserID string
	Name   string
}

// Generator builds local guest identities. Clock and Names are injectable for tests.
type Generator struct {
	Clock session.Clock
	Names func() string
}

// NewGenerator returns a Generator using the wall clock and random display names.
func NewGenerator() *Generator {
	return &Generator{Clock: session.SystemClock{}, Names: randx.DisplayName}
}

// Generate returns guest_<abs(hash)>_<epochMillis> and the best available name:
// name, then storedName, then a generated one. A nil env yields an empty UserID.
func (g *Generator) Generate(env *Environment, name, storedName string) LocalGuest {
	out := LocalGuest{Name: g.pickName(name, storedName)}
	if env == nil {
		return out
	}

	h := int64(Hash(env.Signals()))
	if h < 0 {
		h = -h
	}

	out.UserID = fmt.Sprintf("%s%d_%d", randx.GuestIDPrefix, h, g.now().UnixMilli())
	return out
}

func (g *Generator) pickName(name, storedName string) string {
	switch {
	case name != "":
		return name
	case storedName != "":
		return storedName
	case g.Names != nil:
		return g.Names()
	default:
		return randx.DisplayName()
	}
}

func (g *Generator) now() time.Time {
	if g.Clock == nil {
		return time.Now()
	}
	return g.Clock.Now()
}
