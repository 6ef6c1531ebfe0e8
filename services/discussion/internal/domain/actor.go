package domain

import "sort"

// Capability is a named permission consulted by the authorization policy.
type Capability string

const (
	CapabilityRead  Capability = "read"
	CapabilityEdit  Capability = "edit"
	CapabilityAdmin Capability = "admin"
)

var capabilityBits = map[Capability]CapabilitySet{
	CapabilityRead:  1 << 0,
	CapabilityEdit:  1 << 1,
	CapabilityAdmin: 1 << 2,
}

// CapabilitySet is a set of capabilities held by an actor.
type CapabilitySet uint8

func NewCapabilitySet(caps ...Capability) CapabilitySet {
	var s CapabilitySet
	for _, c := range caps {
		s = s.With(c)
	}
	return s
}

// ParseCapabilities builds a set from capability names. Unknown names are ignored.
func ParseCapabilities(names []string) CapabilitySet {
	var s CapabilitySet
	for _, n := range names {
		s = s.With(Capability(n))
	}
	return s
}

func (s CapabilitySet) Has(c Capability) bool {
	bit, ok := capabilityBits[c]
	return ok && s&bit != 0
}

func (s CapabilitySet) With(c Capability) CapabilitySet {
	return s | capabilityBits[c]
}

func (s CapabilitySet) Without(c Capability) CapabilitySet {
	return s &^ capabilityBits[c]
}

// Strings returns the capability names in a stable order.
func (s CapabilitySet) Strings() []string {
	out := make([]string, 0, len(capabilityBits))
	for c, bit := range capabilityBits {
		if s&bit != 0 {
			out = append(out, string(c))
		}
	}
	sort.Strings(out)
	return out
}

// Actor is the identity attempting an action. A nil *Actor is anonymous.
type Actor struct {
	ID   string
	Caps CapabilitySet
}

func NewActor(id string, caps ...Capability) *Actor {
	return &Actor{ID: id, Caps: NewCapabilitySet(caps...)}
}

// Can reports whether a signed-in actor holds c.
func (a *Actor) Can(c Capability) bool {
	return a != nil && a.Caps.Has(c)
}

// Is reports whether the actor is the identity id.
func (a *Actor) Is(id string) bool {
	return a != nil && a.ID != "" && a.ID == id
}
