package domain

import "sort"

// Direction is the polarity of a vote.
type Direction string

const (
	Up   Direction = "up"
	Down Direction = "down"
)

func (d Direction) Valid() bool {
	return d == Up || d == Down
}

// Vote is a single (actor, direction) entry of a ledger.
type Vote struct {
	ActorID   string    `json:"actor_id"`
	Direction Direction `json:"direction"`
}

// VoteLedger records which actors voted on a comment and in which direction.
// An actor holds at most one vote at any time.
type VoteLedger struct {
	votes map[string]Direction
}

func NewVoteLedger() *VoteLedger {
	return &VoteLedger{votes: make(map[string]Direction)}
}

// LedgerFrom rebuilds a ledger from persisted entries. Invalid entries are skipped.
func LedgerFrom(entries []Vote) *VoteLedger {
	l := NewVoteLedger()
	for _, v := range entries {
		if v.ActorID == "" || !v.Direction.Valid() {
			continue
		}
		l.votes[v.ActorID] = v.Direction
	}
	return l
}

func (l *VoteLedger) UpvoteFrom(actorID string) bool {
	return l.cast(actorID, Up)
}

func (l *VoteLedger) DownvoteFrom(actorID string) bool {
	return l.cast(actorID, Down)
}

// cast records dir for actorID, replacing an opposite vote.
func (l *VoteLedger) cast(actorID string, dir Direction) bool {
	if actorID == "" {
		return false
	}
	if l.votes == nil {
		l.votes = make(map[string]Direction)
	}
	l.votes[actorID] = dir
	return true
}

// UnvoteFrom removes any vote held by actorID. It succeeds even when no vote existed.
func (l *VoteLedger) UnvoteFrom(actorID string) bool {
	if actorID == "" {
		return false
	}
	delete(l.votes, actorID)
	return true
}

// RemoveVote is an alias of UnvoteFrom.
func (l *VoteLedger) RemoveVote(actorID string) bool {
	return l.UnvoteFrom(actorID)
}

// VoteOf returns the direction actorID currently holds.
func (l *VoteLedger) VoteOf(actorID string) (Direction, bool) {
	if l == nil {
		return "", false
	}
	d, ok := l.votes[actorID]
	return d, ok
}

// VotesBy returns the actors currently voting dir, sorted.
func (l *VoteLedger) VotesBy(dir Direction) []string {
	out := []string{}
	if l == nil {
		return out
	}
	for id, d := range l.votes {
		if d == dir {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

func (l *VoteLedger) Count(dir Direction) int {
	if l == nil {
		return 0
	}
	n := 0
	for _, d := range l.votes {
		if d == dir {
			n++
		}
	}
	return n
}

// Score is upvotes minus downvotes.
func (l *VoteLedger) Score() int {
	return l.Count(Up) - l.Count(Down)
}

// Entries lists every vote ordered by actor id.
func (l *VoteLedger) Entries() []Vote {
	if l == nil {
		return nil
	}
	out := make([]Vote, 0, len(l.votes))
	for id, d := range l.votes {
		out = append(out, Vote{ActorID: id, Direction: d})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ActorID < out[j].ActorID })
	return out
}

func (l *VoteLedger) Clone() *VoteLedger {
	c := NewVoteLedger()
	if l == nil {
		return c
	}
	for id, d := range l.votes {
		c.votes[id] = d
	}
	return c
}
