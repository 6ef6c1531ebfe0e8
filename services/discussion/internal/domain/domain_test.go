package domain

import (
	"testing"
	"time"
)

func TestCapabilitySet(t *testing.T) {
	s := NewCapabilitySet(CapabilityRead)
	if !s.Has(CapabilityRead) {
		t.Fatal("expected read capability")
	}
	if s.Has(CapabilityEdit) || s.Has(CapabilityAdmin) {
		t.Fatalf("unexpected capabilities: %v", s.Strings())
	}

	s = s.With(CapabilityAdmin).Without(CapabilityRead)
	if s.Has(CapabilityRead) || !s.Has(CapabilityAdmin) {
		t.Fatalf("expected only admin, got %v", s.Strings())
	}
}

func TestParseCapabilities_IgnoresUnknown(t *testing.T) {
	s := ParseCapabilities([]string{"edit", "superuser", "read"})
	got := s.Strings()
	if len(got) != 2 || got[0] != "edit" || got[1] != "read" {
		t.Fatalf("expected [edit read], got %v", got)
	}
	if s.Has(Capability("superuser")) {
		t.Fatal("unknown capability must never be held")
	}
}

func TestActor_NilIsAnonymous(t *testing.T) {
	var a *Actor
	if a.Can(CapabilityRead) {
		t.Fatal("anonymous actor must not hold capabilities")
	}
	if a.Is("") || a.Is("user-a") {
		t.Fatal("anonymous actor has no identity")
	}
	if NewActor("").Is("") {
		t.Fatal("empty id must not match")
	}
}

func TestVoteLedger_Exclusivity(t *testing.T) {
	l := NewVoteLedger()
	if !l.UpvoteFrom("a") {
		t.Fatal("upvote failed")
	}
	if !l.DownvoteFrom("a") {
		t.Fatal("downvote failed")
	}
	if l.Count(Up) != 0 {
		t.Fatalf("expected 0 upvotes, got %d", l.Count(Up))
	}
	if l.Count(Down) != 1 {
		t.Fatalf("expected 1 downvote, got %d", l.Count(Down))
	}
	if d, ok := l.VoteOf("a"); !ok || d != Down {
		t.Fatalf("expected down vote for a, got %q %v", d, ok)
	}
}

func TestVoteLedger_Idempotence(t *testing.T) {
	l := NewVoteLedger()
	l.UpvoteFrom("a")
	l.UpvoteFrom("a")
	if l.Count(Up) != 1 {
		t.Fatalf("expected 1 upvote, got %d", l.Count(Up))
	}

	if !l.UnvoteFrom("b") {
		t.Fatal("unvote without prior vote must succeed")
	}
	if l.Count(Up) != 1 || l.Count(Down) != 0 {
		t.Fatal("unvote of absent voter changed tallies")
	}

	l.RemoveVote("a")
	if len(l.Entries()) != 0 {
		t.Fatalf("expected empty ledger, got %v", l.Entries())
	}
}

func TestVoteLedger_TwoVoters(t *testing.T) {
	l := NewVoteLedger()
	l.UpvoteFrom("a")
	l.UpvoteFrom("b")
	if l.Count(Up) != 2 {
		t.Fatalf("expected 2 upvotes, got %d", l.Count(Up))
	}
	l.DownvoteFrom("b")
	if l.Count(Up) != 1 || l.Count(Down) != 1 {
		t.Fatalf("expected 1/1, got %d/%d", l.Count(Up), l.Count(Down))
	}
	if l.Score() != 0 {
		t.Fatalf("expected score 0, got %d", l.Score())
	}
	if ups := l.VotesBy(Up); len(ups) != 1 || ups[0] != "a" {
		t.Fatalf("expected [a], got %v", ups)
	}
}

func TestVoteLedger_RejectsEmptyActor(t *testing.T) {
	l := NewVoteLedger()
	if l.UpvoteFrom("") || l.DownvoteFrom("") || l.UnvoteFrom("") {
		t.Fatal("empty actor id must be rejected")
	}
}

func TestLedgerFrom_SkipsInvalid(t *testing.T) {
	l := LedgerFrom([]Vote{
		{ActorID: "a", Direction: Up},
		{ActorID: "b", Direction: "sideways"},
		{ActorID: "", Direction: Down},
	})
	if len(l.Entries()) != 1 {
		t.Fatalf("expected 1 entry, got %v", l.Entries())
	}
}

func TestComment_CloneIsIndependent(t *testing.T) {
	now := time.Now()
	c := Comment{ID: "c1", DeletedAt: &now}
	c.Ledger().UpvoteFrom("a")

	cp := c.Clone()
	cp.Ledger().DownvoteFrom("a")
	later := now.Add(time.Hour)
	*cp.DeletedAt = later

	if d, _ := c.Votes.VoteOf("a"); d != Up {
		t.Fatalf("original ledger mutated: %q", d)
	}
	if !c.DeletedAt.Equal(now) {
		t.Fatal("original timestamp mutated")
	}
}

func TestThreadGate(t *testing.T) {
	th := NewThread("post", "42")
	if !th.AcceptsNewComments() {
		t.Fatal("new thread must be open")
	}
	th.Close("mod-1", time.Now())
	if th.AcceptsNewComments() || th.ClosedBy != "mod-1" || th.ClosedAt == nil {
		t.Fatalf("unexpected closed state: %+v", th)
	}
	th.Reopen()
	if !th.AcceptsNewComments() || th.ClosedBy != "" || th.ClosedAt != nil {
		t.Fatalf("unexpected reopened state: %+v", th)
	}
}
