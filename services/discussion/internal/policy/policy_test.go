package policy

import (
	"testing"

	"github.com/example/discussion-platform/services/discussion/internal/domain"
)

var allActions = []domain.Action{
	domain.ActionCreate, domain.ActionEdit, domain.ActionDelete, domain.ActionUndelete,
	domain.ActionUpvote, domain.ActionDownvote, domain.ActionUnvote,
}

func fixtures() (*domain.Thread, *domain.Comment, *domain.Comment) {
	th := domain.NewThread("post", "1")
	th.ID = "thread-1"
	active := &domain.Comment{ID: "c1", ThreadID: th.ID, CreatorID: "owner", Body: "Something"}
	deleted := &domain.Comment{ID: "c2", ThreadID: th.ID, CreatorID: "owner", Body: "Gone", IsDeleted: true, DeleterID: "owner"}
	return &th, active, deleted
}

func targetFor(action domain.Action, th *domain.Thread, active, deleted *domain.Comment) Target {
	if action == domain.ActionUndelete {
		return Target{Thread: th, Comment: deleted}
	}
	return Target{Thread: th, Comment: active}
}

func TestPermitted_AnonymousAndNonReadersDenied(t *testing.T) {
	p := New(DefaultOptions())
	th, active, deleted := fixtures()

	actors := map[string]*domain.Actor{
		"anonymous":          nil,
		"no capabilities":    domain.NewActor("someone"),
		"owner without read": domain.NewActor("owner"),
		"edit without read":  domain.NewActor("mod", domain.CapabilityEdit),
		"admin without read": domain.NewActor("root", domain.CapabilityAdmin, domain.CapabilityEdit),
	}
	for name, actor := range actors {
		for _, action := range allActions {
			t.Run(name+"/"+string(action), func(t *testing.T) {
				if p.Permitted(actor, action, targetFor(action, th, active, deleted)) {
					t.Fatalf("expected %s to be denied", action)
				}
			})
		}
	}
}

func TestPermitted_ReaderOnOthersComment(t *testing.T) {
	p := New(DefaultOptions())
	th, active, deleted := fixtures()
	reader := domain.NewActor("reader", domain.CapabilityRead)

	cases := []struct {
		action domain.Action
		allow  bool
	}{
		{domain.ActionRead, true},
		{domain.ActionCreate, true},
		{domain.ActionUpvote, true},
		{domain.ActionDownvote, true},
		{domain.ActionUnvote, true},
		{domain.ActionEdit, false},
		{domain.ActionDelete, false},
		{domain.ActionUndelete, false},
	}
	for _, tc := range cases {
		t.Run(string(tc.action), func(t *testing.T) {
			got := p.Permitted(reader, tc.action, targetFor(tc.action, th, active, deleted))
			if got != tc.allow {
				t.Fatalf("Permitted(reader, %q) = %v, want %v", tc.action, got, tc.allow)
			}
		})
	}
}

func TestPermitted_OwnershipAndModeration(t *testing.T) {
	p := New(DefaultOptions())
	th, active, deleted := fixtures()

	actors := map[string]*domain.Actor{
		"owner":  domain.NewActor("owner", domain.CapabilityRead),
		"editor": domain.NewActor("mod", domain.CapabilityRead, domain.CapabilityEdit),
		"admin":  domain.NewActor("root", domain.CapabilityRead, domain.CapabilityAdmin),
	}
	for name, actor := range actors {
		t.Run(name, func(t *testing.T) {
			if !p.Permitted(actor, domain.ActionEdit, Target{Comment: active}) {
				t.Fatal("expected edit to be permitted")
			}
			if !p.Permitted(actor, domain.ActionDelete, Target{Comment: active}) {
				t.Fatal("expected delete to be permitted")
			}
			if !p.Permitted(actor, domain.ActionUndelete, Target{Thread: th, Comment: deleted}) {
				t.Fatal("expected undelete to be permitted")
			}
		})
	}
}

func TestPermitted_StatePreconditions(t *testing.T) {
	p := New(DefaultOptions())
	_, active, deleted := fixtures()
	admin := domain.NewActor("root", domain.CapabilityRead, domain.CapabilityEdit, domain.CapabilityAdmin)

	if p.Permitted(admin, domain.ActionDelete, Target{Comment: deleted}) {
		t.Fatal("delete of a deleted comment must be denied")
	}
	if p.Permitted(admin, domain.ActionUndelete, Target{Comment: active}) {
		t.Fatal("undelete of an active comment must be denied")
	}
}

func TestPermitted_ClosedThread(t *testing.T) {
	p := New(DefaultOptions())
	th, active, _ := fixtures()
	th.Close("root", active.CreatedAt)
	admin := domain.NewActor("root", domain.CapabilityRead, domain.CapabilityEdit, domain.CapabilityAdmin)

	if p.Permitted(admin, domain.ActionCreate, Target{Thread: th}) {
		t.Fatal("create on a closed thread must be denied")
	}
	if p.Permitted(admin, domain.ActionUpvote, Target{Thread: th, Comment: active}) {
		t.Fatal("votes on a closed thread must be denied")
	}
	if !p.Permitted(admin, domain.ActionEdit, Target{Thread: th, Comment: active}) {
		t.Fatal("edits stay allowed on a closed thread")
	}
	if !p.Permitted(admin, domain.ActionDelete, Target{Thread: th, Comment: active}) {
		t.Fatal("deletes stay allowed on a closed thread")
	}
}

func TestPermitted_MissingTarget(t *testing.T) {
	p := New(DefaultOptions())
	reader := domain.NewActor("reader", domain.CapabilityRead, domain.CapabilityAdmin)
	for _, action := range allActions {
		if p.Permitted(reader, action, Target{}) {
			t.Fatalf("%s without a target must be denied", action)
		}
	}
	if p.Permitted(reader, domain.Action("archive"), Target{}) {
		t.Fatal("unknown action must be denied")
	}
}

func TestPermitted_EditDeletedRule(t *testing.T) {
	_, _, deleted := fixtures()
	owner := domain.NewActor("owner", domain.CapabilityRead)

	if !New(DefaultOptions()).Permitted(owner, domain.ActionEdit, Target{Comment: deleted}) {
		t.Fatal("default options keep edits on deleted comments")
	}
	strict := New(Options{AllowEditDeleted: false})
	if strict.Permitted(owner, domain.ActionEdit, Target{Comment: deleted}) {
		t.Fatal("strict options must block edits on deleted comments")
	}
}

func TestPermitted_SelfVote(t *testing.T) {
	th, active, _ := fixtures()
	owner := domain.NewActor("owner", domain.CapabilityRead)
	target := Target{Thread: th, Comment: active}

	if !New(DefaultOptions()).Permitted(owner, domain.ActionUpvote, target) {
		t.Fatal("self votes are allowed by default")
	}
	p := New(Options{ForbidSelfVote: true, AllowEditDeleted: true})
	for _, action := range []domain.Action{domain.ActionUpvote, domain.ActionDownvote, domain.ActionUnvote} {
		if p.Permitted(owner, action, target) {
			t.Fatalf("%s on own comment must be denied", action)
		}
	}
	other := domain.NewActor("other", domain.CapabilityRead)
	if !p.Permitted(other, domain.ActionUpvote, target) {
		t.Fatal("other readers may still vote")
	}
}
