package internal

import (
	"context"
	"errors"
	"fmt"
)

// EditPhase is the state of one optimistic-concurrency edit flow.
type EditPhase int

const (
	// EditClean: in sync with the server at the held version tag.
	EditClean EditPhase = iota
	// EditDirty: local draft pending submission.
	EditDirty
	// EditSubmitting: one write outstanding; no other write may start.
	EditSubmitting
	// EditConflict: the server's tag moved underneath us. The draft is kept;
	// submission stays blocked until a re-read supplies a fresh tag.
	EditConflict
	// EditRejected: server-side validation refused the draft. The draft is
	// kept; the user can amend and resubmit against the same tag.
	EditRejected
)

func (p EditPhase) String() string {
	switch p {
	case EditClean:
		return "CLEAN"
	case EditDirty:
		return "DIRTY"
	case EditSubmitting:
		return "SUBMITTING"
	case EditConflict:
		return "CONFLICT"
	case EditRejected:
		return "REJECTED"
	}
	return "UNKNOWN"
}

// ErrSubmitInFlight: a second write was attempted while one was outstanding.
var ErrSubmitInFlight = errors.New("a submission is already in flight for this resource")

// ErrRereadRequired: the flow is in conflict and needs a fresh read before
// another submission is accepted.
var ErrRereadRequired = errors.New("resource changed on the server; re-read it before submitting again")

// SubmitFunc performs the actual conditional write: it sends the draft with
// the given tag and returns the server-assigned tag on success.
type SubmitFunc func(ctx context.Context, tag string) (newTag string, err error)

// EditFlow guards one read-modify-write sequence against a versioned
// resource. The tag captured at read time travels with the write; a
// mismatch surfaces as a conflict, never as a silent overwrite or merge.
// The draft held by the flow survives both conflicts and rejections so no
// user input is ever lost.
type EditFlow struct {
	resource string
	tag      string
	phase    EditPhase
	draft    any
}

// NewEditFlow starts a flow from a successful read. An empty tag means the
// caller skipped the read; that is a caller defect, not a runtime
// condition, so it panics.
func NewEditFlow(resource, tag string) *EditFlow {
	if tag == "" {
		panic(fmt.Sprintf("edit flow for %q started without a version tag", resource))
	}
	return &EditFlow{resource: resource, tag: tag, phase: EditClean}
}

// Resource returns the resource identity this flow guards.
func (f *EditFlow) Resource() string { return f.resource }

// Tag returns the version tag the next write will carry.
func (f *EditFlow) Tag() string { return f.tag }

// Phase returns the current phase.
func (f *EditFlow) Phase() EditPhase { return f.phase }

// Draft returns the preserved draft, if any.
func (f *EditFlow) Draft() (any, bool) { return f.draft, f.draft != nil }

// Stage records a local draft. Allowed in every phase except Submitting;
// staging from Conflict keeps the conflict (the tag is still stale).
func (f *EditFlow) Stage(draft any) error {
	if f.phase == EditSubmitting {
		return ErrSubmitInFlight
	}
	f.draft = draft
	if f.phase != EditConflict {
		f.phase = EditDirty
	}
	return nil
}

// Submit sends the draft through the conditional write. At most one write
// is outstanding per flow; the outcome decides the next phase:
// success -> Clean(newTag), conflict -> Conflict, validation -> Rejected.
// Conflict and Rejected both keep the draft.
func (f *EditFlow) Submit(ctx context.Context, write SubmitFunc) (string, error) {
	switch f.phase {
	case EditSubmitting:
		return "", ErrSubmitInFlight
	case EditConflict:
		return "", ErrRereadRequired
	case EditClean:
		return "", errors.New("nothing staged to submit")
	}

	f.phase = EditSubmitting
	newTag, err := write(ctx, f.tag)
	if err != nil {
		if errors.Is(err, ErrConflict) {
			f.phase = EditConflict
		} else {
			f.phase = EditRejected
		}
		return "", err
	}

	f.tag = newTag
	f.draft = nil
	f.phase = EditClean
	return newTag, nil
}

// Reread installs the tag obtained from a fresh read. It clears a conflict;
// the draft (if any) is preserved and the flow returns to Dirty so the user
// can resubmit at their discretion.
func (f *EditFlow) Reread(tag string) {
	if tag == "" {
		panic(fmt.Sprintf("re-read of %q produced no version tag", f.resource))
	}
	f.tag = tag
	if f.draft != nil {
		f.phase = EditDirty
	} else {
		f.phase = EditClean
	}
}
