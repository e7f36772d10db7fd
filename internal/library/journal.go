// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package library

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// OpKind names a favorites mutation.
type OpKind string

const (
	OpAdd        OpKind = "add"
	OpRemove     OpKind = "remove"
	OpToggleRead OpKind = "toggle-read"
)

// OpState is the lifecycle position of a mutation:
// in-flight, then applied or failed.
type OpState string

const (
	OpInFlight OpState = "in-flight"
	OpApplied  OpState = "applied"
	OpFailed   OpState = "failed"
)

// Op is one journaled mutation.
type Op struct {
	ID       string
	Kind     OpKind
	Key      string
	State    OpState
	Started  time.Time
	Finished time.Time
}

const historySize = 32

// Journal tracks favorites mutations by request id. It is not safe for
// concurrent use; View serializes access under its own lock.
type Journal struct {
	inFlight  map[string]*Op
	history   []Op
	committed uint64
}

// NewJournal returns an empty journal.
func NewJournal() *Journal {
	return &Journal{inFlight: make(map[string]*Op)}
}

// Begin registers an in-flight mutation and returns it.
func (j *Journal) Begin(kind OpKind, key string) Op {
	op := &Op{
		ID:      uuid.NewString(),
		Kind:    kind,
		Key:     key,
		State:   OpInFlight,
		Started: time.Now(),
	}
	j.inFlight[op.ID] = op
	return *op
}

// Finish moves the mutation to applied or failed. Unknown ids are ignored.
func (j *Journal) Finish(id string, applied bool) {
	op, ok := j.inFlight[id]
	if !ok {
		return
	}
	delete(j.inFlight, id)

	op.State = OpFailed
	if applied {
		op.State = OpApplied
		j.committed++
	}
	op.Finished = time.Now()

	j.history = append(j.history, *op)
	if len(j.history) > historySize {
		j.history = j.history[len(j.history)-historySize:]
	}
}

// Pending returns the in-flight mutations, oldest first.
func (j *Journal) Pending() []Op {
	out := make([]Op, 0, len(j.inFlight))
	for _, op := range j.inFlight {
		out = append(out, *op)
	}
	sort.Slice(out, func(a, b int) bool {
		return out[a].Started.Before(out[b].Started)
	})
	return out
}

// Committed counts applied mutations since the journal was created.
func (j *Journal) Committed() uint64 { return j.committed }

// History returns the most recently finished mutations, oldest first.
func (j *Journal) History() []Op {
	return append([]Op(nil), j.history...)
}
