package models

import "time"

// FoundationPair is an unordered pair of distinct foundations. The two
// fields are kept in foundation-set enumeration order (A before B in the
// sorted foundation list) so equal pairs compare equal and the stored
// order matches the sample block order.
type FoundationPair struct {
	A string `json:"-"`
	B string `json:"-"`
}

// Slice returns the pair as a two-element slice, A first.
func (p FoundationPair) Slice() []string {
	return []string{p.A, p.B}
}

// PairFromSlice rebuilds a pair from its stored two-element form.
func PairFromSlice(s []string) (FoundationPair, bool) {
	if len(s) != 2 {
		return FoundationPair{}, false
	}
	return FoundationPair{A: s[0], B: s[1]}, true
}

// Participant is created exactly once at registration and never updated.
type Participant struct {
	ID        string         `json:"participant_id"`
	Pair      FoundationPair `json:"-"`
	SampleIDs []int          `json:"-"`
	CreatedAt time.Time      `json:"created_at"`
	Name      string         `json:"name,omitempty"`
}

// Response is a single append-only rating. Multiple ratings per
// (participant, sample) pair are retained as-is.
type Response struct {
	ParticipantID string    `json:"participant_id" db:"participant_id"`
	SampleID      int       `json:"sample_id" db:"sample_id"`
	Rating        int       `json:"rating" db:"rating"`
	SubmittedAt   time.Time `json:"ts" db:"ts"`
}

// RegisterRequest is the optional JSON body of POST /register.
type RegisterRequest struct {
	Name string `json:"name"`
}

// SubmitRequest is the JSON body of POST /submit.
type SubmitRequest struct {
	ParticipantID string `json:"participant_id" binding:"required"`
	SampleID      *int   `json:"sample_id" binding:"required"`
	Rating        *int   `json:"rating" binding:"required"`
}

// ParticipantPayload is the registration/fetch response shape: the
// participant's samples in assignment order, with full text fields.
type ParticipantPayload struct {
	ParticipantID       string   `json:"participant_id"`
	AssignedFoundations []string `json:"assigned_foundations"`
	Samples             []Sample `json:"samples"`
	Name                string   `json:"name,omitempty"`
}
