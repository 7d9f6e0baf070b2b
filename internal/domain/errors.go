package domain

import "errors"

var (
	// ErrParticipantRequired is returned when a request omits the participant id.
	ErrParticipantRequired = errors.New("user_id is required")
	// ErrProblemRequired is returned when a request omits the problem id.
	ErrProblemRequired = errors.New("problem_id is required")
	// ErrProfileNotFound indicates the identity provider has no such participant.
	ErrProfileNotFound = errors.New("profile not found")
	// ErrProblemInvalid indicates a catalog entry is missing required fields.
	ErrProblemInvalid = errors.New("title, difficulty, link are required")
	// ErrInvalidSignature indicates a payment signature failed verification.
	ErrInvalidSignature = errors.New("invalid signature")
)
