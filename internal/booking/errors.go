package booking

import "errors"

// Typed rejections surfaced by the Coordinator.  Handlers translate
// these into HTTP responses; anything else escaping the package is an
// internal storage or collaborator failure.

// ErrInvalidSegment rejects a request whose boarding/alighting stop
// numbers are missing on the train or not in ascending order.
var ErrInvalidSegment = errors.New("invalid travel segment")

// ErrDateOutOfRange rejects a travel date outside the booking
// horizon [today, today+horizon].
var ErrDateOutOfRange = errors.New("travel date outside booking horizon")

// ErrUnknownTrain rejects a train code the route index has no stops for.
var ErrUnknownTrain = errors.New("unknown train")

// ErrSoldOut signals allocator exhaustion: every seat has a segment
// overlapping the requested one.  A business outcome, never retried.
var ErrSoldOut = errors.New("sold out for this segment")

// ErrNoActiveTicket is the single conflated ownership/state
// rejection: ticket not found, owned by someone else, or already in a
// terminal state.  One message on purpose, so callers cannot probe
// which case applies.
var ErrNoActiveTicket = errors.New("no such active ticket")

// ErrContention is returned after the bounded retry budget is spent
// on duplicate-key conflicts from racing writers.  Retryable by the
// caller, distinct from ErrSoldOut.
var ErrContention = errors.New("booking contention, retry later")

// ErrRouteUnavailable wraps route index failures so they never
// silently read as "no seats".
var ErrRouteUnavailable = errors.New("route index unavailable")
