package sync

import "errors"

// Protocol errors
var (
	// ErrFutureMutation indicates a mutation id strictly greater than
	// lastMutationID+1 for its client. This can never happen with a
	// correct client and means client/server state diverged; the whole
	// push request is aborted and the client must fully resync.
	ErrFutureMutation = errors.New("mutation id is from the future")

	// ErrFutureCookie indicates a pull cookie greater than the current
	// server version. The server never issued such a cookie, which means
	// server data was lost or reset; the client must restart from cookie 0.
	ErrFutureCookie = errors.New("pull cookie is from the future")

	// ErrUnknownMutation indicates a mutation name not present in the
	// registry. Fatal for that single mutation only: its bookkeeping is
	// still advanced so the client is not blocked, but the domain effect
	// is dropped.
	ErrUnknownMutation = errors.New("unknown mutation")

	// ErrBadMutationArgs indicates mutation args that fail to decode.
	// Decode failure детерминирована: ретрансляция той же мутации не
	// может преуспеть, поэтому она потребляется через error path как
	// и unknown mutation — иначе клиент застрянет навсегда.
	ErrBadMutationArgs = errors.New("bad mutation args")
)
