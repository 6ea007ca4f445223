package session

import "errors"

// ErrInvalidSession covers every rejection reason: unknown token, expired
// token, revoked token. Callers translate it to one generic auth failure so
// responses never reveal which case occurred.
var ErrInvalidSession = errors.New("invalid session")
