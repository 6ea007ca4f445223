package credentials

import "errors"

// ErrUnknownCredentials is the single rejection error for both lookup
// directions. Keeping it undifferentiated prevents the API layer from
// leaking which part of a credential pair was wrong.
var ErrUnknownCredentials = errors.New("unknown credentials")
