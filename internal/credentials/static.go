package credentials

import (
	"context"
	"crypto/subtle"
)

// staticProvider serves a fixed principal→passphrase table loaded from
// configuration. It backs small deployments and every test.
type staticProvider struct {
	byPrincipal map[string]string
}

// NewStaticProvider builds a [Provider] over a fixed credential table keyed
// by principal.
func NewStaticProvider(byPrincipal map[string]string) Provider {
	table := make(map[string]string, len(byPrincipal))
	for principal, passphrase := range byPrincipal {
		table[principal] = passphrase
	}
	return &staticProvider{byPrincipal: table}
}

// Resolve scans the whole table with constant-time comparison per entry so
// a mismatch costs the same whether it differs at the first byte or the
// last. Tables are small; linearity is fine.
func (p *staticProvider) Resolve(_ context.Context, passphrase string) (string, error) {
	var found string
	matches := 0
	for principal, candidate := range p.byPrincipal {
		if subtle.ConstantTimeCompare([]byte(candidate), []byte(passphrase)) == 1 {
			found = principal
			matches++
		}
	}
	if matches != 1 {
		// Zero matches is an unknown passphrase. More than one means the
		// table is ambiguous and resolving would pick a principal at random.
		return "", ErrUnknownCredentials
	}
	return found, nil
}

func (p *staticProvider) Lookup(_ context.Context, principal string) (string, error) {
	passphrase, ok := p.byPrincipal[principal]
	if !ok {
		return "", ErrUnknownCredentials
	}
	return passphrase, nil
}
