package auth

import (
	"context"
	"errors"
)

// Credential is a stored login. Password holds either the cleartext
// password or an argon2id-encoded hash (see HashPassword).
type Credential struct {
	Username string
	Password string
}

// CredentialStore looks up credentials by username.
type CredentialStore interface {
	Find(ctx context.Context, username string) (Credential, bool, error)
}

// StaticStore serves a fixed set of credentials held in memory.
type StaticStore struct {
	byUsername map[string]Credential
}

func NewStaticStore(creds ...Credential) (*StaticStore, error) {
	s := &StaticStore{byUsername: make(map[string]Credential, len(creds))}
	for _, c := range creds {
		if c.Username == "" {
			return nil, errors.New("credential username is empty")
		}
		if _, exists := s.byUsername[c.Username]; exists {
			return nil, errors.New("duplicate credential for " + c.Username)
		}
		s.byUsername[c.Username] = c
	}
	return s, nil
}

func (s *StaticStore) Find(_ context.Context, username string) (Credential, bool, error) {
	c, ok := s.byUsername[username]
	return c, ok, nil
}
