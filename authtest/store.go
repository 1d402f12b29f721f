package authtest

import (
	"crypto/rand"
	"encoding/base64"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/a-novel/connector-authentication-go/bindings"
)

// Short-code purposes, matching the endpoint paths that issue them. At most
// one code is valid per (email, purpose): issuing a new one overwrites the
// prior.
const (
	PurposeRegister       = "register"
	PurposeUpdateEmail    = "update-email"
	PurposeUpdatePassword = "update-password"
)

type userRecord struct {
	id           uuid.UUID
	email        string
	passwordHash []byte
	role         bindings.CredentialsRole
	createdAt    time.Time
	updatedAt    time.Time
}

func (u *userRecord) dto() bindings.User {
	return bindings.User{
		ID:        u.id,
		Email:     u.email,
		Role:      u.role,
		CreatedAt: u.createdAt,
		UpdatedAt: u.updatedAt,
	}
}

// store is the fake service state. All access goes through the mutex; the
// handlers never hold references to records outside of it.
type store struct {
	mu sync.Mutex

	users   map[uuid.UUID]*userRecord
	byEmail map[string]uuid.UUID

	// shortCodes maps purpose+":"+email to the one valid code.
	shortCodes map[string]string

	// refreshTokens maps refresh token IDs to the users they were issued to.
	refreshTokens map[uuid.UUID]uuid.UUID
}

func newStore() *store {
	return &store{
		users:         make(map[uuid.UUID]*userRecord),
		byEmail:       make(map[string]uuid.UUID),
		shortCodes:    make(map[string]string),
		refreshTokens: make(map[uuid.UUID]uuid.UUID),
	}
}

func shortCodeKey(purpose, email string) string {
	return purpose + ":" + email
}

// newShortCode generates a URL-safe code within the wire bounds.
func newShortCode() string {
	raw := make([]byte, 18)
	_, _ = rand.Read(raw)
	return base64.RawURLEncoding.EncodeToString(raw)
}

func (s *store) createUser(email, password string, role bindings.CredentialsRole) (*userRecord, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC().Truncate(time.Second)
	record := &userRecord{
		id:           uuid.New(),
		email:        email,
		passwordHash: hash,
		role:         role,
		createdAt:    now,
		updatedAt:    now,
	}

	s.users[record.id] = record
	s.byEmail[email] = record.id

	return record, nil
}

func (s *store) userByEmail(email string) (*userRecord, bool) {
	id, ok := s.byEmail[email]
	if !ok {
		return nil, false
	}
	return s.users[id], true
}

// issueShortCode stores a fresh code for (purpose, email), invalidating any
// prior one.
func (s *store) issueShortCode(purpose, email string) string {
	code := newShortCode()
	s.shortCodes[shortCodeKey(purpose, email)] = code
	return code
}

// consumeShortCode checks a code and burns it on success.
func (s *store) consumeShortCode(purpose, email, code string) bool {
	key := shortCodeKey(purpose, email)
	if code == "" || s.shortCodes[key] != code {
		return false
	}
	delete(s.shortCodes, key)
	return true
}

// listUsers returns the limit/offset window of the directory, optionally
// filtered by roles, in deterministic creation order.
func (s *store) listUsers(limit, offset int, roles []bindings.CredentialsRole) []bindings.User {
	matches := make([]*userRecord, 0, len(s.users))
	for _, record := range s.users {
		if len(roles) > 0 && !containsRole(roles, record.role) {
			continue
		}
		matches = append(matches, record)
	}

	sort.Slice(matches, func(i, j int) bool {
		if !matches[i].createdAt.Equal(matches[j].createdAt) {
			return matches[i].createdAt.Before(matches[j].createdAt)
		}
		return matches[i].email < matches[j].email
	})

	if offset >= len(matches) {
		return []bindings.User{}
	}
	matches = matches[offset:]
	if limit < len(matches) {
		matches = matches[:limit]
	}

	out := make([]bindings.User, 0, len(matches))
	for _, record := range matches {
		out = append(out, record.dto())
	}
	return out
}

func containsRole(roles []bindings.CredentialsRole, role bindings.CredentialsRole) bool {
	for _, candidate := range roles {
		if candidate == role {
			return true
		}
	}
	return false
}
