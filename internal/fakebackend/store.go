package fakebackend

import (
	"fmt"
	"sync"
)

// account is one registered applicant in the in-memory store.
type account struct {
	Email    string
	Phone    string
	Code     string
	Verified bool
	UserID   string
}

// accountStore holds registrations for the lifetime of the fake server.
type accountStore struct {
	mu       sync.Mutex
	byEmail  map[string]*account
	byPhone  map[string]string
	nextUser int
}

func newAccountStore() *accountStore {
	return &accountStore{
		byEmail: make(map[string]*account),
		byPhone: make(map[string]string),
	}
}

// lookup returns the account for an email, nil when unknown.
func (s *accountStore) lookup(email string) *account {
	s.mu.Lock()
	defer s.mu.Unlock()
	if acc, ok := s.byEmail[email]; ok {
		copied := *acc
		return &copied
	}
	return nil
}

// phoneOwner returns the email owning a phone number, "" when free.
func (s *accountStore) phoneOwner(phone string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.byPhone[phone]
}

// create registers a new unverified account.
func (s *accountStore) create(email, phone, code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byEmail[email] = &account{Email: email, Phone: phone, Code: code}
	if phone != "" {
		s.byPhone[phone] = email
	}
}

// rotateCode stores a fresh code for an unverified account.
func (s *accountStore) rotateCode(email, code string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.byEmail[email]
	if !ok {
		return false
	}
	acc.Code = code
	return true
}

// verify marks the account verified when the code matches and assigns its
// user id.
func (s *accountStore) verify(email, code string) (*account, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.byEmail[email]
	if !ok || acc.Code != code {
		return nil, false
	}
	if !acc.Verified {
		acc.Verified = true
		s.nextUser++
		acc.UserID = fmt.Sprintf("EVT-%04d", s.nextUser)
	}
	copied := *acc
	return &copied, true
}
