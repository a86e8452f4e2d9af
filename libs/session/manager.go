// Package session tracks who is signed in: the stored credential and the
// account it belongs to.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/md-rashed-zaman/appointmed/libs/access"
	"github.com/md-rashed-zaman/appointmed/libs/accounts"
	"github.com/md-rashed-zaman/appointmed/libs/client"
)

// ErrSessionExpired is reported by Init when a stored credential was
// rejected and has been discarded. The caller is simply signed out.
var ErrSessionExpired = errors.New("session expired, please sign in again")

// API is the subset of *client.Client the manager needs.
type API interface {
	Login(ctx context.Context, email, password string) (client.Auth, error)
	Register(ctx context.Context, in client.RegisterInput) (client.Auth, error)
	Me(ctx context.Context) (accounts.User, error)
	UpdateProfile(ctx context.Context, in client.ProfileInput) (accounts.User, error)
	UpdateProviderProfile(ctx context.Context, in client.ProfileInput) (accounts.User, error)
}

type Manager struct {
	store Store
	api   API

	mu   sync.RWMutex
	user *accounts.User
}

func NewManager(store Store, api API) *Manager {
	return &Manager{store: store, api: api}
}

// Init restores the session from the store. With no stored token it returns
// nil and the manager stays signed out.
func (m *Manager) Init(ctx context.Context) error {
	if m.store.Token() == "" {
		return nil
	}
	u, err := m.api.Me(ctx)
	if err != nil {
		if errors.Is(err, client.ErrUnauthorized) {
			_ = m.store.Clear()
			m.set(nil)
			return ErrSessionExpired
		}
		return fmt.Errorf("restore session: %w", err)
	}
	m.set(&u)
	return nil
}

func (m *Manager) Login(ctx context.Context, email, password string) (accounts.User, error) {
	auth, err := m.api.Login(ctx, email, password)
	if err != nil {
		return accounts.User{}, err
	}
	return m.adopt(auth)
}

func (m *Manager) Register(ctx context.Context, in client.RegisterInput) (accounts.User, error) {
	auth, err := m.api.Register(ctx, in)
	if err != nil {
		return accounts.User{}, err
	}
	return m.adopt(auth)
}

func (m *Manager) Logout() error {
	m.set(nil)
	return m.store.Clear()
}

// UpdateProfile saves profile changes through the endpoint matching the
// current role and refreshes the cached user.
func (m *Manager) UpdateProfile(ctx context.Context, in client.ProfileInput) (accounts.User, error) {
	cur, ok := m.Current()
	if !ok {
		return accounts.User{}, &client.Error{Kind: client.ErrUnauthorized, Message: "not signed in"}
	}
	var (
		u   accounts.User
		err error
	)
	if cur.Role == access.RoleProvider {
		u, err = m.api.UpdateProviderProfile(ctx, in)
	} else {
		u, err = m.api.UpdateProfile(ctx, in)
	}
	if err != nil {
		return accounts.User{}, err
	}
	m.set(&u)
	return u, nil
}

func (m *Manager) Current() (accounts.User, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.user == nil {
		return accounts.User{}, false
	}
	return *m.user, true
}

// Principal is the signed-in account as the router sees it, or nil.
func (m *Manager) Principal() *access.Principal {
	u, ok := m.Current()
	if !ok {
		return nil
	}
	return &access.Principal{ID: u.ID, Role: u.Role}
}

func (m *Manager) adopt(auth client.Auth) (accounts.User, error) {
	if err := m.store.Save(auth.Token, auth.ExpiresAt); err != nil {
		return accounts.User{}, err
	}
	m.set(&auth.User)
	return auth.User, nil
}

func (m *Manager) set(u *accounts.User) {
	m.mu.Lock()
	m.user = u
	m.mu.Unlock()
}
