// Package session holds authenticated admin and marketplace sessions.
//
// A Store is an explicit object owned by the server and handed to whoever
// needs it: login, logout and refresh are methods, and interested parties
// subscribe to changes instead of reading shared globals.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/google/uuid"

	"github.com/votemamu/web/internal/api"
	"github.com/votemamu/web/internal/forms"
	"github.com/votemamu/web/internal/logging"
	"github.com/votemamu/web/internal/model"
)

// Realm separates the admin back-office from the marketplace.
type Realm string

const (
	RealmAdmin  Realm = "admin"
	RealmMarket Realm = "market"
)

// Session is one signed-in user.  Token is the backend bearer token.
type Session struct {
	ID        string     `json:"id"`
	Realm     Realm      `json:"realm"`
	Token     string     `json:"token"`
	User      model.User `json:"user"`
	CreatedAt time.Time  `json:"created_at"`
	ExpiresAt time.Time  `json:"expires_at"`
}

// Credentials are the login form.
type Credentials struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

func (c Credentials) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Email, validation.Required, is.EmailFormat),
		validation.Field(&c.Password, validation.Required),
	)
}

// EventKind says what happened to a session.
type EventKind string

const (
	EventLogin   EventKind = "login"
	EventLogout  EventKind = "logout"
	EventRefresh EventKind = "refresh"
	EventExpire  EventKind = "expire"
)

// Event is delivered to subscribers after a session changes.
type Event struct {
	Kind    EventKind
	Session Session
}

// ErrExpired is returned when the backend no longer accepts a session.
var ErrExpired = errors.New("session: expired")

const (
	DefaultTTL = 24 * time.Hour
	// RefreshWindow is how close to expiry Get revalidates a session.
	RefreshWindow = 5 * time.Minute
)

// Store manages the sessions of one realm.
type Store struct {
	realm   Realm
	auth    Authenticator
	storage Storage
	ttl     time.Duration
	now     func() time.Time
	log     logging.Logger

	mu     sync.Mutex
	nextID int
	subs   map[int]func(Event)
}

// StoreOption configures a Store.
type StoreOption func(*Store)

func WithTTL(d time.Duration) StoreOption {
	return func(s *Store) {
		if d > 0 {
			s.ttl = d
		}
	}
}

func WithClock(now func() time.Time) StoreOption { return func(s *Store) { s.now = now } }

func WithLogger(l logging.Logger) StoreOption {
	return func(s *Store) { s.log = logging.OrNoOp(l) }
}

func NewStore(realm Realm, auth Authenticator, storage Storage, opts ...StoreOption) *Store {
	s := &Store{
		realm:   realm,
		auth:    auth,
		storage: storage,
		ttl:     DefaultTTL,
		now:     time.Now,
		log:     logging.NoOp(),
		subs:    map[int]func(Event){},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Realm() Realm { return s.realm }

// Subscribe registers fn for every session change.  The returned function
// removes it.
func (s *Store) Subscribe(fn func(Event)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.mu.Unlock()
	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
		})
	}
}

func (s *Store) notify(kind EventKind, sess Session) {
	s.mu.Lock()
	fns := make([]func(Event), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.Unlock()
	for _, fn := range fns {
		fn(Event{Kind: kind, Session: sess})
	}
}

// Login validates cred locally, authenticates against the backend and
// opens a session.
func (s *Store) Login(ctx context.Context, cred Credentials) (Session, error) {
	if err := forms.Check(cred, "LOGIN_INVALID"); err != nil {
		return Session{}, err
	}
	res, err := s.auth.Login(ctx, cred)
	if err != nil {
		return Session{}, err
	}
	return s.Adopt(ctx, res)
}

// Adopt opens a session for an auth result obtained elsewhere, such as a
// marketplace registration.
func (s *Store) Adopt(ctx context.Context, res model.AuthResult) (Session, error) {
	if res.Token == "" {
		return Session{}, &api.Error{Status: 401, Message: "empty token"}
	}
	now := s.now()
	sess := Session{
		ID:        uuid.NewString(),
		Realm:     s.realm,
		Token:     res.Token,
		User:      res.User,
		CreatedAt: now,
		ExpiresAt: s.expiry(now, res),
	}
	if err := s.storage.Save(ctx, sess, sess.ExpiresAt.Sub(now)); err != nil {
		return Session{}, err
	}
	s.log.Info("session opened", "realm", s.realm, "user", res.User.ID)
	s.notify(EventLogin, sess)
	return sess, nil
}

// expiry caps the session TTL by the bearer token's own lifetime.
func (s *Store) expiry(now time.Time, res model.AuthResult) time.Time {
	exp := now.Add(s.ttl)
	if res.ExpiresIn > 0 {
		if t := now.Add(time.Duration(res.ExpiresIn) * time.Second); t.Before(exp) {
			exp = t
		}
	}
	if t, ok := BearerExpiry(res.Token); ok && t.Before(exp) {
		exp = t
	}
	return exp
}

// Get returns a live session.  Sessions close to expiry are revalidated
// first.
func (s *Store) Get(ctx context.Context, id string) (Session, error) {
	sess, err := s.storage.Load(ctx, id)
	if err != nil {
		return Session{}, err
	}
	now := s.now()
	if !now.Before(sess.ExpiresAt) {
		_ = s.storage.Delete(ctx, id)
		s.notify(EventExpire, sess)
		return Session{}, ErrNoSession
	}
	if sess.ExpiresAt.Sub(now) < RefreshWindow {
		return s.refresh(ctx, sess)
	}
	return sess, nil
}

// Refresh revalidates the bearer token with the backend, updates the user
// and extends the session.  A rejected token ends the session.
func (s *Store) Refresh(ctx context.Context, id string) (Session, error) {
	sess, err := s.storage.Load(ctx, id)
	if err != nil {
		return Session{}, err
	}
	return s.refresh(ctx, sess)
}

func (s *Store) refresh(ctx context.Context, sess Session) (Session, error) {
	user, err := s.auth.Me(ctx, sess.Token)
	if errors.Is(err, api.ErrUnauthorized) {
		_ = s.storage.Delete(ctx, sess.ID)
		s.notify(EventLogout, sess)
		return Session{}, ErrExpired
	}
	if err != nil {
		return Session{}, err
	}
	now := s.now()
	sess.User = user
	exp := now.Add(s.ttl)
	if t, ok := BearerExpiry(sess.Token); ok && t.Before(exp) {
		exp = t
	}
	if !now.Before(exp) {
		_ = s.storage.Delete(ctx, sess.ID)
		s.notify(EventLogout, sess)
		return Session{}, ErrExpired
	}
	sess.ExpiresAt = exp
	if err := s.storage.Save(ctx, sess, exp.Sub(now)); err != nil {
		return Session{}, err
	}
	s.notify(EventRefresh, sess)
	return sess, nil
}

// Logout revokes the bearer token and removes the session.  A backend
// failure is logged; the local session is removed regardless.
func (s *Store) Logout(ctx context.Context, id string) error {
	sess, err := s.storage.Load(ctx, id)
	if errors.Is(err, ErrNoSession) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := s.auth.Logout(ctx, sess.Token); err != nil {
		s.log.Warn("session: backend logout failed", "realm", s.realm, "error", err)
	}
	if err := s.storage.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info("session closed", "realm", s.realm, "user", sess.User.ID)
	s.notify(EventLogout, sess)
	return nil
}

// TokenSource adapts a session to api.TokenSource.
func (sess Session) TokenSource() api.TokenSource { return api.StaticToken(sess.Token) }
