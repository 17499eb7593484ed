package auth

import (
	"context"
	"sync"
	"time"
)

// Session is the read-only view of who is browsing. It is derived from
// the Auth Service only and handed to every handler through the request
// context.
type Session struct {
	ID   string
	User *User
}

// Authenticated is the authorization gate: every add/edit/delete
// affordance, for every collection, is shown exactly when it is true.
func (s Session) Authenticated() bool {
	return s.User != nil
}

// Gate reports whether the request's session may use mutating affordances.
func Gate(ctx context.Context) bool {
	return FromContext(ctx).Authenticated()
}

func (s Session) Email() string {
	if s.User == nil {
		return ""
	}
	return s.User.Email
}

type sessionKey struct{}

func NewContext(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// FromContext returns the anonymous session when none was attached.
func FromContext(ctx context.Context) Session {
	s, _ := ctx.Value(sessionKey{}).(Session)
	return s
}

// SessionMaxAge bounds both the session cookie and its binding in the
// Registry.
const SessionMaxAge = 7 * 24 * time.Hour

// Registry binds browser session ids to signed-in users and notifies
// watchers whenever a binding changes. It lives in process memory.
// Bindings older than SessionMaxAge read as anonymous and are swept on
// the next sign-in.
type Registry struct {
	mu       sync.RWMutex
	bindings map[string]binding
	watchers map[string]map[*watcher]struct{}
	now      func() time.Time
}

type binding struct {
	user  *User
	bound time.Time
}

// watcher follows a browser across session id rotation.
type watcher struct {
	sid string
	ch  chan Session
}

func NewRegistry() *Registry {
	return &Registry{
		bindings: make(map[string]binding),
		watchers: make(map[string]map[*watcher]struct{}),
		now:      time.Now,
	}
}

func (r *Registry) Get(sid string) Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.bindings[sid]
	if !ok || r.expired(b) {
		return Session{ID: sid}
	}
	return Session{ID: sid, User: b.user}
}

func (r *Registry) Bind(sid string, u *User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sweep()
	r.bindings[sid] = binding{user: u, bound: r.now()}
	r.notify(Session{ID: sid, User: u})
}

// Rotate binds u to a fresh id and drops whatever from held. Watchers of
// from move over to to.
func (r *Registry) Rotate(from, to string, u *User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sweep()
	delete(r.bindings, from)
	r.bindings[to] = binding{user: u, bound: r.now()}

	if moved := r.watchers[from]; from != to && len(moved) > 0 {
		delete(r.watchers, from)
		if r.watchers[to] == nil {
			r.watchers[to] = make(map[*watcher]struct{})
		}
		for w := range moved {
			w.sid = to
			r.watchers[to][w] = struct{}{}
		}
	}
	r.notify(Session{ID: to, User: u})
}

func (r *Registry) Clear(sid string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.bindings, sid)
	r.notify(Session{ID: sid})
}

// Len reports how many bindings are held, expired ones included.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.bindings)
}

// Watch streams every later change of sid's session. The channel keeps
// only the latest value. stop must be called to release it.
func (r *Registry) Watch(sid string) (<-chan Session, func()) {
	w := &watcher{sid: sid, ch: make(chan Session, 1)}

	r.mu.Lock()
	if r.watchers[sid] == nil {
		r.watchers[sid] = make(map[*watcher]struct{})
	}
	r.watchers[sid][w] = struct{}{}
	r.mu.Unlock()

	var once sync.Once
	stop := func() {
		once.Do(func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			delete(r.watchers[w.sid], w)
			if len(r.watchers[w.sid]) == 0 {
				delete(r.watchers, w.sid)
			}
		})
	}
	return w.ch, stop
}

func (r *Registry) expired(b binding) bool {
	return r.now().Sub(b.bound) > SessionMaxAge
}

func (r *Registry) sweep() {
	for sid, b := range r.bindings {
		if r.expired(b) {
			delete(r.bindings, sid)
		}
	}
}

func (r *Registry) notify(s Session) {
	for w := range r.watchers[s.ID] {
		select {
		case <-w.ch:
		default:
		}
		w.ch <- s
	}
}
