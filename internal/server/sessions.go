package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"github.com/goliatone/go-formwizard/pkg/wizard"
)

// SessionCookie names the cookie carrying the session id.
const SessionCookie = "formwizard_session"

// session is one browser's wizard run. mu serializes requests because the
// controller is single-threaded.
type session struct {
	mu         sync.Mutex
	id         string
	csrf       string
	controller *wizard.Controller

	notice     string
	formErrors []string
}

// flash returns and clears the one-off messages shown on the next render.
func (s *session) flash() (string, []string) {
	notice, errs := s.notice, s.formErrors
	s.notice, s.formErrors = "", nil
	return notice, errs
}

func (s *session) release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.controller.Reset()
}

// sessionStore keeps sessions in memory with a sliding TTL. Evicted
// sessions release their preview handles.
type sessionStore struct {
	cache  *gocache.Cache
	newWiz func(id string) *wizard.Controller
	newID  func() string
}

func newSessionStore(ttl time.Duration, newWiz func(id string) *wizard.Controller) *sessionStore {
	cache := gocache.New(ttl, ttl/2)
	cache.OnEvicted(func(_ string, value interface{}) {
		if s, ok := value.(*session); ok {
			s.release()
		}
	})
	return &sessionStore{cache: cache, newWiz: newWiz, newID: uuid.NewString}
}

func (st *sessionStore) get(id string) (*session, bool) {
	if id == "" {
		return nil, false
	}
	value, found := st.cache.Get(id)
	if !found {
		return nil, false
	}
	s, ok := value.(*session)
	if ok {
		st.cache.Set(id, s, gocache.DefaultExpiration)
	}
	return s, ok
}

func (st *sessionStore) create() *session {
	id := st.newID()
	s := &session{
		id:         id,
		csrf:       st.newID(),
		controller: st.newWiz(id),
	}
	st.cache.Set(id, s, gocache.DefaultExpiration)
	return s
}

// fromRequest returns the session named by the request cookie.
func (st *sessionStore) fromRequest(r *http.Request) (*session, bool) {
	cookie, err := r.Cookie(SessionCookie)
	if err != nil {
		return nil, false
	}
	return st.get(cookie.Value)
}

// resolve returns the request's session, creating one and setting the
// cookie when there is none.
func (st *sessionStore) resolve(w http.ResponseWriter, r *http.Request) *session {
	if s, ok := st.fromRequest(r); ok {
		return s
	}
	s := st.create()
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    s.id,
		Path:     "/",
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
	return s
}

func (st *sessionStore) len() int {
	return st.cache.ItemCount()
}

// close releases every session.
func (st *sessionStore) close() {
	for _, item := range st.cache.Items() {
		if s, ok := item.Object.(*session); ok {
			s.release()
		}
	}
	st.cache.Flush()
}
