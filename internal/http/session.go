package httpapi

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"cxr-learning/internal/domain"
	"cxr-learning/internal/session"
)

const (
	SessionCookie = "cxr_session"
	SessionHeader = "X-Session-Id"
)

type sessionHandler func(w http.ResponseWriter, r *http.Request, sess *domain.Session)

// SessionManager 从 header / cookie 取会话 id，首次访问或过期时新建
type SessionManager struct {
	store  *session.Store
	logger *zap.Logger
}

func NewSessionManager(store *session.Store, logger *zap.Logger) *SessionManager {
	return &SessionManager{store: store, logger: logger}
}

func (m *SessionManager) Wrap(next sessionHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, created, err := m.store.LoadOrCreate(r.Context(), requestSessionID(r))
		if err != nil {
			m.logger.Error("Failed to load session", zap.Error(err))
			http.Error(w, "session store unavailable", http.StatusServiceUnavailable)
			return
		}
		if created {
			m.logger.Info("Session created", zap.String("session_id", sess.ID))
		}
		m.attach(w, sess)
		next(w, r, sess)
	}
}

// Save 必须在写响应之前调用，保证下一次请求读到最新状态
func (m *SessionManager) Save(ctx context.Context, sess *domain.Session) error {
	return m.store.Save(ctx, sess)
}

// Reset 丢弃当前会话的全部状态并换新 id
func (m *SessionManager) Reset(ctx context.Context, w http.ResponseWriter, sess *domain.Session) (*domain.Session, error) {
	if err := m.store.Delete(ctx, sess.ID); err != nil {
		return nil, err
	}
	fresh, err := m.store.Create(ctx)
	if err != nil {
		return nil, err
	}
	m.logger.Info("Session reset", zap.String("old_session_id", sess.ID), zap.String("session_id", fresh.ID))
	m.attach(w, fresh)
	return fresh, nil
}

func (m *SessionManager) attach(w http.ResponseWriter, sess *domain.Session) {
	w.Header().Del("Set-Cookie")
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    sess.ID,
		Path:     "/",
		MaxAge:   int(m.store.TTL().Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	w.Header().Set(SessionHeader, sess.ID)
}

func requestSessionID(r *http.Request) string {
	if id := strings.TrimSpace(r.Header.Get(SessionHeader)); id != "" {
		return id
	}
	if c, err := r.Cookie(SessionCookie); err == nil {
		return c.Value
	}
	return ""
}
