// Package session 学员会话的持久化（KV 后端 + JSON 序列化）
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"cxr-learning/internal/domain"
	"cxr-learning/internal/store"
)

const (
	DefaultKeyPrefix = "cxr:session:"
	DefaultTTL       = 24 * time.Hour
)

var (
	ErrNotFound  = errors.New("session not found")
	ErrInvalidID = errors.New("invalid session id")
)

// Store 会话存取；每次请求 Load -> 修改 -> Save
type Store struct {
	kv     store.KV
	prefix string
	ttl    time.Duration
	now    func() time.Time
}

type Option func(*Store)

func WithKeyPrefix(prefix string) Option {
	return func(s *Store) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

func NewStore(kv store.KV, opts ...Option) *Store {
	s := &Store{kv: kv, prefix: DefaultKeyPrefix, ttl: DefaultTTL, now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Store) TTL() time.Duration { return s.ttl }

func (s *Store) key(id string) string { return s.prefix + id }

// ValidID 会话 id 必须是 UUID（防止任意 key 注入到 KV）
func ValidID(id string) bool {
	_, err := uuid.Parse(strings.TrimSpace(id))
	return err == nil
}

// Create 新建并保存一个空会话
func (s *Store) Create(ctx context.Context) (*domain.Session, error) {
	sess := domain.NewSession(uuid.NewString(), s.now().UTC())
	if err := s.put(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// Load 读取会话；不存在或已过期返回 ErrNotFound
func (s *Store) Load(ctx context.Context, id string) (*domain.Session, error) {
	if !ValidID(id) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	raw, err := s.kv.Get(ctx, s.key(id))
	if err != nil {
		if errors.Is(err, store.ErrMiss) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load session %s: %w", id, err)
	}
	var sess domain.Session
	if err := json.Unmarshal([]byte(raw), &sess); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", id, err)
	}
	sess.Normalize()
	return &sess, nil
}

// LoadOrCreate id 为空/无效/已过期时创建新会话；created 表示是否新建
func (s *Store) LoadOrCreate(ctx context.Context, id string) (sess *domain.Session, created bool, err error) {
	if ValidID(id) {
		sess, err = s.Load(ctx, id)
		if err == nil {
			return sess, false, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return nil, false, err
		}
	}
	sess, err = s.Create(ctx)
	if err != nil {
		return nil, false, err
	}
	return sess, true, nil
}

// Save 更新 UpdatedAt 并刷新 TTL
func (s *Store) Save(ctx context.Context, sess *domain.Session) error {
	if sess == nil || !ValidID(sess.ID) {
		return ErrInvalidID
	}
	sess.UpdatedAt = s.now().UTC()
	return s.put(ctx, sess)
}

// Delete 重置会话（所有评估状态丢弃）
func (s *Store) Delete(ctx context.Context, id string) error {
	if !ValidID(id) {
		return fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return s.kv.Delete(ctx, s.key(id))
}

// Count 当前存活的会话数
func (s *Store) Count(ctx context.Context) (int, error) {
	keys, err := s.kv.ScanKeys(ctx, s.prefix+"*")
	if err != nil {
		return 0, err
	}
	return len(keys), nil
}

func (s *Store) put(ctx context.Context, sess *domain.Session) error {
	b, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encode session %s: %w", sess.ID, err)
	}
	if err := s.kv.Set(ctx, s.key(sess.ID), string(b), s.ttl); err != nil {
		return fmt.Errorf("save session %s: %w", sess.ID, err)
	}
	return nil
}
