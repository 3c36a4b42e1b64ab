package prompt

import (
	"context"
	"fmt"

	goerrors "github.com/kbukum/vidprofile/errors"
	"github.com/kbukum/vidprofile/logger"
	"github.com/kbukum/vidprofile/redis"
)

// KeyPrefix is the Redis key prefix for stored templates.
const KeyPrefix = "prompts"

// RedisStore keeps templates as JSON documents in Redis. Reads of a default
// template fall back to the built-in copy when the key is absent or Redis
// is unreachable.
type RedisStore struct {
	docs *redis.TypedStore[Template]
	log  *logger.Logger
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore creates a RedisStore and seeds every default template that
// is not stored yet. Existing documents are left untouched.
func NewRedisStore(ctx context.Context, client *redis.Client, log *logger.Logger) (*RedisStore, error) {
	s := &RedisStore{
		docs: redis.NewTypedStore[Template](client, KeyPrefix),
		log:  log.WithComponent("prompts"),
	}
	for _, name := range defaultNames() {
		d, _ := Default(name)
		added, err := s.docs.SaveIfAbsent(ctx, name, &d)
		if err != nil {
			return nil, fmt.Errorf("seed prompt %s: %w", name, err)
		}
		if added {
			s.log.Info("Seeded default prompt", logger.Fields(logger.FieldTemplate, name))
		}
	}
	return s, nil
}

// Get loads the template from Redis, falling back to the default set.
func (s *RedisStore) Get(ctx context.Context, name string) (Template, error) {
	t, err := s.docs.Load(ctx, name)
	if err != nil {
		if d, ok := Default(name); ok {
			s.log.Warn("Prompt store unavailable, using default", logger.MergeWithError(
				logger.Fields(logger.FieldTemplate, name), err))
			return d, nil
		}
		return Template{}, goerrors.ExternalServiceError("redis", err)
	}
	if t != nil {
		return *t, nil
	}
	if d, ok := Default(name); ok {
		return d, nil
	}
	return Template{}, goerrors.TemplateNotFound(name)
}

// Update stores new text for name.
func (s *RedisStore) Update(ctx context.Context, name, text string) (Template, error) {
	existing, err := s.docs.Load(ctx, name)
	if err != nil {
		return Template{}, goerrors.ExternalServiceError("redis", err)
	}
	var cur Template
	if existing != nil {
		cur = *existing
	}
	t, err := updated(cur, existing != nil, name, text)
	if err != nil {
		return Template{}, err
	}
	if err := s.docs.Save(ctx, name, &t, 0); err != nil {
		return Template{}, goerrors.ExternalServiceError("redis", err)
	}
	return t, nil
}

// List returns the stored templates plus any default missing from Redis.
func (s *RedisStore) List(ctx context.Context) ([]Template, error) {
	names, err := s.docs.Keys(ctx)
	if err != nil {
		return nil, goerrors.ExternalServiceError("redis", err)
	}
	seen := make(map[string]bool, len(names))
	out := make([]Template, 0, len(names))
	for _, name := range names {
		t, err := s.docs.Load(ctx, name)
		if err != nil {
			return nil, goerrors.ExternalServiceError("redis", err)
		}
		if t == nil {
			continue
		}
		seen[name] = true
		out = append(out, *t)
	}
	for name, d := range Defaults() {
		if !seen[name] {
			out = append(out, d)
		}
	}
	sortByName(out)
	return out, nil
}

// Reset restores defaults for name, or for every template when name is empty.
func (s *RedisStore) Reset(ctx context.Context, name string) error {
	if name != "" {
		return s.resetOne(ctx, name)
	}
	names, err := s.docs.Keys(ctx)
	if err != nil {
		return goerrors.ExternalServiceError("redis", err)
	}
	for _, n := range names {
		if _, ok := Default(n); !ok {
			if err := s.docs.Delete(ctx, n); err != nil {
				return goerrors.ExternalServiceError("redis", err)
			}
		}
	}
	for _, n := range defaultNames() {
		if err := s.resetOne(ctx, n); err != nil {
			return err
		}
	}
	return nil
}

func (s *RedisStore) resetOne(ctx context.Context, name string) error {
	d, ok := Default(name)
	if !ok {
		existing, err := s.docs.Load(ctx, name)
		if err != nil {
			return goerrors.ExternalServiceError("redis", err)
		}
		if existing == nil {
			return goerrors.TemplateNotFound(name)
		}
		if err := s.docs.Delete(ctx, name); err != nil {
			return goerrors.ExternalServiceError("redis", err)
		}
		return nil
	}
	if err := s.docs.Save(ctx, name, &d, 0); err != nil {
		return goerrors.ExternalServiceError("redis", err)
	}
	return nil
}
