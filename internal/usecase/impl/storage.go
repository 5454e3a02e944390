package impl

import (
	"context"
	"encoding/json"
	"log/slog"

	"storefront/internal/domain/repository"
	"storefront/internal/errors"
)

// scopedStorage reads and writes one scope's collections. Write failures are logged
// and swallowed: the stores keep working from their in-memory mirror.
type scopedStorage struct {
	kv    repository.KeyValueStore
	scope string
}

func (s scopedStorage) key(name string) string {
	return repository.ScopedKey(s.scope, name)
}

// load decodes the stored value into dest and reports whether anything was found.
// A missing or unreadable value is not an error; a failed read is, and the caller
// must not treat its in-memory state as the stored one.
func (s scopedStorage) load(ctx context.Context, logger *slog.Logger, name string, dest any) (bool, error) {
	raw, err := s.kv.Get(ctx, s.key(name))
	if errors.Is(err, repository.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		logger.Warn("Storage read failed, continuing in memory",
			slog.String("key", name), slog.String("scope", s.scope), slog.Any("error", err))

		return false, errors.Wrapf(err, "failed to read %s", name)
	}

	if err := json.Unmarshal(raw, dest); err != nil {
		logger.Warn("Discarding unreadable stored value",
			slog.String("key", name), slog.String("scope", s.scope), slog.Any("error", err))

		return false, nil
	}

	return true, nil
}

func (s scopedStorage) save(ctx context.Context, logger *slog.Logger, name string, value any) {
	raw, err := json.Marshal(value)
	if err != nil {
		logger.Error("Failed to encode value for storage", slog.String("key", name), slog.Any("error", err))

		return
	}

	if err := s.kv.Set(ctx, s.key(name), raw); err != nil {
		logger.Warn("Storage write failed, continuing in memory",
			slog.String("key", name), slog.String("scope", s.scope), slog.Any("error", err))
	}
}

func (s scopedStorage) remove(ctx context.Context, logger *slog.Logger, name string) {
	if err := s.kv.Delete(ctx, s.key(name)); err != nil {
		logger.Warn("Storage delete failed, continuing in memory",
			slog.String("key", name), slog.String("scope", s.scope), slog.Any("error", err))
	}
}
