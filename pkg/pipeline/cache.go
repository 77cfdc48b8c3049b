package pipeline

import (
	"context"

	"github.com/matzehuels/jarscope/pkg/cache"
	"github.com/matzehuels/jarscope/pkg/config"
	"github.com/matzehuels/jarscope/pkg/errors"
)

// OpenCache opens the cache backend named by c. defaultDir is used by the
// file backend when c.Dir is empty.
func OpenCache(ctx context.Context, c config.Cache, defaultDir string) (cache.Cache, error) {
	switch c.Backend {
	case config.BackendNone:
		return cache.NewNullCache(), nil
	case "", config.BackendFile:
		dir := c.Dir
		if dir == "" {
			dir = defaultDir
		}
		if dir == "" {
			return cache.NewNullCache(), nil
		}
		fc, err := cache.NewFileCache(dir)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "open cache %s", dir)
		}
		return fc, nil
	case config.BackendRedis:
		rc, err := cache.NewRedisCache(ctx, c.RedisURL)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "open redis cache")
		}
		return rc, nil
	default:
		return nil, errors.New(errors.ErrCodeInvalidConfig, "unknown cache backend %q", c.Backend)
	}
}
