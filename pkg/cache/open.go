package cache

import (
	"context"
	"fmt"
)

// Backend names accepted by [Open].
const (
	BackendNull  = "null"
	BackendFile  = "file"
	BackendRedis = "redis"
	BackendMongo = "mongo"
)

// Options selects and configures a backend.
type Options struct {
	Backend       string
	Dir           string
	RedisAddr     string
	RedisPrefix   string
	MongoURI      string
	MongoDatabase string
}

// Open returns the backend named by opts.Backend. An empty name is treated
// as "null".
func Open(ctx context.Context, opts Options) (Cache, error) {
	switch opts.Backend {
	case "", BackendNull:
		return NewNullCache(), nil
	case BackendFile:
		return NewFileCache(opts.Dir)
	case BackendRedis:
		return NewRedisCache(ctx, opts.RedisAddr, opts.RedisPrefix)
	case BackendMongo:
		return NewMongoCache(ctx, opts.MongoURI, opts.MongoDatabase)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, opts.Backend)
	}
}
