package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	tagKeyPrefix     = "cache:tag:"
	versionKeyPrefix = "cache:tagver:"
)

// Borra todas las claves registradas bajo el tag, el set del tag, y sube la versión del tag
// para que los lectores que versionan sus claves dejen de usar las anteriores.
var invalidateTagScript = redis.NewScript(`
local members = redis.call('SMEMBERS', KEYS[1])
for i = 1, #members, 500 do
	redis.call('DEL', unpack(members, i, math.min(i + 499, #members)))
end
redis.call('DEL', KEYS[1])
return redis.call('INCR', KEYS[2])
`)

// RedisInvalidator invalidación de caché por tags sobre Redis.
type RedisInvalidator struct {
	client *redis.Client
}

// NewRedisInvalidator construye el invalidador.
func NewRedisInvalidator(client *redis.Client) *RedisInvalidator {
	return &RedisInvalidator{client: client}
}

// Tag registra key bajo cada tag; ttl > 0 expira también el set del tag.
func (r *RedisInvalidator) Tag(ctx context.Context, key string, ttl time.Duration, tags ...string) error {
	_, err := r.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		for _, tag := range tags {
			p.SAdd(ctx, tagKeyPrefix+tag, key)
			if ttl > 0 {
				p.Expire(ctx, tagKeyPrefix+tag, ttl)
			}
		}
		return nil
	})
	return err
}

// InvalidateTags invalida cada tag de forma atómica por tag.
func (r *RedisInvalidator) InvalidateTags(ctx context.Context, tags ...string) error {
	for _, tag := range tags {
		if err := invalidateTagScript.Run(ctx, r.client, []string{tagKeyPrefix + tag, versionKeyPrefix + tag}).Err(); err != nil {
			return fmt.Errorf("invalidar tag %s: %w", tag, err)
		}
	}
	return nil
}

// Version versión actual del tag (0 si nunca se invalidó).
func (r *RedisInvalidator) Version(ctx context.Context, tag string) (int64, error) {
	v, err := r.client.Get(ctx, versionKeyPrefix+tag).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	return v, err
}

// NopInvalidator invalidador vacío cuando la caché está deshabilitada.
type NopInvalidator struct{}

func (NopInvalidator) InvalidateTags(context.Context, ...string) error { return nil }
