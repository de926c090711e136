package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Honahec/CloudBackend/models"

	"github.com/redis/go-redis/v9"
)

type RedisUploadSessionRepository struct {
	redis *redis.Client
}

func NewRedisUploadSessionRepository(redisClient *redis.Client) *RedisUploadSessionRepository {
	return &RedisUploadSessionRepository{redis: redisClient}
}

func uploadSessionKey(uploadID string) string {
	return fmt.Sprintf("upload:session:%s", uploadID)
}

func (r *RedisUploadSessionRepository) Put(ctx context.Context, uploadID string, session models.UploadSession, ttl time.Duration) error {
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return r.redis.Set(ctx, uploadSessionKey(uploadID), data, ttl).Err()
}

func (r *RedisUploadSessionRepository) Get(ctx context.Context, uploadID string) (models.UploadSession, bool, error) {
	data, err := r.redis.Get(ctx, uploadSessionKey(uploadID)).Bytes()
	return decodeSession(data, err)
}

// Consume 用 GETDEL 原子取出并删除，重放同一 upload_id 的第二次消费必然落空。
func (r *RedisUploadSessionRepository) Consume(ctx context.Context, uploadID string) (models.UploadSession, bool, error) {
	data, err := r.redis.GetDel(ctx, uploadSessionKey(uploadID)).Bytes()
	return decodeSession(data, err)
}

func (r *RedisUploadSessionRepository) Delete(ctx context.Context, uploadID string) error {
	return r.redis.Del(ctx, uploadSessionKey(uploadID)).Err()
}

func decodeSession(data []byte, err error) (models.UploadSession, bool, error) {
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return models.UploadSession{}, false, nil
		}
		return models.UploadSession{}, false, err
	}

	var session models.UploadSession
	if err := json.Unmarshal(data, &session); err != nil {
		return models.UploadSession{}, false, err
	}
	return session, true, nil
}
