package database

import (
	"context"
	"orgdirectory/pkg/log"
	"time"

	"github.com/go-redis/redis/v8"
)

var RDB *redis.Client

// InitRedis 连接 Redis 并初始化全局 RDB，用于登出 token 的吊销名单。
func InitRedis(addr, password string, db int) {
	RDB = redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := RDB.Ping(ctx).Err(); err != nil {
		log.Fatal("failed to connect to redis", err)
	}

	log.Info("Redis client connected successfully")
}

// TokenBlacklistPrefix 是吊销 token 的 key 前缀，写入与读取必须使用同一前缀。
const TokenBlacklistPrefix = "token_blacklist:"

// TokenRevoker 管理已登出的 access token。
type TokenRevoker interface {
	Revoke(ctx context.Context, token string, ttl time.Duration) error
	IsRevoked(ctx context.Context, token string) (bool, error)
}

type redisTokenRevoker struct {
	client *redis.Client
}

// NewTokenRevoker 基于 Redis 客户端创建 TokenRevoker。
func NewTokenRevoker(client *redis.Client) TokenRevoker {
	return &redisTokenRevoker{client: client}
}

// Revoke 把 token 写入黑名单，ttl 取 token 剩余有效期，过期后自动清理。
func (r *redisTokenRevoker) Revoke(ctx context.Context, token string, ttl time.Duration) error {
	if ttl <= 0 {
		// 已过期的 token 无需登记
		return nil
	}
	return r.client.Set(ctx, TokenBlacklistPrefix+token, "1", ttl).Err()
}

func (r *redisTokenRevoker) IsRevoked(ctx context.Context, token string) (bool, error) {
	n, err := r.client.Exists(ctx, TokenBlacklistPrefix+token).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
