package auth

import (
	"context"
	"errors"
	"strconv"

	"github.com/go-redis/redis/v8"
)

var ErrNotLoggedIn = errors.New("not logged in")

// LoginChecker resolves session tokens to user ids.
type LoginChecker struct {
	redisClient *redis.Client
}

func NewLoginChecker(redisClient *redis.Client) *LoginChecker {
	return &LoginChecker{
		redisClient: redisClient,
	}
}

func (c *LoginChecker) GetUserID(ctx context.Context, token string) (int, error) {
	sessionKey := sessionKeyPrefix + token
	val, err := c.redisClient.Get(ctx, sessionKey).Result()
	if errors.Is(err, redis.Nil) {
		return 0, ErrNotLoggedIn
	}
	if err != nil {
		return 0, err
	}

	userID, err := strconv.Atoi(val)
	if err != nil {
		return 0, err
	}
	return userID, nil
}
