package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hyroxlab/roxcoach/pkg"

	"github.com/go-redis/redis/v8"
	log "github.com/sirupsen/logrus"
)

const (
	DefaultTTL       = 24 * 7 * time.Hour
	sessionKeyPrefix = "roxcoach-session||"
	tokensSetKey     = "roxcoach-sessions"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

type usersGetter interface {
	GetByUsername(ctx context.Context, username string) (*User, error)
	Add(ctx context.Context, username, passwordHash string) (*User, error)
}

type Service struct {
	redisClient *redis.Client
	users       usersGetter
	ttl         time.Duration
	// ability to inject random string generator func for tokens (for unit and dev testing)
	RandStringFunc func(s int) (string, error)
}

func NewService(
	users usersGetter,
	ttl time.Duration,
	redisClient *redis.Client,
) *Service {
	return &Service{
		redisClient:    redisClient,
		users:          users,
		ttl:            ttl,
		RandStringFunc: pkg.GenerateRandomString,
	}
}

// Login verifies the credentials and creates a new session token bound to
// the user id. Unknown username and wrong password are indistinguishable
// to the caller.
func (s *Service) Login(ctx context.Context, username, password string) (string, int, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if errors.Is(err, ErrUserNotFound) {
		return "", 0, ErrInvalidCredentials
	}
	if err != nil {
		return "", 0, fmt.Errorf("get user: %w", err)
	}

	if !pkg.CheckPasswordHash(password, user.PasswordHash) {
		return "", 0, ErrInvalidCredentials
	}

	token, err := s.RandStringFunc(35)
	if err != nil {
		return "", 0, err
	}

	sessionKey := sessionKeyPrefix + token
	if err := s.redisClient.Set(ctx, sessionKey, user.ID, s.ttl).Err(); err != nil {
		return "", 0, err
	}

	// add token to the session registry, used by ScanAndClean
	if err := s.redisClient.SAdd(ctx, tokensSetKey, token).Err(); err != nil {
		return "", 0, err
	}

	return token, user.ID, nil
}

func (s *Service) Logout(ctx context.Context, token string) error {
	sessionKey := sessionKeyPrefix + token

	deleted, err := s.redisClient.Del(ctx, sessionKey).Result()
	if err != nil {
		return err
	}
	if deleted == 0 {
		return ErrNotLoggedIn
	}

	return s.redisClient.SRem(ctx, tokensSetKey, token).Err()
}

// Register creates a new user with a bcrypt password hash.
func (s *Service) Register(ctx context.Context, username, password string) (*User, error) {
	passwordHash, err := pkg.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	return s.users.Add(ctx, username, passwordHash)
}

// ScanAndClean removes registry entries whose session keys already expired.
func (s *Service) ScanAndClean(ctx context.Context) {
	sessionTokens, err := s.redisClient.SMembers(ctx, tokensSetKey).Result()
	if err != nil {
		log.Errorf("auth service, scan and clean, get sessions: %s", err)
		return
	}

	if len(sessionTokens) == 0 {
		return
	}

	log.Debugf("auth service, scan and clean [%d sessions] start ...", len(sessionTokens))
	for _, token := range sessionTokens {
		exists, err := s.redisClient.Exists(ctx, sessionKeyPrefix+token).Result()
		if err != nil {
			log.Errorf("auth service, scan and clean token %s: %s", token, err)
			continue
		}
		if exists > 0 {
			continue
		}
		if err := s.redisClient.SRem(ctx, tokensSetKey, token).Err(); err != nil {
			log.Errorf("auth service, clean token %s: %s", token, err)
		}
	}
}
