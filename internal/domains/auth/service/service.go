package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"agrirent/config"
	"agrirent/infras/jwt"
	"agrirent/infras/otel"
	"agrirent/internal/domains/auth/gateway"
	"agrirent/internal/domains/auth/model"
	authDTO "agrirent/internal/domains/auth/model/dto"
	"agrirent/shared"
	"agrirent/shared/cache"
	"agrirent/shared/constant"
	"agrirent/shared/failure"
)

const sessionPrefix = "session"

// AuthService proxies register and login to the backend and mints gateway
// tokens. Sessions live in redis so logout can revoke them.
type AuthService interface {
	Register(ctx context.Context, req authDTO.RegisterRequest) (authDTO.AuthResponse, error)
	Login(ctx context.Context, req authDTO.LoginRequest) (authDTO.AuthResponse, error)
	Refresh(ctx context.Context, req authDTO.RefreshRequest) (*jwt.TokenPair, error)
	Me(ctx context.Context, userID string) (authDTO.UserResponse, error)
	Logout(ctx context.Context, userID string) error
}

type serviceImpl struct {
	gateway gateway.Auth
	jwt     jwt.JWT
	cache   cache.RedisCache
	config  *config.Config
	otel    otel.Otel
}

func New(gw gateway.Auth, jwtService jwt.JWT, redisCache cache.RedisCache, cfg *config.Config, ot otel.Otel) AuthService {
	return &serviceImpl{
		gateway: gw,
		jwt:     jwtService,
		cache:   redisCache,
		config:  cfg,
		otel:    ot,
	}
}

func (s *serviceImpl) Register(ctx context.Context, req authDTO.RegisterRequest) (res authDTO.AuthResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Register")
	defer scope.End()
	defer scope.TraceIfError(err)

	user, err := s.gateway.Register(ctx, gateway.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Phone:    req.Phone,
		Role:     req.Role,
	})
	if err != nil {
		return res, err
	}

	return s.startSession(ctx, user)
}

func (s *serviceImpl) Login(ctx context.Context, req authDTO.LoginRequest) (res authDTO.AuthResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Login")
	defer scope.End()
	defer scope.TraceIfError(err)

	user, err := s.gateway.Login(ctx, req.Email, req.Password)
	if err != nil {
		return res, err
	}

	return s.startSession(ctx, user)
}

func (s *serviceImpl) Refresh(ctx context.Context, req authDTO.RefreshRequest) (res *jwt.TokenPair, err error) {
	_, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Refresh")
	defer scope.End()
	defer scope.TraceIfError(err)

	tokens, err := s.jwt.RefreshTokens(req.RefreshToken)
	if err != nil {
		return nil, failure.Unauthorized("invalid refresh token")
	}

	return tokens, nil
}

func (s *serviceImpl) Me(ctx context.Context, userID string) (res authDTO.UserResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Me")
	defer scope.End()
	defer scope.TraceIfError(err)

	var user model.User
	if err = s.cache.Get(ctx, s.sessionKey(userID), &user); err != nil {
		return res, failure.Unauthorized("session has expired, please log in again")
	}

	res.FromModel(user)

	return res, nil
}

func (s *serviceImpl) Logout(ctx context.Context, userID string) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Logout")
	defer scope.End()
	defer scope.TraceIfError(err)

	if err = s.cache.Delete(ctx, s.sessionKey(userID)); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}

	return nil
}

func (s *serviceImpl) startSession(ctx context.Context, user model.User) (res authDTO.AuthResponse, err error) {
	tokens, err := s.jwt.GenerateTokenPair(user.ID, user.Email, user.Role)
	if err != nil {
		return res, fmt.Errorf("failed to generate tokens: %w", err)
	}

	sessionTTL := s.config.JWT.RefreshExpireMin * constant.MinutesToSeconds
	if err = s.cache.Save(ctx, s.sessionKey(user.ID), user, sessionTTL); err != nil {
		log.Error().Err(err).Str("user_id", user.ID).Msg("failed to store session")
	}

	res.Tokens = tokens
	res.User.FromModel(user)

	return res, nil
}

func (s *serviceImpl) sessionKey(userID string) string {
	return shared.BuildCacheKey(sessionPrefix, userID)
}
