package service_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"agrirent/config"
	"agrirent/infras/jwt"
	jwtMocks "agrirent/infras/jwt/mocks"
	otelMocks "agrirent/infras/otel/mocks"
	"agrirent/internal/domains/auth/gateway"
	authMocks "agrirent/internal/domains/auth/mocks"
	"agrirent/internal/domains/auth/model"
	authDTO "agrirent/internal/domains/auth/model/dto"
	"agrirent/internal/domains/auth/service"
	cacheMocks "agrirent/shared/cache/mocks"
	"agrirent/shared/failure"
)

type authTestMocks struct {
	gateway *authMocks.MockAuth
	jwt     *jwtMocks.MockJWT
	cache   *cacheMocks.MockRedisCache
}

func newAuthService(t *testing.T) (service.AuthService, *authTestMocks) {
	t.Helper()

	ctrl := gomock.NewController(t)

	m := &authTestMocks{
		gateway: authMocks.NewMockAuth(ctrl),
		jwt:     jwtMocks.NewMockJWT(ctrl),
		cache:   cacheMocks.NewMockRedisCache(ctrl),
	}

	cfg := &config.Config{}
	cfg.JWT.RefreshExpireMin = 60

	svc := service.New(m.gateway, m.jwt, m.cache, cfg, otelMocks.NewOtel())

	return svc, m
}

func testUser() model.User {
	return model.User{
		ID:    "user-1",
		Name:  "Asep",
		Email: "asep@example.com",
		Role:  "user",
	}
}

func testTokens() *jwt.TokenPair {
	return &jwt.TokenPair{
		AccessToken:  "access-token",
		RefreshToken: "refresh-token",
		TokenType:    "Bearer",
		ExpiresIn:    900,
	}
}

func TestRegister(t *testing.T) {
	t.Run("registers and starts a session", func(t *testing.T) {
		svc, m := newAuthService(t)

		req := authDTO.RegisterRequest{
			Name:     "Asep",
			Email:    "asep@example.com",
			Password: "secret123",
			Role:     "user",
		}

		m.gateway.EXPECT().
			Register(gomock.Any(), gateway.RegisterInput{
				Name:     req.Name,
				Email:    req.Email,
				Password: req.Password,
				Role:     req.Role,
			}).
			Return(testUser(), nil)
		m.jwt.EXPECT().GenerateTokenPair("user-1", "asep@example.com", "user").Return(testTokens(), nil)
		m.cache.EXPECT().Save(gomock.Any(), "session:user-1", testUser(), 3600).Return(nil)

		res, err := svc.Register(context.Background(), req)

		require.NoError(t, err)
		assert.Equal(t, "user-1", res.User.ID)
		require.NotNil(t, res.Tokens)
		assert.Equal(t, "access-token", res.Tokens.AccessToken)
	})

	t.Run("propagates a backend rejection", func(t *testing.T) {
		svc, m := newAuthService(t)

		m.gateway.EXPECT().
			Register(gomock.Any(), gomock.Any()).
			Return(model.User{}, failure.Conflict("email already registered"))

		_, err := svc.Register(context.Background(), authDTO.RegisterRequest{Email: "asep@example.com"})

		require.Error(t, err)
		assert.Equal(t, http.StatusConflict, failure.GetCode(err))
	})
}

func TestLogin(t *testing.T) {
	t.Run("logs in and starts a session", func(t *testing.T) {
		svc, m := newAuthService(t)

		m.gateway.EXPECT().Login(gomock.Any(), "asep@example.com", "secret123").Return(testUser(), nil)
		m.jwt.EXPECT().GenerateTokenPair("user-1", "asep@example.com", "user").Return(testTokens(), nil)
		m.cache.EXPECT().Save(gomock.Any(), "session:user-1", testUser(), 3600).Return(nil)

		res, err := svc.Login(context.Background(), authDTO.LoginRequest{
			Email:    "asep@example.com",
			Password: "secret123",
		})

		require.NoError(t, err)
		assert.Equal(t, "Asep", res.User.Name)
	})

	t.Run("a session store failure does not block the login", func(t *testing.T) {
		svc, m := newAuthService(t)

		m.gateway.EXPECT().Login(gomock.Any(), "asep@example.com", "secret123").Return(testUser(), nil)
		m.jwt.EXPECT().GenerateTokenPair("user-1", "asep@example.com", "user").Return(testTokens(), nil)
		m.cache.EXPECT().Save(gomock.Any(), "session:user-1", testUser(), 3600).Return(errors.New("redis down"))

		res, err := svc.Login(context.Background(), authDTO.LoginRequest{
			Email:    "asep@example.com",
			Password: "secret123",
		})

		require.NoError(t, err)
		assert.NotNil(t, res.Tokens)
	})

	t.Run("rejects bad credentials", func(t *testing.T) {
		svc, m := newAuthService(t)

		m.gateway.EXPECT().
			Login(gomock.Any(), "asep@example.com", "wrong").
			Return(model.User{}, failure.Unauthorized("invalid credentials"))

		_, err := svc.Login(context.Background(), authDTO.LoginRequest{
			Email:    "asep@example.com",
			Password: "wrong",
		})

		require.Error(t, err)
		assert.Equal(t, http.StatusUnauthorized, failure.GetCode(err))
	})
}

func TestRefresh(t *testing.T) {
	t.Run("mints a fresh pair", func(t *testing.T) {
		svc, m := newAuthService(t)

		m.jwt.EXPECT().RefreshTokens("refresh-token").Return(testTokens(), nil)

		res, err := svc.Refresh(context.Background(), authDTO.RefreshRequest{RefreshToken: "refresh-token"})

		require.NoError(t, err)
		assert.Equal(t, "access-token", res.AccessToken)
	})

	t.Run("an invalid refresh token is unauthorized", func(t *testing.T) {
		svc, m := newAuthService(t)

		m.jwt.EXPECT().RefreshTokens("garbage").Return(nil, jwt.ErrInvalidToken)

		_, err := svc.Refresh(context.Background(), authDTO.RefreshRequest{RefreshToken: "garbage"})

		require.Error(t, err)
		assert.Equal(t, http.StatusUnauthorized, failure.GetCode(err))
	})
}

func TestMe(t *testing.T) {
	t.Run("returns the session user", func(t *testing.T) {
		svc, m := newAuthService(t)

		m.cache.EXPECT().
			Get(gomock.Any(), "session:user-1", gomock.Any()).
			DoAndReturn(func(_ context.Context, _ string, value any) error {
				user, ok := value.(*model.User)
				require.True(t, ok)
				*user = testUser()

				return nil
			})

		res, err := svc.Me(context.Background(), "user-1")

		require.NoError(t, err)
		assert.Equal(t, "asep@example.com", res.Email)
	})

	t.Run("a missing session is unauthorized", func(t *testing.T) {
		svc, m := newAuthService(t)

		m.cache.EXPECT().Get(gomock.Any(), "session:user-1", gomock.Any()).Return(errors.New("not found"))

		_, err := svc.Me(context.Background(), "user-1")

		require.Error(t, err)
		assert.Equal(t, http.StatusUnauthorized, failure.GetCode(err))
	})
}

func TestLogout(t *testing.T) {
	svc, m := newAuthService(t)

	m.cache.EXPECT().Delete(gomock.Any(), "session:user-1").Return(nil)

	assert.NoError(t, svc.Logout(context.Background(), "user-1"))
}
