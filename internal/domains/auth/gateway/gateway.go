// Package gateway proxies authentication to the marketplace backend, which
// owns the credential store.
package gateway

//go:generate go run go.uber.org/mock/mockgen -source=./gateway.go -destination=../mocks/gateway_mock.go -package=mocks

import (
	"context"
	"fmt"

	"agrirent/infras/marketplace"
	"agrirent/infras/otel"
	"agrirent/internal/domains/auth/model"
	"agrirent/shared/constant"
)

type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Phone    string
	Role     string
}

type Auth interface {
	Register(ctx context.Context, in RegisterInput) (model.User, error)
	Login(ctx context.Context, email, password string) (model.User, error)
}

type gatewayImpl struct {
	backend marketplace.Client
	otel    otel.Otel
}

func New(backend marketplace.Client, ot otel.Otel) Auth {
	return &gatewayImpl{
		backend: backend,
		otel:    ot,
	}
}

type wireUser struct {
	ID    string `json:"_id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
	Role  string `json:"role"`
}

func (w wireUser) toModel() model.User {
	return model.User{
		ID:    w.ID,
		Name:  w.Name,
		Email: w.Email,
		Phone: w.Phone,
		Role:  w.Role,
	}
}

func (g *gatewayImpl) Register(ctx context.Context, in RegisterInput) (res model.User, err error) {
	ctx, scope := g.otel.NewScope(ctx, constant.OtelGatewayScopeName, constant.OtelGatewayScopeName+".Register")
	defer scope.End()
	defer scope.TraceIfError(err)

	body := map[string]any{
		"name":     in.Name,
		"email":    in.Email,
		"password": in.Password,
		"phone":    in.Phone,
		"role":     in.Role,
	}

	var envelope struct {
		User wireUser `json:"user"`
	}

	if err = g.backend.Post(ctx, "/auth/register", body, &envelope); err != nil {
		return res, fmt.Errorf("failed to register user: %w", err)
	}

	return envelope.User.toModel(), nil
}

func (g *gatewayImpl) Login(ctx context.Context, email, password string) (res model.User, err error) {
	ctx, scope := g.otel.NewScope(ctx, constant.OtelGatewayScopeName, constant.OtelGatewayScopeName+".Login")
	defer scope.End()
	defer scope.TraceIfError(err)

	body := map[string]any{
		"email":    email,
		"password": password,
	}

	var envelope struct {
		User wireUser `json:"user"`
	}

	if err = g.backend.Post(ctx, "/auth/login", body, &envelope); err != nil {
		return res, fmt.Errorf("failed to log in: %w", err)
	}

	return envelope.User.toModel(), nil
}
