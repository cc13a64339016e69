// Package gateway reads the marketplace backend's equipment catalog.
package gateway

//go:generate go run go.uber.org/mock/mockgen -source=./gateway.go -destination=../mocks/gateway_mock.go -package=mocks

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"agrirent/infras/marketplace"
	"agrirent/infras/otel"
	"agrirent/internal/domains/equipment/model"
	"agrirent/shared/constant"
	"agrirent/shared/dto"
)

type Equipment interface {
	List(ctx context.Context, params dto.QueryParams, filters map[string]string) ([]model.Equipment, int, error)
	ByID(ctx context.Context, id string) (model.Equipment, error)
	Categories(ctx context.Context) ([]string, error)
	Locations(ctx context.Context) ([]string, error)
}

type gatewayImpl struct {
	backend marketplace.Client
	otel    otel.Otel
}

func New(backend marketplace.Client, ot otel.Otel) Equipment {
	return &gatewayImpl{
		backend: backend,
		otel:    ot,
	}
}

type wireOwner struct {
	ID   string `json:"_id"`
	Name string `json:"name"`
}

type wireEquipment struct {
	ID          string    `json:"_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Location    string    `json:"location"`
	Price       float64   `json:"price"`
	Owner       wireOwner `json:"ownerId"`
	ImageURL    string    `json:"imageUrl"`
	TotalUnits  int       `json:"totalUnits"`
	Available   bool      `json:"available"`
	CreatedAt   string    `json:"createdAt"`
}

func (w wireEquipment) toModel() model.Equipment {
	eq := model.Equipment{
		ID:          w.ID,
		Name:        w.Name,
		Description: w.Description,
		Category:    w.Category,
		Location:    w.Location,
		Price:       w.Price,
		OwnerID:     w.Owner.ID,
		OwnerName:   w.Owner.Name,
		ImageURL:    w.ImageURL,
		TotalUnits:  w.TotalUnits,
		Available:   w.Available,
	}

	if w.CreatedAt != constant.Empty {
		if createdAt, err := time.Parse(time.RFC3339, w.CreatedAt); err == nil {
			eq.CreatedAt = createdAt
		}
	}

	return eq
}

func (g *gatewayImpl) List(ctx context.Context, params dto.QueryParams, filters map[string]string) (res []model.Equipment, total int, err error) {
	ctx, scope := g.otel.NewScope(ctx, constant.OtelGatewayScopeName, constant.OtelGatewayScopeName+".ListEquipment")
	defer scope.End()
	defer scope.TraceIfError(err)

	query := url.Values{}
	query.Set("page", strconv.Itoa(params.Page))
	query.Set("limit", strconv.Itoa(params.Limit))

	for field, value := range filters {
		if value != constant.Empty {
			query.Set(field, value)
		}
	}

	var envelope struct {
		Equipment []wireEquipment `json:"equipment"`
		Total     int             `json:"total"`
	}

	if err = g.backend.Get(ctx, "/equipment", query, &envelope); err != nil {
		return nil, 0, fmt.Errorf("failed to list equipment: %w", err)
	}

	equipment := make([]model.Equipment, len(envelope.Equipment))
	for i, wire := range envelope.Equipment {
		equipment[i] = wire.toModel()
	}

	total = envelope.Total
	if total == 0 {
		total = len(equipment)
	}

	return equipment, total, nil
}

func (g *gatewayImpl) ByID(ctx context.Context, id string) (res model.Equipment, err error) {
	ctx, scope := g.otel.NewScope(ctx, constant.OtelGatewayScopeName, constant.OtelGatewayScopeName+".EquipmentByID")
	defer scope.End()
	defer scope.TraceIfError(err)

	var envelope struct {
		Equipment wireEquipment `json:"equipment"`
	}

	path := fmt.Sprintf("/equipment/%s", url.PathEscape(id))
	if err = g.backend.Get(ctx, path, nil, &envelope); err != nil {
		return res, fmt.Errorf("failed to fetch equipment: %w", err)
	}

	return envelope.Equipment.toModel(), nil
}

func (g *gatewayImpl) Categories(ctx context.Context) (res []string, err error) {
	ctx, scope := g.otel.NewScope(ctx, constant.OtelGatewayScopeName, constant.OtelGatewayScopeName+".EquipmentCategories")
	defer scope.End()
	defer scope.TraceIfError(err)

	var envelope struct {
		Categories []string `json:"categories"`
	}

	if err = g.backend.Get(ctx, "/equipment/categories", nil, &envelope); err != nil {
		return nil, fmt.Errorf("failed to fetch categories: %w", err)
	}

	return envelope.Categories, nil
}

func (g *gatewayImpl) Locations(ctx context.Context) (res []string, err error) {
	ctx, scope := g.otel.NewScope(ctx, constant.OtelGatewayScopeName, constant.OtelGatewayScopeName+".EquipmentLocations")
	defer scope.End()
	defer scope.TraceIfError(err)

	var envelope struct {
		Locations []string `json:"locations"`
	}

	if err = g.backend.Get(ctx, "/equipment/locations", nil, &envelope); err != nil {
		return nil, fmt.Errorf("failed to fetch locations: %w", err)
	}

	return envelope.Locations, nil
}
