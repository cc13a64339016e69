package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"agrirent/config"
	"agrirent/infras/otel"
	"agrirent/internal/domains/equipment/gateway"
	"agrirent/internal/domains/equipment/model"
	equipmentDTO "agrirent/internal/domains/equipment/model/dto"
	"agrirent/shared"
	"agrirent/shared/cache"
	"agrirent/shared/constant"
	"agrirent/shared/dto"
)

// EquipmentService serves the catalog read model. Everything here is a
// cached proxy over the marketplace backend; the gateway never writes.
type EquipmentService interface {
	GetEquipments(ctx context.Context, params dto.QueryParams, filters map[string]string) (equipmentDTO.GetEquipmentsResponse, error)
	GetEquipmentByID(ctx context.Context, id string) (model.Equipment, error)
	GetCategories(ctx context.Context) ([]string, error)
	GetLocations(ctx context.Context) ([]string, error)
}

type serviceImpl struct {
	gateway gateway.Equipment
	cache   cache.RedisCache
	config  *config.Config
	otel    otel.Otel
}

func New(gw gateway.Equipment, redisCache cache.RedisCache, cfg *config.Config, ot otel.Otel) EquipmentService {
	return &serviceImpl{
		gateway: gw,
		cache:   redisCache,
		config:  cfg,
		otel:    ot,
	}
}

func (s *serviceImpl) GetEquipments(ctx context.Context, params dto.QueryParams, filters map[string]string) (res equipmentDTO.GetEquipmentsResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".GetEquipments")
	defer scope.End()
	defer scope.TraceIfError(err)

	cacheKey := shared.BuildCacheKeyWithQuery(shared.BuildCacheKey(model.EntityName, "list"), params, filters)

	if cacheErr := s.cache.Get(ctx, cacheKey, &res); cacheErr == nil {
		return res, nil
	}

	equipment, total, err := s.gateway.List(ctx, params, filters)
	if err != nil {
		return res, fmt.Errorf("failed to get equipment list: %w", err)
	}

	res.FromModels(equipment, params, total)

	go func() {
		ctx := context.WithoutCancel(ctx)

		if err := s.cache.Save(ctx, cacheKey, res, s.config.Cache.TTL); err != nil {
			log.Error().Err(err).Str("key", cacheKey).Msg("failed to cache equipment list")
		}
	}()

	return res, nil
}

func (s *serviceImpl) GetEquipmentByID(ctx context.Context, id string) (res model.Equipment, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".GetEquipmentByID")
	defer scope.End()
	defer scope.TraceIfError(err)

	cacheKey := shared.BuildCacheKey(model.EntityName, "detail", id)

	if cacheErr := s.cache.Get(ctx, cacheKey, &res); cacheErr == nil {
		return res, nil
	}

	res, err = s.gateway.ByID(ctx, id)
	if err != nil {
		return res, fmt.Errorf("failed to get equipment: %w", err)
	}

	go func() {
		ctx := context.WithoutCancel(ctx)

		if err := s.cache.Save(ctx, cacheKey, res, s.config.Cache.TTL); err != nil {
			log.Error().Err(err).Str("key", cacheKey).Msg("failed to cache equipment detail")
		}
	}()

	return res, nil
}

func (s *serviceImpl) GetCategories(ctx context.Context) (res []string, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".GetCategories")
	defer scope.End()
	defer scope.TraceIfError(err)

	return s.cachedNames(ctx, "categories", s.gateway.Categories)
}

func (s *serviceImpl) GetLocations(ctx context.Context) (res []string, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".GetLocations")
	defer scope.End()
	defer scope.TraceIfError(err)

	return s.cachedNames(ctx, "locations", s.gateway.Locations)
}

func (s *serviceImpl) cachedNames(ctx context.Context, kind string, fetch func(context.Context) ([]string, error)) ([]string, error) {
	cacheKey := shared.BuildCacheKey(model.EntityName, kind)

	var names []string
	if cacheErr := s.cache.Get(ctx, cacheKey, &names); cacheErr == nil {
		return names, nil
	}

	names, err := fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get equipment %s: %w", kind, err)
	}

	go func() {
		ctx := context.WithoutCancel(ctx)

		if err := s.cache.Save(ctx, cacheKey, names, s.config.Cache.TTL); err != nil {
			log.Error().Err(err).Str("key", cacheKey).Msg("failed to cache equipment names")
		}
	}()

	return names, nil
}
