package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"agrirent/config"
	otelMocks "agrirent/infras/otel/mocks"
	equipmentMocks "agrirent/internal/domains/equipment/mocks"
	"agrirent/internal/domains/equipment/model"
	"agrirent/internal/domains/equipment/service"
	cacheMocks "agrirent/shared/cache/mocks"
	"agrirent/shared/dto"
	"agrirent/shared/failure"
)

var errCacheMiss = errors.New("cache miss")

func newEquipmentService(t *testing.T) (service.EquipmentService, *equipmentMocks.MockEquipment, *cacheMocks.MockRedisCache) {
	t.Helper()

	ctrl := gomock.NewController(t)
	mockGateway := equipmentMocks.NewMockEquipment(ctrl)
	mockCache := cacheMocks.NewMockRedisCache(ctrl)

	cfg := &config.Config{}
	cfg.Cache.TTL = 300

	svc := service.New(mockGateway, mockCache, cfg, otelMocks.NewOtel())

	return svc, mockGateway, mockCache
}

func TestGetEquipments(t *testing.T) {
	params := dto.QueryParams{Page: 1, Limit: 10}

	t.Run("cache miss fetches from the backend", func(t *testing.T) {
		svc, mockGateway, mockCache := newEquipmentService(t)

		mockCache.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any()).Return(errCacheMiss)
		mockCache.EXPECT().Save(gomock.Any(), gomock.Any(), gomock.Any(), 300).Return(nil).AnyTimes()
		mockGateway.EXPECT().
			List(gomock.Any(), params, map[string]string{"category": "tractor"}).
			Return([]model.Equipment{{ID: "equipment-1", Name: "Tractor", Price: 12.5}}, 25, nil)

		res, err := svc.GetEquipments(context.Background(), params, map[string]string{"category": "tractor"})

		require.NoError(t, err)
		assert.Equal(t, 25, res.TotalData)
		assert.Equal(t, 3, res.TotalPage)
		require.Len(t, res.Equipment, 1)
		assert.InDelta(t, 12.5, res.Equipment[0].HourlyRate, 1e-9)
	})

	t.Run("cache hit skips the backend", func(t *testing.T) {
		svc, _, mockCache := newEquipmentService(t)

		mockCache.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)

		_, err := svc.GetEquipments(context.Background(), params, nil)

		assert.NoError(t, err)
	})

	t.Run("backend failure is returned", func(t *testing.T) {
		svc, mockGateway, mockCache := newEquipmentService(t)

		mockCache.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any()).Return(errCacheMiss)
		mockGateway.EXPECT().
			List(gomock.Any(), params, gomock.Nil()).
			Return(nil, 0, failure.Upstream("backend down"))

		_, err := svc.GetEquipments(context.Background(), params, nil)

		assert.Error(t, err)
	})
}

func TestGetEquipmentByID(t *testing.T) {
	t.Run("cache miss fetches and caches the detail", func(t *testing.T) {
		svc, mockGateway, mockCache := newEquipmentService(t)

		mockCache.EXPECT().Get(gomock.Any(), "equipment:detail:equipment-1", gomock.Any()).Return(errCacheMiss)
		mockCache.EXPECT().Save(gomock.Any(), "equipment:detail:equipment-1", gomock.Any(), 300).Return(nil).AnyTimes()
		mockGateway.EXPECT().
			ByID(gomock.Any(), "equipment-1").
			Return(model.Equipment{ID: "equipment-1", Name: "Tractor"}, nil)

		res, err := svc.GetEquipmentByID(context.Background(), "equipment-1")

		require.NoError(t, err)
		assert.Equal(t, "Tractor", res.Name)
	})

	t.Run("cache hit returns the cached detail", func(t *testing.T) {
		svc, _, mockCache := newEquipmentService(t)

		mockCache.EXPECT().
			Get(gomock.Any(), "equipment:detail:equipment-1", gomock.Any()).
			DoAndReturn(func(_ context.Context, _ string, value any) error {
				equipment, ok := value.(*model.Equipment)
				require.True(t, ok)
				*equipment = model.Equipment{ID: "equipment-1", Name: "Cached Tractor"}

				return nil
			})

		res, err := svc.GetEquipmentByID(context.Background(), "equipment-1")

		require.NoError(t, err)
		assert.Equal(t, "Cached Tractor", res.Name)
	})
}

func TestGetCategories(t *testing.T) {
	svc, mockGateway, mockCache := newEquipmentService(t)

	mockCache.EXPECT().Get(gomock.Any(), "equipment:categories", gomock.Any()).Return(errCacheMiss)
	mockCache.EXPECT().Save(gomock.Any(), "equipment:categories", gomock.Any(), 300).Return(nil).AnyTimes()
	mockGateway.EXPECT().Categories(gomock.Any()).Return([]string{"tractor", "harvester"}, nil)

	res, err := svc.GetCategories(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"tractor", "harvester"}, res)
}

func TestGetLocations(t *testing.T) {
	svc, mockGateway, mockCache := newEquipmentService(t)

	mockCache.EXPECT().Get(gomock.Any(), "equipment:locations", gomock.Any()).Return(errCacheMiss)
	mockGateway.EXPECT().Locations(gomock.Any()).Return(nil, failure.Upstream("backend down"))

	res, err := svc.GetLocations(context.Background())

	require.Error(t, err)
	assert.Nil(t, res)
}
