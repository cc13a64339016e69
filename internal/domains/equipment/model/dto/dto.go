package dto

import (
	"agrirent/internal/domains/equipment/model"
	"agrirent/shared"
	"agrirent/shared/dto"
)

type EquipmentResponse struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Category    string  `json:"category,omitempty"`
	Location    string  `json:"location,omitempty"`
	HourlyRate  float64 `json:"hourly_rate"`
	OwnerName   string  `json:"owner_name,omitempty"`
	ImageURL    string  `json:"image_url,omitempty"`
	TotalUnits  int     `json:"total_units,omitempty"`
	Available   bool    `json:"available"`
}

func (r *EquipmentResponse) FromModel(eq model.Equipment) {
	r.ID = eq.ID
	r.Name = eq.Name
	r.Description = eq.Description
	r.Category = eq.Category
	r.Location = eq.Location
	r.HourlyRate = eq.Price
	r.OwnerName = eq.OwnerName
	r.ImageURL = eq.ImageURL
	r.TotalUnits = eq.TotalUnits
	r.Available = eq.Available
}

type GetEquipmentsResponse struct {
	Equipment []EquipmentResponse `json:"equipment"`
	Params    dto.QueryParams     `json:"params"`
	TotalData int                 `json:"total_data"`
	TotalPage int                 `json:"total_page"`
}

func (r *GetEquipmentsResponse) FromModels(models []model.Equipment, params dto.QueryParams, total int) {
	r.Params = params
	r.TotalData = total
	r.TotalPage = shared.CalculateTotalPage(total, params.Limit)

	r.Equipment = make([]EquipmentResponse, len(models))
	for i, mod := range models {
		r.Equipment[i].FromModel(mod)
	}
}

type UnavailableDatesResponse struct {
	EquipmentID      string   `json:"equipment_id"`
	UnavailableDates []string `json:"unavailable_dates"`
}
