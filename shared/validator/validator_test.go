package validator_test

import (
	"net/http"
	"strings"
	"testing"

	"agrirent/shared/failure"
	"agrirent/shared/validator"
)

type selectionPayload struct {
	Mode          string   `json:"mode"           validate:"required,oneof=range individual"`
	StartDate     string   `json:"start_date"     validate:"omitempty,isodate"`
	SelectedDates []string `json:"selected_dates" validate:"omitempty,dive,isodate"`
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{
			name: "valid range payload",
			body: `{"mode":"range","start_date":"2026-03-11"}`,
		},
		{
			name: "valid individual payload",
			body: `{"mode":"individual","selected_dates":["2026-03-11","2026-03-12"]}`,
		},
		{
			name:    "unknown mode",
			body:    `{"mode":"weekly"}`,
			wantErr: true,
		},
		{
			name:    "malformed date",
			body:    `{"mode":"range","start_date":"11-03-2026"}`,
			wantErr: true,
		},
		{
			name:    "malformed date inside a list",
			body:    `{"mode":"individual","selected_dates":["2026-03-11","garbage"]}`,
			wantErr: true,
		},
		{
			name:    "broken json",
			body:    `{"mode":`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var payload selectionPayload
			err := validator.Validate(strings.NewReader(tt.body), &payload)

			if tt.wantErr {
				if err == nil {
					t.Fatal("expected a validation error")
				}
				if code := failure.GetCode(err); code != http.StatusBadRequest {
					t.Errorf("expected a 400, got %d", code)
				}

				return
			}

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
		})
	}
}

func TestValidateVar(t *testing.T) {
	if err := validator.ValidateVar("2026-03-11", "isodate"); err != nil {
		t.Errorf("expected a valid ISO date, got %v", err)
	}

	if err := validator.ValidateVar("2026-3-1", "isodate"); err == nil {
		t.Error("expected a malformed date to fail")
	}
}
