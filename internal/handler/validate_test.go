package handler

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pricewatch/backend/internal/service"
)

func TestValidateStruct(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		input     any
		wantField string
	}{
		{
			name:  "valid registration",
			input: &service.RegisterInput{Name: "Ann", Email: "ann@example.com", Password: "secret1"},
		},
		{
			name:      "missing email",
			input:     &service.RegisterInput{Name: "Ann", Password: "secret1"},
			wantField: "email",
		},
		{
			name:      "short password",
			input:     &service.RegisterInput{Name: "Ann", Email: "ann@example.com", Password: "123"},
			wantField: "password",
		},
		{
			name: "nested platform name",
			input: &service.CreateProductInput{
				Title:     "Phone",
				Platforms: []service.PlatformInput{{Name: "Amazon", CurrentPrice: service.Price(10)}, {Name: "", CurrentPrice: service.Price(12)}},
			},
			wantField: "platforms[1].name",
		},
		{
			name:      "negative price",
			input:     &service.AddPriceInput{PlatformName: "Amazon", Price: service.Price(-1)},
			wantField: "price",
		},
		{
			name:      "missing price",
			input:     &service.AddPriceInput{PlatformName: "Amazon"},
			wantField: "price",
		},
		{
			name:      "zero price is allowed",
			input:     &service.AddPriceInput{PlatformName: "Amazon", Price: service.Price(0)},
		},
		{
			name: "platform without current price",
			input: &service.CreateProductInput{
				Title:     "Phone",
				Platforms: []service.PlatformInput{{Name: "Amazon"}},
			},
			wantField: "platforms[0].currentPrice",
		},
		{
			name: "too many platforms",
			input: func() *service.CreateProductInput {
				in := &service.CreateProductInput{Title: "Phone"}
				for i := 0; i < 21; i++ {
					in.Platforms = append(in.Platforms, service.PlatformInput{Name: fmt.Sprintf("shop-%d", i), CurrentPrice: service.Price(1)})
				}
				return in
			}(),
			wantField: "platforms",
		},
		{
			name: "history point without price",
			input: &service.CreateProductInput{
				Title: "Phone",
				Platforms: []service.PlatformInput{{
					Name:         "Amazon",
					CurrentPrice: service.Price(10),
					History:      []service.PricePointInput{{Date: time.Now()}},
				}},
			},
			wantField: "platforms[0].history[0].price",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			appErr := validateStruct(tt.input)
			if tt.wantField == "" {
				assert.Nil(t, appErr)
				return
			}
			require.NotNil(t, appErr)
			assert.Equal(t, http.StatusBadRequest, appErr.StatusCode)
			assert.Equal(t, tt.wantField, appErr.Field)
			assert.NotEmpty(t, appErr.Message)
		})
	}
}
