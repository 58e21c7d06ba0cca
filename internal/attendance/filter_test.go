package attendance

import (
	"errors"
	"testing"

	"github.com/hugh/go-attend/internal/apperr"
	"github.com/hugh/go-attend/internal/database/models"
	"github.com/stretchr/testify/assert"
)

func mustDate(s string) *models.Date {
	d, err := models.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return &d
}

func TestFilter_Validate(t *testing.T) {
	tests := []struct {
		name    string
		filter  Filter
		wantErr bool
	}{
		{"empty", Filter{}, false},
		{"from only", Filter{FromDate: mustDate("2025-01-31")}, false},
		{"to only", Filter{ToDate: mustDate("2025-01-01")}, false},
		{"ordered range", Filter{FromDate: mustDate("2025-01-01"), ToDate: mustDate("2025-01-31")}, false},
		{"single day range", Filter{FromDate: mustDate("2025-01-10"), ToDate: mustDate("2025-01-10")}, false},
		{"inverted range", Filter{FromDate: mustDate("2025-01-31"), ToDate: mustDate("2025-01-01")}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.filter.Validate()
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, apperr.ErrValidation))
		})
	}
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `50\% off\_now\\`, escapeLike(`50% off_now\`))
	assert.Equal(t, "plain", escapeLike("plain"))
}

func TestCreateInput_Channel(t *testing.T) {
	assert.Equal(t, models.ChannelQR, CreateInput{ViaQR: true}.Channel())
	assert.Equal(t, models.ChannelNFC, CreateInput{ViaNFC: true}.Channel())
	// Channel is only meaningful for valid input, but the derivation is total.
	assert.Equal(t, models.ChannelQR, CreateInput{ViaQR: true, ViaNFC: true}.Channel())
	assert.Equal(t, models.ChannelNFC, CreateInput{}.Channel())
}
