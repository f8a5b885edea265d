package attendance

import (
	"testing"
	"time"

	"github.com/cmlabs-hris/attendance-rules/internal/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecord_WorkDurationMinutes(t *testing.T) {
	day := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	rec := NewRecord("e-1", day, day)
	assert.Equal(t, 0, rec.WorkDurationMinutes())

	rec = rec.WithCheckIn(day.Add(9*time.Hour), CheckInTypeGPS, nil)
	assert.True(t, rec.IsOpen())
	assert.Equal(t, 0, rec.WorkDurationMinutes())

	rec = rec.WithCheckOut(day.Add(18*time.Hour+30*time.Second), nil)
	assert.False(t, rec.IsOpen())
	assert.Equal(t, 540, rec.WorkDurationMinutes())
}

func TestRecord_WithStatus(t *testing.T) {
	now := time.Date(2025, 4, 1, 9, 30, 0, 0, time.UTC)
	tests := []struct {
		status Status
		reason string
	}{
		{StatusLate, "late arrival"},
		{StatusEarly, "early departure"},
		{StatusAbsent, "no check-in recorded"},
		{StatusNormal, ""},
		{StatusOvertime, ""},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			rec := NewRecord("e-1", now, now).WithStatus(StatusLate, now).WithStatus(tt.status, now)
			assert.Equal(t, tt.status, rec.Status)
			if tt.reason == "" {
				assert.Nil(t, rec.AbnormalReason)
				return
			}
			require.NotNil(t, rec.AbnormalReason)
			assert.Equal(t, tt.reason, *rec.AbnormalReason)
		})
	}
}

func TestDateOf(t *testing.T) {
	jakarta := time.FixedZone("WIB", 7*60*60)
	got := DateOf(time.Date(2025, 4, 1, 23, 59, 0, 0, jakarta))
	assert.Equal(t, time.Date(2025, 4, 1, 0, 0, 0, 0, jakarta), got)
}

func TestLocationInput_Coordinates(t *testing.T) {
	tests := []struct {
		name    string
		input   LocationInput
		want    utils.Coordinates
		wantErr bool
	}{
		{"numbers", LocationInput{Lat: -6.2, Lng: 106.8}, utils.Coordinates{Latitude: -6.2, Longitude: 106.8}, false},
		{"numeric strings", LocationInput{Lat: "39.9", Lng: "116.4"}, utils.Coordinates{Latitude: 39.9, Longitude: 116.4}, false},
		{"poles", LocationInput{Lat: 90, Lng: -180}, utils.Coordinates{Latitude: 90, Longitude: -180}, false},
		{"latitude out of range", LocationInput{Lat: 91, Lng: 0}, utils.Coordinates{}, true},
		{"longitude out of range", LocationInput{Lat: 0, Lng: 180.5}, utils.Coordinates{}, true},
		{"not numeric", LocationInput{Lat: "north", Lng: 0}, utils.Coordinates{}, true},
		{"missing", LocationInput{}, utils.Coordinates{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.input.Coordinates()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidLocation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatLocation(t *testing.T) {
	c := utils.Coordinates{Latitude: -6.2, Longitude: 106.8}
	assert.Equal(t, "-6.2,106.8 (Jakarta)", FormatLocation(c, "Jakarta"))
	assert.Equal(t, "-6.2,106.8", FormatLocation(c, "  "))
}
