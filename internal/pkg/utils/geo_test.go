package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculateHaversineDistance(t *testing.T) {
	cases := []struct {
		name     string
		from, to Coordinates
		want     float64
		delta    float64
	}{
		{"same point", Coordinates{39.9042, 116.4074}, Coordinates{39.9042, 116.4074}, 0, 0.001},
		{"beijing to shanghai", Coordinates{39.9042, 116.4074}, Coordinates{31.2304, 121.4737}, 1067000, 5000},
		{"one degree of latitude", Coordinates{0, 0}, Coordinates{1, 0}, 111195, 10},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.InDelta(t, c.want, c.from.DistanceTo(c.to), c.delta)
		})
	}
}
