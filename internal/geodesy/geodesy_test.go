package geodesy

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOutline(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		wantLen   int
		wantErr   error
		wantFirst orb.Point
	}{
		{
			name:      "comma separated",
			text:      "0,0\n0,0.001\n0.001,0.001\n0.001,0",
			wantLen:   5, // closed
			wantFirst: orb.Point{0, 0},
		},
		{
			name:      "comma plus whitespace and blank lines",
			text:      "  -1.5, 36.8\n\n-1.5 ,\t36.9\n-1.6, 36.9\n",
			wantLen:   4,
			wantFirst: orb.Point{36.8, -1.5},
		},
		{
			name:    "already closed ring stays closed",
			text:    "0,0\n0,1\n1,1\n0,0",
			wantLen: 4,
		},
		{
			name:    "too few points",
			text:    "0,0\n1,1",
			wantErr: ErrInsufficientPoints,
		},
		{
			name:    "empty input",
			text:    "",
			wantErr: ErrInsufficientPoints,
		},
		{
			name:    "non numeric field",
			text:    "0,0\nfoo,bar\n1,1",
			wantErr: ErrInvalidCoordinates,
		},
		{
			name:    "wrong field count",
			text:    "0,0\n1,2,3\n1,1",
			wantErr: ErrInvalidCoordinates,
		},
		{
			name:    "latitude out of range",
			text:    "95,0\n0,1\n1,1",
			wantErr: ErrInvalidCoordinates,
		},
		{
			name:    "longitude out of range",
			text:    "0,190\n0,1\n1,1",
			wantErr: ErrInvalidCoordinates,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ring, err := ParseOutline(tt.text)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Len(t, ring, tt.wantLen)
			// First and last vertex coincide after closing.
			assert.Equal(t, ring[0], ring[len(ring)-1])
			if tt.wantFirst != (orb.Point{}) {
				assert.Equal(t, tt.wantFirst, ring[0])
			}
		})
	}
}

func TestAreaM2(t *testing.T) {
	// A 0.001 x 0.001 degree square at the equator is about 12.4e3 m^2.
	square := "0,0\n0,0.001\n0.001,0.001\n0.001,0"
	ring, err := ParseOutline(square)
	require.NoError(t, err)

	area := AreaM2(ring)
	assert.InEpsilon(t, 12364.0, area, 0.02)

	t.Run("winding does not matter", func(t *testing.T) {
		reversed := "0.001,0\n0.001,0.001\n0,0.001\n0,0"
		rring, err := ParseOutline(reversed)
		require.NoError(t, err)
		assert.InDelta(t, area, AreaM2(rring), 1e-6)
	})
}
