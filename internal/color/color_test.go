package color

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHex(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    RGB
		wantErr bool
	}{
		{name: "6-digit black with hash", input: "#000000", want: RGB{0, 0, 0}},
		{name: "6-digit white with hash", input: "#FFFFFF", want: RGB{255, 255, 255}},
		{name: "6-digit lowercase", input: "#ff00ff", want: RGB{255, 0, 255}},
		{name: "6-digit without hash", input: "AB12CD", want: RGB{0xAB, 0x12, 0xCD}},
		{name: "3-digit white", input: "#FFF", want: RGB{255, 255, 255}},
		{name: "3-digit color", input: "#F0A", want: RGB{0xFF, 0x00, 0xAA}},
		{name: "3-digit without hash", input: "abc", want: RGB{0xAA, 0xBB, 0xCC}},
		{name: "invalid length 1", input: "#F", wantErr: true},
		{name: "invalid length 4", input: "#FFFF", wantErr: true},
		{name: "empty string", input: "", wantErr: true},
		{name: "non-hex characters 6-digit", input: "#ZZZZZZ", wantErr: true},
		{name: "non-hex characters 3-digit", input: "#GGG", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseHex(tt.input)
			if tt.wantErr {
				require.Error(t, err, "got %+v", got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestHex_RoundTrip(t *testing.T) {
	for _, c := range []RGB{{0, 0, 0}, {255, 255, 255}, {0xAB, 0x12, 0xCD}, {1, 2, 3}} {
		s := c.Hex()
		assert.Len(t, s, 7)
		got, err := ParseHex(s)
		require.NoError(t, err)
		assert.Equal(t, c, got, "via %s", s)
	}
	assert.Equal(t, "#ab12cd", RGB{0xAB, 0x12, 0xCD}.Hex())
}

func TestToStdColor_Opaque(t *testing.T) {
	got := RGB{10, 20, 30}.ToStdColor()
	assert.Equal(t, color.RGBA{10, 20, 30, 255}, got)
}

func TestReduce(t *testing.T) {
	assert.Equal(t, RGB{31, 0, 1}, RGB{255, 7, 8}.Reduce(3))
	assert.Equal(t, RGB{255, 7, 8}, RGB{255, 7, 8}.Reduce(0))
}

func TestSquared(t *testing.T) {
	assert.Equal(t, uint64(0), RGB{}.Squared())
	assert.Equal(t, uint64(3*255*255), RGB{255, 255, 255}.Squared())
	assert.Equal(t, uint64(100+400+900), RGB{10, 20, 30}.Squared())
}

func TestDistanceRGB(t *testing.T) {
	assert.Zero(t, DistanceRGB(RGB{1, 2, 3}, RGB{1, 2, 3}))
	assert.InDelta(t, 5.0, DistanceRGB(RGB{0, 0, 0}, RGB{3, 4, 0}), 1e-9)
	assert.InDelta(t, 441.6729559300637, DistanceRGB(RGB{}, RGB{255, 255, 255}), 1e-9)
}
