package placement

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeTimestamp(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		in   string
		want int64
	}{
		{"rfc3339_z", "2022-04-04T00:53:51Z", 1649033631},
		{"rfc3339_fraction", "2022-04-04T00:53:51.577Z", 1649033631},
		{"rfc3339_offset", "2022-04-04T02:53:51+02:00", 1649033631},
		{"space_separator_offset", "2022-04-04 00:53:51.577+00:00", 1649033631},
		{"dump_utc_suffix", "2022-04-04 00:53:51.577 UTC", 1649033631},
		{"dump_utc_no_fraction", "2017-04-03 17:17:16 UTC", 1491239836},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()
			got, err := DecodeTimestamp(c.in)
			require.NoError(t, err)
			assert.Equal(t, c.want, got)
		})
	}
}

func TestDecodeTimestamp_Invalid(t *testing.T) {
	t.Parallel()

	for _, in := range []string{"", "yesterday", "2022-04-04", "2022-04-04 00:53:51", "2022-13-04T00:00:00Z", "1649033631"} {
		_, err := DecodeTimestamp(in)
		assert.ErrorIs(t, err, ErrInvalidTimestamp, "input %q", in)
	}
}

func TestDecodeCoordinate(t *testing.T) {
	t.Parallel()

	v, err := DecodeCoordinate("0")
	require.NoError(t, err)
	assert.Equal(t, uint16(0), v)

	v, err = DecodeCoordinate("65535")
	require.NoError(t, err)
	assert.Equal(t, uint16(65535), v)

	v, err = DecodeCoordinate("+5")
	require.NoError(t, err)
	assert.Equal(t, uint16(5), v)

	for _, in := range []string{"", "-1", "65536", "1.5", "x", " 4", "+", "++5", "+-1"} {
		_, err := DecodeCoordinate(in)
		assert.ErrorIs(t, err, ErrInvalidCoordinate, "input %q", in)
	}
}

func TestDecodeColorIndex(t *testing.T) {
	t.Parallel()

	got, err := DecodeColorIndex("7")
	require.NoError(t, err)
	assert.Equal(t, "#A06A42", got)

	got, err = DecodeColorIndex("+7")
	require.NoError(t, err)
	assert.Equal(t, "#A06A42", got, "sign handling matches DecodeCoordinate")

	for i, want := range Palette {
		got, err := DecodeColorIndex(strconv.Itoa(i))
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	for _, in := range []string{"16", "-1", "", "red", "3.0"} {
		_, err := DecodeColorIndex(in)
		assert.ErrorIs(t, err, ErrInvalidColorIndex, "input %q", in)
	}
}

func TestDecodeCoordinateList(t *testing.T) {
	t.Parallel()

	got, err := DecodeCoordinateList("12,34")
	require.NoError(t, err)
	assert.Equal(t, []uint16{12, 34}, got)

	got, err = DecodeCoordinateList("1, 2, 3, 4")
	require.NoError(t, err)
	assert.Equal(t, []uint16{1, 2, 3, 4}, got)

	_, err = DecodeCoordinateList("1,2,3")
	assert.ErrorIs(t, err, ErrInvalidCoordinateList)

	_, err = DecodeCoordinateList("7")
	assert.ErrorIs(t, err, ErrInvalidCoordinateList)

	_, err = DecodeCoordinateList("1,x")
	assert.ErrorIs(t, err, ErrInvalidCoordinateList)
	assert.ErrorIs(t, err, ErrInvalidCoordinate)
}
