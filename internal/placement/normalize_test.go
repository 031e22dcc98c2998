package placement

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fields(kv ...string) []Field {
	out := make([]Field, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		out = append(out, Field{Name: kv[i], Value: kv[i+1]})
	}
	return out
}

func TestNormalize_2017Row(t *testing.T) {
	t.Parallel()

	for idx, hex := range Palette {
		rec, err := Normalize(fields(
			"ts", "2017-04-03 17:17:16.588 UTC",
			"user_id", "omgg9QSY0Jjqm1Nc4AOxyw==",
			"x_coordinate", "505",
			"y_coordinate", "510",
			"color", strconv.Itoa(idx),
		))
		require.NoError(t, err)
		assert.Equal(t, Record{
			Timestamp: 1491239836,
			UserHash:  "omgg9QSY0Jjqm1Nc4AOxyw==",
			Shape:     Tile{X: 505, Y: 510},
			Color:     hex,
			Year:      Year2017,
		}, rec)
	}
}

func TestNormalize_2022Tile(t *testing.T) {
	t.Parallel()

	rec, err := Normalize(fields(
		"timestamp", "2022-04-04 00:53:51.577 UTC",
		"user_id", "p0sXpmkcmg1KLiCdK5e4xKdudb1f8cjscGs35082sKpGBfQIw92nZ7yGvWbQ/ggB1+kkRBaYu1zy6n16yL/yjA==",
		"pixel_color", "#00CCC0",
		"coordinate", "826,1048",
	))
	require.NoError(t, err)
	assert.Equal(t, Tile{X: 826, Y: 1048}, rec.Shape)
	assert.Equal(t, KindTile, rec.Kind())
	assert.Equal(t, "#00CCC0", rec.Color)
	assert.Equal(t, Year2022, rec.Year)
	assert.Equal(t, int64(1649033631), rec.Timestamp)
}

func TestNormalize_2022Rectangle(t *testing.T) {
	t.Parallel()

	rec, err := Normalize(fields(
		"timestamp", "2022-04-04T22:47:12Z",
		"user_hash", "mod",
		"coordinate", "1350,1200,1400,1300",
		"pixel_color", "#FFFFFF",
	))
	require.NoError(t, err)
	assert.Equal(t, Rectangle{
		Corner1: Point{X: 1350, Y: 1200},
		Corner2: Point{X: 1400, Y: 1300},
	}, rec.Shape)
	assert.Equal(t, KindRectangle, rec.Kind())
	assert.Equal(t, Year2022, rec.Year)
}

func TestNormalize_MissingFieldsUseSentinels(t *testing.T) {
	t.Parallel()

	rec, err := Normalize(fields("unrelated", "x"))
	require.NoError(t, err)
	assert.Equal(t, Record{
		Timestamp: NoTimestamp,
		UserHash:  "",
		Shape:     Tile{X: NoCoordinate, Y: NoCoordinate},
		Color:     "",
		Year:      YearUnknown,
	}, rec)

	rec, err = Normalize(nil)
	require.NoError(t, err)
	assert.Equal(t, YearUnknown, rec.Year)
}

func TestNormalize_DuplicateFieldLastWins(t *testing.T) {
	t.Parallel()

	rec, err := Normalize(fields(
		"ts", "2022-04-04T00:00:00Z",
		"timestamp", "2022-04-04T00:00:10Z",
		"user_id", "a",
		"user_hash", "b",
		"color", "3",
		"color", "5",
	))
	require.NoError(t, err)
	assert.Equal(t, int64(1649030410), rec.Timestamp)
	assert.Equal(t, "b", rec.UserHash)
	assert.Equal(t, "#E50000", rec.Color)
}

// Legacy x/y after a four-part coordinate: the record becomes a tile whose x
// comes from x_coordinate and whose y is still corner 1's y.
func TestNormalize_ShapePrecedence_LegacyAfterModern(t *testing.T) {
	t.Parallel()

	rec, err := Normalize(fields(
		"coordinate", "10,20,30,40",
		"x_coordinate", "7",
	))
	require.NoError(t, err)
	assert.Equal(t, Tile{X: 7, Y: 20}, rec.Shape)
	assert.Equal(t, Year2017, rec.Year)
}

func TestNormalize_ShapePrecedence_ModernAfterLegacy(t *testing.T) {
	t.Parallel()

	rec, err := Normalize(fields(
		"x_coordinate", "7",
		"y_coordinate", "8",
		"coordinate", "10,20,30,40",
	))
	require.NoError(t, err)
	assert.Equal(t, Rectangle{Corner1: Point{10, 20}, Corner2: Point{30, 40}}, rec.Shape)
	assert.Equal(t, Year2022, rec.Year)

	rec, err = Normalize(fields(
		"coordinate", "10,20,30,40",
		"coordinate", "1,2",
	))
	require.NoError(t, err)
	assert.Equal(t, Tile{X: 1, Y: 2}, rec.Shape)
}

func TestNormalize_YearFollowsLastGenerationField(t *testing.T) {
	t.Parallel()

	rec, err := Normalize(fields("color", "1", "pixel_color", "#123456"))
	require.NoError(t, err)
	assert.Equal(t, Year2022, rec.Year)
	assert.Equal(t, "#123456", rec.Color)

	rec, err = Normalize(fields("pixel_color", "#123456", "color", "1"))
	require.NoError(t, err)
	assert.Equal(t, Year2017, rec.Year)
	assert.Equal(t, "#E4E4E4", rec.Color)
}

func TestNormalize_FieldNamesAreCaseSensitive(t *testing.T) {
	t.Parallel()

	rec, err := Normalize(fields("Color", "99", "TS", "garbage"))
	require.NoError(t, err)
	assert.Equal(t, YearUnknown, rec.Year)
	assert.Equal(t, NoTimestamp, rec.Timestamp)
}

func TestNormalize_Errors(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		in    []Field
		field string
		want  error
	}{
		{"bad_timestamp", fields("ts", "not-a-time"), "ts", ErrInvalidTimestamp},
		{"bad_color_index", fields("color", "16"), "color", ErrInvalidColorIndex},
		{"negative_color_index", fields("color", "-1"), "color", ErrInvalidColorIndex},
		{"three_part_coordinate", fields("coordinate", "1,2,3"), "coordinate", ErrInvalidCoordinateList},
		{"bad_x", fields("x_coordinate", "70000"), "x_coordinate", ErrInvalidCoordinate},
		{"bad_y", fields("y_coordinate", "-3"), "y_coordinate", ErrInvalidCoordinate},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()
			_, err := Normalize(c.in)
			require.Error(t, err)
			assert.ErrorIs(t, err, c.want)

			var fe *FieldError
			require.ErrorAs(t, err, &fe)
			assert.Equal(t, c.field, fe.Field)
		})
	}
}
