package placement

// Field is one (header name, raw value) pair from a source line.
type Field struct {
	Name  string
	Value string
}

// draft is the mutable working state of Normalize. It never escapes.
type draft struct {
	ts     int64
	user   string
	c1, c2 Point
	rect   bool
	color  string
	year   Year
}

func newDraft() draft {
	return draft{
		ts: NoTimestamp,
		c1: Point{X: NoCoordinate, Y: NoCoordinate},
		c2: Point{X: NoCoordinate, Y: NoCoordinate},
	}
}

// Normalize builds a Record from the fields of one source line.
//
// Field names are matched exactly:
//
//	timestamp | ts           -> Timestamp
//	user_id | user_hash      -> UserHash
//	pixel_color              -> Color verbatim, Year2022
//	color                    -> Color via palette index, Year2017
//	coordinate               -> "x,y" Tile or "x1,y1,x2,y2" Rectangle, Year2022
//	x_coordinate/y_coordinate -> Tile x/y, Year2017
//
// Unknown names are ignored and absent fields keep their sentinel values.
// Fields are applied in order, so the last value of a logical field wins.
// The same rule settles the shape: whichever shape-bearing field comes last
// decides Tile or Rectangle, and corner values written by earlier fields are
// kept.
func Normalize(fields []Field) (Record, error) {
	d := newDraft()
	for _, f := range fields {
		if err := d.apply(f); err != nil {
			return Record{}, &FieldError{Field: f.Name, Value: f.Value, Err: err}
		}
	}
	return d.record(), nil
}

func (d *draft) apply(f Field) error {
	switch f.Name {
	case "timestamp", "ts":
		ts, err := DecodeTimestamp(f.Value)
		if err != nil {
			return err
		}
		d.ts = ts

	case "user_id", "user_hash":
		d.user = f.Value

	case "pixel_color":
		d.color = f.Value
		d.year = Year2022

	case "color":
		c, err := DecodeColorIndex(f.Value)
		if err != nil {
			return err
		}
		d.color = c
		d.year = Year2017

	case "coordinate":
		xs, err := DecodeCoordinateList(f.Value)
		if err != nil {
			return err
		}
		d.c1 = Point{X: xs[0], Y: xs[1]}
		d.rect = len(xs) == 4
		if d.rect {
			d.c2 = Point{X: xs[2], Y: xs[3]}
		}
		d.year = Year2022

	case "x_coordinate":
		x, err := DecodeCoordinate(f.Value)
		if err != nil {
			return err
		}
		d.c1.X = x
		d.rect = false
		d.year = Year2017

	case "y_coordinate":
		y, err := DecodeCoordinate(f.Value)
		if err != nil {
			return err
		}
		d.c1.Y = y
		d.rect = false
		d.year = Year2017
	}
	return nil
}

func (d *draft) record() Record {
	var shape Shape = Tile{X: d.c1.X, Y: d.c1.Y}
	if d.rect {
		shape = Rectangle{Corner1: d.c1, Corner2: d.c2}
	}
	return Record{
		Timestamp: d.ts,
		UserHash:  d.user,
		Shape:     shape,
		Color:     d.color,
		Year:      d.year,
	}
}
