package ddl

// Destination tables for normalized placements.
const (
	PlacementsTable = "placements"
	ModerationTable = "placements_moderation"
)

// Column orders for the two destination tables. Writers bind parameters in
// exactly this order.
var (
	PlacementsColumns = []string{
		"ts", "user_hash", "coordinate_x", "coordinate_y", "color", "year",
	}
	ModerationColumns = []string{
		"ts", "user_hash",
		"coordinate_x_1", "coordinate_y_1",
		"coordinate_x_2", "coordinate_y_2",
		"color", "year",
	}
)

// PlacementTables returns the definitions of both destination tables using
// the dialect's type names. The checks encode the canvas bounds of each
// generation: 2017 coordinates lie in [0,1000], 2022 in [0,2000), and only
// 2022 produced rectangle (moderation) placements.
func PlacementTables(types TypeMap) []TableDef {
	col := func(name, typ string) ColumnDef { return ColumnDef{Name: name, SQLType: typ} }

	placements := TableDef{
		FQN: PlacementsTable,
		Columns: []ColumnDef{
			col("ts", types.BigInt),
			col("user_hash", types.Text),
			col("coordinate_x", types.Int),
			col("coordinate_y", types.Int),
			col("color", types.Color),
			col("year", types.SmallInt),
		},
		Checks: []string{
			"year IN (2017, 2022)",
			"(year = 2017 AND coordinate_x BETWEEN 0 AND 1000 AND coordinate_y BETWEEN 0 AND 1000)" +
				" OR (year = 2022 AND coordinate_x >= 0 AND coordinate_x < 2000 AND coordinate_y >= 0 AND coordinate_y < 2000)",
		},
	}

	moderation := TableDef{
		FQN: ModerationTable,
		Columns: []ColumnDef{
			col("ts", types.BigInt),
			col("user_hash", types.Text),
			col("coordinate_x_1", types.Int),
			col("coordinate_y_1", types.Int),
			col("coordinate_x_2", types.Int),
			col("coordinate_y_2", types.Int),
			col("color", types.Color),
			col("year", types.SmallInt),
		},
		Checks: []string{
			"year = 2022",
			"coordinate_x_1 >= 0 AND coordinate_x_1 < 2000 AND coordinate_y_1 >= 0 AND coordinate_y_1 < 2000",
			"coordinate_x_2 >= 0 AND coordinate_x_2 < 2000 AND coordinate_y_2 >= 0 AND coordinate_y_2 < 2000",
		},
	}

	return []TableDef{placements, moderation}
}
