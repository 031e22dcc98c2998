// Package all wires all built-in storage backends into the storage factory.
//
// This package exists purely for side effects: importing it (even as a blank
// import) runs the init functions of each backend, which register their
// factories and DDL bootstrappers with the storage package:
//
//   - "sqlite"   (placeetl/internal/storage/sqlite)
//   - "postgres" (placeetl/internal/storage/postgres)
//   - "mssql"    (placeetl/internal/storage/mssql)
//   - "mysql"    (placeetl/internal/storage/mysql)
//
// A binary that needs only a subset can import those backends directly.
package all

import (
	_ "placeetl/internal/storage/mssql"
	_ "placeetl/internal/storage/mysql"
	_ "placeetl/internal/storage/postgres"
	_ "placeetl/internal/storage/sqlite"
)
