// Package all registers every storage backend with the storage registry.
package all

import (
	_ "catalogsync/internal/storage/mssql"
	_ "catalogsync/internal/storage/postgres"
	_ "catalogsync/internal/storage/sqlite"
)
