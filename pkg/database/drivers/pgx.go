package drivers

import (
	// Registers "pgx" for shared PostgreSQL deployments where several
	// inspectors use one material catalog.
	_ "github.com/jackc/pgx/v5/stdlib"
)
