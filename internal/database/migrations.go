package database

import "embed"

// MigrationsFS embeds the schema migration files so the binary can
// migrate itself at startup.
//
//go:embed migrations/*.sql
var MigrationsFS embed.FS

// MigrationsDir is the directory inside MigrationsFS holding the files.
const MigrationsDir = "migrations"
