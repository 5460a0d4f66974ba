// Package postgres embebe el esquema SQL del adapter PostgreSQL.
package postgres

import "embed"

// FS contiene las migraciones en Dir.
//
//go:embed schema/*.sql
var FS embed.FS

// Dir es el directorio de FS donde viven las migraciones.
const Dir = "schema"
