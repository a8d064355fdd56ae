// Package appfs embeds the static assets shipped with every binary.
package appfs

import "embed"

//go:embed migrations/*.sql templates/email/* gateway/routes.yaml
var FS embed.FS

const (
	MigrationsDir     = "migrations"
	GatewayRoutesFile = "gateway/routes.yaml"
)
