//go:build !sqlite_cgo

package sqldb

// Сборка по умолчанию: чистый Go-драйвер SQLite, CGO не нужен.
//
//   CGO_ENABLED=0 go build ./...

import (
	_ "modernc.org/sqlite"
)

const (
	// SQLiteDriverName — имя драйвера database/sql для SQLite.
	SQLiteDriverName = "sqlite"

	// BuildMode описывает текущую конфигурацию сборки.
	BuildMode = "purego"
)
