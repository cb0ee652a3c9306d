//go:build sqlite_cgo

package sqldb

// Сборка с тегом sqlite_cgo использует драйвер mattn поверх C-библиотеки SQLite.
//
//   CGO_ENABLED=1 go build -tags sqlite_cgo ./...

import (
	_ "github.com/mattn/go-sqlite3"
)

const (
	// SQLiteDriverName — имя драйвера database/sql для SQLite.
	SQLiteDriverName = "sqlite3"

	// BuildMode описывает текущую конфигурацию сборки.
	BuildMode = "cgo"
)
