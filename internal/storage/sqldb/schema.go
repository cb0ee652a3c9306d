package sqldb

const (
	tableOrders    = "orders"
	tableCustomers = "customers"
	tableProducts  = "products"
)

// schemas содержит DDL по диалектам. Деньги в SQLite хранятся строкой,
// чтобы decimal переживал round trip без потери точности.
var schemas = map[Dialect][]string{
	DialectSQLite: {
		`CREATE TABLE IF NOT EXISTS orders (
			id          TEXT PRIMARY KEY,
			customer_id TEXT NOT NULL,
			total       TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_orders_customer_id ON orders (customer_id, id)`,
		`CREATE TABLE IF NOT EXISTS order_items (
			order_id   TEXT NOT NULL REFERENCES orders (id) ON DELETE CASCADE,
			id         TEXT NOT NULL,
			position   INTEGER NOT NULL,
			name       TEXT NOT NULL,
			price      TEXT NOT NULL,
			quantity   INTEGER NOT NULL CHECK (quantity > 0),
			product_id TEXT NOT NULL,
			PRIMARY KEY (order_id, position)
		)`,
		`CREATE TABLE IF NOT EXISTS customers (
			id            TEXT PRIMARY KEY,
			name          TEXT NOT NULL,
			street        TEXT,
			street_number INTEGER,
			zip           TEXT,
			city          TEXT,
			active        BOOLEAN NOT NULL DEFAULT 0,
			reward_points INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS products (
			id    TEXT PRIMARY KEY,
			name  TEXT NOT NULL,
			price TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS outbox_messages (
			id             TEXT PRIMARY KEY,
			aggregate_type TEXT NOT NULL,
			aggregate_id   TEXT NOT NULL,
			event_type     TEXT NOT NULL,
			payload        BLOB NOT NULL,
			status         TEXT NOT NULL DEFAULT 'pending',
			attempt_count  INTEGER NOT NULL DEFAULT 0,
			created_at_ns  INTEGER NOT NULL,
			updated_at_ns  INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_outbox_pending ON outbox_messages (status, created_at_ns, id)`,
	},
	DialectMySQL: {
		`CREATE TABLE IF NOT EXISTS orders (
			id          VARCHAR(64) PRIMARY KEY,
			customer_id VARCHAR(64) NOT NULL,
			total       DECIMAL(30, 10) NOT NULL,
			INDEX idx_orders_customer_id (customer_id, id)
		) ENGINE=InnoDB`,
		`CREATE TABLE IF NOT EXISTS order_items (
			order_id   VARCHAR(64) NOT NULL,
			id         VARCHAR(64) NOT NULL,
			position   INT NOT NULL,
			name       VARCHAR(255) NOT NULL,
			price      DECIMAL(30, 10) NOT NULL,
			quantity   INT NOT NULL,
			product_id VARCHAR(64) NOT NULL,
			PRIMARY KEY (order_id, position),
			CONSTRAINT fk_order_items_order FOREIGN KEY (order_id) REFERENCES orders (id) ON DELETE CASCADE
		) ENGINE=InnoDB`,
		`CREATE TABLE IF NOT EXISTS customers (
			id            VARCHAR(64) PRIMARY KEY,
			name          VARCHAR(255) NOT NULL,
			street        VARCHAR(255) NULL,
			street_number INT NULL,
			zip           VARCHAR(32) NULL,
			city          VARCHAR(255) NULL,
			active        BOOLEAN NOT NULL DEFAULT FALSE,
			reward_points INT NOT NULL DEFAULT 0
		) ENGINE=InnoDB`,
		`CREATE TABLE IF NOT EXISTS products (
			id    VARCHAR(64) PRIMARY KEY,
			name  VARCHAR(255) NOT NULL,
			price DECIMAL(30, 10) NOT NULL
		) ENGINE=InnoDB`,
		`CREATE TABLE IF NOT EXISTS outbox_messages (
			id             VARCHAR(64) PRIMARY KEY,
			aggregate_type VARCHAR(32) NOT NULL,
			aggregate_id   VARCHAR(64) NOT NULL,
			event_type     VARCHAR(64) NOT NULL,
			payload        BLOB NOT NULL,
			status         VARCHAR(16) NOT NULL DEFAULT 'pending',
			attempt_count  INT NOT NULL DEFAULT 0,
			created_at_ns  BIGINT NOT NULL,
			updated_at_ns  BIGINT NOT NULL,
			INDEX idx_outbox_pending (status, created_at_ns, id)
		) ENGINE=InnoDB`,
	},
}
