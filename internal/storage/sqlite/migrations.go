package sqlite

import "database/sql"

// schema contains the SQL statements to set up the database. These run
// on startup to ensure tables exist. Money columns are TEXT holding
// exact decimal strings; timestamps are RFC 3339 UTC TEXT. The CHECK
// constraints on the enum columns keep malformed rows out of the store
// no matter which code path writes them.
const schema = `
CREATE TABLE IF NOT EXISTS business (
    id TEXT PRIMARY KEY,
    server_id INTEGER,
    name TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    address_one TEXT NOT NULL DEFAULT '',
    address_two TEXT,
    phone TEXT NOT NULL DEFAULT '',
    email TEXT NOT NULL DEFAULT '',
    registration_number TEXT,
    logo TEXT,
    motto TEXT,
    signature TEXT NOT NULL DEFAULT '',
    currency TEXT NOT NULL,
    tax_rate TEXT NOT NULL,
    tax_enabled INTEGER NOT NULL,
    selected_template_id TEXT NOT NULL,
    onboarding_complete INTEGER NOT NULL,
    sync_status TEXT NOT NULL CHECK (sync_status IN ('pending','synced','error','deleted')),
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS receipts (
    id TEXT PRIMARY KEY,
    server_id INTEGER,
    business_id TEXT NOT NULL,
    template_id TEXT NOT NULL,
    receipt_number TEXT NOT NULL,
    receipt_date TEXT NOT NULL,
    customer_name TEXT NOT NULL,
    customer_phone TEXT,
    customer_email TEXT,
    subtotal TEXT NOT NULL,
    tax_rate TEXT NOT NULL,
    tax_amount TEXT NOT NULL,
    discount TEXT NOT NULL,
    grand_total TEXT NOT NULL,
    notes TEXT,
    is_paid INTEGER NOT NULL,
    paid_at TEXT,
    sync_status TEXT NOT NULL CHECK (sync_status IN ('pending','synced','error','deleted')),
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL,
    deleted_at TEXT
);

CREATE TABLE IF NOT EXISTS receipt_items (
    id TEXT PRIMARY KEY,
    server_id INTEGER,
    receipt_id TEXT NOT NULL,
    description TEXT NOT NULL,
    quantity INTEGER NOT NULL CHECK (quantity >= 1),
    unit_price TEXT NOT NULL,
    total TEXT NOT NULL,
    sync_status TEXT NOT NULL CHECK (sync_status IN ('pending','synced','error','deleted')),
    FOREIGN KEY (receipt_id) REFERENCES receipts(id)
);

CREATE TABLE IF NOT EXISTS outbox (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    entity_type TEXT NOT NULL CHECK (entity_type IN ('business','receipts','receiptItem')),
    entity_id TEXT NOT NULL,
    operation TEXT NOT NULL CHECK (operation IN ('create','update','delete')),
    payload TEXT NOT NULL,
    created_at TEXT NOT NULL,
    retry_count INTEGER NOT NULL DEFAULT 0,
    last_error TEXT
);

CREATE TABLE IF NOT EXISTS sync_state (
    id TEXT PRIMARY KEY,
    entity_type TEXT NOT NULL DEFAULT '',
    last_pulled_at INTEGER NOT NULL DEFAULT 0,
    last_pushed_at INTEGER NOT NULL DEFAULT 0,
    device_id TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_business_sync_status ON business(sync_status);
CREATE INDEX IF NOT EXISTS idx_business_updated_at ON business(updated_at);
CREATE INDEX IF NOT EXISTS idx_receipts_business_id ON receipts(business_id);
CREATE INDEX IF NOT EXISTS idx_receipts_receipt_number ON receipts(receipt_number);
CREATE INDEX IF NOT EXISTS idx_receipts_created_at ON receipts(created_at);
CREATE INDEX IF NOT EXISTS idx_receipts_updated_at ON receipts(updated_at);
CREATE INDEX IF NOT EXISTS idx_receipts_sync_status ON receipts(sync_status);
CREATE INDEX IF NOT EXISTS idx_receipts_is_paid ON receipts(is_paid);
CREATE INDEX IF NOT EXISTS idx_receipt_items_receipt_id ON receipt_items(receipt_id);
CREATE INDEX IF NOT EXISTS idx_outbox_entity ON outbox(entity_type, entity_id);
CREATE INDEX IF NOT EXISTS idx_outbox_created_at ON outbox(created_at);
CREATE INDEX IF NOT EXISTS idx_outbox_retry_count ON outbox(retry_count);
CREATE INDEX IF NOT EXISTS idx_sync_state_entity_type ON sync_state(entity_type);
`

// runMigrations executes the schema setup.
func runMigrations(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
