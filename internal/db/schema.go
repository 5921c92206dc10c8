package db

import "fmt"

// baseTables returns the minimal CREATE TABLE statements. Every other column
// is added by the column catalog so that older databases converge the same
// way as fresh ones.
func baseTables(d Dialect) []string {
	pk := d.AutoIncrementPK()
	return []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS users (id %s, username TEXT UNIQUE, password TEXT)`, pk),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS assets (id %s, asset_code TEXT UNIQUE, name TEXT, type TEXT)`, pk),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS registration_emails (id %s, email TEXT UNIQUE)`, pk),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS maintenance_logs (id %s, asset_id INTEGER REFERENCES assets(id), description TEXT)`, pk),
		`CREATE TABLE IF NOT EXISTS asset_code_counters (prefix TEXT PRIMARY KEY, last_seq INTEGER NOT NULL DEFAULT 0)`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS ticket_events (id %s, ticket_id INTEGER NOT NULL, action TEXT NOT NULL, from_status TEXT, to_status TEXT, details TEXT, created_at TIMESTAMP)`, pk),
	}
}

// ColumnStep adds one column when it is missing.
type ColumnStep struct {
	Table      string
	Column     string
	Definition string
}

// Name is the key recorded in schema_migrations.
func (s ColumnStep) Name() string {
	return "add_column:" + s.Table + "." + s.Column
}

// columnCatalog is applied in order. Defaults must be constants: SQLite
// rejects ADD COLUMN with a non-constant default such as CURRENT_TIMESTAMP.
var columnCatalog = []ColumnStep{
	// users belongs to the account tool; its shape is still converged so that
	// tool keeps working.
	{"users", "fullname", "TEXT"},
	{"users", "role", "TEXT DEFAULT 'staff'"},

	// assets
	{"assets", "brand", "TEXT"},
	{"assets", "model", "TEXT"},
	{"assets", "serial_number", "TEXT"},
	{"assets", "purchase_date", "DATE"},
	{"assets", "price", "DECIMAL(10, 2)"},
	{"assets", "status", "TEXT DEFAULT 'available'"},
	{"assets", "location", "TEXT"},
	{"assets", "image_path", "TEXT"},
	{"assets", "notes", "TEXT"},
	{"assets", "assigned_to", "TEXT"},
	{"assets", "signature", "TEXT"},
	{"assets", "spec", "TEXT"},
	{"assets", "received_date", "DATE"},
	{"assets", "return_date", "DATE"},
	{"assets", "email", "TEXT"},
	{"assets", "is_pc", "INTEGER DEFAULT 0"},
	{"assets", "is_mobile", "INTEGER DEFAULT 0"},
	{"assets", "software", "TEXT"},
	{"assets", "created_at", "TIMESTAMP"},

	// registration_emails
	{"registration_emails", "fullname", "TEXT"},
	{"registration_emails", "position", "TEXT"},
	{"registration_emails", "department", "TEXT"},
	{"registration_emails", "is_pc", "INTEGER DEFAULT 0"},
	{"registration_emails", "is_mobile", "INTEGER DEFAULT 0"},
	{"registration_emails", "notes", "TEXT"},
	{"registration_emails", "created_at", "TIMESTAMP"},

	// maintenance_logs
	{"maintenance_logs", "cost", "DECIMAL(10, 2)"},
	{"maintenance_logs", "status", "TEXT DEFAULT 'pending'"},
	{"maintenance_logs", "log_date", "TIMESTAMP"},
	{"maintenance_logs", "reporter_name", "TEXT"},
	{"maintenance_logs", "contact_info", "TEXT"},
	{"maintenance_logs", "department", "TEXT"},
	{"maintenance_logs", "location", "TEXT"},
	{"maintenance_logs", "technician_name", "TEXT"},
	{"maintenance_logs", "started_at", "TIMESTAMP"},
	{"maintenance_logs", "completed_at", "TIMESTAMP"},
	{"maintenance_logs", "signature", "TEXT"},
	{"maintenance_logs", "repair_method", "TEXT"},
	{"maintenance_logs", "signer_name", "TEXT"},
	{"maintenance_logs", "service_type", "TEXT DEFAULT 'repair'"},
	{"maintenance_logs", "created_at", "TIMESTAMP"},
}

// indexes run after the catalog; asset_code uniqueness is the backstop for
// code collisions on databases whose assets table predates the UNIQUE column.
var indexes = []string{
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_assets_asset_code ON assets (asset_code)`,
	`CREATE INDEX IF NOT EXISTS idx_maintenance_logs_asset_id ON maintenance_logs (asset_id)`,
	`CREATE INDEX IF NOT EXISTS idx_ticket_events_ticket_id ON ticket_events (ticket_id)`,
}

// ColumnCatalog returns a copy of the ordered column steps.
func ColumnCatalog() []ColumnStep {
	out := make([]ColumnStep, len(columnCatalog))
	copy(out, columnCatalog)
	return out
}
