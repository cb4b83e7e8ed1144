package main

import (
	"database/sql"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	_ "modernc.org/sqlite"

	"shiftops/internal/auth"
)

var db *sql.DB

func initDB(path string) error {
	// Close previous connection if any (prevents goroutine leaks in tests)
	if db != nil {
		db.Close()
	}
	var err error
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	db, err = sql.Open("sqlite", path+sep+"_journal_mode=WAL&_busy_timeout=10000&_foreign_keys=1")
	if err != nil {
		return err
	}

	// SQLite handles 1 writer + multiple readers with WAL mode
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return fmt.Errorf("enable WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=30000"); err != nil {
		return fmt.Errorf("set busy_timeout: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return fmt.Errorf("enable foreign keys: %w", err)
	}

	return runMigrations()
}

func runMigrations() error {
	tables := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			username TEXT UNIQUE NOT NULL,
			password_hash TEXT NOT NULL,
			display_name TEXT DEFAULT '',
			role TEXT DEFAULT 'operator' CHECK(role IN ('admin','supervisor','setter','operator','readonly')),
			active INTEGER DEFAULT 1,
			last_login TIMESTAMP,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS sessions (
			token TEXT PRIMARY KEY,
			user_id INTEGER NOT NULL,
			expires_at TIMESTAMP NOT NULL,
			FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS role_permissions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			role TEXT NOT NULL,
			module TEXT NOT NULL,
			action TEXT NOT NULL,
			UNIQUE(role, module, action)
		)`,
		`CREATE TABLE IF NOT EXISTS audit_log (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			username TEXT DEFAULT 'system',
			action TEXT NOT NULL,
			module TEXT NOT NULL,
			record_id TEXT DEFAULT '',
			summary TEXT DEFAULT '',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS machines (
			id TEXT PRIMARY KEY, name TEXT NOT NULL,
			plant TEXT DEFAULT '', location TEXT DEFAULT '',
			status TEXT DEFAULT 'active' CHECK(status IN ('active','maintenance','retired')),
			notes TEXT DEFAULT '',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS work_orders (
			id TEXT PRIMARY KEY,
			item_code TEXT NOT NULL,
			item_name TEXT DEFAULT '',
			qty INTEGER NOT NULL DEFAULT 1 CHECK(qty > 0),
			cycle_time_seconds REAL DEFAULT 0 CHECK(cycle_time_seconds >= 0),
			status TEXT DEFAULT 'open' CHECK(status IN ('open','in_progress','completed','cancelled','on_hold')),
			notes TEXT DEFAULT '',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS shift_entries (
			id TEXT PRIMARY KEY,
			plant TEXT DEFAULT '',
			shift_label TEXT NOT NULL CHECK(shift_label IN ('Day','Night')),
			machine_id TEXT NOT NULL,
			setup_number TEXT DEFAULT '',
			shift_date DATE NOT NULL,
			shift_start_time TEXT NOT NULL,
			shift_end_time TEXT NOT NULL,
			work_order_id TEXT DEFAULT '',
			actual_qty INTEGER DEFAULT 0 CHECK(actual_qty >= 0),
			rework_qty INTEGER DEFAULT 0 CHECK(rework_qty >= 0),
			rejection_breakdown TEXT DEFAULT '{}',
			override_value INTEGER,
			override_reason TEXT,
			override_approved_by TEXT,
			submitted_by TEXT DEFAULT '',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(machine_id, shift_label, setup_number, shift_date),
			FOREIGN KEY (machine_id) REFERENCES machines(id) ON DELETE RESTRICT
		)`,
		`CREATE TABLE IF NOT EXISTS downtime_events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			shift_entry_id TEXT NOT NULL,
			reason TEXT NOT NULL,
			duration_minutes INTEGER NOT NULL CHECK(duration_minutes > 0),
			remark TEXT DEFAULT '',
			FOREIGN KEY (shift_entry_id) REFERENCES shift_entries(id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS setup_activities (
			id TEXT PRIMARY KEY,
			setter_id TEXT NOT NULL,
			setter_name TEXT DEFAULT '',
			machine_id TEXT NOT NULL,
			item_code TEXT DEFAULT '',
			work_order_id TEXT DEFAULT '',
			setup_start_time DATETIME NOT NULL,
			setup_end_time DATETIME,
			first_piece_approval_time DATETIME,
			notes TEXT DEFAULT '',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (machine_id) REFERENCES machines(id) ON DELETE RESTRICT
		)`,
	}
	for _, t := range tables {
		if _, err := db.Exec(t); err != nil {
			return fmt.Errorf("migration: %w", err)
		}
	}

	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_shift_entries_date ON shift_entries(shift_date)`,
		`CREATE INDEX IF NOT EXISTS idx_shift_entries_machine ON shift_entries(machine_id)`,
		`CREATE INDEX IF NOT EXISTS idx_setups_start ON setup_activities(setup_start_time)`,
		`CREATE INDEX IF NOT EXISTS idx_setups_setter ON setup_activities(setter_id)`,
		`CREATE INDEX IF NOT EXISTS idx_setups_item_wo ON setup_activities(item_code, work_order_id)`,
	}
	for _, idx := range indexes {
		if _, err := db.Exec(idx); err != nil {
			return fmt.Errorf("index migration: %w", err)
		}
	}

	return nil
}

func seedDB() {
	// Always ensure admin user exists
	var userCount int
	db.QueryRow("SELECT COUNT(*) FROM users WHERE username = 'admin'").Scan(&userCount)
	if userCount == 0 {
		hash, err := bcrypt.GenerateFromPassword([]byte("changeme"), bcrypt.DefaultCost)
		if err != nil {
			log.Printf("Failed to hash admin password: %v", err)
		} else {
			db.Exec("INSERT INTO users (username, password_hash, display_name, role) VALUES (?, ?, ?, ?)",
				"admin", string(hash), "Administrator", "admin")
		}
	}

	if err := auth.SeedDefaultPermissions(db); err != nil {
		log.Printf("Failed to seed permissions: %v", err)
	}
	if err := refreshPermCache(); err != nil {
		log.Printf("Failed to load permission cache: %v", err)
	}
}

// nextID generates sequential record IDs like SH-2026-0001.
func nextID(prefix string, table string, digits int) string {
	year := time.Now().Format("2006")
	pattern := prefix + "-" + year + "-%"
	var maxID sql.NullString
	db.QueryRow("SELECT id FROM "+table+" WHERE id LIKE ? ORDER BY id DESC LIMIT 1", pattern).Scan(&maxID)

	next := 1
	if maxID.Valid {
		parts := strings.Split(maxID.String, "-")
		if len(parts) >= 3 {
			if n, err := strconv.Atoi(parts[len(parts)-1]); err == nil {
				next = n + 1
			}
		}
	}
	return fmt.Sprintf("%s-%s-%0*d", prefix, year, digits, next)
}

func ns(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
