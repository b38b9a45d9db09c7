package storage

import (
	"database/sql"
	"fmt"
	"time"

	"stencil/internal/domain"
)

// DBConnectionStore implements domain.DatabaseConnectionStore using SQLite.
// Passwords are never stored; they are supplied per-job in source config.
type DBConnectionStore struct {
	db *DB
}

func NewDBConnectionStore(db *DB) *DBConnectionStore {
	return &DBConnectionStore{db: db}
}

func (s *DBConnectionStore) CreateConnection(c *domain.DatabaseConnection) error {
	now := time.Now()
	c.CreatedAt = now
	c.UpdatedAt = now
	_, err := s.db.conn.Exec(
		`INSERT INTO db_connections (id, org_id, name, driver, host, port, database_name,
		 username, ssl_mode, extra_json, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.OrgID, c.Name, c.Driver, c.Host, c.Port, c.Database,
		c.Username, c.SSLMode, c.ExtraJSON, c.CreatedAt, c.UpdatedAt,
	)
	return err
}

func (s *DBConnectionStore) GetConnection(id string) (*domain.DatabaseConnection, error) {
	c := &domain.DatabaseConnection{}
	err := s.db.conn.QueryRow(
		`SELECT id, org_id, name, driver, host, port, database_name, username, ssl_mode,
		 extra_json, created_at, updated_at FROM db_connections WHERE id = ?`, id,
	).Scan(&c.ID, &c.OrgID, &c.Name, &c.Driver, &c.Host, &c.Port, &c.Database,
		&c.Username, &c.SSLMode, &c.ExtraJSON, &c.CreatedAt, &c.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("connection not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get connection: %w", err)
	}
	return c, nil
}

func (s *DBConnectionStore) ListConnections(orgID string) ([]domain.DatabaseConnection, error) {
	rows, err := s.db.conn.Query(
		`SELECT id, org_id, name, driver, host, port, database_name, username, ssl_mode,
		 extra_json, created_at, updated_at FROM db_connections
		 WHERE org_id = ? ORDER BY created_at ASC`, orgID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var conns []domain.DatabaseConnection
	for rows.Next() {
		var c domain.DatabaseConnection
		if err := rows.Scan(&c.ID, &c.OrgID, &c.Name, &c.Driver, &c.Host, &c.Port, &c.Database,
			&c.Username, &c.SSLMode, &c.ExtraJSON, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		conns = append(conns, c)
	}
	return conns, rows.Err()
}

func (s *DBConnectionStore) UpdateConnection(c *domain.DatabaseConnection) error {
	c.UpdatedAt = time.Now()
	_, err := s.db.conn.Exec(
		`UPDATE db_connections SET name = ?, driver = ?, host = ?, port = ?,
		 database_name = ?, username = ?, ssl_mode = ?, extra_json = ?, updated_at = ?
		 WHERE id = ?`,
		c.Name, c.Driver, c.Host, c.Port, c.Database, c.Username, c.SSLMode,
		c.ExtraJSON, c.UpdatedAt, c.ID,
	)
	return err
}

func (s *DBConnectionStore) DeleteConnection(id string) error {
	_, err := s.db.conn.Exec(`DELETE FROM db_connections WHERE id = ?`, id)
	return err
}
