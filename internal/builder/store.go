// Package builder provides the interactive Schedule of Activities builder: a
// SQLite-backed store of draft SoA matrices plus a JSON HTTP API for editing
// them and normalizing the result on demand.
package builder

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// ErrNotFound is returned when a referenced SoA, visit, or activity does not exist.
var ErrNotFound = errors.New("not found")

// Store persists draft SoA matrices in SQLite.
type Store struct {
	db *sql.DB
}

// SOA is one draft Schedule of Activities container.
type SOA struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Visit is one draft visit column.
type Visit struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	RawHeader  string `json:"raw_header"`
	OrderIndex int    `json:"order_index"`
}

// Activity is one draft activity row.
type Activity struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	OrderIndex int    `json:"order_index"`
}

// Cell is one draft cell value.
type Cell struct {
	VisitID    int64  `json:"visit_id"`
	ActivityID int64  `json:"activity_id"`
	Status     string `json:"status"`
}

var storeSchema = []string{
	`CREATE TABLE IF NOT EXISTS soa (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		created_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS visit (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		soa_id INTEGER NOT NULL,
		name TEXT NOT NULL,
		raw_header TEXT NOT NULL,
		order_index INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS activity (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		soa_id INTEGER NOT NULL,
		name TEXT NOT NULL,
		order_index INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS cell (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		soa_id INTEGER NOT NULL,
		visit_id INTEGER NOT NULL,
		activity_id INTEGER NOT NULL,
		status TEXT NOT NULL
	)`,
}

// OpenStore opens (and if needed bootstraps) the builder database.
func OpenStore(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	for _, stmt := range storeSchema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return &Store{db: db}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// CreateSOA creates an empty SoA container and returns it.
func (s *Store) CreateSOA(ctx context.Context, name string) (SOA, error) {
	createdAt := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO soa (name, created_at) VALUES (?, ?)",
		name, createdAt.Format(time.RFC3339))
	if err != nil {
		return SOA{}, fmt.Errorf("failed to create soa: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return SOA{}, fmt.Errorf("failed to read soa id: %w", err)
	}
	return SOA{ID: id, Name: name, CreatedAt: createdAt}, nil
}

// ListSOAs returns all containers, newest first.
func (s *Store) ListSOAs(ctx context.Context) ([]SOA, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, name, created_at FROM soa ORDER BY id DESC")
	if err != nil {
		return nil, fmt.Errorf("failed to list soas: %w", err)
	}
	defer rows.Close()

	var soas []SOA
	for rows.Next() {
		var soa SOA
		var createdAt string
		if err := rows.Scan(&soa.ID, &soa.Name, &createdAt); err != nil {
			return nil, err
		}
		soa.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		soas = append(soas, soa)
	}
	return soas, rows.Err()
}

// SOAExists reports whether the container exists.
func (s *Store) SOAExists(ctx context.Context, soaID int64) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, "SELECT 1 FROM soa WHERE id = ?", soaID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// AddVisit appends a visit column. The raw header defaults to the name.
func (s *Store) AddVisit(ctx context.Context, soaID int64, name, rawHeader string) (Visit, error) {
	if rawHeader == "" {
		rawHeader = name
	}
	orderIndex, err := s.nextOrderIndex(ctx, "visit", soaID)
	if err != nil {
		return Visit{}, err
	}
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO visit (soa_id, name, raw_header, order_index) VALUES (?, ?, ?, ?)",
		soaID, name, rawHeader, orderIndex)
	if err != nil {
		return Visit{}, fmt.Errorf("failed to add visit: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Visit{}, err
	}
	return Visit{ID: id, Name: name, RawHeader: rawHeader, OrderIndex: orderIndex}, nil
}

// AddActivity appends an activity row.
func (s *Store) AddActivity(ctx context.Context, soaID int64, name string) (Activity, error) {
	orderIndex, err := s.nextOrderIndex(ctx, "activity", soaID)
	if err != nil {
		return Activity{}, err
	}
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO activity (soa_id, name, order_index) VALUES (?, ?, ?)",
		soaID, name, orderIndex)
	if err != nil {
		return Activity{}, fmt.Errorf("failed to add activity: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Activity{}, err
	}
	return Activity{ID: id, Name: name, OrderIndex: orderIndex}, nil
}

// SetCell upserts one cell value.
func (s *Store) SetCell(ctx context.Context, soaID int64, cell Cell) error {
	var id int64
	err := s.db.QueryRowContext(ctx,
		"SELECT id FROM cell WHERE soa_id = ? AND visit_id = ? AND activity_id = ?",
		soaID, cell.VisitID, cell.ActivityID).Scan(&id)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		_, err = s.db.ExecContext(ctx,
			"INSERT INTO cell (soa_id, visit_id, activity_id, status) VALUES (?, ?, ?, ?)",
			soaID, cell.VisitID, cell.ActivityID, cell.Status)
	case err == nil:
		_, err = s.db.ExecContext(ctx, "UPDATE cell SET status = ? WHERE id = ?", cell.Status, id)
	}
	if err != nil {
		return fmt.Errorf("failed to set cell: %w", err)
	}
	return nil
}

// DeleteVisit removes a visit column, cascades its cells, and reindexes the
// remaining columns to keep order dense.
func (s *Store) DeleteVisit(ctx context.Context, soaID, visitID int64) error {
	return s.deleteOrdered(ctx, "visit", "visit_id", soaID, visitID)
}

// DeleteActivity removes an activity row, cascades its cells, and reindexes
// the remaining rows.
func (s *Store) DeleteActivity(ctx context.Context, soaID, activityID int64) error {
	return s.deleteOrdered(ctx, "activity", "activity_id", soaID, activityID)
}

// Matrix returns the draft contents of one container.
func (s *Store) Matrix(ctx context.Context, soaID int64) ([]Visit, []Activity, []Cell, error) {
	visits, err := s.visits(ctx, soaID)
	if err != nil {
		return nil, nil, nil, err
	}
	activities, err := s.activities(ctx, soaID)
	if err != nil {
		return nil, nil, nil, err
	}
	cells, err := s.cells(ctx, soaID)
	if err != nil {
		return nil, nil, nil, err
	}
	return visits, activities, cells, nil
}

// WideMatrix renders the draft as the wide matrix the normalization engine
// consumes: header row first (raw headers), one row per activity.
func (s *Store) WideMatrix(ctx context.Context, soaID int64) ([][]string, error) {
	visits, activities, cells, err := s.Matrix(ctx, soaID)
	if err != nil {
		return nil, err
	}
	if len(visits) == 0 || len(activities) == 0 {
		return nil, fmt.Errorf("soa %d needs at least one visit and one activity", soaID)
	}

	status := make(map[[2]int64]string, len(cells))
	for _, c := range cells {
		status[[2]int64{c.VisitID, c.ActivityID}] = c.Status
	}

	matrix := make([][]string, 0, len(activities)+1)
	header := make([]string, 0, len(visits)+1)
	header = append(header, "Activity")
	for _, v := range visits {
		header = append(header, v.RawHeader)
	}
	matrix = append(matrix, header)

	for _, a := range activities {
		row := make([]string, 0, len(visits)+1)
		row = append(row, a.Name)
		for _, v := range visits {
			row = append(row, status[[2]int64{v.ID, a.ID}])
		}
		matrix = append(matrix, row)
	}
	return matrix, nil
}

func (s *Store) visits(ctx context.Context, soaID int64) ([]Visit, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, raw_header, order_index FROM visit WHERE soa_id = ? ORDER BY order_index", soaID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var visits []Visit
	for rows.Next() {
		var v Visit
		if err := rows.Scan(&v.ID, &v.Name, &v.RawHeader, &v.OrderIndex); err != nil {
			return nil, err
		}
		visits = append(visits, v)
	}
	return visits, rows.Err()
}

func (s *Store) activities(ctx context.Context, soaID int64) ([]Activity, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, order_index FROM activity WHERE soa_id = ? ORDER BY order_index", soaID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var activities []Activity
	for rows.Next() {
		var a Activity
		if err := rows.Scan(&a.ID, &a.Name, &a.OrderIndex); err != nil {
			return nil, err
		}
		activities = append(activities, a)
	}
	return activities, rows.Err()
}

func (s *Store) cells(ctx context.Context, soaID int64) ([]Cell, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT visit_id, activity_id, status FROM cell WHERE soa_id = ? ORDER BY id", soaID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cells []Cell
	for rows.Next() {
		var c Cell
		if err := rows.Scan(&c.VisitID, &c.ActivityID, &c.Status); err != nil {
			return nil, err
		}
		cells = append(cells, c)
	}
	return cells, rows.Err()
}

func (s *Store) nextOrderIndex(ctx context.Context, table string, soaID int64) (int, error) {
	var count int
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE soa_id = ?", table)
	if err := s.db.QueryRowContext(ctx, query, soaID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count %s rows: %w", table, err)
	}
	return count + 1, nil
}

func (s *Store) deleteOrdered(ctx context.Context, table, cellColumn string, soaID, id int64) error {
	var one int
	query := fmt.Sprintf("SELECT 1 FROM %s WHERE id = ? AND soa_id = ?", table)
	err := s.db.QueryRowContext(ctx, query, id, soaID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx,
		fmt.Sprintf("DELETE FROM cell WHERE soa_id = ? AND %s = ?", cellColumn), soaID, id); err != nil {
		return fmt.Errorf("failed to cascade cells: %w", err)
	}
	if _, err := s.db.ExecContext(ctx,
		fmt.Sprintf("DELETE FROM %s WHERE id = ?", table), id); err != nil {
		return fmt.Errorf("failed to delete from %s: %w", table, err)
	}
	return s.reindex(ctx, table, soaID)
}

// reindex renumbers order_index to stay dense after a deletion.
func (s *Store) reindex(ctx context.Context, table string, soaID int64) error {
	rows, err := s.db.QueryContext(ctx,
		fmt.Sprintf("SELECT id FROM %s WHERE soa_id = ? ORDER BY order_index", table), soaID)
	if err != nil {
		return err
	}
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			_ = rows.Close()
			return err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return err
	}
	_ = rows.Close()

	for i, id := range ids {
		if _, err := s.db.ExecContext(ctx,
			fmt.Sprintf("UPDATE %s SET order_index = ? WHERE id = ?", table), i+1, id); err != nil {
			return fmt.Errorf("failed to reindex %s: %w", table, err)
		}
	}
	return nil
}
