package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"lead-dedup-service/internal/constants"
	"lead-dedup-service/internal/models"
	"lead-dedup-service/pkg/config"
	errs "lead-dedup-service/pkg/errors"

	_ "github.com/go-sql-driver/mysql"
)

type DB struct {
	conn         *sql.DB
	stmts        map[string]*sql.Stmt
	readTimeout  time.Duration
	writeTimeout time.Duration
}

func New(databaseURL string) (*DB, error) {
	conn, err := sql.Open("mysql", databaseURL)
	if err != nil {
		return nil, err
	}

	// Default optimized pool settings
	conn.SetMaxOpenConns(50)
	conn.SetMaxIdleConns(15)
	conn.SetConnMaxLifetime(10 * time.Minute)
	conn.SetConnMaxIdleTime(5 * time.Minute)

	if err := conn.Ping(); err != nil {
		return nil, err
	}

	db := &DB{
		conn:         conn,
		stmts:        make(map[string]*sql.Stmt),
		readTimeout:  constants.DBReadTimeoutDefault,
		writeTimeout: constants.DBWriteTimeoutDefault,
	}

	if err := db.prepareStatements(); err != nil {
		return nil, errs.NewDB("database.New", "failed to prepare statements", err)
	}

	return db, nil
}

// NewWithConfig creates a database connection with custom configuration settings
func NewWithConfig(databaseURL string, cfg *config.Config) (*DB, error) {
	conn, err := sql.Open("mysql", databaseURL)
	if err != nil {
		return nil, err
	}

	conn.SetMaxOpenConns(cfg.DBMaxOpenConns)
	conn.SetMaxIdleConns(cfg.DBMaxIdleConns)
	conn.SetConnMaxLifetime(time.Duration(cfg.DBConnMaxLifetime) * time.Minute)
	conn.SetConnMaxIdleTime(time.Duration(cfg.DBConnMaxIdleTime) * time.Minute)

	if err := conn.Ping(); err != nil {
		return nil, err
	}

	rt := cfg.DBReadTimeout
	if rt == 0 {
		rt = constants.DBReadTimeoutDefault
	}
	wt := cfg.DBWriteTimeout
	if wt == 0 {
		wt = constants.DBWriteTimeoutDefault
	}

	db := &DB{
		conn:         conn,
		stmts:        make(map[string]*sql.Stmt),
		readTimeout:  rt,
		writeTimeout: wt,
	}

	if err := db.prepareStatements(); err != nil {
		return nil, errs.NewDB("database.NewWithConfig", "failed to prepare statements", err)
	}

	return db, nil
}

const leadColumns = `id, company_name, website, email, phone, address, linkedin_url,
	industry, activity_field, confidence, leadership, tags, notes,
	is_deleted, deleted_at, created_at, updated_at`

// prepareStatements prepares frequently used SQL statements
func (db *DB) prepareStatements() error {
	statements := map[string]string{
		"listActiveLeads": `SELECT ` + leadColumns + ` FROM leads
                            WHERE is_deleted = 0 ORDER BY created_at ASC, id ASC`,
		"getLeadByID": `SELECT ` + leadColumns + ` FROM leads WHERE id = ?`,
		"getLeadStats": `SELECT
                            COALESCE(SUM(CASE WHEN is_deleted = 0 THEN 1 ELSE 0 END), 0) AS active,
                            COALESCE(SUM(CASE WHEN is_deleted = 1 THEN 1 ELSE 0 END), 0) AS deleted,
                            COUNT(*) AS total
                         FROM leads`,
	}

	for name, query := range statements {
		stmt, err := db.conn.Prepare(query)
		if err != nil {
			return errs.NewDB("database.prepareStatements", fmt.Sprintf("failed to prepare statement %s", name), err)
		}
		db.stmts[name] = stmt
	}

	return nil
}

// Close closes database connection and prepared statements
func (db *DB) Close() error {
	for _, stmt := range db.stmts {
		stmt.Close()
	}
	return db.conn.Close()
}

// Conn exposes the underlying connection for transactions and health checks.
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// withReadTimeout creates a context with standard read timeout.
func (db *DB) withReadTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, db.readTimeout)
}

// withWriteTimeout creates a context with standard write timeout.
func (db *DB) withWriteTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, db.writeTimeout)
}

// ListActiveLeadsCtx returns all non-deleted leads ordered oldest first.
// The scanner depends on this ordering for stable pair reporting.
func (db *DB) ListActiveLeadsCtx(ctx context.Context) ([]models.Lead, error) {
	rctx, cancel := db.withReadTimeout(ctx)
	defer cancel()

	rows, err := db.stmts["listActiveLeads"].QueryContext(rctx)
	if err != nil {
		return nil, errs.NewDB("database.ListActiveLeadsCtx", "failed to query active leads", err)
	}
	defer rows.Close()

	var leads []models.Lead
	for rows.Next() {
		lead, err := db.scanLeadRow(rows)
		if err != nil {
			return nil, err
		}
		leads = append(leads, *lead)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.NewDB("database.ListActiveLeadsCtx", "row iteration failed", err)
	}

	return leads, nil
}

// GetLeadByIDCtx returns the lead or (nil, nil) when no row exists.
func (db *DB) GetLeadByIDCtx(ctx context.Context, leadID int64) (*models.Lead, error) {
	rctx, cancel := db.withReadTimeout(ctx)
	defer cancel()

	rows, err := db.stmts["getLeadByID"].QueryContext(rctx, leadID)
	if err != nil {
		return nil, errs.NewDB("database.GetLeadByIDCtx", "failed to query lead", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, errs.NewDB("database.GetLeadByIDCtx", "row iteration failed", err)
		}
		return nil, nil
	}

	return db.scanLeadRow(rows)
}

// GetLeadStatisticsCtx returns active/deleted/total counts.
func (db *DB) GetLeadStatisticsCtx(ctx context.Context) (*models.LeadStats, error) {
	rctx, cancel := db.withReadTimeout(ctx)
	defer cancel()

	var stats models.LeadStats
	err := db.stmts["getLeadStats"].QueryRowContext(rctx).Scan(&stats.Active, &stats.Deleted, &stats.Total)
	if err != nil {
		return nil, errs.NewDB("database.GetLeadStatisticsCtx", "failed to query lead statistics", err)
	}
	return &stats, nil
}

// UpdateLeadFieldsCtx applies a partial update outside a transaction.
func (db *DB) UpdateLeadFieldsCtx(ctx context.Context, leadID int64, upd models.LeadUpdate) error {
	wctx, cancel := db.withWriteTimeout(ctx)
	defer cancel()
	return updateLeadFields(wctx, db.conn, leadID, upd)
}

// UpdateLeadFieldsTx applies the same partial update inside a transaction.
func (db *DB) UpdateLeadFieldsTx(ctx context.Context, tx *sql.Tx, leadID int64, upd models.LeadUpdate) error {
	return updateLeadFields(ctx, tx, leadID, upd)
}

// SoftDeleteLeadsCtx marks leads deleted and appends note to their notes.
func (db *DB) SoftDeleteLeadsCtx(ctx context.Context, leadIDs []int64, note string) error {
	wctx, cancel := db.withWriteTimeout(ctx)
	defer cancel()
	return softDeleteLeads(wctx, db.conn, leadIDs, note)
}

// SoftDeleteLeadsTx is the transactional variant of SoftDeleteLeadsCtx.
func (db *DB) SoftDeleteLeadsTx(ctx context.Context, tx *sql.Tx, leadIDs []int64, note string) error {
	return softDeleteLeads(ctx, tx, leadIDs, note)
}

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func updateLeadFields(ctx context.Context, ex execer, leadID int64, upd models.LeadUpdate) error {
	var sets []string
	var args []any

	appendSet := func(col string, v *string) {
		if v != nil {
			sets = append(sets, col+" = ?")
			args = append(args, *v)
		}
	}
	appendSet("website", upd.Website)
	appendSet("email", upd.Email)
	appendSet("phone", upd.Phone)
	appendSet("address", upd.Address)
	appendSet("linkedin_url", upd.LinkedinURL)
	appendSet("industry", upd.Industry)
	appendSet("activity_field", upd.ActivityField)
	appendSet("notes", upd.Notes)

	if upd.Leadership != nil {
		b, err := json.Marshal(upd.Leadership)
		if err != nil {
			return errs.NewDB("database.updateLeadFields", "failed to marshal leadership", err)
		}
		sets = append(sets, "leadership = ?")
		args = append(args, string(b))
	}
	if upd.Tags != nil {
		b, err := json.Marshal(upd.Tags)
		if err != nil {
			return errs.NewDB("database.updateLeadFields", "failed to marshal tags", err)
		}
		sets = append(sets, "tags = ?")
		args = append(args, string(b))
	}

	if len(sets) == 0 {
		return nil
	}

	sets = append(sets, "updated_at = NOW()")
	args = append(args, leadID)

	query := "UPDATE leads SET " + strings.Join(sets, ", ") + " WHERE id = ?"
	if _, err := ex.ExecContext(ctx, query, args...); err != nil {
		return errs.NewDB("database.updateLeadFields", fmt.Sprintf("failed to update lead %d", leadID), err)
	}
	return nil
}

// softDeleteQuery builds the soft-delete statement for n lead ids. The notes
// column is nullable, so the append treats NULL like an empty column; without
// the IS NULL arm, CONCAT(NULL, ...) would wipe the note entirely. The note
// binds twice, once per CASE branch.
func softDeleteQuery(n int) string {
	placeholders := make([]string, n)
	for i := range placeholders {
		placeholders[i] = "?"
	}
	return `UPDATE leads SET is_deleted = 1, deleted_at = NOW(), updated_at = NOW(),
		notes = CASE WHEN notes IS NULL OR notes = '' THEN ? ELSE CONCAT(notes, '\n', ?) END
		WHERE id IN (` + strings.Join(placeholders, ",") + `)`
}

func softDeleteLeads(ctx context.Context, ex execer, leadIDs []int64, note string) error {
	if len(leadIDs) == 0 {
		return nil
	}

	args := make([]any, 0, len(leadIDs)+2)
	args = append(args, note, note)
	for _, id := range leadIDs {
		args = append(args, id)
	}

	if _, err := ex.ExecContext(ctx, softDeleteQuery(len(leadIDs)), args...); err != nil {
		return errs.NewDB("database.softDeleteLeads", "failed to soft delete leads", err)
	}
	return nil
}

// scanLeadRow scans a single lead row including JSON columns.
func (db *DB) scanLeadRow(rows *sql.Rows) (*models.Lead, error) {
	var lead models.Lead
	var leadershipJSON, tagsJSON sql.NullString
	var notes sql.NullString

	err := rows.Scan(
		&lead.ID, &lead.CompanyName, &lead.Website, &lead.Email, &lead.Phone,
		&lead.Address, &lead.LinkedinURL, &lead.Industry, &lead.ActivityField,
		&lead.Confidence, &leadershipJSON, &tagsJSON, &notes,
		&lead.IsDeleted, &lead.DeletedAt, &lead.CreatedAt, &lead.UpdatedAt,
	)
	if err != nil {
		return nil, errs.NewDB("database.scanLeadRow", "failed to scan lead row", err)
	}

	if notes.Valid {
		lead.Notes = notes.String
	}
	if leadershipJSON.Valid && leadershipJSON.String != "" {
		if err := json.Unmarshal([]byte(leadershipJSON.String), &lead.Leadership); err != nil {
			return nil, errs.NewDB("database.scanLeadRow", fmt.Sprintf("invalid leadership JSON for lead %d", lead.ID), err)
		}
	}
	if tagsJSON.Valid && tagsJSON.String != "" {
		if err := json.Unmarshal([]byte(tagsJSON.String), &lead.Tags); err != nil {
			return nil, errs.NewDB("database.scanLeadRow", fmt.Sprintf("invalid tags JSON for lead %d", lead.ID), err)
		}
	}

	return &lead, nil
}
