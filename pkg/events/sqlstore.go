package events

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// SQLEventStore stores events in a SQL table with ordered IDs.
// Table schema:
// CREATE TABLE IF NOT EXISTS lead_events (
//   id BIGINT AUTO_INCREMENT PRIMARY KEY,
//   lead_id BIGINT NOT NULL,
//   type VARCHAR(64) NOT NULL,
//   at DATETIME(6) NOT NULL,
//   operator VARCHAR(255) NULL,
//   data JSON NOT NULL,
//   KEY idx_lead_id (lead_id),
//   KEY idx_lead_time (lead_id, id)
// );
// NOTE: JSON may be emulated as LONGTEXT on older MySQL variants.
type SQLEventStore struct {
	conn *sql.DB
}

func NewSQLEventStore(conn *sql.DB) (*SQLEventStore, error) {
	s := &SQLEventStore{conn: conn}
	if err := s.ensureTable(); err != nil {
		return nil, fmt.Errorf("ensure lead_events table: %w", err)
	}
	return s, nil
}

func (s *SQLEventStore) ensureTable() error {
	qry := `CREATE TABLE IF NOT EXISTS lead_events (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		lead_id BIGINT NOT NULL,
		type VARCHAR(64) NOT NULL,
		at DATETIME(6) NOT NULL,
		operator VARCHAR(255) NULL,
		data JSON NOT NULL,
		KEY idx_lead_id (lead_id),
		KEY idx_lead_time (lead_id, id)
	)`
	_, err := s.conn.Exec(qry)
	return err
}

func (s *SQLEventStore) Append(ctx context.Context, ev ...Event) error {
	if len(ev) == 0 {
		return nil
	}
	tx, err := s.conn.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO lead_events (lead_id, type, at, operator, data) VALUES (?,?,?,?,?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range ev {
		b, err := e.MarshalData()
		if err != nil {
			return fmt.Errorf("marshal payload: %w", err)
		}

		at := e.Timestamp()
		if at.IsZero() {
			at = time.Now()
		}

		if _, err := stmt.ExecContext(ctx, e.LeadID(), e.Type(), at, e.Operator(), string(b)); err != nil {
			return fmt.Errorf("insert event: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (s *SQLEventStore) ListByLead(ctx context.Context, leadID int64) ([]StoredEvent, error) {
	rows, err := s.conn.QueryContext(ctx, `SELECT id, lead_id, type, at, operator, data FROM lead_events WHERE lead_id = ? ORDER BY id ASC`, leadID)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var out []StoredEvent
	for rows.Next() {
		var se StoredEvent
		var operator sql.NullString
		var dataStr string
		if err := rows.Scan(&se.Seq, &se.LeadID, &se.Type, &se.Ts, &operator, &dataStr); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		if operator.Valid {
			v := operator.String
			se.Operator = &v
		}
		se.Payload = json.RawMessage(dataStr)
		out = append(out, se)
	}
	return out, rows.Err()
}

func (s *SQLEventStore) ReplayLead(ctx context.Context, leadID int64) (*RebuiltState, error) {
	evs, err := s.ListByLead(ctx, leadID)
	if err != nil {
		return nil, err
	}
	return Replay(leadID, evs), nil
}
