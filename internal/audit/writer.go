package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"time"
)

type Writer struct {
	DB  *sql.DB
	Now func() time.Time
}

type Payload map[string]any

// Append writes an audit entry inside the caller's transaction.
func (w Writer) Append(ctx context.Context, tx *sql.Tx, entryType, entityKind, entityID, actorEmail string, payload Payload) error {
	if w.Now == nil {
		w.Now = time.Now
	}
	ts := w.Now().UTC().Format(time.RFC3339)
	if payload == nil {
		payload = Payload{}
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal audit payload: %w", err)
	}
	_, err = tx.ExecContext(ctx, `INSERT INTO audit_logs(ts,type,entity_kind,entity_id,actor_email,payload_json) VALUES (?,?,?,?,?,?)`,
		ts, entryType, entityKind, nullable(entityID), actorEmail, string(data))
	return err
}

// BestEffort writes an audit entry outside any transaction and swallows
// failures; the log is advisory, not a ledger.
func (w Writer) BestEffort(ctx context.Context, entryType, entityKind, entityID, actorEmail string, payload Payload) {
	if w.Now == nil {
		w.Now = time.Now
	}
	ts := w.Now().UTC().Format(time.RFC3339)
	if payload == nil {
		payload = Payload{}
	}
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("audit: marshal payload: %v", err)
		return
	}
	if _, err := w.DB.ExecContext(ctx, `INSERT INTO audit_logs(ts,type,entity_kind,entity_id,actor_email,payload_json) VALUES (?,?,?,?,?,?)`,
		ts, entryType, entityKind, nullable(entityID), actorEmail, string(data)); err != nil {
		log.Printf("audit: append %s: %v", entryType, err)
	}
}

func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}
