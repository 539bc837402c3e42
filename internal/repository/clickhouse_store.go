package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"SignalScan/internal/domain/repository"
	pkgch "SignalScan/pkg/clickhouse"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
)

const (
	latestTable  = "signal_latest"
	historyTable = "signal_history"
)

// ClickHouseSchema creates the two tables backing ClickHouseStore. signal_latest
// collapses to the newest row per path on merge; reads use FINAL.
var ClickHouseSchema = []string{
	`CREATE TABLE IF NOT EXISTS signal_latest (
		path       String,
		payload    String,
		updated_at DateTime64(3, 'UTC')
	) ENGINE = ReplacingMergeTree(updated_at)
	ORDER BY path`,
	`CREATE TABLE IF NOT EXISTS signal_history (
		path       String,
		push_id    UUID,
		payload    String,
		created_at DateTime64(3, 'UTC')
	) ENGINE = MergeTree
	PARTITION BY toYYYYMM(created_at)
	ORDER BY (path, created_at, push_id)`,
}

// ClickHouseStore keeps latest records in a ReplacingMergeTree and history in an
// append-only MergeTree.
type ClickHouseStore struct {
	ch  *pkgch.Client
	sq  squirrel.StatementBuilderType
	now func() time.Time
}

// NewClickHouseStore wraps ch. The client is owned by the store.
func NewClickHouseStore(ch *pkgch.Client) *ClickHouseStore {
	return &ClickHouseStore{
		ch:  ch,
		sq:  squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
		now: time.Now,
	}
}

var _ repository.Store = (*ClickHouseStore)(nil)

// Init creates the tables if they do not exist.
func (s *ClickHouseStore) Init(ctx context.Context) error {
	return s.ch.InitSchema(ctx, ClickHouseSchema)
}

func (s *ClickHouseStore) Set(ctx context.Context, path string, value any) error {
	query, args, err := s.latestInsert(path, value)
	if err != nil {
		return err
	}
	if _, err := s.ch.DB().ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("clickhouse set %s: %w", path, err)
	}
	return nil
}

func (s *ClickHouseStore) Push(ctx context.Context, path string, value any) (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("push id: %w", err)
	}
	query, args, err := s.historyInsert(path, id, value)
	if err != nil {
		return "", err
	}
	if _, err := s.ch.DB().ExecContext(ctx, query, args...); err != nil {
		return "", fmt.Errorf("clickhouse push %s: %w", path, err)
	}
	return id.String(), nil
}

// Latest reads the current record at path into dest. ok is false when absent.
func (s *ClickHouseStore) Latest(ctx context.Context, path string, dest any) (bool, error) {
	query, args, err := s.sq.
		Select("payload").
		From(latestTable + " FINAL").
		Where(squirrel.Eq{"path": normalizePath(path)}).
		Limit(1).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build select: %w", err)
	}

	rows, err := s.ch.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("clickhouse latest %s: %w", path, err)
	}
	defer rows.Close()

	if !rows.Next() {
		return false, rows.Err()
	}
	var payload string
	if err := rows.Scan(&payload); err != nil {
		return false, err
	}
	return true, json.Unmarshal([]byte(payload), dest)
}

func (s *ClickHouseStore) Health(ctx context.Context) error {
	return s.ch.Health(ctx)
}

func (s *ClickHouseStore) Close() error {
	return s.ch.Close()
}

func (s *ClickHouseStore) latestInsert(path string, value any) (string, []interface{}, error) {
	b, err := json.Marshal(value)
	if err != nil {
		return "", nil, fmt.Errorf("marshal %s: %w", path, err)
	}
	return s.sq.
		Insert(latestTable).
		Columns("path", "payload", "updated_at").
		Values(normalizePath(path), string(b), s.now().UTC()).
		ToSql()
}

func (s *ClickHouseStore) historyInsert(path string, id uuid.UUID, value any) (string, []interface{}, error) {
	b, err := json.Marshal(value)
	if err != nil {
		return "", nil, fmt.Errorf("marshal %s: %w", path, err)
	}
	return s.sq.
		Insert(historyTable).
		Columns("path", "push_id", "payload", "created_at").
		Values(normalizePath(path), id.String(), string(b), s.now().UTC()).
		ToSql()
}

func normalizePath(path string) string {
	return "/" + strings.Trim(path, "/")
}
