// Package history 在 SQLite 中保存用例执行记录
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/zoeyai/droidauto/internal/logger"
	"github.com/zoeyai/droidauto/pkg/executor"
)

// ErrRunNotFound 记录不存在
var ErrRunNotFound = errors.New("执行记录不存在")

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	name        TEXT NOT NULL,
	source      TEXT NOT NULL DEFAULT '',
	status      TEXT NOT NULL,
	total       INTEGER NOT NULL,
	passed      INTEGER NOT NULL,
	failed      INTEGER NOT NULL,
	skipped     INTEGER NOT NULL,
	duration_ms INTEGER NOT NULL,
	started_at  TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS steps (
	run_id      TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	seq         INTEGER NOT NULL,
	step_id     TEXT NOT NULL,
	type        TEXT NOT NULL,
	status      TEXT NOT NULL,
	reason      TEXT NOT NULL DEFAULT '',
	error       TEXT NOT NULL DEFAULT '',
	x           INTEGER,
	y           INTEGER,
	duration_ms INTEGER NOT NULL,
	PRIMARY KEY (run_id, seq)
);

CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
`

// Run 一次执行记录
type Run struct {
	ID        string
	Source    string
	StartedAt time.Time
	Result    executor.CaseResult
}

// Store 执行记录存储
type Store struct {
	conn *sql.DB
	path string
}

// Open 打开或创建数据库
func Open(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("创建数据库目录失败: %w", err)
	}

	conn, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("打开数据库失败: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("连接数据库失败: %w", err)
	}

	// SQLite 单连接写入
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)

	if _, err := conn.Exec(schema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("初始化表结构失败: %w", err)
	}
	return &Store{conn: conn, path: dbPath}, nil
}

// Close 关闭数据库
func (s *Store) Close() error {
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}

// Path 数据库文件路径
func (s *Store) Path() string {
	return s.path
}

// Record 保存执行结果，返回记录 ID
// startedAt 为零值时按结束时间与耗时推算
func (s *Store) Record(ctx context.Context, source string, startedAt time.Time, res *executor.CaseResult) (string, error) {
	if res == nil {
		return "", fmt.Errorf("执行结果为空")
	}
	if startedAt.IsZero() {
		startedAt = time.Now().Add(-time.Duration(res.DurationMs) * time.Millisecond)
	}
	id := uuid.NewString()

	err := s.execTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO runs (id, name, source, status, total, passed, failed, skipped, duration_ms, started_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, id, res.Name, source, res.Status, res.Total, res.Passed, res.Failed, res.Skipped,
			res.DurationMs, startedAt.UTC()); err != nil {
			return err
		}

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO steps (run_id, seq, step_id, type, status, reason, error, x, y, duration_ms)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for i, step := range res.Steps {
			var x, y sql.NullInt64
			if step.Position != nil {
				x = sql.NullInt64{Int64: int64(step.Position.X), Valid: true}
				y = sql.NullInt64{Int64: int64(step.Position.Y), Valid: true}
			}
			if _, err := stmt.ExecContext(ctx, id, i, step.StepID, step.Type, step.Status,
				step.Reason, step.Error, x, y, step.DurationMs); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("保存执行记录失败: %w", err)
	}

	logger.Debug("已保存执行记录 %s: %s %s", id, res.Name, res.Status)
	return id, nil
}

// List 按开始时间倒序列出最近的记录 (不含步骤明细)，limit <= 0 时不限制
func (s *Store) List(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.conn.QueryContext(ctx, `
		SELECT id, name, source, status, total, passed, failed, skipped, duration_ms, started_at
		FROM runs
		ORDER BY started_at DESC, rowid DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("查询执行记录失败: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("读取执行记录失败: %w", err)
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// Get 读取单条记录及其步骤
func (s *Store) Get(ctx context.Context, id string) (*Run, error) {
	row := s.conn.QueryRowContext(ctx, `
		SELECT id, name, source, status, total, passed, failed, skipped, duration_ms, started_at
		FROM runs
		WHERE id = ?
	`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("读取执行记录失败: %w", err)
	}

	rows, err := s.conn.QueryContext(ctx, `
		SELECT step_id, type, status, reason, error, x, y, duration_ms
		FROM steps
		WHERE run_id = ?
		ORDER BY seq
	`, id)
	if err != nil {
		return nil, fmt.Errorf("查询步骤失败: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var step executor.StepResult
		var x, y sql.NullInt64
		if err := rows.Scan(&step.StepID, &step.Type, &step.Status, &step.Reason, &step.Error,
			&x, &y, &step.DurationMs); err != nil {
			return nil, fmt.Errorf("读取步骤失败: %w", err)
		}
		if x.Valid && y.Valid {
			step.Position = &executor.PositionInfo{X: int(x.Int64), Y: int(y.Int64)}
		}
		run.Result.Steps = append(run.Result.Steps, step)
	}
	return run, rows.Err()
}

// Delete 删除记录，步骤随外键级联删除
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.conn.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("删除执行记录失败: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return nil
}

// Prune 只保留最近 keep 条记录，返回删除数量
func (s *Store) Prune(ctx context.Context, keep int) (int64, error) {
	if keep < 0 {
		keep = 0
	}
	res, err := s.conn.ExecContext(ctx, `
		DELETE FROM runs
		WHERE id NOT IN (
			SELECT id FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?
		)
	`, keep)
	if err != nil {
		return 0, fmt.Errorf("清理执行记录失败: %w", err)
	}
	return res.RowsAffected()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row scanner) (*Run, error) {
	var run Run
	r := &run.Result
	if err := row.Scan(&run.ID, &r.Name, &run.Source, &r.Status, &r.Total, &r.Passed, &r.Failed,
		&r.Skipped, &r.DurationMs, &run.StartedAt); err != nil {
		return nil, err
	}
	return &run, nil
}

func (s *Store) execTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}
