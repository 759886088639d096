package data

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"slack-time-punch/internal/biz"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// sqlitePunchRepo SQLite 实现的打卡记录仓库
type sqlitePunchRepo struct {
	db *sql.DB
}

// NewSQLitePunchRepo 创建 SQLite 打卡记录仓库
func NewSQLitePunchRepo(dbPath string) (biz.PunchRepo, error) {
	// 确保目录存在
	dir := filepath.Dir(dbPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// 创建 punches 表
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS punches (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL DEFAULT '',
			team_id TEXT NOT NULL DEFAULT '',
			channel_id TEXT NOT NULL,
			type TEXT NOT NULL,
			message_ts TEXT NOT NULL DEFAULT '',
			created_at INTEGER NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create punches table: %w", err)
	}

	// 创建索引
	if _, err := db.Exec("CREATE INDEX IF NOT EXISTS idx_punches_user_created ON punches(user_id, created_at)"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create punches index: %w", err)
	}

	return &sqlitePunchRepo{db: db}, nil
}

// Save 保存打卡记录
func (r *sqlitePunchRepo) Save(ctx context.Context, rec *biz.PunchRecord) error {
	if rec.ID == "" {
		rec.ID = "punch_" + uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	_, err := r.db.ExecContext(ctx,
		"INSERT INTO punches (id, user_id, team_id, channel_id, type, message_ts, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
		rec.ID, rec.UserID, rec.TeamID, rec.ChannelID, string(rec.Type), rec.MessageTS, rec.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert punch: %w", err)
	}
	return nil
}

// List 按时间倒序列出某个用户的打卡记录
func (r *sqlitePunchRepo) List(ctx context.Context, userID string, limit int) ([]*biz.PunchRecord, error) {
	if userID == "" {
		return nil, nil
	}

	rows, err := r.db.QueryContext(ctx,
		"SELECT id, user_id, team_id, channel_id, type, message_ts, created_at FROM punches WHERE user_id = ? ORDER BY created_at DESC, id DESC LIMIT ?",
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query punches: %w", err)
	}
	defer rows.Close()

	var records []*biz.PunchRecord
	for rows.Next() {
		var (
			rec       biz.PunchRecord
			punchType string
			createdAt int64
		)
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.TeamID, &rec.ChannelID, &punchType, &rec.MessageTS, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan punch: %w", err)
		}
		rec.Type = biz.PunchType(punchType)
		rec.CreatedAt = time.UnixMilli(createdAt)
		records = append(records, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate punches: %w", err)
	}
	return records, nil
}

// Close 关闭数据库连接
func (r *sqlitePunchRepo) Close() error {
	return r.db.Close()
}
