package data

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"slack-time-punch/internal/biz"
)

func newTestPunchRepo(t *testing.T) biz.PunchRepo {
	t.Helper()
	repo, err := NewSQLitePunchRepo(filepath.Join(t.TempDir(), "nested", "punch.db"))
	if err != nil {
		t.Fatalf("NewSQLitePunchRepo: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

// TestPunchRepoSaveAndList 测试保存后按时间倒序读取
func TestPunchRepoSaveAndList(t *testing.T) {
	ctx := context.Background()
	repo := newTestPunchRepo(t)
	base := time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)

	in := &biz.PunchRecord{UserID: "U1", TeamID: "T1", ChannelID: "C1", Type: biz.PunchIn, MessageTS: "1.1", CreatedAt: base}
	out := &biz.PunchRecord{UserID: "U1", TeamID: "T1", ChannelID: "C1", Type: biz.PunchOut, MessageTS: "1.2", CreatedAt: base.Add(9 * time.Hour)}
	other := &biz.PunchRecord{UserID: "U2", ChannelID: "C1", Type: biz.PunchIn, CreatedAt: base.Add(time.Minute)}
	for _, rec := range []*biz.PunchRecord{in, out, other} {
		if err := repo.Save(ctx, rec); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}
	if !strings.HasPrefix(in.ID, "punch_") {
		t.Errorf("generated id = %q", in.ID)
	}

	recs, err := repo.List(ctx, "U1", 10)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("got %d records, want 2", len(recs))
	}
	if recs[0].Type != biz.PunchOut || recs[1].Type != biz.PunchIn {
		t.Errorf("order = %s, %s; want out, in", recs[0].Type, recs[1].Type)
	}
	if !recs[1].CreatedAt.Equal(base) || recs[1].MessageTS != "1.1" || recs[1].TeamID != "T1" {
		t.Errorf("record = %+v", recs[1])
	}

	u2, _ := repo.List(ctx, "U2", 10)
	if len(u2) != 1 || u2[0].ID != other.ID {
		t.Errorf("U2 records = %+v", u2)
	}

	// 空 userID 不代表全部
	all, err := repo.List(ctx, "", 10)
	if err != nil || len(all) != 0 {
		t.Errorf("List with empty user = %d, %v; want 0", len(all), err)
	}

	limited, _ := repo.List(ctx, "U1", 1)
	if len(limited) != 1 || limited[0].ID != out.ID {
		t.Errorf("limited = %+v", limited)
	}
}

// TestPunchRepoReopen 测试重新打开后数据仍在
func TestPunchRepoReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "punch.db")

	repo, err := NewSQLitePunchRepo(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := repo.Save(ctx, &biz.PunchRecord{UserID: "U1", ChannelID: "C1", Type: biz.PunchIn}); err != nil {
		t.Fatal(err)
	}
	repo.Close()

	repo, err = NewSQLitePunchRepo(path)
	if err != nil {
		t.Fatal(err)
	}
	defer repo.Close()
	recs, err := repo.List(ctx, "U1", 10)
	if err != nil || len(recs) != 1 {
		t.Errorf("after reopen = %d, %v", len(recs), err)
	}
}
