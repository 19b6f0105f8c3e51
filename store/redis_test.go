package store

import (
	"context"
	"os"
	"testing"

	"github.com/rushteam/ebmkit/core"
)

func newTestRedis(t *testing.T) *RedisStore {
	addr := os.Getenv("EBMKIT_REDIS_ADDR")
	if addr == "" {
		t.Skip("需要设置 EBMKIT_REDIS_ADDR 连接真实的 Redis 服务器才能运行")
	}
	s, err := NewRedisStore(addr, os.Getenv("EBMKIT_REDIS_PASSWORD"), 15)
	if err != nil {
		t.Fatalf("连接 Redis 失败: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestRedisStore_ModelRepository(t *testing.T) {
	s := newTestRedis(t)
	ctx := context.Background()
	repo := NewModelRepository(s, "ebmkit-test")
	defer repo.Delete(ctx, "m1")

	m := sampleModel()
	if err := repo.Save(ctx, "m1", m, 60); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	got, err := repo.Load(ctx, "m1")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.Rounds != m.Rounds || *got.BestMetric != *m.BestMetric {
		t.Errorf("Load() = %+v", got)
	}
	if _, err := repo.Load(ctx, "absent"); !core.IsStoreNotFound(err) {
		t.Errorf("Load(absent) error = %v", err)
	}
}

func TestRedisStore_ScoreBoard(t *testing.T) {
	s := newTestRedis(t)
	ctx := context.Background()
	board := NewScoreBoard(s, "ebmkit-test")
	defer board.Clear(ctx, "train")

	err := board.Put(ctx, "train", []core.InteractionScore{
		{Combination: core.Combination{0, 1}, Score: 0.2},
		{Combination: core.Combination{0, 2}, Score: 0.9},
	})
	if err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	top, err := board.Top(ctx, "train", 1)
	if err != nil || len(top) != 1 || top[0].Combination.Key() != "0,2" {
		t.Errorf("Top() = %v, %v", top, err)
	}
}

func TestRedisStore_Batch(t *testing.T) {
	s := newTestRedis(t)
	ctx := context.Background()
	defer s.Delete(ctx, "ebmkit-test:a")
	defer s.Delete(ctx, "ebmkit-test:b")

	if err := s.BatchSet(ctx, map[string][]byte{"ebmkit-test:a": []byte("1"), "ebmkit-test:b": []byte("2")}, 60); err != nil {
		t.Fatalf("BatchSet() error = %v", err)
	}
	got, err := s.BatchGet(ctx, []string{"ebmkit-test:a", "ebmkit-test:b", "ebmkit-test:c"})
	if err != nil {
		t.Fatalf("BatchGet() error = %v", err)
	}
	if len(got) != 2 || string(got["ebmkit-test:b"]) != "2" {
		t.Errorf("BatchGet() = %v", got)
	}
}
