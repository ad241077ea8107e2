package service

import (
	"context"
	"sync"
	"testing"

	"github.com/Skotchmaster/ozonilberries/internal/db/dbtest"
	"github.com/Skotchmaster/ozonilberries/internal/models"
	"github.com/Skotchmaster/ozonilberries/internal/repo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func newRepo(t *testing.T) *repo.GormRepo {
	t.Helper()
	return &repo.GormRepo{DB: dbtest.Open(t)}
}

func seedUser(t *testing.T, r *repo.GormRepo, username, role string) *models.User {
	t.Helper()
	u := &models.User{Username: username, PasswordHash: "x", Role: role}
	require.NoError(t, r.DB.Create(u).Error)
	return u
}

func seedProduct(t *testing.T, r *repo.GormRepo, title, price string, count int) *models.Product {
	t.Helper()
	p := &models.Product{Title: title, Price: dec(price), Count: count}
	require.NoError(t, r.DB.Create(p).Error)
	return p
}

func seedDelivery(t *testing.T, r *repo.GormRepo, price, express, border string, active bool) *models.DeliveryCost {
	t.Helper()
	dc := &models.DeliveryCost{
		DeliveryPrice:        dec(price),
		ExpressDeliveryPrice: dec(express),
		FreeDeliveryBorder:   dec(border),
	}
	require.NoError(t, r.DB.Create(dc).Error)
	if active {
		require.NoError(t, r.DB.Model(dc).Update("is_active", true).Error)
	}
	return dc
}

func productCount(t *testing.T, r *repo.GormRepo, id uint) int {
	t.Helper()
	var p models.Product
	require.NoError(t, r.DB.First(&p, id).Error)
	return p.Count
}

func countRows(t *testing.T, r *repo.GormRepo, model any, where string, args ...any) int64 {
	t.Helper()
	var n int64
	q := r.DB.Model(model)
	if where != "" {
		q = q.Where(where, args...)
	}
	require.NoError(t, q.Count(&n).Error)
	return n
}

// recorder is an in-memory EventPublisher.
type recorder struct {
	mu     sync.Mutex
	events []recorded
}

type recorded struct {
	Topic string
	Key   string
	Event any
}

func (r *recorder) PublishEvent(_ context.Context, topic, key string, event any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, recorded{Topic: topic, Key: key, Event: event})
	return nil
}

func (r *recorder) topics() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Topic)
	}
	return out
}
