package payment

import (
	"context"
	"fmt"
	"testing"
	"time"
)

type mockRepo struct {
	items  map[int64]*Payment
	nextID int64
}

func newMockRepo() *mockRepo {
	return &mockRepo{items: make(map[int64]*Payment), nextID: 1}
}

func (m *mockRepo) Create(_ context.Context, p *Payment) error {
	p.ID = m.nextID
	m.nextID++
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	m.items[p.ID] = p
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id int64) (*Payment, error) {
	p, ok := m.items[id]
	if !ok {
		return nil, fmt.Errorf("not found")
	}
	return p, nil
}

func (m *mockRepo) Update(_ context.Context, p *Payment) error {
	m.items[p.ID] = p
	return nil
}

func (m *mockRepo) Delete(_ context.Context, id int64) error {
	delete(m.items, id)
	return nil
}

func (m *mockRepo) List(_ context.Context, limit, offset int) ([]*Payment, int, error) {
	var result []*Payment
	for _, p := range m.items {
		result = append(result, p)
	}
	return result, len(result), nil
}

func TestCreate_Valid(t *testing.T) {
	svc := NewService(newMockRepo())
	p := &Payment{Amount: 500, Method: "UPI", Status: "Paid"}

	if err := svc.Create(context.Background(), p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.ID == 0 {
		t.Error("expected id to be assigned")
	}
	if p.Currency != DefaultCurrency {
		t.Errorf("expected default currency %q, got %q", DefaultCurrency, p.Currency)
	}
}

func TestCreate_DefaultsStatus(t *testing.T) {
	svc := NewService(newMockRepo())
	p := &Payment{Amount: 100, Method: "Cash"}

	if err := svc.Create(context.Background(), p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Status != "Pending" {
		t.Errorf("expected status to default to Pending, got %q", p.Status)
	}
}

func TestCreate_Invalid(t *testing.T) {
	svc := NewService(newMockRepo())
	ctx := context.Background()

	tests := []struct {
		name    string
		payment *Payment
	}{
		{"zero amount", &Payment{Amount: 0, Method: "Cash", Status: "Paid"}},
		{"negative amount", &Payment{Amount: -10, Method: "Cash", Status: "Paid"}},
		{"bad method", &Payment{Amount: 100, Method: "Barter", Status: "Paid"}},
		{"bad status", &Payment{Amount: 100, Method: "Cash", Status: "Maybe"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := svc.Create(ctx, tt.payment); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestUpdate_RevalidatesMethod(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)
	ctx := context.Background()

	p := &Payment{Amount: 100, Method: "Cash", Status: "Paid"}
	if err := svc.Create(ctx, p); err != nil {
		t.Fatalf("create: %v", err)
	}

	p.Method = "Barter"
	if err := svc.Update(ctx, p); err == nil {
		t.Error("expected error for invalid method on update")
	}
}
