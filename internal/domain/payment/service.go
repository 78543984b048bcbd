package payment

import (
	"context"
	"fmt"
)

type Service struct {
	payments Repository
}

func NewService(payments Repository) *Service {
	return &Service{payments: payments}
}

func (s *Service) validate(p *Payment) error {
	if p.Amount <= 0 {
		return fmt.Errorf("amount must be positive")
	}
	if p.Currency == "" {
		p.Currency = DefaultCurrency
	}
	if !ValidMethods[p.Method] {
		return fmt.Errorf("invalid payment method: %s", p.Method)
	}
	if p.Status == "" {
		p.Status = "Pending"
	}
	if !ValidStatuses[p.Status] {
		return fmt.Errorf("invalid payment status: %s", p.Status)
	}
	return nil
}

func (s *Service) Create(ctx context.Context, p *Payment) error {
	if err := s.validate(p); err != nil {
		return err
	}
	return s.payments.Create(ctx, p)
}

func (s *Service) Get(ctx context.Context, id int64) (*Payment, error) {
	return s.payments.GetByID(ctx, id)
}

func (s *Service) Update(ctx context.Context, p *Payment) error {
	if err := s.validate(p); err != nil {
		return err
	}
	return s.payments.Update(ctx, p)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.payments.Delete(ctx, id)
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]*Payment, int, error) {
	return s.payments.List(ctx, limit, offset)
}
