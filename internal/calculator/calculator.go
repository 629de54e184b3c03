package calculator

import (
	"context"
	"fmt"
	"strings"

	"bread-calculator/internal/metrics"
	"bread-calculator/internal/models"
	"bread-calculator/internal/storage"
)

type Operands struct {
	A    float64
	B    float64
	Type models.CalculationType
}

// Patch carries the fields of a partial update; nil fields keep their stored value.
type Patch struct {
	A    *float64
	B    *float64
	Type *models.CalculationType
}

// Service implements browse/read/edit/add/delete over a user's calculations.
// The stored result is recomputed on every write.
type Service struct {
	store   storage.Store
	metrics *metrics.Metrics
}

func NewService(st storage.Store, m *metrics.Metrics) *Service {
	return &Service{store: st, metrics: m}
}

func (s *Service) Add(ctx context.Context, userID int64, op Operands) (*models.Calculation, error) {
	c := &models.Calculation{UserID: userID}
	if err := s.apply(c, op); err != nil {
		return nil, err
	}
	if err := s.store.CreateCalculation(ctx, c); err != nil {
		return nil, err
	}
	s.metrics.CalculationRecorded(c.Type)
	return c, nil
}

func (s *Service) Browse(ctx context.Context, userID int64, page storage.Page) ([]models.Calculation, error) {
	return s.store.ListCalculations(ctx, userID, page)
}

func (s *Service) Read(ctx context.Context, userID, id int64) (*models.Calculation, error) {
	return s.store.GetCalculation(ctx, userID, id)
}

func (s *Service) Edit(ctx context.Context, userID, id int64, op Operands) (*models.Calculation, error) {
	c, err := s.store.GetCalculation(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	return s.update(ctx, c, op)
}

func (s *Service) Patch(ctx context.Context, userID, id int64, p Patch) (*models.Calculation, error) {
	c, err := s.store.GetCalculation(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	op := Operands{A: c.A, B: c.B, Type: c.Type}
	if p.A != nil {
		op.A = *p.A
	}
	if p.B != nil {
		op.B = *p.B
	}
	if p.Type != nil {
		op.Type = *p.Type
	}
	return s.update(ctx, c, op)
}

func (s *Service) Delete(ctx context.Context, userID, id int64) error {
	return s.store.DeleteCalculation(ctx, userID, id)
}

func (s *Service) update(ctx context.Context, c *models.Calculation, op Operands) (*models.Calculation, error) {
	if err := s.apply(c, op); err != nil {
		return nil, err
	}
	if err := s.store.UpdateCalculation(ctx, c); err != nil {
		return nil, err
	}
	s.metrics.CalculationRecorded(c.Type)
	return c, nil
}

func (s *Service) apply(c *models.Calculation, op Operands) error {
	t := models.CalculationType(strings.ToLower(strings.TrimSpace(string(op.Type))))
	if !t.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownType, op.Type)
	}
	result, err := Compute(op.A, op.B, t)
	if err != nil {
		return err
	}
	c.A, c.B, c.Type, c.Result = op.A, op.B, t, result
	return nil
}
