package main

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/vivaflower/storefront-backend/internal/consumers"
	"github.com/vivaflower/storefront-backend/pkg/logger"
)

type pinger interface {
	Ping(ctx context.Context) error
}

type ServiceParams struct {
	Logger    *logger.Logger
	Readiness map[string]pinger
	Consumers []*consumers.Runner
}

// Service runs every order event consumer until the context ends or one fails.
type Service struct {
	logg      *logger.Logger
	readiness map[string]pinger
	runners   []*consumers.Runner
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if len(params.Consumers) == 0 {
		return nil, errors.New("at least one consumer is required")
	}
	for i, runner := range params.Consumers {
		if runner == nil {
			return nil, fmt.Errorf("consumer %d is nil", i)
		}
	}
	return &Service{
		logg:      params.Logger,
		readiness: params.Readiness,
		runners:   params.Consumers,
	}, nil
}

func (s *Service) ensureReadiness(ctx context.Context) error {
	for name, dep := range s.readiness {
		if dep == nil {
			continue
		}
		if err := dep.Ping(ctx); err != nil {
			s.logg.Error(ctx, fmt.Sprintf("%s ping failed", name), err)
			return fmt.Errorf("%s ping failed: %w", name, err)
		}
	}
	s.logg.Info(ctx, "all worker dependencies are ready")
	return nil
}

func (s *Service) Run(ctx context.Context) error {
	if err := s.ensureReadiness(ctx); err != nil {
		return err
	}

	group, groupCtx := errgroup.WithContext(ctx)
	for _, runner := range s.runners {
		group.Go(func() error {
			return runner.Run(groupCtx)
		})
	}
	err := group.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		s.logg.Error(ctx, "consumer stopped unexpectedly", err)
	}
	return err
}
