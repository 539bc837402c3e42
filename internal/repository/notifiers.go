package repository

import (
	"context"
	"errors"

	"SignalScan/internal/domain/models"
	"SignalScan/internal/domain/repository"
)

// Notifiers fans an event out to every notifier and joins their errors.
type Notifiers []repository.Notifier

func (ns Notifiers) Notify(ctx context.Context, e models.SignalEvent) error {
	var errs []error
	for _, n := range ns {
		if n == nil {
			continue
		}
		if err := n.Notify(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (ns Notifiers) Close() error {
	var errs []error
	for _, n := range ns {
		if n == nil {
			continue
		}
		if err := n.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
