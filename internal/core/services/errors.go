package services

import (
	"errors"
	"fmt"

	"agentmart/internal/core/domain"
)

// backing maps storage failures onto ErrBackingServiceUnavailable. Domain
// outcomes such as not-found pass through untouched. Nothing is retried.
func backing(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, domain.ErrAgentNotFound),
		errors.Is(err, domain.ErrUserNotFound),
		errors.Is(err, domain.ErrEmailTaken),
		errors.Is(err, domain.ErrBackingServiceUnavailable):
		return err
	}
	return fmt.Errorf("%w: %v", domain.ErrBackingServiceUnavailable, err)
}

type noopMetrics struct{}

func (noopMetrics) RecordAccessDenied(string)  {}
func (noopMetrics) RecordAgentMutation(string) {}
