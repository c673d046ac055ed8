package usecase

import (
	"context"
	"time"
)

// ReadyCheck is a named dependency probe for /ready.
type ReadyCheck struct {
	Name  string
	Check func(context.Context) error
}

type HealthUsecase interface {
	Check(ctx context.Context) map[string]string
	Ready(ctx context.Context) (map[string]string, bool)
}

type healthUsecase struct {
	checks []ReadyCheck
}

func NewHealthUsecase(checks ...ReadyCheck) HealthUsecase {
	return &healthUsecase{checks: checks}
}

func (u *healthUsecase) Check(ctx context.Context) map[string]string {
	return map[string]string{
		"status": "ok",
	}
}

// Ready runs every probe with its own short timeout.
func (u *healthUsecase) Ready(ctx context.Context) (map[string]string, bool) {
	result := map[string]string{}
	ok := true
	for _, check := range u.checks {
		if check.Check == nil {
			continue
		}
		checkCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := check.Check(checkCtx)
		cancel()
		if err != nil {
			result[check.Name] = err.Error()
			ok = false
			continue
		}
		result[check.Name] = "ok"
	}
	return result, ok
}
