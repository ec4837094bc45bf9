package service

import (
	"time"

	"github.com/spec-kit/citizen-request-service/internal/config"
	"github.com/spec-kit/citizen-request-service/internal/domain"
)

// EvaluateSLA derives the compliance status at read time. Resolved requests
// are judged against their resolution timestamp, open requests against now.
func EvaluateSLA(request *domain.Request, cfg config.SLAConfig, now time.Time) domain.SLAStatus {
	target := cfg.TargetFor(request.Category)
	reference := now
	if request.ResolvedAt != nil {
		reference = *request.ResolvedAt
	}
	elapsed := reference.Sub(request.CreatedAt)
	switch {
	case elapsed > target:
		return domain.SLABreached
	case request.ResolvedAt == nil && elapsed.Seconds() >= target.Seconds()*cfg.AtRiskFraction:
		return domain.SLAAtRisk
	default:
		return domain.SLAOnTime
	}
}
