package orchestrator

import (
	"context"

	"github.com/techhub5500/Yield-sub002/src/logger"
)

// Service is the orchestration entry point: plan the message, validate the
// plan, execute it, and return the ordered results. A broken planner never
// breaks the request — it degrades to the single-task fallback plan.
type Service struct {
	planner  Planner
	queue    *Queue
	maxTasks int
}

func NewService(planner Planner, queue *Queue, maxTasks int) *Service {
	return &Service{planner: planner, queue: queue, maxTasks: maxTasks}
}

func (s *Service) Orchestrate(ctx context.Context, userID, message string) *OrchestrationResult {
	log := logger.FromContext(ctx)

	if s.planner == nil {
		plan := FallbackPlan(message)
		return &OrchestrationResult{Plan: plan, Results: s.queue.Execute(ctx, userID, message, plan)}
	}

	plan, err := s.planner.Plan(ctx, userID, message)
	if err != nil {
		log.Warn("Planner failed, using fallback plan", "error", err)
		plan = FallbackPlan(message)
	} else if problems := ValidatePlan(plan, s.maxTasks); len(problems) > 0 {
		log.Warn("Planner produced invalid plan, using fallback plan", "problems", problems)
		plan = FallbackPlan(message)
	}

	log.Info("Executing plan", "tasks", len(plan.Tasks), "fallback", plan.Fallback)
	results := s.queue.Execute(ctx, userID, message, plan)
	return &OrchestrationResult{Plan: plan, Results: results}
}
