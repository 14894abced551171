package orchestrator

import "context"

// TaskInput is everything an agent receives for one task: the original user
// message, the planner's instruction, what the planner expects back, any
// conversation context it attached, and one DependencyOutput per declared
// dependency. Outputs of tasks it did not declare never leak in.
type TaskInput struct {
	UserID            string
	Message           string
	Prompt            string
	ExpectedOutput    string
	MemoryContext     string
	DependencyOutputs map[string]DependencyOutput
}

// Agent executes a single planned task. Implementations must respect the
// context deadline; the queue cancels slow tasks.
type Agent interface {
	Name() AgentName
	Execute(ctx context.Context, input TaskInput) (string, error)
}

// Planner turns a user message into an execution plan.
type Planner interface {
	Plan(ctx context.Context, userID, message string) (*ExecutionPlan, error)
}
