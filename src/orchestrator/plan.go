package orchestrator

import "time"

// AgentName identifies one of the specialist agents a plan can dispatch to.
type AgentName string

const (
	AgentAnalysis    AgentName = "analysis"
	AgentInvestments AgentName = "investments"
	AgentPlanning    AgentName = "planning"
)

// ValidAgent reports whether a is one of the known agent names.
func ValidAgent(a AgentName) bool {
	switch a {
	case AgentAnalysis, AgentInvestments, AgentPlanning:
		return true
	}
	return false
}

// PlannedTask is one unit of work the planner assigns to an agent.
// DependsOn lists task IDs whose outputs this task consumes. Priority is a
// unique positive integer per plan; it orders the final result list and is
// validated against dependencies (a dependency's priority must be strictly
// lower), but it is never the scheduling mechanism — waves are.
type PlannedTask struct {
	ID             string    `json:"id"`
	Agent          AgentName `json:"agent"`
	Prompt         string    `json:"prompt"`
	ExpectedOutput string    `json:"expected_output,omitempty"`
	MemoryContext  string    `json:"memory_context,omitempty"`
	DependsOn      []string  `json:"depends_on,omitempty"`
	Priority       int       `json:"priority"`
}

// ExecutionPlan is the planner's decomposition of a user message.
type ExecutionPlan struct {
	Tasks     []PlannedTask `json:"tasks"`
	Reasoning string        `json:"reasoning,omitempty"`
	Fallback  bool          `json:"-"`
}

// TaskStatus is the terminal state of an executed task.
type TaskStatus string

const (
	TaskCompleted TaskStatus = "completed"
	TaskFailed    TaskStatus = "failed"
)

// TaskResult is the outcome of one executed task.
type TaskResult struct {
	TaskID   string        `json:"task_id"`
	Agent    AgentName     `json:"agent"`
	Status   TaskStatus    `json:"status"`
	Output   string        `json:"output,omitempty"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration_ms"`
}

// DependencyOutput is what a dependent task sees of one declared dependency:
// the output on success, a failure object otherwise. Dependents always get an
// entry per declared dependency, so "dependency failed" is distinguishable
// from "dependency never declared".
type DependencyOutput struct {
	Status TaskStatus `json:"status"`
	Output string     `json:"output,omitempty"`
	Error  string     `json:"error,omitempty"`
}

// OrchestrationResult bundles the executed plan with its task results,
// ordered by task priority.
type OrchestrationResult struct {
	Plan    *ExecutionPlan `json:"plan"`
	Results []TaskResult   `json:"results"`
}
