package orchestrator

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/techhub5500/Yield-sub002/src/logger"
)

// Queue executes a validated plan in waves. A wave holds every pending task
// whose dependencies are all terminal; the wave runs concurrently and the
// queue waits for the whole wave before collecting the next one. A failed
// dependency does not block its dependents — they run and see a failure
// object in their dependency outputs instead of the output.
type Queue struct {
	agents      map[AgentName]Agent
	taskTimeout time.Duration
}

func NewQueue(taskTimeout time.Duration, agents ...Agent) *Queue {
	byName := make(map[AgentName]Agent, len(agents))
	for _, a := range agents {
		byName[a.Name()] = a
	}
	return &Queue{agents: byName, taskTimeout: taskTimeout}
}

// Execute runs the plan to completion and returns one result per task,
// ordered by priority (lower first), ties broken by plan order.
func (q *Queue) Execute(ctx context.Context, userID, message string, plan *ExecutionPlan) []TaskResult {
	results := make(map[string]TaskResult, len(plan.Tasks))
	pending := make([]*PlannedTask, 0, len(plan.Tasks))
	for i := range plan.Tasks {
		pending = append(pending, &plan.Tasks[i])
	}

	for len(pending) > 0 {
		var wave, rest []*PlannedTask
		for _, task := range pending {
			if depsTerminal(task, results) {
				wave = append(wave, task)
			} else {
				rest = append(rest, task)
			}
		}

		// Validation rejects cyclic plans, so an empty wave with tasks still
		// pending is a defect; force-fail them instead of hanging the request.
		if len(wave) == 0 {
			logger.FromContext(ctx).Error("Execution queue stalled, failing pending tasks",
				"pending", len(rest))
			for _, task := range rest {
				results[task.ID] = TaskResult{
					TaskID: task.ID,
					Agent:  task.Agent,
					Status: TaskFailed,
					Error:  "dependency deadlock",
				}
			}
			break
		}

		// Dependency outputs are snapshotted before the wave launches so the
		// goroutines never read the results map concurrently.
		inputs := make(map[string]TaskInput, len(wave))
		for _, task := range wave {
			inputs[task.ID] = TaskInput{
				UserID:            userID,
				Message:           message,
				Prompt:            task.Prompt,
				ExpectedOutput:    task.ExpectedOutput,
				MemoryContext:     task.MemoryContext,
				DependencyOutputs: dependencyOutputs(task, results),
			}
		}

		var wg sync.WaitGroup
		var mu sync.Mutex
		for _, task := range wave {
			wg.Add(1)
			go func(task *PlannedTask) {
				defer wg.Done()
				res := q.runTask(ctx, task, inputs[task.ID])
				mu.Lock()
				results[task.ID] = res
				mu.Unlock()
			}(task)
		}
		wg.Wait()
		pending = rest
	}

	ordered := make([]TaskResult, 0, len(plan.Tasks))
	for i := range plan.Tasks {
		ordered = append(ordered, results[plan.Tasks[i].ID])
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return taskPriority(plan, ordered[i].TaskID) < taskPriority(plan, ordered[j].TaskID)
	})
	return ordered
}

func depsTerminal(task *PlannedTask, results map[string]TaskResult) bool {
	for _, dep := range task.DependsOn {
		if _, done := results[dep]; !done {
			return false
		}
	}
	return true
}

// dependencyOutputs collects one entry per declared dependency: the output
// for completed dependencies, a failure object for failed ones.
func dependencyOutputs(task *PlannedTask, results map[string]TaskResult) map[string]DependencyOutput {
	if len(task.DependsOn) == 0 {
		return nil
	}
	outputs := make(map[string]DependencyOutput, len(task.DependsOn))
	for _, dep := range task.DependsOn {
		res, done := results[dep]
		if !done {
			continue
		}
		outputs[dep] = DependencyOutput{
			Status: res.Status,
			Output: res.Output,
			Error:  res.Error,
		}
	}
	return outputs
}

func (q *Queue) runTask(ctx context.Context, task *PlannedTask, input TaskInput) (result TaskResult) {
	started := time.Now()
	result = TaskResult{TaskID: task.ID, Agent: task.Agent}

	defer func() {
		result.Duration = time.Since(started)
		if r := recover(); r != nil {
			logger.FromContext(ctx).Error("Agent panicked",
				"task_id", task.ID, "agent", task.Agent, "panic", fmt.Sprintf("%v", r))
			result.Status = TaskFailed
			result.Output = ""
			result.Error = "agent panicked"
		}
	}()

	agent, ok := q.agents[task.Agent]
	if !ok {
		result.Status = TaskFailed
		result.Error = fmt.Sprintf("no agent registered for %q", task.Agent)
		return result
	}

	taskCtx := ctx
	if q.taskTimeout > 0 {
		var cancel context.CancelFunc
		taskCtx, cancel = context.WithTimeout(ctx, q.taskTimeout)
		defer cancel()
	}

	output, err := agent.Execute(taskCtx, input)
	if err != nil {
		logger.FromContext(ctx).Warn("Agent task failed",
			"task_id", task.ID, "agent", task.Agent, "error", err)
		result.Status = TaskFailed
		result.Error = err.Error()
		return result
	}
	result.Status = TaskCompleted
	result.Output = output
	return result
}

func taskPriority(plan *ExecutionPlan, taskID string) int {
	for i := range plan.Tasks {
		if plan.Tasks[i].ID == taskID {
			return plan.Tasks[i].Priority
		}
	}
	return 0
}
