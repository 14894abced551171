package orchestrator

import "fmt"

// ValidatePlan checks a plan's structure and returns every problem found.
// An empty slice means the plan is executable: known agents, unique positive
// priorities, resolvable priority-respecting dependencies and no cycles.
func ValidatePlan(plan *ExecutionPlan, maxTasks int) []string {
	var problems []string
	if plan == nil || len(plan.Tasks) == 0 {
		return []string{"plan has no tasks"}
	}
	if maxTasks > 0 && len(plan.Tasks) > maxTasks {
		problems = append(problems, fmt.Sprintf("plan has %d tasks, limit is %d", len(plan.Tasks), maxTasks))
	}

	byID := make(map[string]*PlannedTask, len(plan.Tasks))
	byPriority := make(map[int]string, len(plan.Tasks))
	for i := range plan.Tasks {
		task := &plan.Tasks[i]
		if task.ID == "" {
			problems = append(problems, fmt.Sprintf("task %d has no id", i))
			continue
		}
		if _, dup := byID[task.ID]; dup {
			problems = append(problems, fmt.Sprintf("duplicate task id %q", task.ID))
			continue
		}
		byID[task.ID] = task
		if !ValidAgent(task.Agent) {
			problems = append(problems, fmt.Sprintf("task %q names unknown agent %q", task.ID, task.Agent))
		}
		if task.Priority < 1 {
			problems = append(problems, fmt.Sprintf("task %q has non-positive priority %d", task.ID, task.Priority))
		} else if other, dup := byPriority[task.Priority]; dup {
			problems = append(problems, fmt.Sprintf("tasks %q and %q share priority %d", other, task.ID, task.Priority))
		} else {
			byPriority[task.Priority] = task.ID
		}
	}

	for _, task := range plan.Tasks {
		for _, dep := range task.DependsOn {
			if dep == task.ID {
				problems = append(problems, fmt.Sprintf("task %q depends on itself", task.ID))
				continue
			}
			depTask, ok := byID[dep]
			if !ok {
				problems = append(problems, fmt.Sprintf("task %q depends on unknown task %q", task.ID, dep))
				continue
			}
			// A dependency must come strictly earlier in priority order than
			// its dependent; together with acyclicity this guarantees the
			// wave loop always finds a ready task.
			if depTask.Priority >= task.Priority {
				problems = append(problems, fmt.Sprintf(
					"task %q (priority %d) depends on task %q (priority %d); dependencies must have strictly lower priority",
					task.ID, task.Priority, dep, depTask.Priority))
			}
		}
	}

	if cycle := findCycle(plan.Tasks); cycle != "" {
		problems = append(problems, fmt.Sprintf("dependency cycle involving task %q", cycle))
	}
	return problems
}

// findCycle runs a colored DFS over the dependency graph and returns the ID
// of a task on a cycle, or "" when the graph is acyclic.
func findCycle(tasks []PlannedTask) string {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	deps := make(map[string][]string, len(tasks))
	for _, t := range tasks {
		deps[t.ID] = t.DependsOn
	}
	color := make(map[string]int, len(tasks))

	var visit func(id string) string
	visit = func(id string) string {
		color[id] = gray
		for _, dep := range deps[id] {
			if _, known := deps[dep]; !known {
				continue
			}
			switch color[dep] {
			case gray:
				return dep
			case white:
				if hit := visit(dep); hit != "" {
					return hit
				}
			}
		}
		color[id] = black
		return ""
	}

	for _, t := range tasks {
		if color[t.ID] == white {
			if hit := visit(t.ID); hit != "" {
				return hit
			}
		}
	}
	return ""
}

// FallbackPlan is used when the planner fails or produces an invalid plan:
// a single analysis task that answers the message directly.
func FallbackPlan(message string) *ExecutionPlan {
	return &ExecutionPlan{
		Tasks: []PlannedTask{{
			ID:       "fallback",
			Agent:    AgentAnalysis,
			Prompt:   message,
			Priority: 1,
		}},
		Reasoning: "planner unavailable, answering directly",
		Fallback:  true,
	}
}
