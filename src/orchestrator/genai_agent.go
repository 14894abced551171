package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"google.golang.org/genai"
)

const plannerSystemPrompt = `You are the execution planner of a personal finance assistant.
Decompose the user's message into tasks for the available agents:
- "analysis": general financial analysis and explanations
- "investments": portfolio, valuation and profitability questions
- "planning": budgeting, goals and projections

Respond with JSON only, no prose, in this shape:
{"tasks":[{"id":"t1","agent":"investments","prompt":"...","expected_output":"...","memory_context":"...","depends_on":[],"priority":1}],"reasoning":"..."}

Rules: task ids must be unique; depends_on may only reference other task ids;
priorities are unique positive integers and every dependency must carry a
strictly lower priority than its dependent; priority orders the final answer
(lower first); expected_output states what the task must produce;
memory_context carries conversation facts the task needs, or is omitted;
prefer the fewest tasks that cover the message.`

var agentSystemPrompts = map[AgentName]string{
	AgentAnalysis:    "You are a financial analysis agent. Answer precisely and concisely in the user's language.",
	AgentInvestments: "You are an investments agent for a personal portfolio. Ground every statement on the data provided in the prompt.",
	AgentPlanning:    "You are a financial planning agent. Produce actionable, realistic suggestions.",
}

// GeminiAgent adapts one Gemini chat session per task to the Agent interface.
type GeminiAgent struct {
	name   AgentName
	client *genai.Client
	model  string
	system string
}

func NewGeminiAgent(client *genai.Client, name AgentName, model string) *GeminiAgent {
	return &GeminiAgent{
		name:   name,
		client: client,
		model:  model,
		system: agentSystemPrompts[name],
	}
}

// NewDefaultAgents builds one Gemini-backed agent per known agent name.
func NewDefaultAgents(client *genai.Client, model string) []Agent {
	return []Agent{
		NewGeminiAgent(client, AgentAnalysis, model),
		NewGeminiAgent(client, AgentInvestments, model),
		NewGeminiAgent(client, AgentPlanning, model),
	}
}

func (a *GeminiAgent) Name() AgentName { return a.name }

func (a *GeminiAgent) Execute(ctx context.Context, input TaskInput) (string, error) {
	config := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: a.system}}},
	}
	chat, err := a.client.Chats.Create(ctx, a.model, config, nil)
	if err != nil {
		return "", fmt.Errorf("failed to start chat for agent %s: %w", a.name, err)
	}
	resp, err := chat.Send(ctx, &genai.Part{Text: buildTaskPrompt(input)})
	if err != nil {
		return "", fmt.Errorf("agent %s call failed: %w", a.name, err)
	}
	text := responseText(resp)
	if text == "" {
		return "", fmt.Errorf("agent %s returned no content", a.name)
	}
	return text, nil
}

// buildTaskPrompt assembles the agent prompt: the planner's instruction and
// expected output, the original message and memory context, and dependency
// outputs in a stable order. Failed dependencies are spelled out so the agent
// knows that data is missing rather than hallucinating it.
func buildTaskPrompt(input TaskInput) string {
	var b strings.Builder
	b.WriteString(input.Prompt)
	if input.ExpectedOutput != "" {
		b.WriteString("\n\nExpected output:\n")
		b.WriteString(input.ExpectedOutput)
	}
	if input.Message != "" && input.Message != input.Prompt {
		b.WriteString("\n\nOriginal user message:\n")
		b.WriteString(input.Message)
	}
	if input.MemoryContext != "" {
		b.WriteString("\n\nConversation context:\n")
		b.WriteString(input.MemoryContext)
	}
	if len(input.DependencyOutputs) > 0 {
		ids := make([]string, 0, len(input.DependencyOutputs))
		for id := range input.DependencyOutputs {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		b.WriteString("\n\nResults from previous tasks:")
		for _, id := range ids {
			dep := input.DependencyOutputs[id]
			if dep.Status == TaskCompleted {
				b.WriteString(fmt.Sprintf("\n[%s]\n%s", id, dep.Output))
			} else {
				b.WriteString(fmt.Sprintf("\n[%s] failed: %s", id, dep.Error))
			}
		}
	}
	return b.String()
}

// GeminiPlanner produces execution plans from user messages.
type GeminiPlanner struct {
	client *genai.Client
	model  string
}

func NewGeminiPlanner(client *genai.Client, model string) *GeminiPlanner {
	return &GeminiPlanner{client: client, model: model}
}

func (p *GeminiPlanner) Plan(ctx context.Context, userID, message string) (*ExecutionPlan, error) {
	config := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: plannerSystemPrompt}}},
		ResponseMIMEType:  "application/json",
	}
	chat, err := p.client.Chats.Create(ctx, p.model, config, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to start planner chat: %w", err)
	}
	resp, err := chat.Send(ctx, &genai.Part{Text: message})
	if err != nil {
		return nil, fmt.Errorf("planner call failed: %w", err)
	}

	raw := extractJSON(responseText(resp))
	var plan ExecutionPlan
	if err := json.Unmarshal([]byte(raw), &plan); err != nil {
		return nil, fmt.Errorf("planner returned unparseable plan: %w", err)
	}
	return &plan, nil
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil && part.Text != "" {
			b.WriteString(part.Text)
		}
	}
	return b.String()
}

// extractJSON strips markdown code fences some models wrap JSON in.
func extractJSON(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if i := strings.LastIndex(s, "```"); i >= 0 {
			s = s[:i]
		}
	}
	return strings.TrimSpace(s)
}
