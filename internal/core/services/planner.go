package services

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/talentops/hragent/internal/core/domain"
	"github.com/talentops/hragent/internal/core/ports"
)

const (
	defaultMaxSteps = 20
	defaultBudget   = 60 * time.Second

	// transcriptCeiling caps the cumulative reasoning text; past it the
	// run finalizes with whatever answer can be extracted.
	transcriptCeiling = 5000

	// repeatedActionWindow and repeatedActionMinSteps drive the
	// loop-detection early stop: the same action proposed three times in a
	// row after at least five steps means the reasoner is stuck.
	repeatedActionWindow   = 3
	repeatedActionMinSteps = 5
)

type loopState int

const (
	stateRunning loopState = iota
	stateFinal
	stateTimedOut
	stateMaxSteps
	stateErrored
)

const systemPrompt = `You are an HR Agent assistant using the ReAct (Reason-Act-Observe) framework.

Your task is to help with HR-related queries by reasoning through problems step by step.

Available actions:
- attendance_mark: Mark employee attendance (check_in/check_out)
- attendance_my_summary: Get attendance summary for an employee
- attendance_report: Attendance records for all employees (HR only)
- attendance_stats: Attendance statistics for the last 30 days (leaders)
- leave_report: Leave requests report (HR only)
- tasks_log: Create or update tasks
- tasks_my_recent: Get recent tasks for an employee
- tasks_report: Generate tasks report
- meet_create: Create meetings
- meet_list: List upcoming meetings
- employee_overview: Get employee overview
- employee_emails: Get employee email addresses
- visualize: Build a chart config for attendance or tasks data
- delete_employee, delete_task, delete_meeting, delete_document: Remove records (require explicit confirmation)

IMPORTANT REASONING FORMAT:
For each step, you must follow this exact format:
Thought: [Your reasoning about what to do next]
Action: [The action to take as action_name(arg=value, ...), or "Final Answer:" followed by your answer if done]

GUARDRAIL RULES:
1. Before ANY potentially destructive action, check if the user provided explicit confirmation
2. Never proceed with destructive actions without explicit user confirmation

Continue reasoning until you have a complete answer for the user.`

// completionIndicators end the run when they appear anywhere in the
// cumulative reasoning and observation text, independent of the parser's
// own finality flag. The system prompt is excluded from the scan.
var completionIndicators = []string{
	"task completed",
	"final answer",
	"based on my search",
}

// smalltalkResponses shortcut trivial conversational messages past the whole
// reasoning pipeline: one reasoning-service call saved, no tool latency.
var smalltalkResponses = []struct {
	pattern *regexp.Regexp
	answer  string
}{
	{
		regexp.MustCompile(`(?i)^\s*(hi|hello|hey|good\s+(morning|afternoon|evening))[\s!.,]*$`),
		"Hello! I'm your HR assistant. I can help with attendance, tasks, meetings, and employee information. What can I do for you?",
	},
	{
		regexp.MustCompile(`(?i)^\s*(thanks|thank\s+you|thx|ty)[\s!.,]*$`),
		"You're welcome! Let me know if there's anything else I can help with.",
	},
	{
		regexp.MustCompile(`(?i)^\s*(help|what\s+can\s+you\s+do|who\s+are\s+you)[\s!.,?]*$`),
		"I'm an HR assistant. I can mark attendance, manage tasks, schedule and list meetings, and report on employees. Ask me in plain language and I'll work out the steps.",
	},
}

// Planner drives the bounded reason-act-observe loop: it obtains reasoning
// text, parses it into steps, routes actions through the guardrail and
// dispatcher, and assembles the final result. One invocation owns its
// transcript, step history and tool-call list exclusively.
type Planner struct {
	logger     *slog.Logger
	reasoner   ports.Reasoner
	parser     *StepParser
	gate       *GuardrailGate
	dispatcher *Dispatcher
	maxSteps   int
	budget     time.Duration
}

// NewPlanner creates a planner over the given reasoner and executor.
// maxSteps <= 0 and budget <= 0 select the defaults (20 steps, 60s).
func NewPlanner(logger *slog.Logger, reasoner ports.Reasoner, executor ports.Executor, maxSteps int, budget time.Duration) *Planner {
	if maxSteps <= 0 {
		maxSteps = defaultMaxSteps
	}
	if budget <= 0 {
		budget = defaultBudget
	}
	return &Planner{
		logger:     logger,
		reasoner:   reasoner,
		parser:     NewStepParser(logger),
		gate:       NewGuardrailGate(logger, executor),
		dispatcher: NewDispatcher(logger, executor),
		maxSteps:   maxSteps,
		budget:     budget,
	}
}

// Run executes one full invocation for a user message plus prior
// conversation turns. All anticipated degraded conditions return
// Success=true with an explanatory answer; only a panic escaping the loop
// produces Success=false.
func (p *Planner) Run(ctx context.Context, userMessage string, priorTurns []domain.Turn) (result domain.LoopResult) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("planner run panicked", "panic", r)
			result = domain.LoopResult{
				Success:     false,
				FinalAnswer: fmt.Sprintf("I apologize, but an unexpected error occurred: %v", r),
				Error:       fmt.Sprintf("%v", r),
			}
		}
	}()

	if answer, ok := smalltalkAnswer(userMessage); ok {
		p.logger.Info("conversational shortcut", "message", userMessage)
		return domain.LoopResult{
			Success:     true,
			FinalAnswer: answer,
			Steps: []domain.ReasoningStep{{
				Thought: "Conversational message, no reasoning required",
				IsFinal: true,
			}},
		}
	}

	transcript := make([]domain.Turn, 0, len(priorTurns)+2)
	transcript = append(transcript, domain.Turn{Role: domain.RoleSystem, Content: systemPrompt})
	transcript = append(transcript, priorTurns...)
	transcript = append(transcript, domain.Turn{Role: domain.RoleUser, Content: userMessage})

	var (
		steps       []domain.ReasoningStep
		toolCalls   []domain.ToolCallRecord
		actionNames []string
		reasoning   strings.Builder
		lastBlock   string
		state       = stateRunning
		runErr      string
		start       = time.Now()
	)

	for i := 0; i < p.maxSteps && state == stateRunning; i++ {
		// Budget is checked at iteration boundaries only; an in-flight
		// reasoner or executor call is an atomic unit of work.
		if time.Since(start) > p.budget {
			state = stateTimedOut
			runErr = "time budget exceeded"
			break
		}

		p.logger.Info("reasoning iteration", "iteration", i+1)

		text, err := p.reasoner.Reason(ctx, transcript)
		if err != nil {
			p.logger.Error("reasoner call failed", "iteration", i+1, "error", err)
			state = stateErrored
			runErr = err.Error()
			break
		}
		transcript = append(transcript, domain.Turn{Role: domain.RoleAssistant, Content: text})
		reasoning.WriteString(text)
		reasoning.WriteString("\n")
		lastBlock = text

		step := p.parser.Parse(text)
		steps = append(steps, step)
		if step.Action != nil {
			actionNames = append(actionNames, step.Action.ActionType)
		}

		if step.IsFinal || p.shouldStop(reasoning.String(), actionNames, len(steps)) {
			state = stateFinal
			break
		}

		if step.Action != nil {
			observation := p.runAction(ctx, *step.Action, userMessage, &toolCalls)
			steps[len(steps)-1].Observation = observation
			transcript = append(transcript, domain.Turn{
				Role:    domain.RoleUser,
				Content: "Observation: " + observation,
			})
			// Observations count toward the scanned text and the length
			// ceiling: a single oversized tool result must trip the stop
			// check on the next iteration.
			reasoning.WriteString("Observation: " + observation)
			reasoning.WriteString("\n")
			continue
		}

		// No action and not final: blank continuation marker.
		transcript = append(transcript, domain.Turn{Role: domain.RoleUser, Content: ""})
	}

	if state == stateRunning {
		state = stateMaxSteps
		runErr = "max reasoning steps exceeded"
	}

	if state == stateFinal {
		answer := extractFinalAnswer(lastBlock, reasoning.String())
		p.logger.Info("run finalized", "steps", len(steps), "tool_calls", len(toolCalls))
		return domain.LoopResult{
			Success:     true,
			FinalAnswer: answer,
			Steps:       steps,
			ToolCalls:   toolCalls,
		}
	}

	p.logger.Warn("run degraded", "state", int(state), "error", runErr, "steps", len(steps))
	return domain.LoopResult{
		Success:     true,
		FinalAnswer: composeFallback(state, userMessage, steps, toolCalls),
		Steps:       steps,
		ToolCalls:   toolCalls,
		Error:       runErr,
	}
}

// runAction routes one intent through the guardrail gate and, when allowed,
// the dispatcher. Returns the observation for the step.
func (p *Planner) runAction(ctx context.Context, intent domain.ActionIntent, userMessage string, toolCalls *[]domain.ToolCallRecord) string {
	decision := p.gate.Authorize(ctx, intent, userMessage)
	if decision.Record != nil {
		*toolCalls = append(*toolCalls, *decision.Record)
	}
	if !decision.Proceed {
		return decision.Narrative
	}

	observation, record := p.dispatcher.Dispatch(ctx, intent)
	*toolCalls = append(*toolCalls, record)
	return observation
}

// shouldStop applies the three transcript-level early-stop conditions:
// completion indicators, repeated-action loop detection, and the length
// ceiling.
func (p *Planner) shouldStop(reasoning string, actionNames []string, stepCount int) bool {
	lower := strings.ToLower(reasoning)
	for _, indicator := range completionIndicators {
		if strings.Contains(lower, indicator) {
			return true
		}
	}

	if stepCount >= repeatedActionMinSteps && len(actionNames) >= repeatedActionWindow {
		window := actionNames[len(actionNames)-repeatedActionWindow:]
		if window[0] == window[1] && window[1] == window[2] {
			p.logger.Warn("repeated action detected, stopping", "action", window[0])
			return true
		}
	}

	return len(reasoning) > transcriptCeiling
}

func smalltalkAnswer(userMessage string) (string, bool) {
	for _, candidate := range smalltalkResponses {
		if candidate.pattern.MatchString(userMessage) {
			return candidate.answer, true
		}
	}
	return "", false
}
