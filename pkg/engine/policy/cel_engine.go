// Package policy evaluates user CEL rules against FIFO violations.
package policy

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/DrSkyle/pierwatch/pkg/engine/fifo"
	"github.com/google/cel-go/cel"
)

// Finding is a rule that matched a violation.
type Finding struct {
	RuleID             string   `json:"rule_id"`
	Severity           Severity `json:"severity"`
	ViolationIndex     int      `json:"violation_index"`
	Client             string   `json:"client"`
	EarlierCertificate string   `json:"earlier_certificate"`
	LaterCertificate   string   `json:"later_certificate"`
	GapDays            int      `json:"gap_days"`
}

type compiled struct {
	rule Rule
	prg  cel.Program
}

// CELEngine compiles rules once and evaluates them per violation.
type CELEngine struct {
	env      *cel.Env
	programs []compiled
	logger   *slog.Logger
}

// NewCELEngine declares the violation variables visible to rules.
func NewCELEngine(logger *slog.Logger) (*CELEngine, error) {
	if logger == nil {
		logger = slog.Default()
	}
	env, err := cel.NewEnv(
		cel.Variable("client", cel.StringType),
		cel.Variable("gap_days", cel.IntType),
		cel.Variable("arrival_gap_days", cel.IntType),
		cel.Variable("earlier_certificate", cel.StringType),
		cel.Variable("later_certificate", cel.StringType),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL env: %w", err)
	}
	return &CELEngine{env: env, logger: logger}, nil
}

// Compile validates and compiles rules. Conditions must be boolean.
func (e *CELEngine) Compile(rules []Rule) error {
	if err := Validate(rules); err != nil {
		return err
	}
	for _, r := range rules {
		ast, issues := e.env.Compile(r.Condition)
		if issues != nil && issues.Err() != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidRule, r.ID, issues.Err())
		}
		if !ast.OutputType().IsExactType(cel.BoolType) {
			return fmt.Errorf("%w: %s: condition yields %s, not bool", ErrInvalidRule, r.ID, ast.OutputType())
		}

		prg, err := e.env.Program(ast, cel.InterruptCheckFrequency(100))
		if err != nil {
			return fmt.Errorf("rule %s program creation error: %w", r.ID, err)
		}
		e.programs = append(e.programs, compiled{rule: r, prg: prg})
	}
	return nil
}

// Len is the number of compiled rules.
func (e *CELEngine) Len() int { return len(e.programs) }

func activation(v fifo.Violation) map[string]any {
	return map[string]any{
		"client":              v.Client,
		"gap_days":            int64(v.ShipmentDayGap),
		"arrival_gap_days":    int64(v.ArrivalDayGap()),
		"earlier_certificate": v.EarlierArrivalCertificate,
		"later_certificate":   v.LaterArrivalCertificate,
	}
}

// Evaluate returns the rules matching v, in compile order. A rule that
// fails at runtime is logged and skipped.
func (e *CELEngine) Evaluate(ctx context.Context, v fifo.Violation) ([]Rule, error) {
	var matches []Rule
	vars := activation(v)

	for _, c := range e.programs {
		if err := ctx.Err(); err != nil {
			return matches, err
		}
		out, _, err := c.prg.ContextEval(ctx, vars)
		if err != nil {
			e.logger.Warn("Rule evaluation failed", "rule_id", c.rule.ID, "error", err)
			continue
		}
		if match, ok := out.Value().(bool); ok && match {
			matches = append(matches, c.rule)
		}
	}
	return matches, nil
}

// Apply evaluates every violation and flattens the matches into findings.
func (e *CELEngine) Apply(ctx context.Context, violations []fifo.Violation) ([]Finding, error) {
	if len(e.programs) == 0 {
		return nil, nil
	}
	var findings []Finding
	for i, v := range violations {
		rules, err := e.Evaluate(ctx, v)
		if err != nil {
			return nil, err
		}
		for _, r := range rules {
			findings = append(findings, Finding{
				RuleID:             r.ID,
				Severity:           r.Severity,
				ViolationIndex:     i,
				Client:             v.Client,
				EarlierCertificate: v.EarlierArrivalCertificate,
				LaterCertificate:   v.LaterArrivalCertificate,
				GapDays:            v.ShipmentDayGap,
			})
		}
	}
	return findings, nil
}
