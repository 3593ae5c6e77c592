package policy

import (
	"context"
	"fmt"

	"github.com/open-policy-agent/opa/rego"
)

// Engine is the OPA policy engine deciding video session access.
type Engine struct {
	query rego.PreparedEvalQuery
}

// AccessInput is the document evaluated by the policy.
type AccessInput struct {
	Action        string `json:"action"`
	UserID        int64  `json:"user_id"`
	IsAdmin       bool   `json:"is_admin"`
	IsHost        bool   `json:"is_host"`
	IsParticipant bool   `json:"is_participant"`
}

// NewEngine creates a new policy engine with the given policy content.
func NewEngine(ctx context.Context, policyContent string) (*Engine, error) {
	r := rego.New(
		rego.Query("data.session_policy.allow"),
		rego.Module("session_policy.rego", policyContent),
	)

	query, err := r.PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare rego: %w", err)
	}

	return &Engine{query: query}, nil
}

// Allowed evaluates the policy for one access decision.
// An undefined result denies.
func (e *Engine) Allowed(ctx context.Context, input AccessInput) (bool, error) {
	results, err := e.query.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return false, fmt.Errorf("failed to evaluate policy: %w", err)
	}

	if len(results) == 0 || len(results[0].Expressions) == 0 {
		return false, nil
	}

	allowed, ok := results[0].Expressions[0].Value.(bool)
	if !ok {
		return false, fmt.Errorf("unexpected policy result type %T", results[0].Expressions[0].Value)
	}
	return allowed, nil
}

// DefaultPolicy is the default policy content.
// Hosts and admins may do anything; participants may only view recordings.
const DefaultPolicy = `
package session_policy

import rego.v1

default allow := false

allow if {
	input.is_admin
}

allow if {
	input.is_host
}

allow if {
	input.action == "view_recording"
	input.is_participant
}
`
