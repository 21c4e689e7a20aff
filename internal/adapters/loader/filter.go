package loader

import (
	"fmt"

	"github.com/google/cel-go/cel"

	"github.com/okian/songleague/internal/domain/model"
)

// VoteFilter is a compiled CEL expression over a single vote. The
// expression sees points (int) and voter_id, song_id, round_id and comment
// (string) and must return a bool.
type VoteFilter struct {
	expr    string
	program cel.Program
}

func voteEnv() (*cel.Env, error) {
	return cel.NewEnv(
		cel.Variable("points", cel.IntType),
		cel.Variable("voter_id", cel.StringType),
		cel.Variable("song_id", cel.StringType),
		cel.Variable("round_id", cel.StringType),
		cel.Variable("comment", cel.StringType),
	)
}

// NewVoteFilter compiles expr. An empty expression returns a nil filter.
func NewVoteFilter(expr string) (*VoteFilter, error) {
	if expr == "" {
		return nil, nil
	}
	env, err := voteEnv()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFilter, err)
	}
	ast, iss := env.Parse(expr)
	if iss.Err() != nil {
		return nil, fmt.Errorf("%w: parse %q: %w", ErrFilter, expr, iss.Err())
	}
	checked, iss := env.Check(ast)
	if iss.Err() != nil {
		return nil, fmt.Errorf("%w: check %q: %w", ErrFilter, expr, iss.Err())
	}
	if !checked.OutputType().IsExactType(cel.BoolType) {
		return nil, fmt.Errorf("%w: %q must return bool, got %s", ErrFilter, expr, checked.OutputType())
	}
	program, err := env.Program(checked)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFilter, err)
	}
	return &VoteFilter{expr: expr, program: program}, nil
}

// String returns the source expression.
func (f *VoteFilter) String() string { return f.expr }

// Keep reports whether v passes the filter.
func (f *VoteFilter) Keep(v model.Vote) (bool, error) {
	out, _, err := f.program.Eval(map[string]any{
		"points":   int64(v.Points),
		"voter_id": v.VoterID,
		"song_id":  v.SongID,
		"round_id": v.RoundID,
		"comment":  v.Comment,
	})
	if err != nil {
		return false, fmt.Errorf("%w: eval %q: %w", ErrFilter, f.expr, err)
	}
	keep, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("%w: %q returned %T", ErrFilter, f.expr, out.Value())
	}
	return keep, nil
}

// Apply returns the votes that pass, preserving order.
func (f *VoteFilter) Apply(votes []model.Vote) ([]model.Vote, error) {
	out := make([]model.Vote, 0, len(votes))
	for _, v := range votes {
		keep, err := f.Keep(v)
		if err != nil {
			return nil, err
		}
		if keep {
			out = append(out, v)
		}
	}
	return out, nil
}
