package planner

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mediaagent/internal/mocks"
	"mediaagent/pkg/contract"
	"mediaagent/pkg/proto"
	"mediaagent/pkg/templates"
)

const (
	clipPlan = `{"steps": [
		{"description": "create scratch folder", "command": "mkdir -p temp", "expected_effect": "temp exists"},
		{"description": "cut clip", "command": "ffmpeg -y -nostdin -ss 00:00:05 -i input_video.mp4 -t 10 -c copy temp/clip.mp4", "expected_effect": "temp/clip.mp4 lasts 10s", "depends_on": [1]}
	]}`
	fixedPlan = `{"steps": [
		{"description": "create scratch folder", "command": "mkdir -p temp", "expected_effect": "temp exists"},
		{"description": "cut clip with re-encode", "command": "ffmpeg -y -nostdin -ss 00:00:05 -i input_video.mp4 -t 10 -c:v libx264 temp/clip.mp4", "expected_effect": "temp/clip.mp4 lasts 10s", "depends_on": [1]}
	]}`
)

func newPlanner(model *mocks.MockLLMClient) *Planner {
	host := proto.HostFacts{OS: "linux", Shell: "/bin/sh -c", Tools: []string{"ffmpeg"}, AssetsDir: "./assets", ScratchDir: "temp"}
	return New(contract.NewCaller(model, contract.DefaultOptions()), templates.MustRenderer(), host)
}

func mustPlan(t *testing.T, reply string) proto.Plan {
	t.Helper()
	var plan proto.Plan
	require.NoError(t, json.Unmarshal([]byte(reply), &plan))
	return plan
}

func firstInput() *Input {
	return &Input{
		Requirements: "create a 10-second clip from input_video.mp4 starting at 00:00:05",
		Feasibility:  proto.FeasibilityVerdict{IsFeasible: true, Rationale: "input_video.mp4 is listed"},
		Inventory:    proto.FileInventory{{Path: "input_video.mp4", SizeBytes: 4096, Kind: proto.KindVideo}},
		Attempt:      1,
		MaxAttempts:  3,
	}
}

func TestPlanFirstAttempt(t *testing.T) {
	model := mocks.NewMockLLMClient()
	model.RespondWith(clipPlan)

	plan, err := newPlanner(model).Plan(context.Background(), firstInput())
	require.NoError(t, err)
	require.Len(t, plan.Steps, 2)
	assert.Equal(t, "mkdir -p temp", plan.Steps[0].Command)
	assert.Equal(t, []int{1}, plan.Steps[1].DependsOn)

	prompt := model.LastCall().Messages[1].Content
	assert.Contains(t, prompt, "attempt 1 of 3")
	assert.Contains(t, prompt, `"is_feasible": true`)
	assert.NotContains(t, prompt, "QUALITY CHECK OF THE PREVIOUS ATTEMPT")
}

func TestReplanCarriesDiscrepancies(t *testing.T) {
	model := mocks.NewMockLLMClient()
	model.RespondWith(fixedPlan)

	in := firstInput()
	in.Attempt = 2
	in.Prior = &proto.QCVerdict{Discrepancies: []string{"output file not produced: temp/clip.mp4"}, SuggestedFix: "re-encode instead of stream copy"}
	in.Previous = &proto.Plan{Steps: []proto.CommandStep{{Command: "mkdir -p temp"}, {Command: "ffmpeg -ss 5 -i input_video.mp4 -t 10 -c copy temp/clip.mp4"}}}

	plan, err := newPlanner(model).Plan(context.Background(), in)
	require.NoError(t, err)
	assert.Contains(t, plan.Steps[1].Command, "libx264")

	prompt := model.LastCall().Messages[1].Content
	assert.Contains(t, prompt, "output file not produced: temp/clip.mp4")
	assert.Contains(t, prompt, "suggested fix: re-encode instead of stream copy")
	assert.Contains(t, prompt, "PREVIOUS PLAN")
	assert.Equal(t, 1, model.CallCount())
}

func TestReplanRepeatIsRepromptedOnce(t *testing.T) {
	model := mocks.NewMockLLMClient()
	model.RespondWithSequence(clipPlan, fixedPlan)

	previous := mustPlan(t, clipPlan)

	in := firstInput()
	in.Attempt = 2
	in.Prior = &proto.QCVerdict{Discrepancies: []string{"temp/clip.mp4 is 0 bytes"}}
	in.Previous = &previous

	plan, err := newPlanner(model).Plan(context.Background(), in)
	require.NoError(t, err)
	assert.False(t, plan.Equal(&previous))
	assert.Equal(t, 2, model.CallCount())
	assert.Contains(t, model.LastCall().Messages[1].Content, "repeated the previous plan")
}

func TestReplanRepeatTwiceFails(t *testing.T) {
	model := mocks.NewMockLLMClient()
	model.RespondWith(clipPlan)

	previous := mustPlan(t, clipPlan)

	in := firstInput()
	in.Attempt = 2
	in.Prior = &proto.QCVerdict{Discrepancies: []string{"temp/clip.mp4 is 0 bytes"}}
	in.Previous = &previous

	_, err := newPlanner(model).Plan(context.Background(), in)
	assert.ErrorIs(t, err, ErrRepeatedPlan)
	assert.Equal(t, 2, model.CallCount())
}

func TestPlanRejectsForwardDependency(t *testing.T) {
	model := mocks.NewMockLLMClient()
	model.RespondWith(`{"steps": [{"description": "x", "command": "ffmpeg -i a.mp4 b.mp4", "expected_effect": "b", "depends_on": [2]}]}`)

	_, err := newPlanner(model).Plan(context.Background(), firstInput())
	assert.ErrorIs(t, err, contract.ErrContractExhausted)
}
