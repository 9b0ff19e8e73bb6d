package proto

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPlanValidate(t *testing.T) {
	tests := []struct {
		name    string
		plan    Plan
		wantErr string
	}{
		{name: "empty", plan: Plan{}, wantErr: "at least one step"},
		{
			name:    "blank command",
			plan:    Plan{Steps: []CommandStep{{Description: "x", Command: "  "}}},
			wantErr: "step 1 has an empty command",
		},
		{
			name: "forward dependency",
			plan: Plan{Steps: []CommandStep{
				{Command: "mkdir -p temp", DependsOn: []int{2}},
				{Command: "ffmpeg -i a.mp4 temp/b.mp4"},
			}},
			wantErr: "step 1 depends on step 2",
		},
		{
			name: "valid",
			plan: Plan{Steps: []CommandStep{
				{Command: "mkdir -p temp"},
				{Command: "ffmpeg -i a.mp4 temp/b.mp4", DependsOn: []int{1}},
			}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.plan.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestPlanEqualComparesCommands(t *testing.T) {
	a := &Plan{Steps: []CommandStep{{Description: "clip", Command: "ffmpeg -ss 5 -t 10 -i in.mp4 out.mp4"}}}
	b := &Plan{Steps: []CommandStep{{Description: "clip it", Command: " ffmpeg -ss 5 -t 10 -i in.mp4 out.mp4 "}}}
	c := &Plan{Steps: []CommandStep{{Command: "ffmpeg -ss 5 -t 10 -i in.mp4 -c copy out.mp4"}}}

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
	assert.False(t, a.Equal(nil))
}

func TestVerdictValidation(t *testing.T) {
	assert.Error(t, (&QCVerdict{Passed: false}).Validate())
	assert.Error(t, (&QCVerdict{Passed: false, Discrepancies: []string{" "}}).Validate())
	assert.NoError(t, (&QCVerdict{Passed: true}).Validate())

	assert.Error(t, (&FeasibilityVerdict{IsFeasible: false, Rationale: "missing"}).Validate())
	assert.Error(t, (&FeasibilityVerdict{IsFeasible: true}).Validate())
	assert.NoError(t, (&FeasibilityVerdict{IsFeasible: true, Rationale: "input_video.mp4 is present"}).Validate())
}

func TestExecutionResultStatus(t *testing.T) {
	assert.Equal(t, StepSucceeded, (&ExecutionResult{Succeeded: true}).Status())
	assert.Equal(t, StepFailed, (&ExecutionResult{ExitCode: 1}).Status())
	assert.Equal(t, StepSkipped, (&ExecutionResult{Skipped: true}).Status())

	assert.True(t, AllSucceeded([]ExecutionResult{{Succeeded: true}}))
	assert.False(t, AllSucceeded([]ExecutionResult{{Succeeded: true}, {Skipped: true}}))
}

func TestStateTerminal(t *testing.T) {
	assert.False(t, StateAnalyzing.IsTerminal())
	assert.False(t, StateVerifying.IsTerminal())
	assert.True(t, StateTerminatedError.IsTerminal())
	assert.Equal(t, OutcomeRetriesExhausted, OutcomeFor(StateTerminatedRetriesExhausted))
	assert.Equal(t, OutcomeError, OutcomeFor(StatePlanning))
}

func TestInventoryRenderAndLookup(t *testing.T) {
	inv := FileInventory{
		{Path: "temp/clip.mp4", SizeBytes: 10, Kind: KindVideo, DurationSeconds: 10},
		{Path: "input_video.mp4", SizeBytes: 2048, Kind: KindVideo, Codec: "h264"},
	}
	inv.Sort()

	assert.Equal(t, "input_video.mp4", inv[0].Path)
	got, ok := inv.Lookup("temp/clip.mp4")
	assert.True(t, ok)
	assert.InDelta(t, 10.0, got.DurationSeconds, 0.001)

	out := inv.Render()
	assert.Contains(t, out, "- input_video.mp4 (video, 2048 bytes, h264)")
	assert.Contains(t, out, "10.00s")
	assert.Equal(t, "(no files)", FileInventory{}.Render())
}

func TestHostFactsRender(t *testing.T) {
	h := HostFacts{OS: "linux", Shell: "/bin/sh -c", Tools: []string{"ffmpeg"}, MissingTools: []string{"ffprobe"}, AssetsDir: "./assets", ScratchDir: "temp"}
	out := h.Render()
	assert.Contains(t, out, "AVAILABLE TOOLS: ffmpeg")
	assert.Contains(t, out, "NOT INSTALLED: ffprobe")
	assert.Contains(t, out, "SCRATCH FOLDER: temp")

	assert.Contains(t, (&HostFacts{}).Render(), "none detected")
}
