package analyzer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mediaagent/internal/mocks"
	"mediaagent/pkg/contract"
	"mediaagent/pkg/proto"
	"mediaagent/pkg/templates"
)

func newAnalyzer(model *mocks.MockLLMClient) *Analyzer {
	host := proto.HostFacts{OS: "linux", Shell: "/bin/sh -c", Tools: []string{"ffmpeg", "ffprobe"}, AssetsDir: "./assets", ScratchDir: "temp"}
	return New(contract.NewCaller(model, contract.DefaultOptions()), templates.MustRenderer(), host)
}

func TestAnalyzeMissingSourceFile(t *testing.T) {
	model := mocks.NewMockLLMClient()
	model.RespondWith(`{"is_feasible": false, "rationale": "interview.mov is not in the inventory", "blocking_issues": ["missing source file: interview.mov"]}`)

	inv := proto.FileInventory{{Path: "input_video.mp4", SizeBytes: 1 << 20, Kind: proto.KindVideo}}
	verdict, err := newAnalyzer(model).Analyze(context.Background(), "transcode interview.mov to h264", inv)
	require.NoError(t, err)

	assert.False(t, verdict.IsFeasible)
	assert.Equal(t, []string{"missing source file: interview.mov"}, verdict.BlockingIssues)

	prompt := model.LastCall().Messages[1].Content
	assert.Contains(t, prompt, "transcode interview.mov to h264")
	assert.Contains(t, prompt, "- input_video.mp4 (video, 1048576 bytes)")
	assert.Contains(t, prompt, "AVAILABLE TOOLS: ffmpeg, ffprobe")
	assert.Contains(t, model.LastCall().Messages[0].Content, "Never assume a file or tool that is not listed")
}

func TestAnalyzeRejectsInfeasibleWithoutIssues(t *testing.T) {
	model := mocks.NewMockLLMClient()
	model.RespondWith(`{"is_feasible": false, "rationale": "no", "blocking_issues": []}`)

	_, err := newAnalyzer(model).Analyze(context.Background(), "make a clip", nil)
	assert.ErrorIs(t, err, contract.ErrContractExhausted)
	assert.Equal(t, contract.DefaultMaxRepairs+1, model.CallCount())
}

func TestAnalyzeEmptyRequirements(t *testing.T) {
	model := mocks.NewMockLLMClient()
	_, err := newAnalyzer(model).Analyze(context.Background(), "  \n", nil)
	assert.ErrorIs(t, err, ErrEmptyRequirements)
	assert.Zero(t, model.CallCount())
}
