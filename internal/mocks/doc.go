// Package mocks provides shared fakes for the model client and the command
// runner, so stage and orchestrator tests run without a network or a shell.
//
// # Usage
//
//	model := mocks.NewMockLLMClient()
//	model.RespondWithSequence(
//	    `{"is_feasible": true, "rationale": "input_video.mp4 is listed", "blocking_issues": []}`,
//	    `{"steps": [{"description": "clip", "command": "ffmpeg ...", "expected_effect": "temp/clip.mp4"}]}`,
//	)
//
//	runner := mocks.NewMockRunner()
//	runner.FailCommandContaining("ffmpeg", 1, "Invalid data found when processing input")
package mocks
