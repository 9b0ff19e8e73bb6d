package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"mediaagent/pkg/agent/llmerrors"
	"mediaagent/pkg/eventlog"
	"mediaagent/pkg/proto"
)

// maxReplayDetail bounds the free text printed per event.
const maxReplayDetail = 240

// replayTranscript prints one line per recorded event of a run.
func replayTranscript(path string, w io.Writer) error {
	events, err := eventlog.ReadEvents(path)
	if err != nil {
		return err
	}
	if len(events) == 0 {
		return fmt.Errorf("transcript %s has no events", path)
	}

	fmt.Fprintf(w, "run %s: %d events\n", events[0].RunID, len(events))
	for i := range events {
		ev := &events[i]
		detail, err := describeEvent(ev)
		if err != nil {
			detail = fmt.Sprintf("(unreadable payload: %v)", err)
		}
		fmt.Fprintf(w, "%s  #%d  %-11s %s\n", ev.Timestamp.Format("15:04:05.000"), ev.Attempt, ev.Kind,
			llmerrors.SanitizePrompt(detail, maxReplayDetail))
	}
	return nil
}

func describeEvent(ev *eventlog.Event) (string, error) {
	switch ev.Kind {
	case eventlog.KindTransition:
		var t struct {
			From proto.State `json:"from"`
			To   proto.State `json:"to"`
		}
		if err := json.Unmarshal(ev.Payload, &t); err != nil {
			return "", err
		}
		return fmt.Sprintf("%s -> %s", t.From, t.To), nil

	case eventlog.KindFeasibility:
		var v proto.FeasibilityVerdict
		if err := json.Unmarshal(ev.Payload, &v); err != nil {
			return "", err
		}
		if v.IsFeasible {
			return "feasible: " + v.Rationale, nil
		}
		return fmt.Sprintf("infeasible: %s [%s]", v.Rationale, strings.Join(v.BlockingIssues, "; ")), nil

	case eventlog.KindPlan:
		var p proto.Plan
		if err := json.Unmarshal(ev.Payload, &p); err != nil {
			return "", err
		}
		descs := make([]string, len(p.Steps))
		for i := range p.Steps {
			descs[i] = p.Steps[i].Description
		}
		return fmt.Sprintf("%d step(s): %s", len(p.Steps), strings.Join(descs, "; ")), nil

	case eventlog.KindResult:
		var r proto.ExecutionResult
		if err := json.Unmarshal(ev.Payload, &r); err != nil {
			return "", err
		}
		return fmt.Sprintf("[%s, exit %d] %s", r.Status(), r.ExitCode, r.Step.Command), nil

	case eventlog.KindVerdict:
		var v proto.QCVerdict
		if err := json.Unmarshal(ev.Payload, &v); err != nil {
			return "", err
		}
		if v.Passed {
			return "passed", nil
		}
		return "failed: " + strings.Join(v.Discrepancies, "; "), nil

	default:
		return string(ev.Payload), nil
	}
}
