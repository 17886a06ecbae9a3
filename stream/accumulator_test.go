package stream

import "testing"

func TestAccumulatorChunksThenComplete(t *testing.T) {
	var a Accumulator
	a.Start("123")

	s1 := a.Apply(Chunk{Content: "Hel"})
	if s1.Kind != StepChunk || !s1.First || s1.Text != "Hel" {
		t.Fatalf("first step = %+v", s1)
	}
	s2 := a.Apply(Chunk{Content: "lo"})
	if s2.First || s2.Text != "Hello" || s2.Fragment != "lo" {
		t.Fatalf("second step = %+v", s2)
	}

	done := a.Apply(Complete{Content: "Final report"})
	if done.Kind != StepCompleted || done.Text != "Final report" {
		t.Fatalf("complete step = %+v", done)
	}
	if a.State() != Completed || a.Text() != "Final report" {
		t.Errorf("state = %s text = %q", a.State(), a.Text())
	}
	if a.Chunks() != 2 || !a.FirstChunkSeen() {
		t.Errorf("chunks = %d first = %v", a.Chunks(), a.FirstChunkSeen())
	}
}

func TestAccumulatorEmptyChunkCountsAsFirst(t *testing.T) {
	var a Accumulator
	a.Start("1")
	if step := a.Apply(Chunk{}); !step.First {
		t.Error("an empty chunk is still the first chunk")
	}
	if step := a.Apply(Chunk{Content: "x"}); step.First {
		t.Error("first fires once")
	}
}

func TestAccumulatorFailureKeepsText(t *testing.T) {
	var a Accumulator
	a.Start("1")
	a.Apply(Chunk{Content: "partial"})
	step := a.Apply(Failure{Content: "rate limited"})
	if step.Kind != StepFailed || step.Diagnostic != "rate limited" {
		t.Fatalf("step = %+v", step)
	}
	if a.State() != Failed || a.Text() != "partial" || a.Diagnostic() != "rate limited" {
		t.Errorf("state = %s text = %q", a.State(), a.Text())
	}
	if a.Abandoned() {
		t.Error("backend failure is not an abandon")
	}
}

func TestAccumulatorIgnores(t *testing.T) {
	tests := []struct {
		name  string
		setup func(*Accumulator)
		msg   Message
	}{
		{"idle chunk", func(*Accumulator) {}, Chunk{Content: "x"}},
		{"idle complete", func(*Accumulator) {}, Complete{Content: "x"}},
		{"unknown while streaming", func(a *Accumulator) { a.Start("1") }, Unknown{Type: "ping"}},
		{"chunk after complete", func(a *Accumulator) { a.Start("1"); a.Apply(Complete{Content: "done"}) }, Chunk{Content: "late"}},
		{"error after complete", func(a *Accumulator) { a.Start("1"); a.Apply(Complete{Content: "done"}) }, Failure{Content: "late"}},
		{"chunk after failure", func(a *Accumulator) { a.Start("1"); a.Apply(Failure{Content: "x"}) }, Chunk{Content: "late"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var a Accumulator
			tc.setup(&a)
			before, text := a.State(), a.Text()
			if step := a.Apply(tc.msg); step.Kind != StepIgnored {
				t.Fatalf("step = %+v", step)
			}
			if a.State() != before || a.Text() != text {
				t.Errorf("ignored message changed state: %s %q", a.State(), a.Text())
			}
		})
	}
}

func TestAccumulatorStartResets(t *testing.T) {
	var a Accumulator
	a.Start("1")
	a.Apply(Chunk{Content: "old"})
	a.Apply(Failure{Content: "x"})

	a.Start("2")
	if a.State() != Streaming || a.Text() != "" || a.FirstChunkSeen() || a.Diagnostic() != "" || a.Subject() != "2" {
		t.Errorf("not reset: state=%s text=%q first=%v diag=%q", a.State(), a.Text(), a.FirstChunkSeen(), a.Diagnostic())
	}
	if step := a.Apply(Chunk{Content: "n"}); !step.First {
		t.Error("first chunk fires again on a new request")
	}
}

func TestAccumulatorAbandon(t *testing.T) {
	var a Accumulator
	if step := a.Abandon("gone"); step.Kind != StepIgnored {
		t.Errorf("abandon while idle = %+v", step)
	}
	a.Start("1")
	a.Apply(Chunk{Content: "p"})
	step := a.Abandon("gone")
	if step.Kind != StepFailed || a.State() != Failed || !a.Abandoned() || a.Text() != "p" {
		t.Errorf("step = %+v state = %s", step, a.State())
	}
}

func TestStateStrings(t *testing.T) {
	if Connected.String() != "connected" || ConnectionState(42).String() != "unknown" {
		t.Error("connection state strings")
	}
	if Streaming.String() != "streaming" || AnalysisState(42).String() != "unknown" {
		t.Error("analysis state strings")
	}
	if Streaming.Terminal() || Idle.Terminal() || !Completed.Terminal() || !Failed.Terminal() {
		t.Error("Terminal")
	}
}
