package stream

import "strings"

// StepKind classifies what applying a message did to the request.
type StepKind int

const (
	StepIgnored StepKind = iota
	StepChunk
	StepCompleted
	StepFailed
)

// Step is the outcome of Accumulator.Apply. The session turns it into
// notifications after releasing its lock.
type Step struct {
	Kind StepKind
	// First is set on the chunk that started the visible report.
	First bool
	// Fragment is the chunk content for StepChunk.
	Fragment string
	// Text is the accumulated report after the step.
	Text string
	// Diagnostic is the backend message for StepFailed.
	Diagnostic string
}

// Accumulator folds the messages of one request into its report. It holds
// no lock and performs no I/O.
type Accumulator struct {
	state      AnalysisState
	subject    string
	text       strings.Builder
	firstSeen  bool
	chunks     int
	diagnostic string
	abandoned  bool
}

// Start begins a new request for subject, discarding the previous report.
func (a *Accumulator) Start(subject string) {
	a.state = Streaming
	a.subject = subject
	a.text.Reset()
	a.firstSeen = false
	a.chunks = 0
	a.diagnostic = ""
	a.abandoned = false
}

// Apply folds msg into the request. Messages that arrive outside Streaming
// and messages of unknown type are ignored.
func (a *Accumulator) Apply(msg Message) Step {
	if a.state != Streaming {
		return Step{Kind: StepIgnored, Text: a.text.String()}
	}

	switch m := msg.(type) {
	case Chunk:
		step := Step{Kind: StepChunk, Fragment: m.Content}
		if !a.firstSeen {
			a.firstSeen = true
			step.First = true
		}
		a.text.WriteString(m.Content)
		a.chunks++
		step.Text = a.text.String()
		return step
	case Complete:
		a.text.Reset()
		a.text.WriteString(m.Content)
		a.state = Completed
		return Step{Kind: StepCompleted, Text: m.Content}
	case Failure:
		a.state = Failed
		a.diagnostic = m.Content
		return Step{Kind: StepFailed, Text: a.text.String(), Diagnostic: m.Content}
	default:
		return Step{Kind: StepIgnored, Text: a.text.String()}
	}
}

// Abandon fails a streaming request whose transport went away.
func (a *Accumulator) Abandon(diagnostic string) Step {
	if a.state != Streaming {
		return Step{Kind: StepIgnored, Text: a.text.String()}
	}
	a.state = Failed
	a.diagnostic = diagnostic
	a.abandoned = true
	return Step{Kind: StepFailed, Text: a.text.String(), Diagnostic: diagnostic}
}

// State is the lifecycle of the current request.
func (a *Accumulator) State() AnalysisState { return a.state }

// Subject is the subject of the current or last request.
func (a *Accumulator) Subject() string { return a.subject }

// Text is the report so far, or the final report once completed.
func (a *Accumulator) Text() string { return a.text.String() }

// FirstChunkSeen reports whether the request has received a chunk.
func (a *Accumulator) FirstChunkSeen() bool { return a.firstSeen }

// Chunks counts the chunks applied to the request.
func (a *Accumulator) Chunks() int { return a.chunks }

// Diagnostic is the failure message of a failed request.
func (a *Accumulator) Diagnostic() string { return a.diagnostic }

// Abandoned reports whether the request failed because the connection was
// lost rather than because the backend sent an error.
func (a *Accumulator) Abandoned() bool { return a.abandoned }
