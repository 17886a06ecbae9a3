package stream

// Callbacks receive session notifications. Every field is optional. They are
// invoked without the session lock held, so a callback may call back into
// the session. OnChunk and the terminal callbacks run on the read loop.
type Callbacks struct {
	// OnStreamingStart fires when a request has been accepted and before it
	// is sent.
	OnStreamingStart func()
	// OnFirstStreamChunk fires once per request, on its first chunk.
	OnFirstStreamChunk func()
	// OnChunk fires on every chunk with the fragment and the report so far.
	OnChunk func(fragment, accumulated string)
	// OnAnalysisComplete fires with the authoritative final report.
	OnAnalysisComplete func(text string)
	// OnAnalysisFailed fires with the backend diagnostic.
	OnAnalysisFailed func(diagnostic string)
	// OnAuthRequired fires when Open finds no usable credential.
	OnAuthRequired func()
	// OnConnectionStateChange fires on every connection state transition.
	OnConnectionStateChange func(ConnectionState)
}

func (c Callbacks) streamingStart() {
	if c.OnStreamingStart != nil {
		c.OnStreamingStart()
	}
}

func (c Callbacks) firstChunk() {
	if c.OnFirstStreamChunk != nil {
		c.OnFirstStreamChunk()
	}
}

func (c Callbacks) chunk(fragment, accumulated string) {
	if c.OnChunk != nil {
		c.OnChunk(fragment, accumulated)
	}
}

func (c Callbacks) complete(text string) {
	if c.OnAnalysisComplete != nil {
		c.OnAnalysisComplete(text)
	}
}

func (c Callbacks) failed(diagnostic string) {
	if c.OnAnalysisFailed != nil {
		c.OnAnalysisFailed(diagnostic)
	}
}

func (c Callbacks) authRequired() {
	if c.OnAuthRequired != nil {
		c.OnAuthRequired()
	}
}

func (c Callbacks) connectionState(s ConnectionState) {
	if c.OnConnectionStateChange != nil {
		c.OnConnectionStateChange(s)
	}
}
