// Package stream implements the client side of the nutrition analysis
// streaming protocol.
//
// A Session owns one connection to the analysis endpoint. It sends a single
// request per analysis and folds the backend's stream_chunk messages into
// the accumulated report until a stream_complete or error message ends the
// request:
//
//	s := stream.New(cfg, dialer, creds, stream.WithCallbacks(stream.Callbacks{
//	    OnAnalysisComplete: func(text string) { fmt.Println(text) },
//	}))
//	if err := s.Open(ctx); err != nil { ... }
//	defer s.Close()
//	if err := s.StartAnalysis("737628064502"); err != nil { ... }
//	report, err := s.Await(ctx)
//
// Connection state and analysis state are tracked separately. A transport
// close leaves an in-flight request in the Streaming state unless the
// session is configured with FailOnDisconnect. There is no retry, no
// reconnect, and no request timeout.
package stream
