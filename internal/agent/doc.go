// Package agent adapts external AI coding-agent CLIs (claude, codex, gemini,
// pi) to one streaming interface.
//
// # Architecture
//
// Each vendor is an Agent with four jobs:
//
//  1. BuildInvocation / BuildExtractionConfig - resolve the command, argv and
//     environment for a run
//  2. Normalize - map one stdout JSON line to a stream.Event for live display
//  3. Extract - rebuild the final answer from the complete transcript and
//     parse it as JSON (see ParseJSONText)
//  4. IsAvailable / Probe - check the CLI can be used
//
// Example usage:
//
//	a, err := agent.NewAgent("claude")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	inv, err := a.BuildInvocation("sonnet", cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	result, err := agent.Execute(ctx, inv, prompt, workDir)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer result.Close()
//
//	splitter := stream.NewLineSplitter(func(line string) error {
//	    if ev := a.Normalize(line, agent.NormalizeOptions{CWD: workDir}); ev != nil {
//	        display(*ev)
//	    }
//	    return nil
//	})
//	_ = result.Stream(splitter)
//	splitter.Flush()
//
//	parsed := a.Extract(result.Transcript())
//
// Nothing on the streaming or extraction path panics or returns an error for
// bad agent output: malformed lines are skipped and a transcript without JSON
// yields a ParseResult with Success false.
package agent
