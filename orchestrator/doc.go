// Package orchestrator composes the session buffer, the context retriever and
// the generation collaborator into the chat-style entry point. One
// Orchestrator owns exactly one (user, conversation) session; within it turns
// are processed strictly in the order Turn is invoked.
//
// Failure policy per turn: retrieval failures degrade to empty context,
// deferred flush failures are logged and retried on the next opportunity, and
// only generation and session-state failures surface to the caller.
package orchestrator
