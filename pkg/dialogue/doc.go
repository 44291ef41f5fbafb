// Package dialogue runs one tool-calling turn against a language backend.
//
// A turn is at most two backend rounds. Round 1 carries the history, the
// user prompt and the tool catalog. If the model answers with text, that is
// the answer. If it asks for a tool, the tool is dispatched exactly once,
// its result is appended to the conversation and round 2 produces the
// answer.
//
// Tool failures never fail the turn: they are folded into the tool result
// as {"error": message} so the model can explain them.
package dialogue
