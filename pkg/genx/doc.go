// Package genx is a small abstraction over generative-language backends.
//
// A conversation is described by a ModelContext: system prompts, an ordered
// list of messages and the tools the model may invoke. A Generator sends one
// round of that context to a backend and decodes the first part of the first
// candidate into a Reply:
//
//	type Reply interface{ isReply() }
//
//	TextReply        // plain text answer
//	*ToolInvocation  // the model asks for a function to be called
//
// Backends are implemented by GeminiGenerator (google.golang.org/genai) and
// OpenAIGenerator (github.com/openai/openai-go).
//
// Tools are declared with FuncTool, whose argument schema is derived from a Go
// type with github.com/google/jsonschema-go:
//
//	tool := genx.MustNewFuncTool[GetSessionArgs]("get_session", "Gets a single session.",
//	    genx.InvokeFunc[GetSessionArgs](func(ctx context.Context, call *genx.FuncCall, arg GetSessionArgs) (any, error) {
//	        return client.GetSession(ctx, arg.SessionName)
//	    }))
package genx
