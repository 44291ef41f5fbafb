// Package jules is a client for the Jules task-orchestration API.
//
// Jules runs asynchronous coding sessions against a source repository. The
// client covers the operations a conversational assistant needs: listing,
// creating and inspecting sessions, approving a session's plan, sending a
// follow-up message, listing a session's activities and listing sources.
//
// # Basic Usage
//
//	client := jules.NewClient(os.Getenv("JULES_API_KEY"))
//
//	session, err := client.CreateSession(ctx, &jules.CreateSessionRequest{
//	    Prompt: "Fix the login bug",
//	    Source: "sources/github/acme/app",
//	})
//
//	if err := client.ApprovePlan(ctx, session.Name); err != nil {
//	    if e, ok := jules.AsError(err); ok && e.HTTPStatus == 404 {
//	        // session gone
//	    }
//	}
//
// Requests are sent once; the client never retries.
package jules
