// Package session implements the conversation session of the chat client.
//
// # Overview
//
// A Session owns the thread id that scopes a conversation on the backend. It
// reconciles three sources for that id (the persisted value, the id embedded
// in the chat page, and whatever the server answers with), keeps the human
// participant's display name, and guards against overlapping requests.
//
// # Lifecycle
//
//	Uninitialized -> Resolving -> Idle <-> Sending
//	                              Idle <-> ResettingThread
//
// Resolve runs once at startup. Send and StartNew are driven by the user.
// While any of the three is running, Send and StartNew return ErrBusy without
// side effects.
//
// # Rendering
//
// The session never draws anything itself. Each operation emits Events
// (message appended, placeholder added/removed, display name changed, thread
// changed, transcript cleared) to a Sink. The transcript and console packages
// provide sinks; Tee combines them.
//
// # Usage
//
//	api, _ := chatapi.New("http://localhost:5000")
//	s := session.New(api, st, session.Tee(tr, console.New(os.Stdout, true)), session.Config{
//	    ChatbotType: "atual",
//	})
//	_ = s.Resolve(ctx)
//	_ = s.Send(ctx, "hello")
package session
