// Package chatapi is the HTTP client for the chat backend.
//
// # Overview
//
// The backend speaks JSON over plain HTTP and keeps the logged-in user in a
// cookie session. Client wraps one http.Client with a cookie jar so every call
// after Login rides on the same session.
//
// # Endpoints
//
//   - POST /login             Login
//   - GET  /logout            Logout
//   - GET  /chat/{type}       OpenChat (reads the thread id embedded in the page)
//   - GET  /get_chat_history  GetHistory
//   - POST /send_message      SendMessage
//   - POST /new_user          NewUser
//
// # History Envelope
//
// Only the object envelope is accepted:
//
//	{"thread_id": "...", "messages": [{"role": "user", "content": "hi", "timestamp": 1700000000}]}
//
// A bare JSON array is rejected with ErrBadEnvelope.
//
// # Errors
//
// Non-2xx responses (redirects included) become *StatusError. A 2xx body that
// carries an "error" field is returned as-is in the response struct so the
// caller can decide how to present it; Login is the exception and returns
// *AppError.
package chatapi
