// Package backend implements a fake chat backend for local runs and tests.
//
// # Overview
//
// The server speaks the same HTTP/JSON interface as the production chat
// service, with in-memory accounts and threads. Replies echo the user's
// message as markdown; no language model is involved.
//
// # Routes
//
//	GET  /                  index page
//	POST /login             {"email", "password"} -> {"success", "message"}
//	GET  /logout            clears the session cookie, redirects to /
//	GET  /select_chatbot    list of chatbot types
//	GET  /chat/{type}       chat page with #chat-container data attributes
//	GET  /get_chat_history  {"thread_id", "messages", "error"}
//	POST /send_message      {"message", "thread_id", "chatbot_type"}
//	POST /new_user          {"chatbot_type"} -> {"success", "thread_id"}
//
// # Sessions
//
// Login checks a bcrypt hash and sets an HS256 JWT cookie. Every
// authenticated request reissues the cookie, so a session ends after
// session_ttl of inactivity. API routes answer 401 without a valid session;
// page routes redirect to the index.
//
// # Display Names
//
// Accounts start as "Usuário Anônimo" unless configured with a name. A
// message such as "eu sou Alice" renames the account when the extracted word
// is longer than two characters, and every earlier user message in the
// thread is relabeled.
package backend
