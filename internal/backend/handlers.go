// ABOUTME: HTTP handlers for the fake backend routes
// ABOUTME: Login, chat page, history, send and new-thread endpoints

package backend

import (
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/2389/coven-chat/internal/chatapi"
)

// authedHandler receives the account the session cookie belongs to.
type authedHandler func(w http.ResponseWriter, r *http.Request, acct *account)

// requireAPI answers 401 JSON when the caller has no valid session.
func (s *Server) requireAPI(next authedHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		acct := s.authenticate(w, r)
		if acct == nil {
			s.sendJSONError(w, http.StatusUnauthorized, "Sessão inválida")
			return
		}
		next(w, r, acct)
	}
}

// requirePage redirects to the index when the caller has no valid session.
func (s *Server) requirePage(next authedHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		acct := s.authenticate(w, r)
		if acct == nil {
			http.Redirect(w, r, "/", http.StatusFound)
			return
		}
		next(w, r, acct)
	}
}

// authenticate verifies the session cookie and reissues it so the expiry
// slides with activity.
func (s *Server) authenticate(w http.ResponseWriter, r *http.Request) *account {
	ck, err := r.Cookie(SessionCookie)
	if err != nil {
		return nil
	}
	email, err := s.signer.Verify(ck.Value)
	if err != nil {
		s.logger.Debug("rejected session cookie", "error", err)
		return nil
	}

	s.mu.Lock()
	acct := s.accounts[strings.ToLower(email)]
	s.mu.Unlock()
	if acct == nil {
		return nil
	}

	s.setSessionCookie(w, acct.email)
	return acct
}

func (s *Server) setSessionCookie(w http.ResponseWriter, email string) {
	token, err := s.signer.Issue(email)
	if err != nil {
		s.logger.Error("failed to issue session token", "error", err)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(s.signer.TTL().Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTemplate.Execute(w, nil); err != nil {
		s.logger.Error("rendering index", "error", err)
	}
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req chatapi.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendJSONError(w, http.StatusBadRequest, "Requisição deve ser JSON")
		return
	}
	if req.Email == "" || req.Password == "" {
		s.sendJSON(w, http.StatusOK, chatapi.LoginResponse{Message: "Email e senha são obrigatórios"})
		return
	}

	s.mu.Lock()
	acct := s.accounts[strings.ToLower(req.Email)]
	s.mu.Unlock()

	if acct == nil || bcrypt.CompareHashAndPassword(acct.hash, []byte(req.Password)) != nil {
		s.logger.Warn("login rejected", "email", req.Email)
		s.sendJSON(w, http.StatusOK, chatapi.LoginResponse{Message: "Credenciais inválidas"})
		return
	}

	s.setSessionCookie(w, acct.email)
	s.logger.Info("login succeeded", "email", acct.email)
	s.sendJSON(w, http.StatusOK, chatapi.LoginResponse{Success: true})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	http.Redirect(w, r, "/", http.StatusFound)
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request, _ *account) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := selectTemplate.Execute(w, s.cfg.ChatbotTypes); err != nil {
		s.logger.Error("rendering chatbot list", "error", err)
	}
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request, acct *account) {
	chatbotType := r.PathValue("type")
	if !s.validType(chatbotType) {
		s.logger.Warn("unknown chatbot type", "chatbot_type", chatbotType)
		http.Redirect(w, r, "/select_chatbot", http.StatusFound)
		return
	}

	s.mu.Lock()
	threadID := s.threadFor(acct, chatbotType)
	s.mu.Unlock()

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err := chatTemplate.Execute(w, chatapi.Page{ThreadID: threadID, ChatbotType: chatbotType})
	if err != nil {
		s.logger.Error("rendering chat page", "error", err)
	}
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request, acct *account) {
	threadID := r.URL.Query().Get("thread_id")
	chatbotType := r.URL.Query().Get("chatbot_type")

	s.mu.Lock()
	defer s.mu.Unlock()

	if threadID == "" {
		// Fall back to the caller's current thread for the chatbot, if any.
		threadID = acct.threads[chatbotType]
	}
	if threadID == "" {
		s.sendJSON(w, http.StatusOK, chatapi.HistoryResponse{Error: "ID de thread não especificado"})
		return
	}

	resp := chatapi.HistoryResponse{ThreadID: threadID, Messages: []chatapi.Message{}}
	if th, ok := s.threads[threadID]; ok {
		if th.owner != acct.email {
			s.sendJSONError(w, http.StatusForbidden, "Thread pertence a outro usuário")
			return
		}
		if chatbotType == "" || chatbotType == th.chatbotType {
			resp.Messages = append(resp.Messages, th.messages...)
		}
	}
	s.sendJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request, acct *account) {
	var req chatapi.SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendJSONError(w, http.StatusBadRequest, "Requisição deve ser JSON")
		return
	}

	message := strings.TrimSpace(req.Message)
	threadID := deref(req.ThreadID)
	chatbotType := deref(req.ChatbotType)

	var missing []string
	for _, f := range []struct{ name, value string }{
		{"message", message},
		{"thread_id", threadID},
		{"chatbot_type", chatbotType},
	} {
		if f.value == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		s.sendJSONError(w, http.StatusBadRequest, fmt.Sprintf("Campos obrigatórios ausentes: %v", missing))
		return
	}
	if !s.validType(chatbotType) {
		s.sendJSONError(w, http.StatusBadRequest, "Tipo de chatbot inválido")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	th, ok := s.threads[threadID]
	if !ok {
		// Threads from an earlier run are adopted rather than rejected.
		th = &thread{id: threadID, owner: acct.email, chatbotType: chatbotType}
		s.threads[threadID] = th
	}
	if th.owner != acct.email {
		s.sendJSONError(w, http.StatusForbidden, "Thread pertence a outro usuário")
		return
	}

	th.messages = append(th.messages, chatapi.Message{
		Role:      chatapi.RoleUser,
		Content:   message,
		Timestamp: s.timestamp(),
		UserName:  acct.name,
	})

	reply := fmt.Sprintf("Você disse: **%s**", message)
	th.messages = append(th.messages, chatapi.Message{
		Role:      chatapi.RoleAssistant,
		Content:   reply,
		Timestamp: s.timestamp(),
	})

	if name := ExtractName(message); acceptName(name, acct.name) {
		acct.name = name
		for i := range th.messages {
			if th.messages[i].Role == chatapi.RoleUser {
				th.messages[i].UserName = name
			}
		}
		s.logger.Info("display name updated", "email", acct.email, "name", name)
	}

	s.sendJSON(w, http.StatusOK, chatapi.SendMessageResponse{
		Response: reply,
		UserName: acct.name,
		ThreadID: threadID,
	})
}

func (s *Server) handleNewUser(w http.ResponseWriter, r *http.Request, acct *account) {
	var req chatapi.NewUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendJSONError(w, http.StatusBadRequest, "Requisição deve ser JSON")
		return
	}

	chatbotType := deref(req.ChatbotType)
	if chatbotType == "" {
		s.sendJSONError(w, http.StatusBadRequest, "Tipo de chatbot não especificado")
		return
	}
	if !s.validType(chatbotType) {
		s.sendJSONError(w, http.StatusBadRequest, "Tipo de chatbot inválido")
		return
	}

	s.mu.Lock()
	threadID := s.newThread(acct, chatbotType)
	s.mu.Unlock()

	s.sendJSON(w, http.StatusOK, map[string]any{
		"success":      true,
		"user_id":      acct.email,
		"thread_id":    threadID,
		"chatbot_type": chatbotType,
	})
}

func (s *Server) sendJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}

// sendJSONError writes a JSON error response.
func (s *Server) sendJSONError(w http.ResponseWriter, status int, message string) {
	s.sendJSON(w, status, map[string]string{"error": message})
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return strings.TrimSpace(*p)
}

var indexTemplate = template.Must(template.New("index").Parse(`<!doctype html>
<html lang="pt-BR">
<head><meta charset="utf-8"><title>coven-chat</title></head>
<body>
<main id="login">
<p>POST /login with {"email", "password"} to sign in.</p>
</main>
</body>
</html>
`))

var selectTemplate = template.Must(template.New("select").Parse(`<!doctype html>
<html lang="pt-BR">
<head><meta charset="utf-8"><title>Escolha o chatbot</title></head>
<body>
<ul id="chatbots">
{{range .}}<li><a href="/chat/{{.}}">{{.}}</a></li>
{{end}}</ul>
</body>
</html>
`))

var chatTemplate = template.Must(template.New("chat").Parse(`<!doctype html>
<html lang="pt-BR">
<head><meta charset="utf-8"><title>Chat {{.ChatbotType}}</title></head>
<body>
<div id="chat-container" data-thread-id="{{.ThreadID}}" data-chatbot-type="{{.ChatbotType}}">
<div id="chat-messages"></div>
<form id="chat-form"><input id="message-input" type="text"><button type="submit">Enviar</button></form>
<button id="new-user-btn" type="button">Nova conversa</button>
</div>
</body>
</html>
`))
