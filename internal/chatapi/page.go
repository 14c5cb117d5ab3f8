// ABOUTME: Chat page fetch and parsing for the page-embedded thread id
// ABOUTME: Walks the HTML tree for #chat-container and reads its data attributes

package chatapi

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"golang.org/x/net/html"
)

// chatContainerID is the element id the chat page puts its identifiers on.
const chatContainerID = "chat-container"

// OpenChat loads the chat page for chatbotType and returns the identifiers
// the server embedded in it. Loading the page is also what makes the backend
// allocate a thread for a user who has none.
func (c *Client) OpenChat(ctx context.Context, chatbotType string) (*Page, error) {
	if chatbotType == "" {
		return nil, fmt.Errorf("opening chat: chatbot type required")
	}

	resp, err := c.do(ctx, http.MethodGet, "/chat/"+url.PathEscape(chatbotType), nil, nil)
	if err != nil {
		return nil, fmt.Errorf("opening chat: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
		return nil, statusError(resp, body)
	}

	page, err := ParsePage(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("opening chat: %w", err)
	}
	return page, nil
}

// ParsePage extracts the data-thread-id and data-chatbot-type attributes of
// the #chat-container element.
func ParsePage(r io.Reader) (*Page, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parsing page: %w", err)
	}

	node := findByID(doc, chatContainerID)
	if node == nil {
		return nil, ErrNoChatContainer
	}

	return &Page{
		ThreadID:    attr(node, "data-thread-id"),
		ChatbotType: attr(node, "data-chatbot-type"),
	}, nil
}

func findByID(n *html.Node, id string) *html.Node {
	if n.Type == html.ElementNode && attr(n, "id") == id {
		return n
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if found := findByID(child, id); found != nil {
			return found
		}
	}
	return nil
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
