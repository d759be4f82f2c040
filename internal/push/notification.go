// Package push registers browsers for Web Push delivery and sends store
// offers to them.
package push

import (
	"encoding/json"
	"strings"
)

// Notification defaults
const (
	DefaultTitle = "BV Celular"
	DefaultBody  = "Nova oferta disponível!"
	DefaultURL   = "/"
)

// Notification is the payload delivered to a subscribed browser
type Notification struct {
	Title string `json:"title,omitempty" validate:"max=120"`
	Body  string `json:"body,omitempty" validate:"max=500"`
	Image string `json:"image,omitempty" validate:"omitempty,url"`
	URL   string `json:"url,omitempty" validate:"omitempty,max=2048"`
}

// Action is a button shown on a system notification
type Action struct {
	Action string `json:"action"`
	Title  string `json:"title"`
}

// Display is what the service worker hands to showNotification
type Display struct {
	Title   string            `json:"title"`
	Body    string            `json:"body"`
	Image   string            `json:"image,omitempty"`
	Actions []Action          `json:"actions"`
	Data    map[string]string `json:"data"`
}

// ParsePushEvent reads a push event payload. Missing or unreadable fields fall
// back to the defaults.
func ParsePushEvent(data []byte) Notification {
	var n Notification
	if len(data) > 0 {
		// a malformed payload still shows the default notification
		_ = json.Unmarshal(data, &n)
	}
	return n.withDefaults()
}

func (n Notification) withDefaults() Notification {
	if strings.TrimSpace(n.Title) == "" {
		n.Title = DefaultTitle
	}
	if strings.TrimSpace(n.Body) == "" {
		n.Body = DefaultBody
	}
	if strings.TrimSpace(n.URL) == "" {
		n.URL = DefaultURL
	}
	return n
}

// Display builds the system notification with its single offer action
func (n Notification) Display() Display {
	n = n.withDefaults()
	return Display{
		Title:   n.Title,
		Body:    n.Body,
		Image:   n.Image,
		Actions: []Action{{Action: "open", Title: "Ver Oferta"}},
		Data:    map[string]string{"url": n.URL},
	}
}

// Encode returns the JSON body sent through the push service
func (n Notification) Encode() ([]byte, error) {
	return json.Marshal(n.withDefaults())
}

// ClickTarget returns the page a notification click opens
func ClickTarget(data map[string]string) string {
	if url := strings.TrimSpace(data["url"]); url != "" {
		return url
	}
	return DefaultURL
}
