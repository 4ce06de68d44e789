package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-journal/internal/config"
	"github.com/go-journal/internal/domain"
)

const defaultTimeout = 15 * time.Second

// Client sends messages through the WhatsApp Cloud API.
// Every send returns a domain.SendResult; failures never surface as errors.
type Client struct {
	http          *http.Client
	baseURL       string
	version       string
	phoneNumberID string
	accessToken   string
	language      string
}

// NewClient builds a Client from cfg. A nil httpClient uses a client with a 15s timeout.
func NewClient(cfg config.WhatsApp, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{
		http:          httpClient,
		baseURL:       strings.TrimRight(cfg.APIBase, "/"),
		version:       cfg.APIVersion,
		phoneNumberID: cfg.PhoneNumberID,
		accessToken:   cfg.AccessToken,
		language:      cfg.Language,
	}
}

type textBody struct {
	Body string `json:"body"`
}

type language struct {
	Code string `json:"code"`
}

type parameter struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type component struct {
	Type       string      `json:"type"`
	Parameters []parameter `json:"parameters"`
}

type template struct {
	Name       string      `json:"name"`
	Language   language    `json:"language"`
	Components []component `json:"components,omitempty"`
}

type message struct {
	MessagingProduct string    `json:"messaging_product"`
	RecipientType    string    `json:"recipient_type"`
	To               string    `json:"to"`
	Type             string    `json:"type"`
	Text             *textBody `json:"text,omitempty"`
	Template         *template `json:"template,omitempty"`
}

type response struct {
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// SendTemplate sends a pre-approved template. bodyParams fill the template's
// {{n}} body placeholders in order. An empty languageCode uses the configured default.
func (c *Client) SendTemplate(ctx context.Context, to, templateName string, bodyParams []string, languageCode string) domain.SendResult {
	if languageCode == "" {
		languageCode = c.language
	}
	tpl := &template{Name: templateName, Language: language{Code: languageCode}}
	if len(bodyParams) > 0 {
		params := make([]parameter, len(bodyParams))
		for i, p := range bodyParams {
			params[i] = parameter{Type: "text", Text: p}
		}
		tpl.Components = []component{{Type: "body", Parameters: params}}
	}
	return c.send(ctx, message{Type: "template", To: to, Template: tpl}, "Failed to send template message")
}

// SendMessage sends free-form text. The Cloud API only delivers it inside an
// open 24-hour customer service window.
func (c *Client) SendMessage(ctx context.Context, to, text string) domain.SendResult {
	return c.send(ctx, message{Type: "text", To: to, Text: &textBody{Body: text}}, "Failed to send message")
}

func (c *Client) send(ctx context.Context, msg message, fallback string) domain.SendResult {
	if c.phoneNumberID == "" || c.accessToken == "" {
		return domain.SendResult{Error: "Missing WhatsApp credentials. Set WHATSAPP_PHONE_NUMBER_ID and WHATSAPP_ACCESS_TOKEN"}
	}
	msg.MessagingProduct = "whatsapp"
	msg.RecipientType = "individual"
	msg.To = strings.TrimPrefix(msg.To, "+")

	payload, err := json.Marshal(msg)
	if err != nil {
		return domain.SendResult{Error: err.Error()}
	}
	url := fmt.Sprintf("%s/%s/%s/messages", c.baseURL, c.version, c.phoneNumberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return domain.SendResult{Error: err.Error()}
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		slog.Error("whatsapp send failed", "to", msg.To, "err", err)
		return domain.SendResult{Error: err.Error()}
	}
	defer resp.Body.Close()

	var body response
	decodeErr := json.NewDecoder(resp.Body).Decode(&body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		slog.Error("whatsapp API error", "to", msg.To, "status", resp.StatusCode)
		if decodeErr == nil && body.Error != nil && body.Error.Message != "" {
			return domain.SendResult{Error: body.Error.Message}
		}
		return domain.SendResult{Error: fallback}
	}
	if decodeErr != nil {
		return domain.SendResult{Error: fmt.Sprintf("decode response: %v", decodeErr)}
	}
	res := domain.SendResult{Success: true}
	if len(body.Messages) > 0 {
		res.MessageID = body.Messages[0].ID
	}
	return res
}
