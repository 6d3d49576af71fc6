package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"
)

const DefaultOpenAIBaseURL = "https://api.openai.com"

type OpenAIClient struct {
	apiKey  string
	model   string
	baseURL string
	http    *http.Client
}

func NewOpenAIClient(apiKey, model string) *OpenAIClient {
	if model == "" {
		model = "gpt-4o"
	}
	return &OpenAIClient{
		apiKey:  apiKey,
		model:   model,
		baseURL: DefaultOpenAIBaseURL,
		http:    &http.Client{Timeout: 60 * time.Second},
	}
}

// WithBaseURL returns a copy of the client pointed at another host.
func (o *OpenAIClient) WithBaseURL(u string) *OpenAIClient {
	c := *o
	c.baseURL = strings.TrimRight(u, "/")
	return &c
}

// BuildDescriptionPrompt asks for a 3-5 sentence guest-facing description.
func BuildDescriptionPrompt(name, websiteURL, content string) string {
	var b strings.Builder
	if name != "" {
		fmt.Fprintf(&b, "Property: %s\n\n", name)
	}
	b.WriteString(`Analyze the following website content and write a 3-5 sentence description of this glamping property. Focus on:

1. Property overview/type (glamping resort, campground, etc.)
2. Unit types available (tents, cabins, yurts, etc.)
3. Key amenities and features
4. Unique features or setting

Write a compelling, natural description that would help potential guests understand what this property offers. Make it exactly 3-5 sentences.

`)
	fmt.Fprintf(&b, "Website URL: %s\n\nWebsite Content:\n%s", websiteURL, content)
	return b.String()
}

var sentenceEnd = regexp.MustCompile(`[.!?]+`)

// SentenceCount counts runs of terminal punctuation.
func SentenceCount(s string) int {
	return len(sentenceEnd.FindAllString(s, -1))
}

// Describe generates a description from website text.
func (o *OpenAIClient) Describe(ctx context.Context, name, websiteURL, content string) (string, error) {
	if o.apiKey == "" {
		return "", errors.New("missing OPENAI_API_KEY")
	}
	if strings.TrimSpace(content) == "" {
		return "", errors.New("empty website content")
	}

	payload := map[string]any{
		"model": o.model,
		"messages": []map[string]string{
			{"role": "user", "content": BuildDescriptionPrompt(name, websiteURL, content)},
		},
		"temperature": 0.7,
		"max_tokens":  300,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/v1/chat/completions", bytes.NewBuffer(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+o.apiKey)

	resp, err := o.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("openai api error: %s", strings.TrimSpace(string(raw)))
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		return "", err
	}
	if len(result.Choices) == 0 {
		return "", errors.New("no description generated")
	}
	desc := strings.Trim(strings.TrimSpace(result.Choices[0].Message.Content), `"`)
	if desc == "" {
		return "", errors.New("no description generated")
	}
	return desc, nil
}
