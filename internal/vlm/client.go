package vlm

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"golang.org/x/time/rate"

	"github.com/fireflysoft/intellidoc/internal/common"
	"github.com/fireflysoft/intellidoc/internal/entity"
)

// Client talks to an OpenAI-compatible chat completions endpoint with
// vision support. All calls go through a shared rate limiter.
type Client struct {
	cfg     common.VLMConfig
	http    *http.Client
	limiter *rate.Limiter
}

func NewClient(cfg common.VLMConfig) *Client {
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 2
	}
	return &Client{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
	}
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	Temperature    float64       `json:"temperature"`
	ResponseFormat *respFormat   `json:"response_format,omitempty"`
}

type respFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// CompleteJSON sends a vision prompt and decodes the model's JSON reply
// into out. When schema is non-nil the reply is validated against it
// before decoding, so malformed model output surfaces as one error
// instead of partially-populated structs. Returns total tokens used.
func (c *Client) CompleteJSON(ctx context.Context, system, user string, pages []entity.PageImage, schema *jsonschema.Schema, out any) (int, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return 0, err
	}

	parts := []contentPart{{Type: "text", Text: user}}
	for _, p := range pages {
		dataURL, err := encodePageImage(p.ImagePath)
		if err != nil {
			return 0, err
		}
		parts = append(parts, contentPart{Type: "image_url", ImageURL: &imageURL{URL: dataURL}})
	}

	payload := chatRequest{
		Model:          c.cfg.Model,
		Temperature:    c.cfg.Temperature,
		ResponseFormat: &respFormat{Type: "json_object"},
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: parts},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return 0, fmt.Errorf("marshal chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		strings.TrimSuffix(c.cfg.BaseURL, "/")+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("vlm request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("read vlm response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("vlm returned status %d: %s", resp.StatusCode, truncate(string(raw), 300))
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return 0, fmt.Errorf("decode vlm response: %w", err)
	}
	if parsed.Error != nil {
		return 0, fmt.Errorf("vlm error (%s): %s", parsed.Error.Type, parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return parsed.Usage.TotalTokens, fmt.Errorf("vlm returned no choices")
	}

	content := extractJSON(parsed.Choices[0].Message.Content)
	if schema != nil {
		var v any
		if err := json.Unmarshal([]byte(content), &v); err != nil {
			return parsed.Usage.TotalTokens, fmt.Errorf("vlm reply is not JSON: %w", err)
		}
		if err := schema.Validate(v); err != nil {
			return parsed.Usage.TotalTokens, fmt.Errorf("vlm reply does not match expected schema: %w", err)
		}
	}
	if err := json.Unmarshal([]byte(content), out); err != nil {
		return parsed.Usage.TotalTokens, fmt.Errorf("decode vlm reply: %w", err)
	}
	return parsed.Usage.TotalTokens, nil
}

// extractJSON strips markdown code fences that some models wrap around
// JSON replies despite the response_format hint.
func extractJSON(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if i := strings.LastIndex(s, "```"); i >= 0 {
			s = s[:i]
		}
		s = strings.TrimSpace(s)
	}
	// Fall back to the outermost braces when the model adds prose.
	if !strings.HasPrefix(s, "{") {
		if start := strings.Index(s, "{"); start >= 0 {
			if end := strings.LastIndex(s, "}"); end > start {
				s = s[start : end+1]
			}
		}
	}
	return s
}

func encodePageImage(path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read page image %s: %w", path, err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(raw), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// mustCompileSchema compiles an inline response schema at init.
func mustCompileSchema(name string, raw map[string]any) *jsonschema.Schema {
	b, err := json.Marshal(raw)
	if err != nil {
		panic(fmt.Sprintf("marshal %s schema: %v", name, err))
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name+".json", bytes.NewReader(b)); err != nil {
		panic(fmt.Sprintf("add %s schema: %v", name, err))
	}
	schema, err := compiler.Compile(name + ".json")
	if err != nil {
		panic(fmt.Sprintf("compile %s schema: %v", name, err))
	}
	return schema
}
