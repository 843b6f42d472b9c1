package languagetool

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/mikey/translation-grader/internal/core"
	"go.uber.org/zap"
)

// DefaultEndpoint is the public LanguageTool check endpoint
const DefaultEndpoint = "https://api.languagetool.org/v2/check"

// Client is an implementation of the GrammarChecker interface using the LanguageTool HTTP API
type Client struct {
	endpoint string
	language string
	client   *http.Client
	logger   *zap.Logger
}

type checkResponse struct {
	Matches []struct {
		Offset  int    `json:"offset"`
		Length  int    `json:"length"`
		Message string `json:"message"`
		Rule    struct {
			ID        string `json:"id"`
			IssueType string `json:"issueType"`
			Category  struct {
				ID string `json:"id"`
			} `json:"category"`
		} `json:"rule"`
		Replacements []struct {
			Value string `json:"value"`
		} `json:"replacements"`
	} `json:"matches"`
}

// NewClient creates a new LanguageTool client
func NewClient(endpoint, language string, client *http.Client, logger *zap.Logger) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &Client{
		endpoint: endpoint,
		language: language,
		client:   client,
		logger:   logger,
	}
}

// Language returns the checker language
func (c *Client) Language() string {
	return c.language
}

// Check posts text to LanguageTool and returns its matches
func (c *Client) Check(ctx context.Context, text string) ([]core.RawMatch, error) {
	form := url.Values{}
	form.Set("language", c.language)
	form.Set("text", text)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create LanguageTool request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call LanguageTool: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("LanguageTool returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var parsed checkResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode LanguageTool response: %w", err)
	}

	matches := make([]core.RawMatch, 0, len(parsed.Matches))
	for _, m := range parsed.Matches {
		replacements := make([]string, 0, len(m.Replacements))
		for _, r := range m.Replacements {
			replacements = append(replacements, r.Value)
		}
		matches = append(matches, core.RawMatch{
			Offset:       m.Offset,
			Length:       m.Length,
			Message:      m.Message,
			IssueType:    m.Rule.IssueType,
			CategoryID:   m.Rule.Category.ID,
			Replacements: replacements,
		})
	}

	c.logger.Debug("LanguageTool check complete",
		zap.String("language", c.language),
		zap.Int("matches", len(matches)))

	return matches, nil
}
