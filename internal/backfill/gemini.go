package backfill

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"feed-gallery/internal/config"
	"feed-gallery/internal/domain/gallery"
	"feed-gallery/internal/observability"
)

// PageResult is the per-page block of the vision API response: the echoed
// page number plus one metadata entry per image sent for that page, in
// send order.
type PageResult struct {
	Page int                `json:"page"`
	Data []gallery.Metadata `json:"data"`
}

// Generator produces metadata for page-demarcated image batches.
type Generator interface {
	Generate(ctx context.Context, batches []PageBatch) ([]PageResult, error)
}

// GeminiGenerator implements Generator against the Google Gemini API with
// a schema-constrained JSON response.
type GeminiGenerator struct {
	client      *genai.Client
	model       string
	temperature float32
	logger      *observability.Logger
}

// NewGeminiGenerator creates the Gemini-backed generator. A missing API key
// or failed client construction is an SDK initialization failure, terminal
// for any backfill run that needs it.
func NewGeminiGenerator(ctx context.Context, cfg config.AIConfig, logger *observability.Logger) (*GeminiGenerator, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: GEMINI_API_KEY not set", gallery.ErrSDKInit)
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", gallery.ErrSDKInit, err)
	}

	return &GeminiGenerator{
		client:      client,
		model:       cfg.Model,
		temperature: float32(cfg.Temperature),
		logger:      logger,
	}, nil
}

// Close releases the underlying API client.
func (g *GeminiGenerator) Close() error {
	return g.client.Close()
}

// Generate sends one request covering all batches: an instruction block,
// then for each page a text marker naming the page number followed by that
// page's image blobs. The response is constrained to the JSON schema so
// positional correspondence within a page is machine-checkable.
func (g *GeminiGenerator) Generate(ctx context.Context, batches []PageBatch) ([]PageResult, error) {
	model := g.client.GenerativeModel(g.model)
	model.SetTemperature(g.temperature)
	// No output token cap: truncated JSON would read as a shape violation
	// and void the whole run.
	model.ResponseMIMEType = "application/json"
	model.ResponseSchema = responseSchema()

	parts := buildParts(batches)

	resp, err := model.GenerateContent(ctx, parts...)
	if err != nil {
		return nil, fmt.Errorf("vision request failed: %w", err)
	}

	text, err := responseText(resp)
	if err != nil {
		return nil, err
	}

	g.logger.Debug(ctx).Int("response_bytes", len(text)).Msg("received vision response")

	return parseResults(text)
}

// buildParts assembles the multi-part request content: instructions first,
// then page-demarcated image blocks.
func buildParts(batches []PageBatch) []genai.Part {
	var sb strings.Builder
	sb.WriteString("You are cataloguing a photo gallery. For every image that follows, ")
	sb.WriteString("produce a short category (one or two words), a one-sentence description, ")
	sb.WriteString("and a plausible author name.\n")
	sb.WriteString("Images are grouped by feed page; each group is preceded by a marker naming its page number.\n")
	sb.WriteString("Return one result object per page. Within a page, return exactly one metadata entry per image, ")
	sb.WriteString("in the order the images appear. Counts per page:\n")
	for _, b := range batches {
		fmt.Fprintf(&sb, "- page %d: %d images\n", b.PageNumber, len(b.Items))
	}

	parts := []genai.Part{genai.Text(sb.String())}
	for _, b := range batches {
		parts = append(parts, genai.Text(fmt.Sprintf("Page %d:", b.PageNumber)))
		for _, item := range b.Items {
			parts = append(parts, genai.Blob{MIMEType: item.MIMEType, Data: item.Data})
		}
	}
	return parts
}

// responseSchema is the hard contract with the vision backend: an array of
// page blocks whose data entries all carry non-empty category, description
// and authorName strings.
func responseSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeArray,
		Items: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"page": {
					Type:        genai.TypeInteger,
					Description: "feed page number exactly as given in the page marker",
				},
				"data": {
					Type:        genai.TypeArray,
					Description: "exactly one entry per image sent for this page, in send order",
					Items: &genai.Schema{
						Type: genai.TypeObject,
						Properties: map[string]*genai.Schema{
							"category":    {Type: genai.TypeString},
							"description": {Type: genai.TypeString},
							"authorName":  {Type: genai.TypeString},
						},
						Required: []string{"category", "description", "authorName"},
					},
				},
			},
			Required: []string{"page", "data"},
		},
	}
}

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("no candidates returned from vision API")
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", fmt.Errorf("empty content returned from vision API")
	}

	var sb strings.Builder
	for _, part := range candidate.Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			sb.WriteString(string(txt))
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("unexpected response format from vision API")
	}

	return sb.String(), nil
}

// parseResults decodes the JSON response, tolerating markdown code fences
// some models wrap around JSON output despite the response MIME type.
func parseResults(text string) ([]PageResult, error) {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		text = strings.TrimSuffix(strings.TrimSpace(text), "```")
		text = strings.TrimSpace(text)
	}

	var results []PageResult
	if err := json.Unmarshal([]byte(text), &results); err != nil {
		return nil, fmt.Errorf("failed to decode vision response: %w", err)
	}

	return results, nil
}
