package optimizer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/tidwall/gjson"

	"github.com/MrSnakeDoc/readmehub/internal/domain"
	"github.com/MrSnakeDoc/readmehub/internal/logger"
)

// MaxContentLength caps the content block sent for rewriting, in runes.
const MaxContentLength = 20000

// ErrFailed is what callers see for any rewriting failure.
var ErrFailed = errors.New("failed to optimize content")

// Request is a content block to rewrite plus what the site is about.
// ExampleSites is a comma-separated list.
type Request struct {
	ContentBlock   string `json:"contentBlock"`
	WebsiteType    string `json:"websiteType"`
	TargetAudience string `json:"targetAudience"`
	ExampleSites   string `json:"exampleSites"`
}

// Response is the rewritten block and why it changed.
type Response struct {
	OptimizedContentBlock string `json:"optimizedContentBlock"`
	Explanation           string `json:"explanation"`
}

// Rewriter performs one rewrite. Implementations are opaque text services.
type Rewriter interface {
	Rewrite(ctx context.Context, req Request) (*Response, error)
	Name() string
}

// Defaults fill in request fields the admin left blank.
type Defaults struct {
	WebsiteType    string
	TargetAudience string
	ExampleSites   []string
}

// WithDefaults returns r with empty fields taken from d.
func (r Request) WithDefaults(d Defaults) Request {
	if strings.TrimSpace(r.WebsiteType) == "" {
		r.WebsiteType = d.WebsiteType
	}
	if strings.TrimSpace(r.TargetAudience) == "" {
		r.TargetAudience = d.TargetAudience
	}
	if strings.TrimSpace(r.ExampleSites) == "" {
		r.ExampleSites = strings.Join(d.ExampleSites, ", ")
	}
	return r
}

func (r *Request) Validate() error {
	err := validation.ValidateStruct(r,
		validation.Field(&r.ContentBlock,
			validation.Required.Error("Content block is required."),
			validation.RuneLength(0, MaxContentLength).Error("Content block is too long."),
		),
		validation.Field(&r.WebsiteType, validation.Required.Error("Website type is required.")),
		validation.Field(&r.TargetAudience, validation.Required.Error("Target audience is required.")),
	)
	if err == nil {
		return nil
	}
	var verrs validation.Errors
	if !errors.As(err, &verrs) {
		return err
	}
	fields := make(map[string]string, len(verrs))
	for k, v := range verrs {
		fields[k] = v.Error()
	}
	return domain.NewValidation("Invalid optimization request.", fields)
}

// Service validates requests, applies site defaults and hides rewriter
// failures behind ErrFailed.
type Service struct {
	rewriter Rewriter
	defaults Defaults
	logger   logger.Logger
}

func NewService(rewriter Rewriter, defaults Defaults, log logger.Logger) *Service {
	return &Service{
		rewriter: rewriter,
		defaults: defaults,
		logger:   log.With(logger.String("rewriter", rewriter.Name())),
	}
}

// Backend names the rewriter in use.
func (s *Service) Backend() string {
	return s.rewriter.Name()
}

// Optimize rewrites req. Validation failures come back as *domain.Error;
// everything else is ErrFailed.
func (s *Service) Optimize(ctx context.Context, req Request) (*Response, error) {
	req = req.WithDefaults(s.defaults)
	if err := req.Validate(); err != nil {
		return nil, err
	}

	resp, err := s.rewriter.Rewrite(ctx, req)
	if err != nil {
		s.logger.Error("content optimization failed", logger.Error(err))
		return nil, ErrFailed
	}
	return resp, nil
}

// BuildPrompt renders the instruction sent to a language model.
func BuildPrompt(req Request) string {
	var b strings.Builder
	b.WriteString("Analyze the provided content block, website type, target audience, and example sites, ")
	b.WriteString("and rewrite the content block to maximize user engagement.\n\n")
	fmt.Fprintf(&b, "Content Block: %s\n", req.ContentBlock)
	fmt.Fprintf(&b, "Website Type: %s\n", req.WebsiteType)
	fmt.Fprintf(&b, "Target Audience: %s\n", req.TargetAudience)
	fmt.Fprintf(&b, "Example Sites: %s\n\n", req.ExampleSites)
	b.WriteString("Consider readability, formatting, relevant keywords, a clear call to action, and SEO.\n\n")
	b.WriteString(`Reply with a single JSON object with two string fields: "optimizedContentBlock" `)
	b.WriteString(`holding the rewritten block, keeping its HTML or markdown formatting, and "explanation" `)
	b.WriteString("describing the changes and why they should improve engagement.")
	return b.String()
}

// ParseResponse extracts the JSON object from model output. Code fences and
// prose around the object are tolerated.
func ParseResponse(text string) (*Response, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end < start {
		return nil, fmt.Errorf("no JSON object in model output")
	}
	raw := text[start : end+1]
	if !gjson.Valid(raw) {
		return nil, fmt.Errorf("model output is not valid JSON")
	}

	fields := gjson.GetMany(raw, "optimizedContentBlock", "explanation")
	if fields[0].Type != gjson.String || strings.TrimSpace(fields[0].String()) == "" {
		return nil, fmt.Errorf("model output has no optimizedContentBlock")
	}
	return &Response{
		OptimizedContentBlock: fields[0].String(),
		Explanation:           fields[1].String(),
	}, nil
}
