package optimizer

import (
	"context"
	"strings"
	"sync"

	loremgen "github.com/bozaro/golorem"
)

// LoremRewriter returns placeholder text. Used for development without an
// API key.
type LoremRewriter struct {
	mu        sync.Mutex
	generator *loremgen.Lorem
}

func NewLoremRewriter() *LoremRewriter {
	return &LoremRewriter{generator: loremgen.New()}
}

func (l *LoremRewriter) Name() string { return "lorem" }

func (l *LoremRewriter) Rewrite(ctx context.Context, req Request) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	paragraphs := strings.Count(strings.TrimSpace(req.ContentBlock), "\n\n") + 1
	var sb strings.Builder
	for i := 0; i < paragraphs; i++ {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(l.generator.Paragraph(3, 5))
	}

	return &Response{
		OptimizedContentBlock: sb.String(),
		Explanation:           l.generator.Sentence(8, 12),
	}, nil
}
