package paginate

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"net/url"
	"strconv"

	"github.com/google/uuid"

	"instapi/pkg/logger"
	"instapi/pkg/wire"
)

const (
	// DefaultCursorParam is the request parameter carrying the cursor.
	DefaultCursorParam = "max_id"
	// DefaultCursorPath is where the next cursor is found in a page.
	DefaultCursorPath = "next_max_id"
	// RankTokenParam is the request parameter carrying the rank token.
	RankTokenParam = "rank_token"
)

// Call describes one page request.
type Call struct {
	Subject    int64
	HasSubject bool
	Params     url.Values
}

// Fetcher performs one page request.
type Fetcher func(ctx context.Context, call Call) (wire.Dict, error)

// ByID adapts a remote operation keyed by a subject identifier. The subject
// must be supplied with WithSubject.
func ByID(fn func(ctx context.Context, id int64, params url.Values) (wire.Dict, error)) Fetcher {
	return func(ctx context.Context, call Call) (wire.Dict, error) {
		if !call.HasSubject {
			return nil, fmt.Errorf("paginate: fetcher requires a subject")
		}
		return fn(ctx, call.Subject, call.Params)
	}
}

// Plain adapts a remote operation that takes no subject.
func Plain(fn func(ctx context.Context, params url.Values) (wire.Dict, error)) Fetcher {
	return func(ctx context.Context, call Call) (wire.Dict, error) {
		return fn(ctx, call.Params)
	}
}

type options struct {
	subject     int64
	hasSubject  bool
	cursorParam string
	cursorPath  string
	rankToken   bool
	newToken    func() (string, error)
	log         logger.Logger
}

// Option configures Pages.
type Option func(*options)

// WithSubject passes id to every fetch.
func WithSubject(id int64) Option {
	return func(o *options) {
		o.subject = id
		o.hasSubject = true
	}
}

// WithCursor overrides the cursor parameter name and the dotted path of the
// next cursor inside a page.
func WithCursor(param, path string) Option {
	return func(o *options) {
		o.cursorParam = param
		o.cursorPath = path
	}
}

// WithRankToken attaches a rank token generated once per run to every fetch.
func WithRankToken() Option {
	return func(o *options) {
		o.rankToken = true
	}
}

// WithTokenSource replaces the rank token generator.
func WithTokenSource(fn func() (string, error)) Option {
	return func(o *options) {
		o.newToken = fn
	}
}

// WithLogger sets the logger used for per-page debug output.
func WithLogger(l logger.Logger) Option {
	return func(o *options) {
		o.log = l
	}
}

// NewRankToken returns a time-based UUID, the format the remote expects.
func NewRankToken() (string, error) {
	id, err := uuid.NewUUID()
	if err != nil {
		return "", fmt.Errorf("generate rank token: %w", err)
	}
	return id.String(), nil
}

// Pages returns the lazy sequence of raw pages produced by fetch. Each range
// over the result starts a new run from the first page.
func Pages(ctx context.Context, fetch Fetcher, opts ...Option) iter.Seq2[wire.Dict, error] {
	o := options{
		cursorParam: DefaultCursorParam,
		cursorPath:  DefaultCursorPath,
		newToken:    NewRankToken,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = logger.GetLogger()
	}

	return func(yield func(wire.Dict, error) bool) {
		var token string
		if o.rankToken {
			var err error
			if token, err = o.newToken(); err != nil {
				yield(nil, err)
				return
			}
		}

		var cursor string
		hasCursor := false
		for page := 1; ; page++ {
			params := url.Values{}
			if o.rankToken {
				params.Set(RankTokenParam, token)
			}
			if hasCursor {
				params.Set(o.cursorParam, cursor)
			}

			o.log.DebugWithFields("fetching page", map[string]interface{}{
				"page":   page,
				"cursor": cursor,
			})

			result, err := fetch(ctx, Call{
				Subject:    o.subject,
				HasSubject: o.hasSubject,
				Params:     params,
			})
			if err != nil {
				yield(nil, err)
				return
			}
			if !yield(result, nil) {
				return
			}

			next, ok := wire.Lookup(result, o.cursorPath)
			if !ok || !truthy(next) {
				return
			}
			cursor = formatCursor(next)
			hasCursor = true
		}
	}
}

func truthy(v any) bool {
	switch c := v.(type) {
	case nil:
		return false
	case string:
		return c != ""
	case bool:
		return c
	case json.Number:
		if f, err := c.Float64(); err == nil {
			return f != 0
		}
		return c != ""
	case float64:
		return c != 0
	case float32:
		return c != 0
	case int:
		return c != 0
	case int64:
		return c != 0
	case int32:
		return c != 0
	case []any:
		return len(c) > 0
	case map[string]any:
		return len(c) > 0
	default:
		return true
	}
}

func formatCursor(v any) string {
	switch c := v.(type) {
	case string:
		return c
	case json.Number:
		return c.String()
	case float64:
		return strconv.FormatFloat(c, 'f', -1, 64)
	default:
		return fmt.Sprint(c)
	}
}
