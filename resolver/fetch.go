package resolver

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/net/html"
	"golang.org/x/time/rate"

	. "vemoji/common"
)

func MakeRequest(ctx context.Context, method string, targetURL string) (*http.Response, error) {
	if err := CheckURL(targetURL); err != nil {
		return nil, err
	}

	client := http.Client{
		Timeout:       FetchTimeout,
		CheckRedirect: CheckRedirect,
	}

	req, err := http.NewRequestWithContext(ctx, method, targetURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", UserAgent)

	resp, err := client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("request timed out or cancelled: %w", ctx.Err())
		}
		return nil, fmt.Errorf("request failed: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	return resp, nil
}

// FetchSource downloads and validates one candidate URL. Anything that is
// not a complete, well-formed vector image is an error, so the cache can
// never be fed partial or bogus content. A non-nil limiter caps the
// download bandwidth (preload fetches use this).
func FetchSource(ctx context.Context, targetURL string, limiter *rate.Limiter) (string, error) {
	resp, err := MakeRequest(ctx, http.MethodGet, targetURL)
	if err != nil {
		return "", NewError(ErrorCodeUpstreamFailure, err)
	}
	defer resp.Body.Close()

	var reader io.Reader = io.LimitReader(resp.Body, MaxContentLength+1)
	if limiter != nil {
		reader = NewLimiterReader(reader, limiter)
	}

	bytes, err := io.ReadAll(reader)
	if err != nil {
		return "", NewError(ErrorCodeUpstreamFailure, fmt.Errorf("failed to read content: %w", err))
	}

	if int64(len(bytes)) > MaxContentLength {
		return "", NewError(ErrorCodeUpstreamFailure, fmt.Errorf("content too large: over %d bytes", MaxContentLength))
	}

	if !mimetype.Detect(bytes).Is("image/svg+xml") {
		return "", NewError(ErrorCodeUpstreamFailure, fmt.Errorf("content is not a vector image"))
	}

	content := string(bytes)
	if _, err := InspectMarkup(content); err != nil {
		return "", NewError(ErrorCodeUpstreamFailure, err)
	}

	return content, nil
}

// Markup holds the display attributes pulled off a fetched vector image.
type Markup struct {
	Width   int
	Height  int
	ViewBox string
}

// InspectMarkup parses vector markup and extracts the root svg element's
// attributes, erroring when no svg element is present.
func InspectMarkup(content string) (*Markup, error) {
	node, err := html.Parse(strings.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("failed to parse markup: %w", err)
	}

	var markup *Markup

	var traverse func(*html.Node)
	traverse = func(n *html.Node) {
		if markup != nil {
			return
		}

		if n.Type == html.ElementNode && n.Data == "svg" {
			markup = &Markup{}
			for _, attr := range n.Attr {
				switch strings.ToLower(attr.Key) {
				case "width":
					if width, err := strconv.Atoi(attr.Val); err == nil {
						markup.Width = width
					}
				case "height":
					if height, err := strconv.Atoi(attr.Val); err == nil {
						markup.Height = height
					}
				case "viewbox":
					markup.ViewBox = attr.Val
				}
			}
			return
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			traverse(c)
		}
	}
	traverse(node)

	if markup == nil {
		return nil, fmt.Errorf("markup has no svg element")
	}

	return markup, nil
}
