package browser

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/tidwall/gjson"
)

// ResolveTarget returns the WebSocket debugger URL for endpoint. A ws:// or
// wss:// URL is returned unchanged. For an http(s) DevTools endpoint the
// first page target from /json/list is used, and a blank page is opened
// when the browser has none.
func ResolveTarget(ctx context.Context, client *http.Client, endpoint string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(endpoint))
	if err != nil {
		return "", fmt.Errorf("invalid devtools endpoint %q: %w", endpoint, err)
	}
	switch u.Scheme {
	case "ws", "wss":
		return u.String(), nil
	case "http", "https":
	default:
		return "", fmt.Errorf("invalid devtools endpoint %q: scheme must be ws, wss, http or https", endpoint)
	}
	if client == nil {
		client = http.DefaultClient
	}
	base := strings.TrimRight(u.String(), "/")

	body, err := fetch(ctx, client, http.MethodGet, base+"/json/list")
	if err != nil {
		return "", err
	}
	if ws := gjson.GetBytes(body, `#(type=="page").webSocketDebuggerUrl`).String(); ws != "" {
		return ws, nil
	}

	body, err = fetch(ctx, client, http.MethodPut, base+"/json/new?about:blank")
	if err != nil {
		return "", err
	}
	if ws := gjson.GetBytes(body, "webSocketDebuggerUrl").String(); ws != "" {
		return ws, nil
	}
	return "", fmt.Errorf("devtools endpoint %s has no page target", base)
}

func fetch(ctx context.Context, client *http.Client, method, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, target, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", target, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", target, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s %s: unexpected status %s", method, target, resp.Status)
	}
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("%s %s: response is not JSON", method, target)
	}
	return body, nil
}
