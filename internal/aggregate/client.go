package aggregate

import (
	"bufio"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/doodad-labs/throwaway-email-checker/internal/domain"
)

// DefaultTLDURL is IANA's official TLD list.
const DefaultTLDURL = "https://data.iana.org/TLD/tlds-alpha-by-domain.txt"

// maxBodyBytes caps a single source download.
const maxBodyBytes = 64 << 20

var errUnsupportedKind = errors.New("unsupported source kind")

// Fetcher returns the raw candidate strings of one source.
type Fetcher interface {
	Fetch(ctx context.Context, src SourceDescriptor) ([]string, error)
}

// Client fetches sources over HTTP.
type Client struct {
	http      *http.Client
	userAgent string
}

func NewClient(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		http: &http.Client{
			Timeout: timeout,
		},
		userAgent: "throwaway-aggregate/1",
	}
}

// Fetch downloads src and extracts candidates according to its kind.
// Candidates are returned as found; normalization is the caller's job.
func (c *Client) Fetch(ctx context.Context, src SourceDescriptor) ([]string, error) {
	body, err := c.get(ctx, src.URL)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	r := io.LimitReader(body, maxBodyBytes)

	switch kind := src.Kind.(type) {
	case Lines:
		return readLines(r)
	case JSONPath:
		return readJSON(r, kind.Key)
	case CSVColumn:
		return readCSV(r, kind.Index)
	default:
		return nil, fmt.Errorf("%T: %w", src.Kind, errUnsupportedKind)
	}
}

// FetchTLDs downloads an IANA-style TLD list. A single entry outside
// [a-z0-9-] rejects the whole list.
func (c *Client) FetchTLDs(ctx context.Context, url string) (domain.TLDSet, error) {
	body, err := c.get(ctx, url)
	if err != nil {
		return domain.TLDSet{}, err
	}
	defer body.Close()

	raw, err := domain.ParseTLDList(io.LimitReader(body, maxBodyBytes))
	if err != nil {
		return domain.TLDSet{}, err
	}
	if len(raw) == 0 {
		return domain.TLDSet{}, fmt.Errorf("no TLDs found at %s", url)
	}
	return domain.NewTLDSet(raw)
}

func (c *Client) get(ctx context.Context, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, fmt.Errorf("unexpected status: %s", resp.Status)
	}
	return resp.Body, nil
}

func readLines(r io.Reader) ([]string, error) {
	var out []string
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read lines: %w", err)
	}
	return out, nil
}

func readJSON(r io.Reader, key string) ([]string, error) {
	dec := json.NewDecoder(r)

	if key == "" || key == "." {
		return decodeStringArray(dec)
	}

	var doc map[string]json.RawMessage
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode object: %w", err)
	}
	raw, ok := doc[key]
	if !ok {
		return nil, fmt.Errorf("key %q not found", key)
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode %q: %w", key, err)
	}
	return out, nil
}

// decodeStringArray streams a top-level JSON array of strings.
func decodeStringArray(dec *json.Decoder) ([]string, error) {
	t, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("read opening token: %w", err)
	}
	if d, ok := t.(json.Delim); !ok || d != '[' {
		return nil, fmt.Errorf("expected JSON array")
	}

	var out []string
	for dec.More() {
		var s string
		if err := dec.Decode(&s); err != nil {
			return nil, fmt.Errorf("decode entry: %w", err)
		}
		out = append(out, s)
	}

	// Consume the closing ']' token.
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("read closing token: %w", err)
	}
	return out, nil
}

func readCSV(r io.Reader, col int) ([]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.Comment = '#'
	cr.ReuseRecord = true

	var out []string
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		if col >= len(rec) {
			continue
		}
		v := strings.TrimSpace(strings.ReplaceAll(rec[col], `"`, ""))
		if v != "" {
			out = append(out, v)
		}
	}
	return out, nil
}
