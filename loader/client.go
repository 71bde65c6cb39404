// Package loader bulk-loads scrubbed candidate files into a SPARQL
// triple-store, one named graph per file, over the Graph Store HTTP
// protocol.
package loader

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/c360studio/semscrub/config"
	"github.com/c360studio/semscrub/pipeline"
)

const (
	// maxErrorBodySize limits the size of error response bodies.
	maxErrorBodySize = 4096

	// uploadDelay spaces successive uploads.
	uploadDelay = 20 * time.Millisecond
)

// Client loads Turtle files into a Fuseki-compatible store.
type Client struct {
	cfg        config.LoaderConfig
	bindings   map[string]string
	vocabulary []string
	resourceRe *regexp.Regexp
	logger     *slog.Logger
	httpClient *http.Client
}

// NewClient creates a loader for the configured store. The prefix
// configuration supplies the header injected into files that carry no
// declarations of their own.
func NewClient(cfg config.LoaderConfig, prefixes config.PrefixesConfig, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	var resourceRe *regexp.Regexp
	if len(prefixes.Resource) > 0 {
		quoted := make([]string, 0, len(prefixes.Resource))
		for _, p := range prefixes.Resource {
			quoted = append(quoted, regexp.QuoteMeta(p))
		}
		resourceRe = regexp.MustCompile(`\b(` + strings.Join(quoted, "|") + `):([^\s;,.()\]\">]+)`)
	}

	return &Client{
		cfg:        cfg,
		bindings:   prefixes.Bindings,
		vocabulary: prefixes.Vocabulary,
		resourceRe: resourceRe,
		logger:     logger,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Result summarizes one bulk load.
type Result struct {
	Loaded int
	Failed int
	Errors []pipeline.FileError
}

// EnsureDataset checks that the dataset exists, creating it when the
// configuration allows.
func (c *Client) EnsureDataset(ctx context.Context) error {
	target := fmt.Sprintf("%s/$/datasets/%s", c.base(), url.PathEscape(c.cfg.Dataset))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	c.setAuth(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("check dataset: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		return nil
	}
	if resp.StatusCode != http.StatusNotFound {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		return fmt.Errorf("check dataset %s: status %d: %s", c.cfg.Dataset, resp.StatusCode, string(body))
	}
	if !c.cfg.CreateDataset {
		return fmt.Errorf("dataset %s does not exist", c.cfg.Dataset)
	}
	return c.createDataset(ctx)
}

func (c *Client) createDataset(ctx context.Context) error {
	form := url.Values{}
	form.Set("dbName", c.cfg.Dataset)
	form.Set("dbType", "tdb2")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base()+"/$/datasets",
		strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	c.setAuth(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("create dataset: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		return fmt.Errorf("create dataset %s: status %d: %s", c.cfg.Dataset, resp.StatusCode, string(body))
	}

	c.logger.Info("Created dataset", "dataset", c.cfg.Dataset)
	return nil
}

// LoadFile uploads one Turtle file into the named graph.
func (c *Client) LoadFile(ctx context.Context, path, graphURI string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	body := c.prepare(string(data))

	target := fmt.Sprintf("%s/%s/data?graph=%s",
		c.base(), url.PathEscape(c.cfg.Dataset), url.QueryEscape(graphURI))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, strings.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "text/turtle")
	c.setAuth(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("upload: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		return fmt.Errorf("load into %s: status %d: %s", graphURI, resp.StatusCode, string(errBody))
	}
	return nil
}

// LoadDirectory uploads every candidate file under dir. The graph name is
// the relative path without its extension appended to the configured graph
// base. Per-file failures are collected, never fatal.
func (c *Client) LoadDirectory(ctx context.Context, dir string) (*Result, error) {
	if err := c.EnsureDataset(ctx); err != nil {
		return nil, err
	}

	files, err := pipeline.ListFiles(dir, nil, nil)
	if err != nil {
		return nil, err
	}

	result := &Result{}
	for i, rel := range files {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if i > 0 {
			time.Sleep(uploadDelay)
		}

		graphURI := c.graphURI(rel)
		path := filepath.Join(dir, filepath.FromSlash(rel))
		if err := c.LoadFile(ctx, path, graphURI); err != nil {
			result.Failed++
			result.Errors = append(result.Errors, pipeline.FileError{Path: rel, Err: err})
			c.logger.Warn("Load failed", "file", rel, "error", err)
			continue
		}
		result.Loaded++
		c.logger.Debug("Loaded file", "file", rel, "graph", graphURI)
	}
	return result, nil
}

// graphURI maps a relative candidate path to its named graph.
func (c *Client) graphURI(rel string) string {
	stem := strings.TrimSuffix(rel, filepath.Ext(rel))
	return c.cfg.GraphBase + stem
}

// prepare prepends the prefix header when the file does not declare the
// primary vocabulary prefix, then expands resource names whose local part
// would not survive as a prefixed name.
func (c *Client) prepare(text string) string {
	if !c.declaresPrimaryPrefix(text) {
		text = c.prefixHeader() + text
	}
	return c.expandUnsafeLocals(text)
}

func (c *Client) declaresPrimaryPrefix(text string) bool {
	if len(c.vocabulary) == 0 {
		return true
	}
	marker := "@prefix " + c.vocabulary[0] + ":"
	return strings.Contains(strings.ToLower(text), strings.ToLower(marker))
}

func (c *Client) prefixHeader() string {
	prefixes := make([]string, 0, len(c.bindings))
	for prefix := range c.bindings {
		prefixes = append(prefixes, prefix)
	}
	sort.Strings(prefixes)

	var b strings.Builder
	for _, prefix := range prefixes {
		fmt.Fprintf(&b, "@prefix %s: <%s> .\n", prefix, c.bindings[prefix])
	}
	b.WriteString("\n")
	return b.String()
}

// expandUnsafeLocals rewrites resource references like res:a/b to full
// bracketed IRIs. Slashes and hashes are legal in an IRI but not in a
// prefixed local name, so stores reject them unexpanded.
func (c *Client) expandUnsafeLocals(text string) string {
	if c.resourceRe == nil {
		return text
	}
	return c.resourceRe.ReplaceAllStringFunc(text, func(m string) string {
		sub := c.resourceRe.FindStringSubmatch(m)
		prefix, local := sub[1], sub[2]
		if !strings.ContainsAny(local, "/#") {
			return m
		}
		iri, ok := c.bindings[prefix]
		if !ok {
			return m
		}
		return "<" + iri + local + ">"
	})
}

func (c *Client) base() string {
	return strings.TrimRight(c.cfg.Endpoint, "/")
}

func (c *Client) setAuth(req *http.Request) {
	if c.cfg.User != "" || c.cfg.Password != "" {
		req.SetBasicAuth(c.cfg.User, c.cfg.Password)
	}
}
