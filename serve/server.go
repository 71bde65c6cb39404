// Package serve exposes scrubbed resources as dereferenceable IRIs. Each
// GET /resource/{name} is answered from the SPARQL store the loader fills,
// in the format the Accept header asks for: Turtle and JSON-LD are proxied
// straight from the store, browsers get a minimal property table.
package serve

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/c360studio/semscrub/config"
	"github.com/c360studio/semscrub/turtle"
)

const (
	// maxErrorBodySize limits the size of error response bodies.
	maxErrorBodySize = 4096

	// defaultQueryTimeout bounds a single store round trip.
	defaultQueryTimeout = 30 * time.Second

	// shutdownGrace is how long in-flight requests get to finish.
	shutdownGrace = 5 * time.Second
)

// Response formats negotiated from the Accept header.
const (
	formatTurtle = "turtle"
	formatJSONLD = "json-ld"
	formatHTML   = "html"
)

// Server answers dereference requests for the resource namespace.
type Server struct {
	cfg      config.ServeConfig
	prefixes config.PrefixesConfig
	logger   *slog.Logger

	httpClient *http.Client
	mux        *http.ServeMux
}

// NewServer creates a dereference server backed by the configured SPARQL
// endpoint. Routes:
//
//	GET /resource/{name}  resource description, content-negotiated
//	GET /healthz          liveness probe
//	GET /metrics          Prometheus metrics
func NewServer(cfg config.ServeConfig, prefixes config.PrefixesConfig, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		cfg:        cfg,
		prefixes:   prefixes,
		logger:     logger,
		httpClient: &http.Client{Timeout: defaultQueryTimeout},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/resource/", s.handleResource)
	mux.HandleFunc("/healthz", s.handleHealthz)
	mux.Handle("/metrics", promhttp.Handler())
	s.mux = mux

	return s
}

// Handler returns the server's route table, for embedding and tests.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// ListenAndServe runs the server until ctx is cancelled, then drains
// in-flight requests before returning.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	s.logger.Info("Dereference API listening",
		"addr", s.cfg.Listen,
		"endpoint", s.cfg.Endpoint)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

// ----------------------------------------------------------------------------
// GET /resource/{name}
// ----------------------------------------------------------------------------

// handleResource describes one resource: its outgoing triples plus one hop
// into each object. The resource namespace is tried first; when it holds
// nothing the vocabulary namespace is tried, so terms like kg:Team
// dereference through /resource/Team as well.
func (s *Server) handleResource(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	name := strings.TrimPrefix(r.URL.Path, "/resource/")
	if name == "" {
		http.Error(w, "Resource not found", http.StatusNotFound)
		return
	}

	format := negotiateFormat(r.Header.Get("Accept"))
	derefRequests.WithLabelValues(format).Inc()

	accept := storeAccept(format)
	iri := s.cfg.BaseIRI + name
	body, err := s.construct(r.Context(), iri, accept)
	if err != nil {
		s.storeFailure(w, iri, err)
		return
	}

	if resultEmpty(format, body) {
		fallback := s.ontologyIRI(name)
		if fallback == "" {
			http.Error(w, "Resource not found", http.StatusNotFound)
			return
		}
		body, err = s.construct(r.Context(), fallback, accept)
		if err != nil {
			s.storeFailure(w, fallback, err)
			return
		}
		if resultEmpty(format, body) {
			http.Error(w, "Resource not found", http.StatusNotFound)
			return
		}
		iri = fallback
	}

	switch format {
	case formatTurtle:
		w.Header().Set("Content-Type", "text/turtle; charset=utf-8")
		_, _ = w.Write(body)
	case formatJSONLD:
		w.Header().Set("Content-Type", "application/ld+json")
		_, _ = w.Write(body)
	default:
		s.renderHTML(w, iri, parseNTriples(body))
	}
}

// storeFailure records a failed store round trip and answers 502.
func (s *Server) storeFailure(w http.ResponseWriter, iri string, err error) {
	storeErrors.Inc()
	s.logger.Error("Store query failed", "iri", iri, "error", err)
	http.Error(w, "Store query failed", http.StatusBadGateway)
}

// construct runs the one-hop CONSTRUCT for iri against the SPARQL endpoint
// and returns the raw response body in the requested serialization.
func (s *Server) construct(ctx context.Context, iri, accept string) ([]byte, error) {
	query := fmt.Sprintf(
		"CONSTRUCT { <%[1]s> ?p ?o . ?o ?p2 ?o2 } WHERE { OPTIONAL { <%[1]s> ?p ?o . OPTIONAL { ?o ?p2 ?o2 } } }",
		iri)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		s.cfg.Endpoint+"?query="+url.QueryEscape(query), nil)
	if err != nil {
		return nil, fmt.Errorf("build store request: %w", err)
	}
	req.Header.Set("Accept", accept)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("query store: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		return nil, fmt.Errorf("store returned status %d: %s",
			resp.StatusCode, strings.TrimSpace(string(body)))
	}

	return io.ReadAll(resp.Body)
}

// ontologyIRI returns the vocabulary-namespace IRI for name, or "" when no
// vocabulary prefix has a binding.
func (s *Server) ontologyIRI(name string) string {
	for _, prefix := range s.prefixes.Vocabulary {
		if ns, ok := s.prefixes.Bindings[prefix]; ok {
			return ns + name
		}
	}
	return ""
}

// negotiateFormat picks the response format from the Accept header. Browsers
// send text/html and land on the property table.
func negotiateFormat(accept string) string {
	switch {
	case strings.Contains(accept, "text/turtle"):
		return formatTurtle
	case strings.Contains(accept, "application/ld+json"),
		strings.Contains(accept, "application/json"):
		return formatJSONLD
	default:
		return formatHTML
	}
}

// storeAccept maps a response format to the Accept header sent upstream.
// The HTML table is built from N-Triples because every line is one
// self-contained statement.
func storeAccept(format string) string {
	switch format {
	case formatTurtle:
		return "text/turtle"
	case formatJSONLD:
		return "application/ld+json"
	default:
		return "application/n-triples"
	}
}

// resultEmpty reports whether a CONSTRUCT response carries no triples.
// An empty graph still serializes to something (prefix directives, "{}"),
// so each format needs its own check.
func resultEmpty(format string, body []byte) bool {
	switch format {
	case formatTurtle:
		return turtle.IsEmpty(turtle.Segments(string(body)))
	case formatJSONLD:
		return jsonLDEmpty(body)
	default:
		return len(parseNTriples(body)) == 0
	}
}

// jsonLDEmpty reports whether a JSON-LD document describes zero nodes.
// Malformed payloads count as non-empty and pass through untouched.
func jsonLDEmpty(body []byte) bool {
	var v any
	if err := json.Unmarshal(body, &v); err != nil {
		return false
	}
	switch doc := v.(type) {
	case nil:
		return true
	case []any:
		return len(doc) == 0
	case map[string]any:
		if g, ok := doc["@graph"]; ok {
			arr, isArr := g.([]any)
			return isArr && len(arr) == 0
		}
		for key := range doc {
			if key != "@context" {
				return false
			}
		}
		return true
	}
	return false
}

// ----------------------------------------------------------------------------
// HTML property table
// ----------------------------------------------------------------------------

// statementTriple is one parsed N-Triples statement, cleaned for display.
type statementTriple struct {
	Subject   string
	Predicate string
	Object    string
}

// resourcePage is the minimal property table served to browsers.
var resourcePage = template.Must(template.New("resource").Parse(`<html><head><title>{{.IRI}}</title></head>
<body>
  <h1>{{.IRI}}</h1>
  <p>Content negotiation: text/turtle, application/ld+json, text/html</p>
  <table border="1"><thead><tr><th>S</th><th>P</th><th>O</th></tr></thead>
  <tbody>{{range .Triples}}<tr><td>{{.Subject}}</td><td>{{.Predicate}}</td><td>{{.Object}}</td></tr>{{end}}</tbody></table>
</body></html>
`))

type resourcePageData struct {
	IRI     string
	Triples []statementTriple
}

func (s *Server) renderHTML(w http.ResponseWriter, iri string, triples []statementTriple) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := resourcePage.Execute(w, resourcePageData{IRI: iri, Triples: triples}); err != nil {
		s.logger.Error("Template render failed", "iri", iri, "error", err)
	}
}

// parseNTriples extracts displayable triples from an N-Triples body.
// Lines that do not look like statements are skipped.
func parseNTriples(body []byte) []statementTriple {
	var triples []statementTriple
	for _, line := range strings.Split(string(body), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := splitTerms(line)
		if len(fields) < 4 || fields[len(fields)-1] != "." {
			continue
		}
		triples = append(triples, statementTriple{
			Subject:   displayTerm(fields[0]),
			Predicate: displayTerm(fields[1]),
			Object:    displayTerm(strings.Join(fields[2:len(fields)-1], " ")),
		})
	}
	return triples
}

// splitTerms splits an N-Triples line on spaces outside quoted literals.
// A terminator glued to the last term is split off so the statement still
// parses.
func splitTerms(line string) []string {
	var fields []string
	for _, part := range turtle.SplitOutside(line, ' ') {
		if part != "" {
			fields = append(fields, part)
		}
	}
	if n := len(fields); n > 0 {
		last := fields[n-1]
		if last != "." && strings.HasSuffix(last, ".") {
			fields[n-1] = strings.TrimSuffix(last, ".")
			fields = append(fields, ".")
		}
	}
	return fields
}

// displayTerm strips N-Triples syntax down to what a reader wants in a
// table: IRIs lose their angle brackets, literals lose quotes, escapes,
// and language or datatype annotations. Blank node labels pass through.
func displayTerm(term string) string {
	if strings.HasPrefix(term, "<") && strings.HasSuffix(term, ">") {
		return term[1 : len(term)-1]
	}
	if strings.HasPrefix(term, `"`) {
		if end := closingQuote(term); end > 0 {
			return unescapeLiteral(term[1:end])
		}
	}
	return term
}

// closingQuote returns the index of the unescaped quote closing a literal
// that opens at index 0, or -1.
func closingQuote(term string) int {
	escaped := false
	for i := 1; i < len(term); i++ {
		if escaped {
			escaped = false
			continue
		}
		switch term[i] {
		case '\\':
			escaped = true
		case '"':
			return i
		}
	}
	return -1
}

// unescapeLiteral decodes N-Triples string escapes, including the \uXXXX
// and \UXXXXXXXX forms the store uses for non-ASCII text.
func unescapeLiteral(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' || i+1 == len(s) {
			b.WriteByte(s[i])
			continue
		}
		i++
		switch s[i] {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case 'u':
			if i+4 < len(s) {
				if v, err := strconv.ParseUint(s[i+1:i+5], 16, 32); err == nil {
					b.WriteRune(rune(v))
					i += 4
					continue
				}
			}
			b.WriteByte('u')
		case 'U':
			if i+8 < len(s) {
				if v, err := strconv.ParseUint(s[i+1:i+9], 16, 32); err == nil {
					b.WriteRune(rune(v))
					i += 8
					continue
				}
			}
			b.WriteByte('U')
		default:
			b.WriteByte(s[i])
		}
	}
	return b.String()
}

// ----------------------------------------------------------------------------
// GET /healthz
// ----------------------------------------------------------------------------

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
