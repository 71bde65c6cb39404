package serve

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/c360studio/semscrub/config"
)

const testTurtleBody = "@prefix res: <https://semscrub.dev/resource/> .\n\nres:team1 a <https://semscrub.dev/ontology#Team> .\n"

const testNTriplesBody = `<https://semscrub.dev/resource/team1> <http://www.w3.org/1999/02/22-rdf-syntax-ns#type> <https://semscrub.dev/ontology#Team> .
<https://semscrub.dev/resource/team1> <https://semscrub.dev/ontology#name> "Hà Nội FC"@vi .
`

// fakeStore is a canned SPARQL endpoint that records what it was asked.
type fakeStore struct {
	srv     *httptest.Server
	queries []string
	accepts []string
	respond func(query, accept string) (int, string)
}

func newFakeStore(respond func(query, accept string) (int, string)) *fakeStore {
	f := &fakeStore{respond: respond}
	f.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query().Get("query")
		f.queries = append(f.queries, query)
		f.accepts = append(f.accepts, r.Header.Get("Accept"))
		status, body := f.respond(query, r.Header.Get("Accept"))
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	return f
}

// newTestServer wires a Server to the fake store and returns a live test
// frontend for it.
func newTestServer(t *testing.T, store *fakeStore) (*httptest.Server, func()) {
	t.Helper()
	cfg := config.DefaultConfig()
	serveCfg := cfg.Serve
	serveCfg.Endpoint = store.srv.URL
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s := NewServer(serveCfg, cfg.Prefixes, logger)
	frontend := httptest.NewServer(s.Handler())
	return frontend, func() {
		frontend.Close()
		store.srv.Close()
	}
}

func get(t *testing.T, rawURL, accept string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, rawURL, nil)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET %s: %v", rawURL, err)
	}
	return resp
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return string(body)
}

func TestNegotiateFormat(t *testing.T) {
	cases := []struct {
		accept string
		want   string
	}{
		{"text/turtle", formatTurtle},
		{"text/turtle;q=0.9,text/html", formatTurtle},
		{"application/ld+json", formatJSONLD},
		{"application/json", formatJSONLD},
		{"text/html,application/xhtml+xml", formatHTML},
		{"", formatHTML},
	}
	for _, tc := range cases {
		if got := negotiateFormat(tc.accept); got != tc.want {
			t.Errorf("negotiateFormat(%q) = %q, want %q", tc.accept, got, tc.want)
		}
	}
}

func TestServer_ResourceTurtle(t *testing.T) {
	store := newFakeStore(func(query, accept string) (int, string) {
		return http.StatusOK, testTurtleBody
	})
	frontend, cleanup := newTestServer(t, store)
	defer cleanup()

	resp := get(t, frontend.URL+"/resource/team1", "text/turtle")
	body := readBody(t, resp)

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.Contains(ct, "text/turtle") {
		t.Errorf("expected text/turtle content type, got %q", ct)
	}
	if body != testTurtleBody {
		t.Errorf("expected store body passed through, got %q", body)
	}

	if len(store.queries) != 1 {
		t.Fatalf("expected 1 store query, got %d", len(store.queries))
	}
	query := store.queries[0]
	if !strings.Contains(query, "CONSTRUCT") {
		t.Errorf("expected a CONSTRUCT query, got %q", query)
	}
	if !strings.Contains(query, "<https://semscrub.dev/resource/team1>") {
		t.Errorf("expected resource IRI in query, got %q", query)
	}
	if store.accepts[0] != "text/turtle" {
		t.Errorf("expected text/turtle sent upstream, got %q", store.accepts[0])
	}
}

func TestServer_ResourceJSONLD(t *testing.T) {
	doc := `{"@id":"https://semscrub.dev/resource/team1","@type":"https://semscrub.dev/ontology#Team"}`
	store := newFakeStore(func(query, accept string) (int, string) {
		return http.StatusOK, doc
	})
	frontend, cleanup := newTestServer(t, store)
	defer cleanup()

	resp := get(t, frontend.URL+"/resource/team1", "application/ld+json")
	body := readBody(t, resp)

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.Contains(ct, "application/ld+json") {
		t.Errorf("expected application/ld+json content type, got %q", ct)
	}
	if body != doc {
		t.Errorf("expected store body passed through, got %q", body)
	}
	if store.accepts[0] != "application/ld+json" {
		t.Errorf("expected application/ld+json sent upstream, got %q", store.accepts[0])
	}
}

func TestServer_ResourceHTML(t *testing.T) {
	store := newFakeStore(func(query, accept string) (int, string) {
		return http.StatusOK, testNTriplesBody
	})
	frontend, cleanup := newTestServer(t, store)
	defer cleanup()

	resp := get(t, frontend.URL+"/resource/team1", "")
	body := readBody(t, resp)

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.Contains(ct, "text/html") {
		t.Errorf("expected text/html content type, got %q", ct)
	}
	if store.accepts[0] != "application/n-triples" {
		t.Errorf("expected application/n-triples sent upstream, got %q", store.accepts[0])
	}

	if !strings.Contains(body, "<h1>https://semscrub.dev/resource/team1</h1>") {
		t.Errorf("expected resource IRI heading, got %q", body)
	}
	if !strings.Contains(body, "<td>https://semscrub.dev/ontology#Team</td>") {
		t.Errorf("expected type IRI cell without angle brackets, got %q", body)
	}
	if !strings.Contains(body, "<td>Hà Nội FC</td>") {
		t.Errorf("expected unescaped literal cell, got %q", body)
	}
}

func TestServer_ResourceNestedName(t *testing.T) {
	store := newFakeStore(func(query, accept string) (int, string) {
		return http.StatusOK, testTurtleBody
	})
	frontend, cleanup := newTestServer(t, store)
	defer cleanup()

	resp := get(t, frontend.URL+"/resource/season/2024", "text/turtle")
	readBody(t, resp)

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if !strings.Contains(store.queries[0], "<https://semscrub.dev/resource/season/2024>") {
		t.Errorf("expected nested path in resource IRI, got %q", store.queries[0])
	}
}

func TestServer_ResourceOntologyFallback(t *testing.T) {
	store := newFakeStore(func(query, accept string) (int, string) {
		if strings.Contains(query, "<https://semscrub.dev/ontology#Team>") {
			return http.StatusOK, testTurtleBody
		}
		return http.StatusOK, "@prefix res: <https://semscrub.dev/resource/> .\n"
	})
	frontend, cleanup := newTestServer(t, store)
	defer cleanup()

	resp := get(t, frontend.URL+"/resource/Team", "text/turtle")
	readBody(t, resp)

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 after ontology fallback, got %d", resp.StatusCode)
	}
	if len(store.queries) != 2 {
		t.Fatalf("expected 2 store queries, got %d", len(store.queries))
	}
	if !strings.Contains(store.queries[0], "<https://semscrub.dev/resource/Team>") {
		t.Errorf("expected resource namespace tried first, got %q", store.queries[0])
	}
	if !strings.Contains(store.queries[1], "<https://semscrub.dev/ontology#Team>") {
		t.Errorf("expected ontology namespace tried second, got %q", store.queries[1])
	}
}

func TestServer_ResourceNotFound(t *testing.T) {
	store := newFakeStore(func(query, accept string) (int, string) {
		return http.StatusOK, ""
	})
	frontend, cleanup := newTestServer(t, store)
	defer cleanup()

	resp := get(t, frontend.URL+"/resource/nobody", "text/turtle")
	readBody(t, resp)

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
	if len(store.queries) != 2 {
		t.Errorf("expected both namespaces tried, got %d queries", len(store.queries))
	}
}

func TestServer_ResourceStoreError(t *testing.T) {
	store := newFakeStore(func(query, accept string) (int, string) {
		return http.StatusInternalServerError, "boom"
	})
	frontend, cleanup := newTestServer(t, store)
	defer cleanup()

	before := testutil.ToFloat64(storeErrors)
	resp := get(t, frontend.URL+"/resource/team1", "text/turtle")
	readBody(t, resp)

	if resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", resp.StatusCode)
	}
	if delta := testutil.ToFloat64(storeErrors) - before; delta != 1 {
		t.Errorf("expected store error counter to grow by 1, got %v", delta)
	}
}

func TestServer_RequestCounterByFormat(t *testing.T) {
	store := newFakeStore(func(query, accept string) (int, string) {
		return http.StatusOK, testTurtleBody
	})
	frontend, cleanup := newTestServer(t, store)
	defer cleanup()

	before := testutil.ToFloat64(derefRequests.WithLabelValues(formatTurtle))
	resp := get(t, frontend.URL+"/resource/team1", "text/turtle")
	readBody(t, resp)

	if delta := testutil.ToFloat64(derefRequests.WithLabelValues(formatTurtle)) - before; delta != 1 {
		t.Errorf("expected turtle request counter to grow by 1, got %v", delta)
	}
}

func TestServer_Healthz(t *testing.T) {
	store := newFakeStore(func(query, accept string) (int, string) {
		return http.StatusOK, ""
	})
	frontend, cleanup := newTestServer(t, store)
	defer cleanup()

	resp := get(t, frontend.URL+"/healthz", "")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var status map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		t.Fatalf("decode health response: %v", err)
	}
	if status["status"] != "ok" {
		t.Errorf("expected status ok, got %q", status["status"])
	}
}

func TestServer_Metrics(t *testing.T) {
	store := newFakeStore(func(query, accept string) (int, string) {
		return http.StatusOK, testTurtleBody
	})
	frontend, cleanup := newTestServer(t, store)
	defer cleanup()

	// A dereference first, so the labeled counter exists.
	readBody(t, get(t, frontend.URL+"/resource/team1", "text/turtle"))

	resp := get(t, frontend.URL+"/metrics", "")
	body := readBody(t, resp)

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if !strings.Contains(body, "semscrub_deref_requests_total") {
		t.Error("expected request counter in metrics exposition")
	}
}

func TestServer_MethodNotAllowed(t *testing.T) {
	store := newFakeStore(func(query, accept string) (int, string) {
		return http.StatusOK, ""
	})
	frontend, cleanup := newTestServer(t, store)
	defer cleanup()

	resp, err := http.Post(frontend.URL+"/resource/team1", "text/plain", nil)
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("expected 405 for POST /resource, got %d", resp.StatusCode)
	}

	resp, err = http.Post(frontend.URL+"/healthz", "text/plain", nil)
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("expected 405 for POST /healthz, got %d", resp.StatusCode)
	}
}

func TestServer_EmptyResourceName(t *testing.T) {
	store := newFakeStore(func(query, accept string) (int, string) {
		return http.StatusOK, testTurtleBody
	})
	frontend, cleanup := newTestServer(t, store)
	defer cleanup()

	resp := get(t, frontend.URL+"/resource/", "text/turtle")
	readBody(t, resp)

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for empty name, got %d", resp.StatusCode)
	}
	if len(store.queries) != 0 {
		t.Errorf("expected no store queries, got %d", len(store.queries))
	}
}

func TestParseNTriples(t *testing.T) {
	body := `# comment line
<http://a> <http://b> <http://c>.

<http://a> <http://b> "said \"hi\"" .
not a statement
`
	triples := parseNTriples([]byte(body))
	if len(triples) != 2 {
		t.Fatalf("expected 2 triples, got %d: %+v", len(triples), triples)
	}
	if triples[0].Object != "http://c" {
		t.Errorf("expected glued terminator split off, got object %q", triples[0].Object)
	}
	if triples[1].Object != `said "hi"` {
		t.Errorf("expected escaped quote decoded, got %q", triples[1].Object)
	}
}

func TestDisplayTerm(t *testing.T) {
	cases := []struct {
		term string
		want string
	}{
		{"<https://semscrub.dev/resource/team1>", "https://semscrub.dev/resource/team1"},
		{`"Hanoi FC"@vi`, "Hanoi FC"},
		{`"42"^^<http://www.w3.org/2001/XMLSchema#integer>`, "42"},
		{`"line\nbreak"`, "line\nbreak"},
		{`"Hà Nội"`, "Hà Nội"},
		{"_:b0", "_:b0"},
	}
	for _, tc := range cases {
		if got := displayTerm(tc.term); got != tc.want {
			t.Errorf("displayTerm(%q) = %q, want %q", tc.term, got, tc.want)
		}
	}
}

func TestJSONLDEmpty(t *testing.T) {
	cases := []struct {
		body string
		want bool
	}{
		{`{}`, true},
		{`[]`, true},
		{`{"@context":{}}`, true},
		{`{"@graph":[]}`, true},
		{`{"@graph":[],"@context":{}}`, true},
		{`{"@id":"https://semscrub.dev/resource/team1"}`, false},
		{`[{"@id":"x"}]`, false},
		{`{"@graph":[{"@id":"x"}]}`, false},
		{`not json`, false},
	}
	for _, tc := range cases {
		if got := jsonLDEmpty([]byte(tc.body)); got != tc.want {
			t.Errorf("jsonLDEmpty(%q) = %v, want %v", tc.body, got, tc.want)
		}
	}
}
