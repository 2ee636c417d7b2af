package registry

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/malecare/trialmatch/config"
)

func studyJSON(nctID, briefTitle string) string {
	return fmt.Sprintf(`{
		"protocolSection": {
			"identificationModule": {"nctId": %q, "briefTitle": %q},
			"statusModule": {"overallStatus": "RECRUITING"},
			"designModule": {"phases": ["PHASE2"]},
			"contactsLocationsModule": {"locations": [{"facility": "Mass General", "city": "Boston", "state": "Massachusetts"}]},
			"sponsorCollaboratorsModule": {"leadSponsor": {"name": "NCI"}}
		}
	}`, nctID, briefTitle)
}

func testClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	return NewClient(config.RegistryConfig{BaseURL: baseURL, Timeout: 2 * time.Second, PageSize: 10})
}

func TestSearchLocalResultsNoFallback(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	var queries []url.Values
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		queries = append(queries, r.URL.Query())
		mu.Unlock()
		fmt.Fprintf(w, `{"studies": [%s]}`, studyJSON("NCT00000001", "A Breast Cancer Study"))
	}))
	defer ts.Close()

	trials := testClient(t, ts.URL).Search(context.Background(), "breast cancer", "Boston Massachusetts", "2", 45)

	if len(queries) != 1 {
		t.Fatalf("expected a single locality-scoped request, got %d", len(queries))
	}
	q := queries[0]
	if q.Get("query.cond") != "breast cancer" {
		t.Fatalf("query.cond = %q", q.Get("query.cond"))
	}
	if q.Get("query.locn") != "Boston, MA" {
		t.Fatalf("query.locn = %q", q.Get("query.locn"))
	}
	if q.Get("filter.geo") != "United States:Massachusetts:Boston" {
		t.Fatalf("filter.geo = %q", q.Get("filter.geo"))
	}
	if q.Get("filter.overallStatus") != "RECRUITING" {
		t.Fatalf("filter.overallStatus = %q", q.Get("filter.overallStatus"))
	}
	if q.Get("pageSize") != "10" {
		t.Fatalf("pageSize = %q", q.Get("pageSize"))
	}

	if len(trials) != 1 {
		t.Fatalf("expected 1 trial, got %d", len(trials))
	}
	got := trials[0]
	if got.IsNationwide {
		t.Fatalf("locality-scoped result marked nationwide")
	}
	if got.RegistryID != "NCT00000001" || got.Title != "A Breast Cancer Study" {
		t.Fatalf("unexpected record: %+v", got)
	}
	if got.Phase != "Phase 2" {
		t.Fatalf("phase = %q, want %q", got.Phase, "Phase 2")
	}
	if got.Status != "Recruiting" {
		t.Fatalf("status = %q, want %q", got.Status, "Recruiting")
	}
	if got.Facility != "Mass General" || got.Location != "Boston Massachusetts" {
		t.Fatalf("unexpected geography: %+v", got)
	}
	if got.Sponsor != "NCI" {
		t.Fatalf("sponsor = %q", got.Sponsor)
	}
	if got.Link != "https://clinicaltrials.gov/study/NCT00000001" {
		t.Fatalf("link = %q", got.Link)
	}
}

func TestSearchEmptyLocalTriggersNationwideFallback(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	var queries []url.Values
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		mu.Lock()
		queries = append(queries, q)
		mu.Unlock()
		if q.Has("query.locn") || q.Has("filter.geo") {
			fmt.Fprint(w, `{"studies": []}`)
			return
		}
		fmt.Fprintf(w, `{"studies": [%s, %s]}`,
			studyJSON("NCT00000002", "Nationwide Study A"),
			studyJSON("NCT00000003", "Nationwide Study B"))
	}))
	defer ts.Close()

	trials := testClient(t, ts.URL).Search(context.Background(), "breast cancer", "Smalltown Montana", "", 0)

	if len(queries) != 2 {
		t.Fatalf("expected exactly two requests, got %d", len(queries))
	}
	if !queries[0].Has("query.locn") {
		t.Fatalf("first request must be locality-scoped")
	}
	if queries[1].Has("query.locn") || queries[1].Has("filter.geo") {
		t.Fatalf("fallback request must omit locality parameters: %v", queries[1])
	}
	if queries[1].Get("query.cond") != "breast cancer" {
		t.Fatalf("fallback lost condition term: %v", queries[1])
	}

	if len(trials) != 2 {
		t.Fatalf("expected 2 trials, got %d", len(trials))
	}
	for _, trial := range trials {
		if !trial.IsNationwide {
			t.Fatalf("fallback record not marked nationwide: %+v", trial)
		}
	}
}

func TestSearchBothTiersEmptyYieldsNoResultsRecord(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	var requests int
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		requests++
		mu.Unlock()
		fmt.Fprint(w, `{"studies": []}`)
	}))
	defer ts.Close()

	trials := testClient(t, ts.URL).Search(context.Background(), "breast cancer", "Smalltown Montana", "", 0)

	if requests != 2 {
		t.Fatalf("expected the local query and one nationwide retry, got %d requests", requests)
	}
	if len(trials) != 1 {
		t.Fatalf("search must never return an empty slice, got %d records", len(trials))
	}
	got := trials[0]
	if got.RegistryID != NoResultsID {
		t.Fatalf("registry id = %q, want sentinel %q", got.RegistryID, NoResultsID)
	}
	if got.Message == "" {
		t.Fatalf("no-results record must carry a conversational message")
	}
	if got.IsNationwide {
		t.Fatalf("no-results record must not be marked nationwide")
	}
}

func TestSearchTransportFailureYieldsErrorRecord(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	var requests int
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		requests++
		mu.Unlock()
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	trials := testClient(t, ts.URL).Search(context.Background(), "lung cancer", "Boston Massachusetts", "", 0)

	if requests != 1 {
		t.Fatalf("transport failure must not trigger the fallback, got %d requests", requests)
	}
	if len(trials) != 1 {
		t.Fatalf("expected exactly one synthetic record, got %d", len(trials))
	}
	got := trials[0]
	if got.RegistryID != ErrorRecordID {
		t.Fatalf("registry id = %q, want sentinel %q", got.RegistryID, ErrorRecordID)
	}
	if got.Message == "" {
		t.Fatalf("error record must carry a diagnostic message")
	}
	if got.IsNationwide {
		t.Fatalf("error record must not be marked nationwide")
	}
}

func TestSearchMalformedBodyYieldsErrorRecord(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"studies": not json`)
	}))
	defer ts.Close()

	trials := testClient(t, ts.URL).Search(context.Background(), "breast cancer", "Boston Massachusetts", "", 0)

	if len(trials) != 1 || trials[0].RegistryID != ErrorRecordID {
		t.Fatalf("expected a single error record, got %+v", trials)
	}
}

func TestSearchTimeoutYieldsErrorRecord(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		fmt.Fprint(w, `{"studies": []}`)
	}))
	defer ts.Close()

	client := NewClient(config.RegistryConfig{BaseURL: ts.URL, Timeout: 50 * time.Millisecond, PageSize: 10})
	trials := client.Search(context.Background(), "breast cancer", "Boston Massachusetts", "", 0)

	if len(trials) != 1 || trials[0].RegistryID != ErrorRecordID {
		t.Fatalf("expected a single error record on timeout, got %+v", trials)
	}
}

func TestParseSkipsUnparseableRecord(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"studies": [{"protocolSection": []}, %s]}`, studyJSON("NCT00000004", "Good Study"))
	}))
	defer ts.Close()

	trials := testClient(t, ts.URL).Search(context.Background(), "breast cancer", "Boston Massachusetts", "", 0)

	if len(trials) != 1 {
		t.Fatalf("expected the bad record to be skipped, got %d records", len(trials))
	}
	if trials[0].RegistryID != "NCT00000004" {
		t.Fatalf("surviving record = %+v", trials[0])
	}
}

func TestParseFieldFallbacks(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"studies": [{
			"protocolSection": {
				"identificationModule": {"nctId": "NCT00000005", "officialTitle": "Official Only"},
				"statusModule": {"overallStatus": "ACTIVE_NOT_RECRUITING"},
				"designModule": {},
				"contactsLocationsModule": {},
				"sponsorCollaboratorsModule": {}
			}
		}]}`)
	}))
	defer ts.Close()

	trials := testClient(t, ts.URL).Search(context.Background(), "breast cancer", "Boston Massachusetts", "", 0)

	if len(trials) != 1 {
		t.Fatalf("expected 1 trial, got %d", len(trials))
	}
	got := trials[0]
	if got.Title != "Official Only" {
		t.Fatalf("title fallback = %q", got.Title)
	}
	if got.Status != "Active Not Recruiting" {
		t.Fatalf("status = %q", got.Status)
	}
	if got.Phase != "Not Specified" {
		t.Fatalf("phase fallback = %q", got.Phase)
	}
	if got.Location != "Boston Massachusetts" {
		t.Fatalf("location must fall back to the requested location, got %q", got.Location)
	}
	if got.Facility != "Multiple Sites" {
		t.Fatalf("facility fallback = %q", got.Facility)
	}
	if got.Sponsor != "Unknown Sponsor" {
		t.Fatalf("sponsor fallback = %q", got.Sponsor)
	}
}
