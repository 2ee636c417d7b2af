package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/malecare/trialmatch/config"
	"github.com/malecare/trialmatch/models"
)

// ErrorRecordID is the sentinel registry id carried by the synthetic record
// returned when the registry cannot be reached.
const ErrorRecordID = "API_ERROR"

// NoResultsID is the sentinel registry id carried by the synthetic record
// returned when neither tier finds a recruiting trial.
const NoResultsID = "NO_RESULTS"

var logger = log.New(log.Writer(), "[REGISTRY] ", log.LstdFlags)

// Client queries the ClinicalTrials.gov v2 studies endpoint.
type Client struct {
	BaseURL    string
	PageSize   int
	httpClient *http.Client
}

// NewClient creates a registry client with a bounded request timeout.
func NewClient(cfg config.RegistryConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = 10
	}
	return &Client{
		BaseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		PageSize:   pageSize,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// study mirrors the subset of the registry's protocolSection we read.
type study struct {
	ProtocolSection struct {
		IdentificationModule struct {
			NCTID         string `json:"nctId"`
			BriefTitle    string `json:"briefTitle"`
			OfficialTitle string `json:"officialTitle"`
		} `json:"identificationModule"`
		StatusModule struct {
			OverallStatus string `json:"overallStatus"`
		} `json:"statusModule"`
		DesignModule struct {
			Phases []string `json:"phases"`
		} `json:"designModule"`
		ContactsLocationsModule struct {
			Locations []struct {
				Facility string `json:"facility"`
				City     string `json:"city"`
				State    string `json:"state"`
			} `json:"locations"`
		} `json:"contactsLocationsModule"`
		SponsorCollaboratorsModule struct {
			LeadSponsor struct {
				Name string `json:"name"`
			} `json:"leadSponsor"`
		} `json:"sponsorCollaboratorsModule"`
	} `json:"protocolSection"`
}

type studiesResponse struct {
	Studies []json.RawMessage `json:"studies"`
}

// Search queries the registry for recruiting trials matching cancerType near
// location. A locality-scoped query that returns nothing is retried exactly
// once nationwide; a transport failure at either tier yields a single
// synthetic error record, and an empty nationwide result a single no-results
// record. The returned slice is never empty, so callers never special-case a
// null result. Stage and age are accepted for the session contract but the
// v2 parameter subset consumed here has no filter for them.
func (c *Client) Search(ctx context.Context, cancerType, location, stage string, age int) []models.TrialRecord {
	logger.Printf("searching trials: condition=%q location=%q stage=%q age=%d", cancerType, location, stage, age)

	loc := NormalizeLocation(location)

	params := url.Values{}
	params.Set("query.cond", cancerType)
	params.Set("query.locn", loc.Query)
	if loc.Qualifier != "" {
		params.Set("filter.geo", loc.Qualifier)
	}
	params.Set("filter.overallStatus", "RECRUITING")
	params.Set("pageSize", fmt.Sprintf("%d", c.PageSize))
	params.Set("format", "json")

	trials, err := c.fetch(ctx, params, location, false)
	if err != nil {
		searchesTotal.WithLabelValues(tierError).Inc()
		logger.Printf("local search failed: %v", err)
		return []models.TrialRecord{errorRecord(cancerType, location)}
	}
	if len(trials) > 0 {
		searchesTotal.WithLabelValues(tierLocal).Inc()
		return trials
	}

	// Zero local results: widen to a nationwide search by dropping both
	// locality parameters. Runs once, and never after a transport error.
	logger.Printf("no trials near %q, falling back to nationwide search", location)
	params.Del("query.locn")
	params.Del("filter.geo")

	trials, err = c.fetch(ctx, params, location, true)
	if err != nil {
		searchesTotal.WithLabelValues(tierError).Inc()
		logger.Printf("nationwide search failed: %v", err)
		return []models.TrialRecord{errorRecord(cancerType, location)}
	}
	searchesTotal.WithLabelValues(tierNationwide).Inc()
	if len(trials) == 0 {
		logger.Printf("no recruiting %q trials found nationwide either", cancerType)
		return []models.TrialRecord{noResultsRecord(cancerType, location)}
	}
	return trials
}

func (c *Client) fetch(ctx context.Context, params url.Values, requestedLocation string, nationwide bool) ([]models.TrialRecord, error) {
	reqURL := fmt.Sprintf("%s/studies?%s", c.BaseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch studies: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("registry error: %s", resp.Status)
	}

	var result studiesResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return parseStudies(result.Studies, requestedLocation, nationwide), nil
}

// parseStudies normalizes raw registry records. A record that fails to parse
// is logged and skipped; partial results beat total failure.
func parseStudies(raw []json.RawMessage, requestedLocation string, nationwide bool) []models.TrialRecord {
	trials := make([]models.TrialRecord, 0, len(raw))
	for _, msg := range raw {
		var s study
		if err := json.Unmarshal(msg, &s); err != nil {
			logger.Printf("skipping unparseable study: %v", err)
			continue
		}

		p := s.ProtocolSection

		nctID := p.IdentificationModule.NCTID
		if nctID == "" {
			nctID = "Unknown"
		}
		title := p.IdentificationModule.BriefTitle
		if title == "" {
			title = p.IdentificationModule.OfficialTitle
		}
		if title == "" {
			title = "Untitled Study"
		}
		status := p.StatusModule.OverallStatus
		if status == "" {
			status = "Unknown"
		}

		phase := "Not Specified"
		if len(p.DesignModule.Phases) > 0 {
			phase = displayPhase(p.DesignModule.Phases[0])
		}

		trialLocation := requestedLocation
		facility := "Multiple Sites"
		if len(p.ContactsLocationsModule.Locations) > 0 {
			first := p.ContactsLocationsModule.Locations[0]
			if first.Facility != "" {
				facility = first.Facility
			}
			if first.City != "" && first.State != "" {
				trialLocation = first.City + " " + first.State
			}
		}

		sponsor := p.SponsorCollaboratorsModule.LeadSponsor.Name
		if sponsor == "" {
			sponsor = "Unknown Sponsor"
		}

		trials = append(trials, models.TrialRecord{
			RegistryID:   nctID,
			Title:        title,
			Phase:        phase,
			Status:       displayStatus(status),
			Location:     trialLocation,
			Facility:     facility,
			Sponsor:      sponsor,
			Link:         "https://clinicaltrials.gov/study/" + nctID,
			IsNationwide: nationwide,
		})
	}
	return trials
}

// displayPhase renders the registry's internal phase constant, e.g.
// "PHASE2" -> "Phase 2".
func displayPhase(phase string) string {
	return strings.Replace(phase, "PHASE", "Phase ", 1)
}

// displayStatus word-capitalizes the registry's shouting status constants,
// e.g. "ACTIVE_NOT_RECRUITING" -> "Active Not Recruiting".
func displayStatus(status string) string {
	words := strings.Split(strings.ToLower(status), "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// errorRecord is the single record surfaced when the registry is
// unreachable, so the chat layer always has a well-formed trial list.
func errorRecord(cancerType, location string) models.TrialRecord {
	return models.TrialRecord{
		RegistryID: ErrorRecordID,
		Title:      fmt.Sprintf("Unable to fetch trials for %s at this time", cancerType),
		Phase:      "N/A",
		Status:     "API Unavailable",
		Location:   location,
		Facility:   "ClinicalTrials.gov",
		Sponsor:    "System",
		Link:       "https://clinicaltrials.gov",
		Message:    "We're having trouble connecting to ClinicalTrials.gov. Please try again in a moment, or visit ClinicalTrials.gov directly.",
	}
}

// noResultsRecord is the single record surfaced when neither tier matched
// anything, keeping the non-empty list contract for the chat layer.
func noResultsRecord(cancerType, location string) models.TrialRecord {
	return models.TrialRecord{
		RegistryID: NoResultsID,
		Title:      fmt.Sprintf("No recruiting trials found for %s", cancerType),
		Phase:      "N/A",
		Status:     "No Matches",
		Location:   location,
		Facility:   "ClinicalTrials.gov",
		Sponsor:    "System",
		Link:       "https://clinicaltrials.gov",
		Message:    fmt.Sprintf("I couldn't find any recruiting %s trials right now, even nationwide. New trials open regularly, so please check back soon.", cancerType),
	}
}
