package httpnlu

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/malecare/trialmatch/models"
)

func TestExtractDropsNullAndEmptySlots(t *testing.T) {
	t.Parallel()

	var gotReq struct {
		Text    string            `json:"text"`
		Context map[string]string `json:"context"`
	}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		fmt.Fprint(w, `{"intent": "find_trials", "slots": {"cancer_type": "breast cancer", "stage": null, "sex": ""}}`)
	}))
	defer ts.Close()

	client := NewClient(ts.URL, time.Second)
	result, err := client.Extract(context.Background(), "find me breast cancer trials", map[string]string{"location": "Boston Massachusetts"})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	if gotReq.Text != "find me breast cancer trials" {
		t.Fatalf("text not forwarded: %q", gotReq.Text)
	}
	if gotReq.Context["location"] != "Boston Massachusetts" {
		t.Fatalf("known slots not forwarded: %v", gotReq.Context)
	}

	if result.Intent != models.IntentFindTrials {
		t.Fatalf("intent = %q", result.Intent)
	}
	if result.Slots["cancer_type"] != "breast cancer" {
		t.Fatalf("slots = %v", result.Slots)
	}
	if _, ok := result.Slots["stage"]; ok {
		t.Fatalf("null slot must be dropped: %v", result.Slots)
	}
	if _, ok := result.Slots["sex"]; ok {
		t.Fatalf("empty slot must be dropped: %v", result.Slots)
	}
}

func TestExtractDefaultsMissingIntent(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"slots": {}}`)
	}))
	defer ts.Close()

	result, err := NewClient(ts.URL, time.Second).Extract(context.Background(), "hm", nil)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if result.Intent != models.IntentOther {
		t.Fatalf("missing intent must default to %q, got %q", models.IntentOther, result.Intent)
	}
}

func TestExtractSidecarErrorSurfaces(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	if _, err := NewClient(ts.URL, time.Second).Extract(context.Background(), "hello", nil); err == nil {
		t.Fatalf("expected error for sidecar failure")
	}
}
