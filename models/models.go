package models

import (
	"errors"
	"strconv"
)

// ErrIncompleteIntake is returned when an intake submission is missing a mandatory field.
var ErrIncompleteIntake = errors.New("intake submission missing mandatory fields")

// Slot names shared by the NLU contract and the conversation state fields.
// Keys outside this set are ignored at the merge boundary.
const (
	SlotCancerType     = "cancer_type"
	SlotStage          = "stage"
	SlotAge            = "age"
	SlotSex            = "sex"
	SlotLocation       = "location"
	SlotComorbidity    = "comorbidity"
	SlotPriorTreatment = "prior_treatment"
)

// ConversationState is the clinical profile collected for one session.
// It is owned by the session store; turns mutate a local copy and write it
// back once at the end of the turn.
type ConversationState struct {
	CancerType      string   `json:"cancer_type,omitempty"`
	Stage           string   `json:"stage,omitempty"`
	Age             int      `json:"age,omitempty"`
	Sex             string   `json:"sex,omitempty"`
	Location        string   `json:"location,omitempty"`
	Comorbidities   []string `json:"comorbidities,omitempty"`
	PriorTreatments []string `json:"prior_treatments,omitempty"`
	IntakeComplete  bool     `json:"intake_complete"`
}

// QueryReady reports whether the session can be used to search for trials.
func (s ConversationState) QueryReady() bool {
	return s.IntakeComplete && s.CancerType != "" && s.Location != ""
}

// MissingSlots returns the unset mandatory conversational slots in fixed
// priority order: cancer type first, then stage, then location.
func (s ConversationState) MissingSlots() []string {
	var missing []string
	if s.CancerType == "" {
		missing = append(missing, SlotCancerType)
	}
	if s.Stage == "" {
		missing = append(missing, SlotStage)
	}
	if s.Location == "" {
		missing = append(missing, SlotLocation)
	}
	return missing
}

// IntakeSubmission is the one-time bulk intake payload. CancerType, Stage,
// Age, Sex and Location are mandatory; the lists are optional.
type IntakeSubmission struct {
	CancerType      string   `json:"cancer_type"`
	Stage           string   `json:"stage"`
	Age             int      `json:"age"`
	Sex             string   `json:"sex"`
	Location        string   `json:"location"`
	Comorbidities   []string `json:"comorbidities,omitempty"`
	PriorTreatments []string `json:"prior_treatments,omitempty"`
}

// Complete reports whether every mandatory intake field is present.
func (i IntakeSubmission) Complete() bool {
	return i.CancerType != "" && i.Stage != "" && i.Age > 0 && i.Sex != "" && i.Location != ""
}

// TrialRecord is one normalized registry study. IsNationwide is true only
// for records obtained from the unscoped fallback query; within one search
// response it is uniform across all records.
type TrialRecord struct {
	RegistryID   string `json:"nct_id"`
	Title        string `json:"title"`
	Phase        string `json:"phase"`
	Status       string `json:"status"`
	Location     string `json:"location"`
	Facility     string `json:"facility"`
	Sponsor      string `json:"sponsor"`
	Link         string `json:"link"`
	IsNationwide bool   `json:"is_nationwide"`
	// Message carries the conversational text on the synthetic records
	// (registry unavailable, no matches) and is empty otherwise.
	Message string `json:"message,omitempty"`
}

// Reply is the per-turn response handed back to the transport layer.
type Reply struct {
	Response       string        `json:"response"`
	Intent         string        `json:"intent,omitempty"`
	RequiresIntake bool          `json:"requires_intake,omitempty"`
	Trials         []TrialRecord `json:"trials,omitempty"`
}

// Intent labels the NLU gateway may return.
const (
	IntentGreeting   = "greeting"
	IntentGoodbye    = "goodbye"
	IntentFindTrials = "find_trials"
	IntentOther      = "other"
)

// Extraction is the NLU gateway's output for one utterance: an intent label
// and candidate slot values. Absent slots are omitted, never empty strings.
type Extraction struct {
	Intent string            `json:"intent"`
	Slots  map[string]string `json:"slots"`
}

// SlotValues returns the filled scalar slots as the context map handed to
// the NLU gateway alongside each utterance.
func (s ConversationState) SlotValues() map[string]string {
	known := map[string]string{}
	if s.CancerType != "" {
		known[SlotCancerType] = s.CancerType
	}
	if s.Stage != "" {
		known[SlotStage] = s.Stage
	}
	if s.Age > 0 {
		known[SlotAge] = strconv.Itoa(s.Age)
	}
	if s.Sex != "" {
		known[SlotSex] = s.Sex
	}
	if s.Location != "" {
		known[SlotLocation] = s.Location
	}
	return known
}
