package dialog

import (
	"context"
	"fmt"
	"log"
	"strconv"

	"github.com/malecare/trialmatch/models"
	"github.com/malecare/trialmatch/nlu"
	"github.com/malecare/trialmatch/registry"
	"github.com/malecare/trialmatch/session"
)

var logger = log.New(log.Writer(), "[DIALOG] ", log.LstdFlags)

// Canned conversational responses. Wording matters here: on every failure
// path the user sees natural language, never an error code.
const (
	greetingResponse = "Hello! I can help you find clinical trials. What type of cancer are you researching?"
	farewellResponse = "Goodbye! Feel free to return anytime you need help finding clinical trials."
	intakeRequired   = "Before we chat, please complete the intake form so I can match you to the right trials."
	clarifyResponse  = "Could you clarify your request?"
)

// slotPrompts are the targeted clarifying questions, one per mandatory slot.
var slotPrompts = map[string]string{
	models.SlotCancerType: "Please tell me your cancer type.",
	models.SlotStage:      "Please tell me your cancer stage.",
	models.SlotLocation:   "Please tell me your location (city and state).",
}

// Searcher is the slice of the registry client the engine needs. The
// registry client keeps the returned list non-empty; the engine tolerates
// implementations that do not.
type Searcher interface {
	Search(ctx context.Context, cancerType, location, stage string, age int) []models.TrialRecord
}

// Engine is the per-session slot-filling state machine. It merges NLU
// output into session state, picks the next prompt or action, and triggers
// trial searches when the session is query-ready. Callers serialize turns
// per session id; the engine keeps all turn mutation local until one state
// write at the end of the turn.
type Engine struct {
	store  session.Store
	nlu    nlu.Extractor
	trials Searcher
}

// NewEngine creates a conversation engine.
func NewEngine(store session.Store, extractor nlu.Extractor, trials Searcher) *Engine {
	return &Engine{store: store, nlu: extractor, trials: trials}
}

// SubmitIntake records the one-time bulk intake for a session. All
// mandatory fields land in a single atomic write together with
// IntakeComplete=true; conversational slot-filling never sets that flag.
func (e *Engine) SubmitIntake(ctx context.Context, sessionID string, sub models.IntakeSubmission) (models.ConversationState, error) {
	if !sub.Complete() {
		return models.ConversationState{}, models.ErrIncompleteIntake
	}

	state := models.ConversationState{
		CancerType:      sub.CancerType,
		Stage:           sub.Stage,
		Age:             sub.Age,
		Sex:             sub.Sex,
		Location:        sub.Location,
		Comorbidities:   sub.Comorbidities,
		PriorTreatments: sub.PriorTreatments,
		IntakeComplete:  true,
	}
	if err := e.store.Put(ctx, sessionID, state); err != nil {
		return models.ConversationState{}, fmt.Errorf("store intake state: %w", err)
	}
	logger.Printf("intake complete for session %s: %s, stage %s, near %s", sessionID, state.CancerType, state.Stage, state.Location)
	return state, nil
}

// IntakeConfirmation is the natural-language acknowledgement for a
// completed intake.
func IntakeConfirmation(state models.ConversationState) string {
	return fmt.Sprintf("Thanks! I've recorded your profile: %s, stage %s, near %s. Ask me to find trials whenever you're ready.",
		state.CancerType, state.Stage, state.Location)
}

// HandleMessage runs one conversational turn. Messages before intake are
// rejected with a guidance prompt and change nothing. NLU failures degrade
// to a clarification prompt; registry failures are absorbed by the client's
// own error-record contract. The session state is written back exactly once,
// at the end of the turn.
func (e *Engine) HandleMessage(ctx context.Context, sessionID, text string) (models.Reply, error) {
	state, err := e.store.Get(ctx, sessionID)
	if err != nil {
		return models.Reply{}, fmt.Errorf("load session %s: %w", sessionID, err)
	}

	if !state.IntakeComplete {
		turnsTotal.WithLabelValues("intake_required").Inc()
		return models.Reply{Response: intakeRequired, RequiresIntake: true}, nil
	}

	ext, err := e.nlu.Extract(ctx, text, state.SlotValues())
	if err != nil {
		// A model failure costs the user a clarification prompt, not the turn.
		logger.Printf("nlu extract failed for session %s: %v", sessionID, err)
		ext = models.Extraction{Intent: models.IntentOther}
	}

	next := state
	mergeSlots(&next, ext.Slots)

	reply := e.dispatch(ctx, next, ext.Intent)
	reply.Intent = ext.Intent

	if err := e.store.Put(ctx, sessionID, next); err != nil {
		return models.Reply{}, fmt.Errorf("store session %s: %w", sessionID, err)
	}
	turnsTotal.WithLabelValues(ext.Intent).Inc()
	return reply, nil
}

// EndSession removes the session's state. Ending a session that does not
// exist is a no-op, not an error.
func (e *Engine) EndSession(ctx context.Context, sessionID string) error {
	if err := e.store.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("delete session %s: %w", sessionID, err)
	}
	return nil
}

func (e *Engine) dispatch(ctx context.Context, state models.ConversationState, intent string) models.Reply {
	switch intent {
	case models.IntentGreeting:
		return models.Reply{Response: greetingResponse}
	case models.IntentGoodbye:
		return models.Reply{Response: farewellResponse}
	case models.IntentFindTrials:
		if state.QueryReady() {
			return e.search(ctx, state)
		}
		// find_trials without a query-ready session falls through to
		// clarification instead of searching.
	}

	if missing := state.MissingSlots(); len(missing) > 0 {
		return models.Reply{Response: slotPrompts[missing[0]]}
	}
	return models.Reply{Response: clarifyResponse}
}

func (e *Engine) search(ctx context.Context, state models.ConversationState) models.Reply {
	trials := e.trials.Search(ctx, state.CancerType, state.Location, state.Stage, state.Age)
	if len(trials) == 0 {
		// The registry client keeps the list non-empty; other Searcher
		// implementations may not.
		return models.Reply{Response: fmt.Sprintf("I couldn't find any recruiting %s trials right now. Please try again later.", state.CancerType)}
	}

	first := trials[0]
	var response string
	switch {
	case first.RegistryID == registry.ErrorRecordID, first.RegistryID == registry.NoResultsID:
		response = first.Message
	case first.IsNationwide:
		response = fmt.Sprintf("I couldn't find recruiting %s trials near %s, but here are some recruiting nationwide:", state.CancerType, state.Location)
	default:
		response = fmt.Sprintf("Here are some %s clinical trials in %s:", state.CancerType, state.Location)
	}
	return models.Reply{Response: response, Trials: trials}
}

// mergeSlots folds NLU slot candidates into the state copy through a fixed
// mapping; the most recent utterance overrides stored scalar values, list
// slots grow in insertion order, and unknown keys are dropped at the
// boundary. Whether conversational mentions should overwrite confirmed
// intake values (rather than only fill empty ones) is a product decision;
// last-seen-wins is the policy here.
func mergeSlots(state *models.ConversationState, slots map[string]string) {
	for key, value := range slots {
		if value == "" {
			continue
		}
		switch key {
		case models.SlotCancerType:
			state.CancerType = value
		case models.SlotStage:
			state.Stage = value
		case models.SlotAge:
			if age, err := strconv.Atoi(value); err == nil && age > 0 {
				state.Age = age
			}
		case models.SlotSex:
			state.Sex = value
		case models.SlotLocation:
			state.Location = value
		case models.SlotComorbidity:
			state.Comorbidities = appendUnique(state.Comorbidities, value)
		case models.SlotPriorTreatment:
			state.PriorTreatments = appendUnique(state.PriorTreatments, value)
		}
	}
}

func appendUnique(list []string, value string) []string {
	for _, v := range list {
		if v == value {
			return list
		}
	}
	return append(list, value)
}
