// Package slackhook exposes the inbound HTTP surface of the bot: the slash
// command, interaction callbacks from modals, and the Events API.
package slackhook

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"

	"github.com/rafeenoor/abflow/internal/flowlog"
	"github.com/rafeenoor/abflow/internal/wizard"
)

const expiredDialogMessage = "This dialog has expired. Please run the command again."

// Handler handles Slack webhook deliveries
type Handler struct {
	signingSecret string
	command       string
	flow          *wizard.Flow
	slack         SlackAPI
	deduper       *eventDeduper
	flows         *flowlog.Store
}

// NewHandler creates a new Slack webhook handler
func NewHandler(signingSecret, command string, flow *wizard.Flow, api SlackAPI, flows *flowlog.Store) *Handler {
	return &Handler{
		signingSecret: signingSecret,
		command:       command,
		flow:          flow,
		slack:         api,
		deduper:       newEventDeduper(12 * time.Hour),
		flows:         flows,
	}
}

// verifyRequest reads the payload and checks the Slack request signature.
// On success the body is restored so form parsing still works downstream.
func (h *Handler) verifyRequest(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		log.Printf("[Slack] Error reading payload: %v", err)
		http.Error(w, "Error reading payload", http.StatusBadRequest)
		return nil, false
	}

	verifier, err := slack.NewSecretsVerifier(r.Header, h.signingSecret)
	if err != nil {
		log.Printf("[Slack] Invalid signature headers: %v", err)
		http.Error(w, "Invalid signature", http.StatusUnauthorized)
		return nil, false
	}
	verifier.Write(payload)
	if err := verifier.Ensure(); err != nil {
		log.Printf("[Slack] Signature verification failed: %v", err)
		http.Error(w, "Invalid signature", http.StatusUnauthorized)
		return nil, false
	}

	r.Body = io.NopCloser(bytes.NewReader(payload))
	return payload, true
}

// HandleCommand handles the slash-command invocation and opens the entry
// dialog. No remote store calls happen here.
func (h *Handler) HandleCommand(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.verifyRequest(w, r); !ok {
		return
	}

	cmd, err := slack.SlashCommandParse(r)
	if err != nil {
		log.Printf("[Slack] Error parsing slash command: %v", err)
		http.Error(w, "Error parsing command", http.StatusBadRequest)
		return
	}

	log.Printf("[Slack] Command %s invoked by %s", cmd.Command, cmd.UserName)

	if err := h.slack.OpenView(cmd.TriggerID, h.flow.Begin()); err != nil {
		log.Printf("[Slack] Failed to open entry dialog: %v", err)
		http.Error(w, "Failed to open dialog", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
}

// HandleInteraction handles dialog submissions and button activations.
func (h *Handler) HandleInteraction(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.verifyRequest(w, r); !ok {
		return
	}

	raw := r.FormValue("payload")
	if raw == "" {
		http.Error(w, "Missing payload", http.StatusBadRequest)
		return
	}

	var callback slack.InteractionCallback
	if err := json.Unmarshal([]byte(raw), &callback); err != nil {
		log.Printf("[Slack] Error parsing interaction payload: %v", err)
		http.Error(w, "Error parsing payload", http.StatusBadRequest)
		return
	}

	switch callback.Type {
	case slack.InteractionTypeViewSubmission:
		h.handleViewSubmission(w, r, callback)
	case slack.InteractionTypeBlockActions:
		h.handleBlockActions(w, callback)
	default:
		log.Printf("[Slack] Ignoring interaction type: %s", callback.Type)
		w.WriteHeader(http.StatusOK)
	}
}

// handleViewSubmission dispatches a modal submission to its wizard step and
// maps the typed result onto Slack's response_action body.
func (h *Handler) handleViewSubmission(w http.ResponseWriter, r *http.Request, callback slack.InteractionCallback) {
	values := wizard.FormValuesFromState(callback.View.State)
	actor := actorName(callback)

	switch callback.View.CallbackID {
	case wizard.CallbackClientAndName:
		result := h.flow.SubmitClientAndName(r.Context(), values)
		h.recordOutcome(actor, result.Outcome)
		writeSubmissionResponse(w, result)

	case wizard.CallbackVariationCount:
		state, err := h.decodeState(w, callback)
		if err != nil {
			return
		}
		writeSubmissionResponse(w, h.flow.SubmitVariationCount(state, values))

	case wizard.CallbackCreateSnippets:
		state, err := h.decodeState(w, callback)
		if err != nil {
			return
		}
		result := h.flow.SubmitCreateSnippets(r.Context(), state, values)
		h.recordOutcome(actor, result.Outcome)
		writeSubmissionResponse(w, result)

	case wizard.CallbackUpdateSnippets:
		state, err := h.decodeState(w, callback)
		if err != nil {
			return
		}
		result := h.flow.SubmitUpdateSnippets(r.Context(), state, values)
		h.recordOutcome(actor, result.Outcome)
		writeSubmissionResponse(w, result)

	default:
		// Terminal dialogs have no submit button; anything else is stale.
		log.Printf("[Slack] Ignoring submission for callback %q", callback.View.CallbackID)
		w.WriteHeader(http.StatusOK)
	}
}

// decodeState parses the step-state token carried in the view's private
// metadata. A decode failure terminates the flow with an error dialog
// instead of continuing with zero values.
func (h *Handler) decodeState(w http.ResponseWriter, callback slack.InteractionCallback) (wizard.State, error) {
	state, err := wizard.DecodeState(callback.View.PrivateMetadata)
	if err != nil {
		log.Printf("[Slack] State decode failed for view %s: %v", callback.View.ID, err)
		writeSubmissionResponse(w, wizard.Result{
			Kind: wizard.ResultUpdate,
			View: wizard.ErrorView(expiredDialogMessage),
		})
		return wizard.State{}, err
	}
	return state, nil
}

// handleBlockActions handles the create/update choice buttons. Button
// presses cannot answer with a response_action, so the next dialog is
// rendered through views.update against the open view.
func (h *Handler) handleBlockActions(w http.ResponseWriter, callback slack.InteractionCallback) {
	if len(callback.ActionCallback.BlockActions) == 0 {
		w.WriteHeader(http.StatusOK)
		return
	}
	action := callback.ActionCallback.BlockActions[0]

	// Button redeliveries are deduped by action timestamp per view.
	if !h.deduper.markIfNew(callback.View.ID + "/" + action.ActionTs) {
		log.Printf("[Slack] Ignoring duplicate action %s on view %s", action.ActionID, callback.View.ID)
		w.WriteHeader(http.StatusOK)
		return
	}

	state, err := wizard.DecodeState(callback.View.PrivateMetadata)
	if err != nil {
		log.Printf("[Slack] State decode failed for view %s: %v", callback.View.ID, err)
		h.updateView(callback, wizard.ErrorView(expiredDialogMessage))
		w.WriteHeader(http.StatusOK)
		return
	}

	var result wizard.Result
	switch action.ActionID {
	case wizard.ActionCreate:
		result = h.flow.ChooseCreate(state)
	case wizard.ActionUpdate:
		result = h.flow.ChooseUpdate(state)
	default:
		log.Printf("[Slack] Ignoring unknown action: %s", action.ActionID)
		w.WriteHeader(http.StatusOK)
		return
	}

	h.updateView(callback, result.View)
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) updateView(callback slack.InteractionCallback, view slack.ModalViewRequest) {
	if err := h.slack.UpdateView(view, callback.View.ID, callback.View.Hash); err != nil {
		log.Printf("[Slack] Failed to update view %s: %v", callback.View.ID, err)
	}
}

// HandleEvent handles Events API deliveries: the URL verification handshake
// and app mentions. Everything else is acknowledged and ignored.
func (h *Handler) HandleEvent(w http.ResponseWriter, r *http.Request) {
	payload, ok := h.verifyRequest(w, r)
	if !ok {
		return
	}

	event, err := slackevents.ParseEvent(json.RawMessage(payload), slackevents.OptionNoVerifyToken())
	if err != nil {
		log.Printf("[Slack] Error parsing event: %v", err)
		http.Error(w, "Error parsing event", http.StatusBadRequest)
		return
	}

	switch event.Type {
	case slackevents.URLVerification:
		var challenge slackevents.ChallengeResponse
		if err := json.Unmarshal(payload, &challenge); err != nil {
			http.Error(w, "Error parsing challenge", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte(challenge.Challenge))

	case slackevents.CallbackEvent:
		var envelope struct {
			EventID string `json:"event_id"`
		}
		_ = json.Unmarshal(payload, &envelope)
		if !h.deduper.markIfNew(envelope.EventID) {
			log.Printf("[Slack] Ignoring duplicate event: id=%s", envelope.EventID)
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("Duplicate event ignored"))
			return
		}

		if mention, ok := event.InnerEvent.Data.(*slackevents.AppMentionEvent); ok {
			greeting := fmt.Sprintf(":wave: Hi! Run `%s` to create or update A/B test variations.", h.command)
			if err := h.slack.PostMessage(mention.Channel, greeting); err != nil {
				log.Printf("[Slack] Failed to post greeting: %v", err)
			}
		}
		w.WriteHeader(http.StatusOK)

	default:
		log.Printf("[Slack] Ignoring unsupported event type: %s", event.Type)
		w.WriteHeader(http.StatusOK)
	}
}

// recordOutcome stores a terminal flow result in the audit log.
func (h *Handler) recordOutcome(actor string, outcome *wizard.Outcome) {
	if h.flows == nil || outcome == nil {
		return
	}

	flow := &flowlog.Flow{
		ID:       flowlog.NewFlowID(outcome.ClientID, outcome.TestName),
		ClientID: outcome.ClientID,
		TestName: outcome.TestName,
		Action:   outcome.Action,
		Actor:    actor,
		Written:  outcome.Written,
	}
	if outcome.Success {
		flow.Status = flowlog.StatusSucceeded
	} else {
		flow.Status = flowlog.StatusFailed
		flow.FailedPath = outcome.FailedPath
		if outcome.Err != nil {
			flow.Error = outcome.Err.Error()
		}
	}

	h.flows.Record(flow)
	if outcome.Success {
		h.flows.AddLog(flow.ID, "success", fmt.Sprintf("%s finished, %d file(s) written", outcome.Action, len(outcome.Written)))
	} else {
		h.flows.AddLog(flow.ID, "error", flow.Error)
	}
}

func actorName(callback slack.InteractionCallback) string {
	if callback.User.Name != "" {
		return callback.User.Name
	}
	return callback.User.ID
}

func writeSubmissionResponse(w http.ResponseWriter, result wizard.Result) {
	var response *slack.ViewSubmissionResponse
	switch result.Kind {
	case wizard.ResultErrors:
		response = slack.NewErrorsViewSubmissionResponse(result.Errors)
	case wizard.ResultPush:
		view := result.View
		response = slack.NewPushViewSubmissionResponse(&view)
	case wizard.ResultUpdate:
		view := result.View
		response = slack.NewUpdateViewSubmissionResponse(&view)
	default:
		w.WriteHeader(http.StatusOK)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		log.Printf("[Slack] Failed to encode submission response: %v", err)
	}
}
