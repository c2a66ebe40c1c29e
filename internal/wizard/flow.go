// Package wizard implements the modal dialog flow for creating and updating
// A/B test variation files. The flow is an explicit state machine: each step
// consumes validated form values plus the accumulated step state and yields
// a typed result (field errors, a pushed view, or an in-place update), so
// the flow logic stays independent of Slack's view-stack mechanics.
package wizard

import (
	"context"
	"fmt"
	"log"
	"strconv"

	"github.com/slack-go/slack"

	"github.com/rafeenoor/abflow/internal/config"
	"github.com/rafeenoor/abflow/internal/githubstore"
)

const (
	minVariations = 1
	maxVariations = 5
)

// FileStore is the remote content store surface the flow depends on.
type FileStore interface {
	GetRevisionMarker(ctx context.Context, owner, repo, path, ref string) (*githubstore.RevisionMarker, error)
	WriteFile(ctx context.Context, owner, repo string, w githubstore.FileWrite) error
}

// ResultKind tells the caller how to surface a step result.
type ResultKind int

const (
	// ResultErrors re-renders the current dialog with field annotations.
	ResultErrors ResultKind = iota
	// ResultPush opens the view on top of the current dialog.
	ResultPush
	// ResultUpdate replaces the current dialog in place.
	ResultUpdate
)

// Outcome summarizes a terminal step for logging and auditing.
type Outcome struct {
	Success    bool
	Action     string // "create" or "update"
	ClientID   string
	TestName   string
	Written    []string
	FailedPath string
	Err        error
}

// Result is the outcome of one step submission.
type Result struct {
	Kind   ResultKind
	Errors map[string]string // block ID -> message, for ResultErrors
	View   slack.ModalViewRequest
	// Outcome is non-nil when the flow reached a terminal dialog.
	Outcome *Outcome
}

// FormValues maps block IDs to the submitted field value.
type FormValues map[string]string

// FormValuesFromState flattens a submitted view state into FormValues.
// Plain-text inputs contribute their value, selects their selected option.
func FormValuesFromState(state *slack.ViewState) FormValues {
	values := make(FormValues)
	if state == nil {
		return values
	}
	for blockID, actions := range state.Values {
		for _, action := range actions {
			if action.SelectedOption.Value != "" {
				values[blockID] = action.SelectedOption.Value
			} else {
				values[blockID] = action.Value
			}
		}
	}
	return values
}

// Flow drives the wizard. It is stateless across invocations: everything a
// later step needs travels in the encoded State.
type Flow struct {
	clients *config.ClientDirectory
	store   FileStore
	branch  string
}

// NewFlow creates a flow controller over the client directory and store.
func NewFlow(clients *config.ClientDirectory, store FileStore, branch string) *Flow {
	return &Flow{clients: clients, store: store, branch: branch}
}

// Begin builds the entry dialog (client picklist + test name).
func (f *Flow) Begin() slack.ModalViewRequest {
	return clientAndNameView(f.clients)
}

// SubmitClientAndName validates the entry dialog and runs the existence
// check. Validation failures re-render the same dialog with field-level
// errors and make no remote call.
func (f *Flow) SubmitClientAndName(ctx context.Context, values FormValues) Result {
	clientID := values[BlockClient]
	testName := values[BlockTestName]

	fieldErrors := make(map[string]string)
	if clientID == "" {
		fieldErrors[BlockClient] = "Select a client"
	} else if _, ok := f.clients.Lookup(clientID); !ok {
		fieldErrors[BlockClient] = fmt.Sprintf("Unknown client %q", clientID)
	}
	if testName == "" {
		fieldErrors[BlockTestName] = "Enter a test name"
	}
	if len(fieldErrors) > 0 {
		return Result{Kind: ResultErrors, Errors: fieldErrors}
	}

	repo, _ := f.clients.Lookup(clientID)
	dir := repo.TestsPath + "/" + testName

	marker, err := f.store.GetRevisionMarker(ctx, repo.Owner, repo.Repo, dir, f.branch)
	if err != nil {
		log.Printf("[Wizard] Existence check failed for %s/%s %s: %v", repo.Owner, repo.Repo, dir, err)
		return terminalFailure("create", clientID, testName, err, nil, "")
	}

	st := State{
		Step:     StepChoice,
		ClientID: clientID,
		TestName: testName,
		// Any occupant of the path, file or directory, counts as existing.
		Exists: marker != nil,
	}

	return Result{Kind: ResultPush, View: choiceView(st)}
}

// ChooseCreate advances from the choice dialog to the variation-count dialog.
func (f *Flow) ChooseCreate(st State) Result {
	st.Step = StepVariationCount
	return Result{Kind: ResultUpdate, View: countView(st)}
}

// ChooseUpdate advances from the choice dialog to the update dialog.
func (f *Flow) ChooseUpdate(st State) Result {
	st.Step = StepUpdateSnippets
	return Result{Kind: ResultUpdate, View: updateSnippetsView(st)}
}

// SubmitVariationCount parses and clamps the requested count, then renders
// the snippet entry dialog in place.
func (f *Flow) SubmitVariationCount(st State, values FormValues) Result {
	st.Step = StepCreateSnippets
	st.Variations = clampVariations(values[BlockCount])
	return Result{Kind: ResultUpdate, View: createSnippetsView(st)}
}

// clampVariations parses raw input, defaulting non-numeric values to 1 and
// clamping the result into [1,5].
func clampVariations(raw string) int {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return minVariations
	}
	if n < minVariations {
		return minVariations
	}
	if n > maxVariations {
		return maxVariations
	}
	return n
}

// SubmitCreateSnippets writes one JS and one CSS file per variation,
// sequentially and non-transactionally. The first failure aborts remaining
// writes; the terminal dialog reports exactly which paths landed.
func (f *Flow) SubmitCreateSnippets(ctx context.Context, st State, values FormValues) Result {
	repo, ok := f.clients.Lookup(st.ClientID)
	if !ok {
		return terminalFailure("create", st.ClientID, st.TestName,
			fmt.Errorf("client %q is no longer configured", st.ClientID), nil, "")
	}

	dir := repo.TestsPath + "/" + st.TestName
	var written []string

	for i := 1; i <= st.Variations; i++ {
		pairs := []struct {
			path    string
			content string
		}{
			{fmt.Sprintf("%s/var-%d.js", dir, i), values[VariationJSBlock(i)]},
			{fmt.Sprintf("%s/var-%d.css", dir, i), values[VariationCSSBlock(i)]},
		}
		for _, p := range pairs {
			if err := f.upsertFile(ctx, repo, p.path, p.content); err != nil {
				return terminalFailure("create", st.ClientID, st.TestName, err, written, p.path)
			}
			written = append(written, p.path)
		}
	}

	message := fmt.Sprintf("Created %d variation(s) for test `%s` (client `%s`).",
		st.Variations, st.TestName, st.ClientID)
	return terminalSuccess("create", st, written, message)
}

// SubmitUpdateSnippets overwrites one variation's JS and CSS files.
func (f *Flow) SubmitUpdateSnippets(ctx context.Context, st State, values FormValues) Result {
	repo, ok := f.clients.Lookup(st.ClientID)
	if !ok {
		return terminalFailure("update", st.ClientID, st.TestName,
			fmt.Errorf("client %q is no longer configured", st.ClientID), nil, "")
	}

	index, err := strconv.Atoi(values[BlockUpdateIndex])
	if err != nil || index < 1 {
		index = 1
	}

	dir := repo.TestsPath + "/" + st.TestName
	paths := []struct {
		path    string
		content string
	}{
		{fmt.Sprintf("%s/var-%d.js", dir, index), values[BlockUpdateJS]},
		{fmt.Sprintf("%s/var-%d.css", dir, index), values[BlockUpdateCSS]},
	}

	var written []string
	for _, p := range paths {
		if err := f.upsertFile(ctx, repo, p.path, p.content); err != nil {
			return terminalFailure("update", st.ClientID, st.TestName, err, written, p.path)
		}
		written = append(written, p.path)
	}

	message := fmt.Sprintf("Updated variation %d of test `%s` (client `%s`).",
		index, st.TestName, st.ClientID)
	return terminalSuccess("update", st, written, message)
}

// upsertFile reads the path's current revision marker and writes the content
// conditioned on it: marker present means update, absent means create.
func (f *Flow) upsertFile(ctx context.Context, repo config.ClientRepo, path, content string) error {
	marker, err := f.store.GetRevisionMarker(ctx, repo.Owner, repo.Repo, path, f.branch)
	if err != nil {
		return err
	}

	write := githubstore.FileWrite{
		Path:    path,
		Content: []byte(content),
		Branch:  f.branch,
		Message: fmt.Sprintf("Create %s", path),
	}
	if marker != nil && marker.SHA != "" {
		write.SHA = marker.SHA
		write.Message = fmt.Sprintf("Update %s", path)
	}

	return f.store.WriteFile(ctx, repo.Owner, repo.Repo, write)
}

func terminalSuccess(action string, st State, written []string, message string) Result {
	return Result{
		Kind: ResultUpdate,
		View: successView(message),
		Outcome: &Outcome{
			Success:  true,
			Action:   action,
			ClientID: st.ClientID,
			TestName: st.TestName,
			Written:  written,
		},
	}
}

func terminalFailure(action, clientID, testName string, err error, written []string, failedPath string) Result {
	return Result{
		Kind: ResultUpdate,
		View: failureView(err.Error(), written, failedPath),
		Outcome: &Outcome{
			Success:    false,
			Action:     action,
			ClientID:   clientID,
			TestName:   testName,
			Written:    written,
			FailedPath: failedPath,
			Err:        err,
		},
	}
}
