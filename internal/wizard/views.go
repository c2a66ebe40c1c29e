package wizard

import (
	"fmt"
	"strings"

	"github.com/slack-go/slack"

	"github.com/rafeenoor/abflow/internal/config"
)

// Callback IDs route view submissions back to the owning step.
const (
	CallbackClientAndName  = "abflow_client_and_name"
	CallbackChoice         = "abflow_choice"
	CallbackVariationCount = "abflow_variation_count"
	CallbackCreateSnippets = "abflow_create_snippets"
	CallbackUpdateSnippets = "abflow_update_snippets"
	CallbackTerminal       = "abflow_terminal"
)

// Block and action IDs for form fields and buttons.
const (
	BlockClient       = "client"
	BlockTestName     = "test_name"
	BlockChoice       = "choice"
	BlockCount        = "variation_count"
	BlockUpdateIndex  = "update_index"
	BlockUpdateJS     = "update_js"
	BlockUpdateCSS    = "update_css"
	ActionClient      = "client_select"
	ActionTestName    = "test_name_input"
	ActionCreate      = "choose_create"
	ActionUpdate      = "choose_update"
	ActionCount       = "count_input"
	ActionSnippet     = "snippet_input"
	ActionUpdateIndex = "index_input"
)

// VariationJSBlock returns the block ID of the JS snippet field for a
// 1-indexed variation in the create view.
func VariationJSBlock(i int) string {
	return fmt.Sprintf("var_%d_js", i)
}

// VariationCSSBlock returns the block ID of the CSS snippet field for a
// 1-indexed variation in the create view.
func VariationCSSBlock(i int) string {
	return fmt.Sprintf("var_%d_css", i)
}

const viewTitle = "A/B Test Variations"

func plainText(text string) *slack.TextBlockObject {
	return slack.NewTextBlockObject(slack.PlainTextType, text, false, false)
}

func markdown(text string) *slack.TextBlockObject {
	return slack.NewTextBlockObject(slack.MarkdownType, text, false, false)
}

func modal(callbackID, submitLabel string, blocks []slack.Block) slack.ModalViewRequest {
	view := slack.ModalViewRequest{
		Type:       slack.VTModal,
		CallbackID: callbackID,
		Title:      plainText(viewTitle),
		Close:      plainText("Cancel"),
		Blocks:     slack.Blocks{BlockSet: blocks},
	}
	if submitLabel != "" {
		view.Submit = plainText(submitLabel)
	}
	return view
}

// clientAndNameView is the entry dialog: a client picklist plus a free-text
// test name field. No remote calls happen before its submission.
func clientAndNameView(clients *config.ClientDirectory) slack.ModalViewRequest {
	options := make([]*slack.OptionBlockObject, 0, clients.Len())
	for _, id := range clients.IDs() {
		options = append(options, slack.NewOptionBlockObject(id, plainText(id), nil))
	}

	clientSelect := slack.NewOptionsSelectBlockElement(
		slack.OptTypeStatic, plainText("Select a client"), ActionClient, options...)

	nameInput := slack.NewPlainTextInputBlockElement(plainText("e.g. hero-cta"), ActionTestName)

	blocks := []slack.Block{
		inputBlock(BlockClient, "Client", clientSelect),
		inputBlock(BlockTestName, "Test name", nameInput),
	}

	return modal(CallbackClientAndName, "Next", blocks)
}

func inputBlock(blockID, label string, element slack.BlockElement) *slack.InputBlock {
	return slack.NewInputBlock(blockID, plainText(label), nil, element)
}

// choiceView offers "Create New" always and "Update Existing" only when the
// test directory already has an occupant.
func choiceView(st State) slack.ModalViewRequest {
	var summary strings.Builder
	fmt.Fprintf(&summary, "*Test:* `%s`\n*Client:* `%s`\n", st.TestName, st.ClientID)
	if st.Exists {
		summary.WriteString("This test already exists. Create fresh variations or update an existing one.")
	} else {
		summary.WriteString("This test does not exist yet.")
	}

	buttons := []slack.BlockElement{
		slack.NewButtonBlockElement(ActionCreate, "create", plainText("Create New")).WithStyle(slack.StylePrimary),
	}
	if st.Exists {
		buttons = append(buttons, slack.NewButtonBlockElement(ActionUpdate, "update", plainText("Update Existing")))
	}

	blocks := []slack.Block{
		slack.NewSectionBlock(markdown(summary.String()), nil, nil),
		slack.NewActionBlock(BlockChoice, buttons...),
	}

	view := modal(CallbackChoice, "", blocks)
	view.PrivateMetadata = st.Encode()
	return view
}

// countView asks how many variations to create. Out-of-range and
// non-numeric input is clamped on submission, not rejected.
func countView(st State) slack.ModalViewRequest {
	countInput := slack.NewPlainTextInputBlockElement(plainText("1-5"), ActionCount)
	countInput.InitialValue = "1"

	blocks := []slack.Block{
		slack.NewSectionBlock(markdown(fmt.Sprintf("Creating variations for `%s`.", st.TestName)), nil, nil),
		inputBlock(BlockCount, "How many variations? (1-5)", countInput),
	}

	view := modal(CallbackVariationCount, "Next", blocks)
	view.PrivateMetadata = st.Encode()
	return view
}

// createSnippetsView renders one JS + one CSS multiline field per variation,
// 1-indexed, each pair grouped under its own header.
func createSnippetsView(st State) slack.ModalViewRequest {
	blocks := make([]slack.Block, 0, st.Variations*3)
	for i := 1; i <= st.Variations; i++ {
		js := slack.NewPlainTextInputBlockElement(plainText("// JavaScript snippet"), ActionSnippet)
		js.Multiline = true
		css := slack.NewPlainTextInputBlockElement(plainText("/* CSS snippet */"), ActionSnippet)
		css.Multiline = true

		jsBlock := inputBlock(VariationJSBlock(i), fmt.Sprintf("Variation %d JS", i), js)
		jsBlock.Optional = true
		cssBlock := inputBlock(VariationCSSBlock(i), fmt.Sprintf("Variation %d CSS", i), css)
		cssBlock.Optional = true

		blocks = append(blocks,
			slack.NewHeaderBlock(plainText(fmt.Sprintf("Variation %d", i))),
			jsBlock,
			cssBlock,
		)
	}

	view := modal(CallbackCreateSnippets, "Create", blocks)
	view.PrivateMetadata = st.Encode()
	return view
}

// updateSnippetsView asks for a variation index and one snippet pair. It
// deliberately does not pre-fetch current file contents: submission is a
// pure overwrite.
func updateSnippetsView(st State) slack.ModalViewRequest {
	index := slack.NewPlainTextInputBlockElement(plainText("1"), ActionUpdateIndex)
	index.InitialValue = "1"

	js := slack.NewPlainTextInputBlockElement(plainText("// JavaScript snippet"), ActionSnippet)
	js.Multiline = true
	css := slack.NewPlainTextInputBlockElement(plainText("/* CSS snippet */"), ActionSnippet)
	css.Multiline = true

	jsBlock := inputBlock(BlockUpdateJS, "JS snippet", js)
	jsBlock.Optional = true
	cssBlock := inputBlock(BlockUpdateCSS, "CSS snippet", css)
	cssBlock.Optional = true

	blocks := []slack.Block{
		slack.NewSectionBlock(markdown(fmt.Sprintf("Updating a variation of `%s`.", st.TestName)), nil, nil),
		inputBlock(BlockUpdateIndex, "Variation number", index),
		jsBlock,
		cssBlock,
	}

	view := modal(CallbackUpdateSnippets, "Update", blocks)
	view.PrivateMetadata = st.Encode()
	return view
}

// successView is the terminal confirmation dialog.
func successView(message string) slack.ModalViewRequest {
	view := modal(CallbackTerminal, "", []slack.Block{
		slack.NewSectionBlock(markdown(":white_check_mark: "+message), nil, nil),
	})
	view.Close = plainText("Done")
	return view
}

// ErrorView renders a terminal error dialog outside the normal flow, e.g.
// when a dialog's state token cannot be decoded.
func ErrorView(message string) slack.ModalViewRequest {
	return failureView(message, nil, "")
}

// failureView is the terminal error dialog. It carries the raw failure
// message and, for partial multi-file writes, exactly which paths were
// written before the failure.
func failureView(message string, written []string, failedPath string) slack.ModalViewRequest {
	var body strings.Builder
	body.WriteString(":x: " + message)
	if failedPath != "" {
		fmt.Fprintf(&body, "\n\n*Failed at:* `%s`", failedPath)
	}
	if len(written) > 0 {
		body.WriteString("\n*Already written:*")
		for _, p := range written {
			fmt.Fprintf(&body, "\n• `%s`", p)
		}
	}

	view := modal(CallbackTerminal, "", []slack.Block{
		slack.NewSectionBlock(markdown(body.String()), nil, nil),
	})
	view.Close = plainText("Close")
	return view
}
