package driven

// PromptStore provides access to the instruction templates wrapped
// around retrieved context. Implementations may load prompts from
// files, embed them in the binary, or fetch them from configuration.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next
	// access. Useful when prompts have been edited on disk.
	Reload()
}

// Well-known prompt names. These constants define the contract between
// prompt consumers and providers.
const (
	// PromptAnswer grounds an answer in retrieved source chunks.
	// Expects %s (context) and %s (question) placeholders.
	PromptAnswer = "answer"

	// PromptAnswerNoContext is used when retrieval found no relevant
	// context. It instructs the model to say so rather than fabricate.
	// Expects a %s (question) placeholder.
	PromptAnswerNoContext = "answer_no_context"

	// PromptHistoryHeader introduces the bounded conversation history
	// block. No placeholders.
	PromptHistoryHeader = "history_header"
)
