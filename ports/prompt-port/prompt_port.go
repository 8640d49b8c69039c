package promptport

//go:generate mockgen -destination=../../mocks/mock_prompt_port.go -package=mocks github.com/chitacloud/droidflash/ports/prompt-port Prompter

// Prompter asks the operator for decisions. Calls block the calling
// goroutine until answered.
type Prompter interface {
	// Confirm asks a yes/no question.
	Confirm(message string) bool

	// PromptText asks for a line of text. ok is false if the operator
	// cancelled.
	PromptText(message, def string) (text string, ok bool)

	// ChooseFile asks for an existing file path.
	ChooseFile(message string) (path string, ok bool)

	// ChooseFolder asks for an existing directory path.
	ChooseFolder(message string) (path string, ok bool)
}
