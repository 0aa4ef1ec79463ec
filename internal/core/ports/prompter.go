package ports

// Prompter asks the user for consent before mutating their environment,
// e.g. before installing a rust toolchain. The read blocks until the user
// answers.
//
//go:generate go run go.uber.org/mock/mockgen -source=prompter.go -destination=mocks/mock_prompter.go -package=mocks
type Prompter interface {
	// Confirm presents prompt and returns true when the user answers yes.
	Confirm(prompt string) (bool, error)
}
