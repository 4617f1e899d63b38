// Global configuration for the linear-hashed file.
package config

// Name of the application; the REPL prompt is built from it.
const AppName = "mahash"

// Prompt printed by the REPL.
const Prompt = AppName + "> "

// The maximum number of pages that can be in the pager's buffer at once.
const MaxPagesInBuffer = 32

// Return prompt if requested, else "".
func GetPrompt(flag bool) string {
	if flag {
		return Prompt
	}
	return ""
}
