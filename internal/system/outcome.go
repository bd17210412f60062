package system

import (
	"fmt"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Code classifies a game-rule outcome.
type Code uint8

const (
	CodeOK Code = iota
	CodeNotFound
	CodeLocked
	CodeLevelTooLow
	CodeInsufficientResources
	CodeMaxLevel
	CodeBusy
	CodeNotReady
	CodePrerequisiteMissing
	CodeInsufficientSkillPoints
	CodeInvalid
	CodeAlreadySet
	CodeCapacity
)

var codeNames = [...]string{
	"ok", "not_found", "locked", "level_too_low", "insufficient_resources",
	"max_level", "busy", "not_ready", "prerequisite_missing",
	"insufficient_skill_points", "invalid", "already_set", "capacity",
}

func (c Code) String() string {
	if int(c) < len(codeNames) {
		return codeNames[c]
	}
	return fmt.Sprintf("code(%d)", uint8(c))
}

// Result is the outcome of a player action. Failures are expected game
// outcomes, not errors.
type Result struct {
	Success bool
	Code    Code
	Message string
	// ID is the entity created by the action, if any.
	ID string
}

// printer formats player-facing numbers with digit grouping.
var printer = message.NewPrinter(language.English)

func succeed(id, format string, args ...any) Result {
	return Result{Success: true, Code: CodeOK, Message: printer.Sprintf(format, args...), ID: id}
}

func fail(code Code, format string, args ...any) Result {
	return Result{Code: code, Message: printer.Sprintf(format, args...)}
}

// Succeeded builds a successful result for callers outside this package.
func Succeeded(id, format string, args ...any) Result {
	return succeed(id, format, args...)
}

// Failed builds a failed result for callers outside this package.
func Failed(code Code, format string, args ...any) Result {
	return fail(code, format, args...)
}
