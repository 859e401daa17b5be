// Package registry is the build host the tools plug into.
//
// An Environment holds construction variables and the builders tools
// register. Tools are added to a Registry at startup; Generate lets each of
// them configure the Environment, after which the Environment is only read.
// Builders describe an action as a variable reference (e.g. "$PANDOCCOM")
// that is substituted per Target, plus an optional scanner that reports the
// target's implicit dependencies.
package registry
