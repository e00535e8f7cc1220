package bootstrap

import (
	"embed"

	"github.com/kbukum/runkit/extension"
	"github.com/kbukum/runkit/lifecycle"
)

// Contract keys for the extension points the orchestrator consumes.
const (
	RunListenersContract       = extension.ContractKey("runkit.RunListener")
	ExceptionReportersContract = extension.ContractKey("runkit.ExceptionReporter")
)

// DeclarationResource is the file name probed for extension declarations.
const DeclarationResource = "runkit.extensions"

//go:embed runkit.extensions
var builtinDeclarations embed.FS

// defaultRegistry assembles the registry with the built-in declaration
// resource and factories. Applications extend it via App.Registry or replace
// it with WithRegistry.
func (a *App) defaultRegistry() *extension.Registry {
	r := extension.NewRegistry()
	r.AddLocation(builtinDeclarations, DeclarationResource)
	r.RegisterFactory(RunListenersContract, lifecycle.LogListenerID,
		func(run extension.RunInput) (any, error) {
			return lifecycle.NewLogListener(a.log), nil
		})
	r.RegisterFactory(RunListenersContract, lifecycle.TraceListenerID,
		func(run extension.RunInput) (any, error) {
			return lifecycle.NewTraceListener(a.log, a.Name, a.Version.Version, run.RunID), nil
		})
	r.RegisterFactory(ExceptionReportersContract, LogReporterID,
		func(run extension.RunInput) (any, error) {
			return NewLogReporter(a.log), nil
		})
	return r
}
