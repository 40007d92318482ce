package main

import (
	"context"
	"os"

	"github.com/agbru/parbench/internal/app"
	apperrors "github.com/agbru/parbench/internal/errors"
	"github.com/agbru/parbench/internal/worker"
)

func main() {
	// A re-executed process worker never reaches the CLI.
	if worker.IsChild() {
		os.Exit(worker.RunChild(context.Background(), os.Stdin, os.Stdout, os.Stderr))
	}

	if app.HasVersionFlag(os.Args[1:]) {
		app.PrintVersion(os.Stdout)
		return
	}

	application, err := app.New(os.Args, os.Stderr)
	if err != nil {
		if app.IsHelpError(err) {
			os.Exit(0)
		}
		os.Exit(apperrors.ExitCodeFor(err))
	}

	exitCode := application.Run(context.Background(), os.Stdout)
	os.Exit(exitCode)
}
