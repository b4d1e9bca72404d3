package main

import (
	"errors"
	"fmt"
	"os"

	playerrors "github.com/jscyril/soundscape/pkg/errors"
)

// Process exit codes
const (
	exitOK            = 0
	exitFailure       = 1
	exitConfig        = 2
	exitSceneNotFound = 3
	exitAudio         = 4
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitCode(err))
	}
}

// exitCode maps an error to the process exit status
func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, playerrors.ErrConfigStructure):
		return exitConfig
	case errors.Is(err, playerrors.ErrSceneNotFound):
		return exitSceneNotFound
	case errors.Is(err, playerrors.ErrAudioInit):
		return exitAudio
	default:
		return exitFailure
	}
}
