package services

import "errors"

var (
	ErrConfigurationMissing = errors.New("configuration missing")
	ErrPathNotFound         = errors.New("path not found")
	ErrArtifactNotFound     = errors.New("deployed artifact not found, run a full rebuild first")
	ErrProcessSpawn         = errors.New("process spawn failed")
	ErrProcessTimeout       = errors.New("process timed out")
	ErrNonZeroExit          = errors.New("process exited with non-zero code")
	ErrFilesystem           = errors.New("filesystem error")
	ErrAlreadyRunning       = errors.New("server is already running")
	ErrServerExited         = errors.New("server exited during startup")
	ErrServerStillRunning   = errors.New("server processes still running after stop")
	ErrUnknownVerb          = errors.New("unknown build verb")
)
