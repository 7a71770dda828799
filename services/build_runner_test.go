package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tomcat-devloop/internal/config"
	"tomcat-devloop/internal/output"
	"tomcat-devloop/internal/proc"
)

func newTestBuildRunner(ws *config.Workspace, exec *fakeExecutor) (*BuildRunner, *output.BufferSink, *output.Recorder) {
	sink := output.NewBufferSink(0)
	rec := &output.Recorder{}
	return NewBuildRunner(ws, exec, &fakePlatform{}, sink, rec), sink, rec
}

func exitResult(code int) proc.Result {
	return proc.Result{Kind: proc.FailureExit, ExitCode: &code, Err: errors.New("exit status")}
}

func TestParseVerb(t *testing.T) {
	for _, v := range Verbs {
		got, err := ParseVerb(" " + strings.ToUpper(string(v)) + " ")
		require.NoError(t, err)
		assert.Equal(t, v, got)
	}
	_, err := ParseVerb("deploy")
	assert.ErrorIs(t, err, ErrUnknownVerb)
}

/**
 * Test package runs the exploded goal for the module
 * @param {*testing.T} t - Testing framework instance
 * @description
 * - Maven runs in the project directory with the workspace variables in its environment
 * - Exactly one success summary is emitted
 */
func TestPackageCommand(t *testing.T) {
	project := t.TempDir()
	ws := &config.Workspace{ProjectPath: project, AppContext: "web", SpringProfilesActive: "dev"}
	exec := &fakeExecutor{output: "[INFO] BUILD SUCCESS\n"}
	runner, sink, rec := newTestBuildRunner(ws, exec)

	require.NoError(t, runner.Package(context.Background()))

	cmds := exec.Commands()
	require.Len(t, cmds, 1)
	assert.Equal(t, "mvn", cmds[0].Name)
	assert.Equal(t, []string{"package", "war:exploded", "-DskipTests", "-am", "-pl", "web"}, cmds[0].Args)
	assert.Equal(t, project, cmds[0].Dir)
	assert.Equal(t, BuildTimeout, cmds[0].Timeout)
	assert.Contains(t, cmds[0].Env, "SPRING_PROFILES_ACTIVE=dev")
	assert.Contains(t, cmds[0].Env, "APP_CONTEXT=web")

	assert.Contains(t, sink.Text(), "[INFO] BUILD SUCCESS")
	assert.Equal(t, 1, sink.Revealed())
	assert.Equal(t, []output.Notification{{Level: output.LevelInfo, Message: "Exploded package finished"}}, rec.All())
}

func TestCompileUsesMavenHome(t *testing.T) {
	mavenHome := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(mavenHome, "bin"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(mavenHome, "bin", "mvn"), []byte("#!/bin/sh\n"), 0755))

	ws := &config.Workspace{ProjectPath: t.TempDir(), MavenHome: mavenHome}
	exec := &fakeExecutor{}
	runner, _, rec := newTestBuildRunner(ws, exec)

	require.NoError(t, runner.Compile(context.Background()))
	cmds := exec.Commands()
	require.Len(t, cmds, 1)
	assert.Equal(t, filepath.Join(mavenHome, "bin", "mvn"), cmds[0].Name)
	assert.Equal(t, []string{"compile"}, cmds[0].Args)
	assert.Equal(t, "Classes updated via hotswap", rec.All()[0].Message)
}

/**
 * Test missing configuration spawns nothing
 * @param {*testing.T} t - Testing framework instance
 */
func TestBuildMissingConfiguration(t *testing.T) {
	exec := &fakeExecutor{}
	runner, _, rec := newTestBuildRunner(&config.Workspace{ProjectPath: t.TempDir()}, exec)

	err := runner.Package(context.Background())
	assert.ErrorIs(t, err, ErrConfigurationMissing)
	assert.Contains(t, err.Error(), config.KeyAppContext)

	runner, _, rec2 := newTestBuildRunner(&config.Workspace{}, exec)
	assert.ErrorIs(t, runner.Compile(context.Background()), ErrConfigurationMissing)
	assert.Empty(t, exec.Commands())

	require.Len(t, rec.All(), 1)
	assert.Equal(t, output.LevelError, rec.All()[0].Level)
	require.Len(t, rec2.All(), 1)
}

/**
 * Test a failing clean skips package during a full rebuild
 * @param {*testing.T} t - Testing framework instance
 */
func TestFullRebuildCleanFailure(t *testing.T) {
	ws := &config.Workspace{ProjectPath: t.TempDir(), AppContext: "web"}
	exec := &fakeExecutor{results: []proc.Result{exitResult(1)}}
	runner, sink, rec := newTestBuildRunner(ws, exec)

	err := runner.FullRebuild(context.Background())
	assert.ErrorIs(t, err, ErrNonZeroExit)
	require.Len(t, exec.Commands(), 1)
	assert.Equal(t, []string{"clean"}, exec.Commands()[0].Args)
	assert.Contains(t, sink.Text(), "Maven clean failed with code 1")

	notes := rec.All()
	require.Len(t, notes, 1)
	assert.Equal(t, output.LevelError, notes[0].Level)
	assert.Contains(t, notes[0].Message, "Project clean failed")
}

func TestFullRebuildSuccess(t *testing.T) {
	ws := &config.Workspace{ProjectPath: t.TempDir(), AppContext: "web"}
	exec := &fakeExecutor{}
	runner, _, rec := newTestBuildRunner(ws, exec)

	require.NoError(t, runner.Run(context.Background(), VerbRebuild))
	cmds := exec.Commands()
	require.Len(t, cmds, 2)
	assert.Equal(t, "clean", cmds[0].Args[0])
	assert.Equal(t, "package", cmds[1].Args[0])
	assert.Equal(t, []output.Notification{{Level: output.LevelInfo, Message: "Exploded rebuild finished"}}, rec.All())
}

/**
 * Test executor failure kinds map to the build errors
 * @param {*testing.T} t - Testing framework instance
 */
func TestBuildFailureKinds(t *testing.T) {
	cases := []struct {
		name   string
		result proc.Result
		want   error
	}{
		{"timeout", proc.Result{Kind: proc.FailureTimeout, Err: errors.New("timed out")}, ErrProcessTimeout},
		{"spawn", proc.Result{Kind: proc.FailureSpawn, Err: errors.New("executable file not found")}, ErrProcessSpawn},
		{"canceled", proc.Result{Kind: proc.FailureCanceled, Err: context.Canceled}, context.Canceled},
		{"exit", exitResult(2), ErrNonZeroExit},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ws := &config.Workspace{ProjectPath: t.TempDir()}
			exec := &fakeExecutor{results: []proc.Result{tc.result}}
			runner, _, rec := newTestBuildRunner(ws, exec)
			runner.timeout = time.Second

			err := runner.Clean(context.Background())
			assert.ErrorIs(t, err, tc.want)
			assert.Len(t, rec.All(), 1)
		})
	}
}

func TestBuildUnknownVerb(t *testing.T) {
	exec := &fakeExecutor{}
	runner, sink, rec := newTestBuildRunner(&config.Workspace{ProjectPath: t.TempDir()}, exec)

	assert.ErrorIs(t, runner.Run(context.Background(), Verb("deploy")), ErrUnknownVerb)
	assert.Empty(t, exec.Commands())
	assert.Len(t, rec.All(), 1)
	assert.Contains(t, sink.Text(), "deploy")
}

func TestOverlayEnv(t *testing.T) {
	env := overlayEnv([]string{"PATH=/bin", "JAVA_HOME=/old"}, map[string]string{"JAVA_HOME": "/jdk", "APP_CONTEXT": "web"})
	assert.Equal(t, []string{"PATH=/bin", "JAVA_HOME=/old", "APP_CONTEXT=web", "JAVA_HOME=/jdk"}, env)
}
