package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"tomcat-devloop/internal/config"
	"tomcat-devloop/internal/logger"
	"tomcat-devloop/internal/output"
	"tomcat-devloop/internal/proc"
	"tomcat-devloop/internal/utils"
)

type Verb string

const (
	VerbCompile Verb = "compile"
	VerbClean   Verb = "clean"
	VerbPackage Verb = "package"
	VerbRebuild Verb = "rebuild"
)

// BuildTimeout bounds every single Maven invocation.
const BuildTimeout = 5 * time.Minute

// Verbs lists the verbs accepted by Run.
var Verbs = []Verb{VerbCompile, VerbClean, VerbPackage, VerbRebuild}

// Maven 目标及参数模板
var verbGoals = map[Verb][]string{
	VerbCompile: {"compile"},
	VerbClean:   {"clean"},
	VerbPackage: {"package", "war:exploded", "-DskipTests", "-am", "-pl", "{{.AppContext}}"},
}

type verbMessages struct {
	begin   string
	success string
	failure string
}

var messages = map[Verb]verbMessages{
	VerbCompile: {"Compiling Java classes...", "Classes updated via hotswap", "Failed to compile classes"},
	VerbClean:   {"Cleaning project...", "Project cleaned", "Project clean failed"},
	VerbPackage: {"Packaging exploded war...", "Exploded package finished", "Project package failed"},
	VerbRebuild: {"Running full rebuild...", "Exploded rebuild finished", "Project package failed"},
}

/**
 * BuildRunner runs Maven verbs against the workspace
 * @description
 * - Every public call emits exactly one notifier summary
 * - Child output goes to the sink as it arrives
 */
type BuildRunner struct {
	ws       *config.Workspace
	executor proc.Executor
	platform utils.Platform
	sink     output.Sink
	notifier output.Notifier
	timeout  time.Duration
}

func NewBuildRunner(ws *config.Workspace, executor proc.Executor, platform utils.Platform,
	sink output.Sink, notifier output.Notifier) *BuildRunner {
	return &BuildRunner{
		ws:       ws,
		executor: executor,
		platform: platform,
		sink:     sink,
		notifier: notifier,
		timeout:  BuildTimeout,
	}
}

func ParseVerb(s string) (Verb, error) {
	for _, v := range Verbs {
		if string(v) == strings.ToLower(strings.TrimSpace(s)) {
			return v, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownVerb, s)
}

/**
 * Run a build verb
 * @param {context.Context} ctx - Cancels the running Maven process
 * @param {Verb} verb - compile, clean, package or rebuild
 * @returns {error} nil on success, otherwise wraps ErrConfigurationMissing, ErrProcessSpawn,
 * ErrProcessTimeout or ErrNonZeroExit
 */
func (b *BuildRunner) Run(ctx context.Context, verb Verb) error {
	if verb == VerbRebuild {
		return b.FullRebuild(ctx)
	}
	if _, ok := verbGoals[verb]; !ok {
		err := fmt.Errorf("%w: %s", ErrUnknownVerb, verb)
		b.sink.AppendLine(err.Error())
		b.notifier.Notify(output.LevelError, err.Error())
		return err
	}
	msg := messages[verb]
	b.sink.Reveal()
	if err := b.checkConfig(verb); err != nil {
		b.fail(msg.failure, err)
		return err
	}
	b.sink.AppendLine(msg.begin)
	if err := b.runGoal(ctx, verb); err != nil {
		b.fail(msg.failure, err)
		return err
	}
	b.sink.AppendLine(msg.success)
	b.notifier.Notify(output.LevelInfo, msg.success)
	return nil
}

func (b *BuildRunner) Compile(ctx context.Context) error {
	return b.Run(ctx, VerbCompile)
}

func (b *BuildRunner) Clean(ctx context.Context) error {
	return b.Run(ctx, VerbClean)
}

func (b *BuildRunner) Package(ctx context.Context) error {
	return b.Run(ctx, VerbPackage)
}

/**
 * Clean then package
 * @description
 * - Package is attempted only when clean succeeded
 */
func (b *BuildRunner) FullRebuild(ctx context.Context) error {
	msg := messages[VerbRebuild]
	b.sink.Reveal()
	if err := b.checkConfig(VerbRebuild); err != nil {
		b.fail(msg.failure, err)
		return err
	}
	b.sink.AppendLine(msg.begin)
	if err := b.runGoal(ctx, VerbClean); err != nil {
		b.fail(messages[VerbClean].failure, err)
		return err
	}
	if err := b.runGoal(ctx, VerbPackage); err != nil {
		b.fail(msg.failure, err)
		return err
	}
	b.sink.AppendLine(msg.success)
	b.notifier.Notify(output.LevelInfo, msg.success)
	return nil
}

func (b *BuildRunner) checkConfig(verb Verb) error {
	keys := []string{config.KeyProjectPath}
	if verb == VerbPackage || verb == VerbRebuild {
		keys = append(keys, config.KeyAppContext)
	}
	if missing := b.ws.Missing(keys...); len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrConfigurationMissing, strings.Join(missing, ", "))
	}
	return nil
}

func (b *BuildRunner) fail(summary string, err error) {
	b.sink.AppendLine(fmt.Sprintf("%s: %v", summary, err))
	b.notifier.Notify(output.LevelError, fmt.Sprintf("%s: %v", summary, err))
}

// runGoal 执行单个Maven目标，不发送汇总通知
func (b *BuildRunner) runGoal(ctx context.Context, verb Verb) error {
	_, args, err := utils.GetCommandLine("mvn", verbGoals[verb], b.ws)
	if err != nil {
		return err
	}
	c := proc.Command{
		Name:    b.mavenExecutable(),
		Args:    args,
		Dir:     b.ws.ProjectPath,
		Env:     overlayEnv(os.Environ(), b.ws.EnvVars()),
		Timeout: b.timeout,
	}
	b.sink.AppendLine("Running: mvn " + strings.Join(args, " "))

	res := b.executor.Execute(ctx, c, b.sink)
	observeBuild(verb, res.Duration, res.Err)
	switch {
	case res.Success:
		b.sink.AppendLine(fmt.Sprintf("Maven %s finished successfully", verb))
		return nil
	case res.Kind == proc.FailureSpawn:
		return fmt.Errorf("%w: %v", ErrProcessSpawn, res.Err)
	case res.Kind == proc.FailureTimeout:
		b.sink.AppendLine(fmt.Sprintf("Timeout: Maven %s took longer than %v", verb, b.timeout))
		return fmt.Errorf("%w: mvn %s after %v", ErrProcessTimeout, verb, b.timeout)
	case res.Kind == proc.FailureCanceled:
		return fmt.Errorf("mvn %s canceled: %w", verb, res.Err)
	default:
		code := -1
		if res.ExitCode != nil {
			code = *res.ExitCode
		}
		b.sink.AppendLine(fmt.Sprintf("Maven %s failed with code %d", verb, code))
		return fmt.Errorf("%w: mvn %s exited with code %d", ErrNonZeroExit, verb, code)
	}
}

// mavenExecutable prefers <MAVEN_HOME>/bin/mvn when it exists on disk, then PATH.
func (b *BuildRunner) mavenExecutable() string {
	name := b.platform.ExecutableName("mvn")
	if b.ws.MavenHome != "" {
		candidate := filepath.Join(b.ws.MavenHome, "bin", name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
		logger.Warnf("Maven not found at %s, falling back to PATH", candidate)
	}
	return name
}

// overlayEnv appends vars after base; exec keeps the last value of a duplicated key.
func overlayEnv(base []string, vars map[string]string) []string {
	keys := make([]string, 0, len(vars))
	for k := range vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	env := append([]string(nil), base...)
	for _, k := range keys {
		env = append(env, k+"="+vars[k])
	}
	return env
}
