package services

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"tomcat-devloop/internal/artifact"
	"tomcat-devloop/internal/config"
	"tomcat-devloop/internal/models"
	"tomcat-devloop/internal/output"
)

// copyRules 目录/文件名排除规则，在本轮复制的每一层生效
type copyRules struct {
	excludeDirs  []string
	excludeFiles []string
}

var (
	rootPass   = copyRules{excludeDirs: []string{artifact.MarkerDir}}
	webInfPass = copyRules{excludeDirs: []string{"lib", "classes"}, excludeFiles: []string{"web.xml"}}
)

func (r copyRules) skip(entry os.DirEntry) bool {
	names := r.excludeFiles
	if entry.IsDir() {
		names = r.excludeDirs
	}
	for _, n := range names {
		if entry.Name() == n {
			return true
		}
	}
	return false
}

// ResourceSynchronizer pushes static webapp resources into the exploded artifact.
type ResourceSynchronizer struct {
	ws       *config.Workspace
	sink     output.Sink
	notifier output.Notifier
}

func NewResourceSynchronizer(ws *config.Workspace, sink output.Sink, notifier output.Notifier) *ResourceSynchronizer {
	return &ResourceSynchronizer{ws: ws, sink: sink, notifier: notifier}
}

// WebappDir is the source of static resources.
func WebappDir(projectRoot, appContext string) string {
	return filepath.Join(projectRoot, appContext, "src", "main", "webapp")
}

/**
 * Sync static resources
 * @param {context.Context} ctx - Checked between files
 * @returns {models.SyncReport} What was copied, also on failure
 * @returns {error} ErrConfigurationMissing, ErrArtifactNotFound or ErrFilesystem
 * @description
 * - webapp/ is mirrored into the artifact without WEB-INF
 * - webapp/WEB-INF is mirrored without lib, classes and web.xml
 * - Files are overwritten unconditionally; a failure leaves earlier copies in place
 */
func (rs *ResourceSynchronizer) Sync(ctx context.Context) (models.SyncReport, error) {
	var report models.SyncReport
	if missing := rs.ws.Missing(config.KeyAppContext, config.KeyProjectPath); len(missing) > 0 {
		return report, rs.fail(fmt.Errorf("%w: %s", ErrConfigurationMissing, strings.Join(missing, ", ")))
	}
	rs.sink.AppendLine("Copying webapp resources...")

	docBase, err := artifact.Resolve(rs.ws.ProjectPath, rs.ws.AppContext)
	if err != nil {
		return report, rs.fail(fmt.Errorf("%w: %s", ErrArtifactNotFound,
			artifact.TargetDir(rs.ws.ProjectPath, rs.ws.AppContext)))
	}
	rs.sink.AppendLine("Docbase found: " + docBase)

	webapp := WebappDir(rs.ws.ProjectPath, rs.ws.AppContext)
	report.Source = webapp
	report.Target = docBase

	if err := rs.mirror(ctx, webapp, docBase, rootPass, &report); err != nil {
		return report, rs.fail(err)
	}
	rs.sink.AppendLine("Root resources copied")

	webInf := filepath.Join(webapp, artifact.MarkerDir)
	if info, err := os.Stat(webInf); err == nil && info.IsDir() {
		if err := rs.mirror(ctx, webInf, filepath.Join(docBase, artifact.MarkerDir), webInfPass, &report); err != nil {
			return report, rs.fail(err)
		}
		rs.sink.AppendLine("WEB-INF resources copied")
	}

	syncedFiles.Add(float64(report.FilesCopied))
	rs.notifier.Notify(output.LevelInfo, fmt.Sprintf("Resources updated (%d files)", report.FilesCopied))
	return report, nil
}

func (rs *ResourceSynchronizer) fail(err error) error {
	rs.sink.AppendLine(fmt.Sprintf("Error copying resources: %v", err))
	rs.notifier.Notify(output.LevelError, fmt.Sprintf("Failed to copy resources: %v", err))
	return err
}

func (rs *ResourceSynchronizer) mirror(ctx context.Context, src, dst string, rules copyRules, report *models.SyncReport) error {
	entries, err := os.ReadDir(src)
	if err != nil {
		return fmt.Errorf("%w: source directory not found: %v", ErrFilesystem, err)
	}
	if _, err := os.Stat(dst); os.IsNotExist(err) {
		if err := os.MkdirAll(dst, 0755); err != nil {
			return fmt.Errorf("%w: %v", ErrFilesystem, err)
		}
		report.DirsCreated++
	}
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		if rules.skip(entry) {
			continue
		}
		from := filepath.Join(src, entry.Name())
		to := filepath.Join(dst, entry.Name())
		if entry.IsDir() {
			if err := rs.mirror(ctx, from, to, rules, report); err != nil {
				return err
			}
			continue
		}
		if err := copyFile(from, to); err != nil {
			return fmt.Errorf("%w: %v", ErrFilesystem, err)
		}
		report.FilesCopied++
	}
	return nil
}

func copyFile(from, to string) error {
	in, err := os.Open(from)
	if err != nil {
		return err
	}
	defer in.Close()
	info, err := in.Stat()
	if err != nil {
		return err
	}
	out, err := os.OpenFile(to, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
