package main

import (
	"path/filepath"
	"testing"

	"dubber/internal/logging"
	"dubber/internal/project"
	"dubber/internal/timeline"
)

func seedProject(t *testing.T, env *cliTestEnv, name string) *project.Project {
	t.Helper()

	store, err := project.NewStore(env.cfg.Paths.ProjectsDir, logging.NewNop())
	if err != nil {
		t.Fatalf("project.NewStore: %v", err)
	}
	proj := project.New(name)
	video := proj.AddVideo("/media/clip.mp4", timeline.StreamInfo{
		Duration: 60,
		Width:    1920,
		Height:   1080,
		FPS:      30,
		Codec:    "h264",
		HasAudio: true,
	})
	seg := timeline.NewSegment("intro", 0, 10, "Welcome to the tour.", "en-US-AriaNeural", "en")
	if err := video.Timeline.AddSegment(seg); err != nil {
		t.Fatalf("AddSegment: %v", err)
	}
	if err := store.Save(proj); err != nil {
		t.Fatalf("store.Save: %v", err)
	}
	return proj
}

func TestProjectsListShowsSavedProjects(t *testing.T) {
	env := setupCLITestEnv(t)
	seedProject(t, env, "tour")

	out, _, err := runCLI(t, []string{"projects", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("projects list: %v", err)
	}
	requireContains(t, out, "tour")
	requireContains(t, out, "Segments")
}

func TestProjectsListEmpty(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"projects", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("projects list: %v", err)
	}
	requireContains(t, out, "No projects found")
}

func TestProjectsShowRendersTimeline(t *testing.T) {
	env := setupCLITestEnv(t)
	proj := seedProject(t, env, "tour")

	// Point the segment at an audio artifact that no longer exists so the
	// audit has something to report.
	store, err := project.NewStore(env.cfg.Paths.ProjectsDir, logging.NewNop())
	if err != nil {
		t.Fatalf("project.NewStore: %v", err)
	}
	proj.Videos[0].Timeline.Segments[0].AudioPath = filepath.Join(env.baseDir, "gone.mp3")
	if err := store.Save(proj); err != nil {
		t.Fatalf("store.Save: %v", err)
	}

	out, _, err := runCLI(t, []string{"projects", "show", "tour"}, env.configPath)
	if err != nil {
		t.Fatalf("projects show: %v", err)
	}
	requireContains(t, out, "Project: tour")
	requireContains(t, out, "intro")
	requireContains(t, out, "Coverage: 1 segments")
	requireContains(t, out, "missing audio file")
}

func TestProjectsShowUnknown(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := runCLI(t, []string{"projects", "show", "ghost"}, env.configPath)
	if err == nil {
		t.Fatal("expected error for unknown project")
	}
	requireContains(t, err.Error(), "not found")
}

func TestProjectsDelete(t *testing.T) {
	env := setupCLITestEnv(t)
	seedProject(t, env, "tour")

	out, _, err := runCLI(t, []string{"projects", "delete", "tour"}, env.configPath)
	if err != nil {
		t.Fatalf("projects delete: %v", err)
	}
	requireContains(t, out, "Deleted project tour")

	out, _, err = runCLI(t, []string{"projects", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("projects list after delete: %v", err)
	}
	requireContains(t, out, "No projects found")
}
