package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"dubber/internal/project"
)

func newProjectsCommand(ctx *commandContext) *cobra.Command {
	projectsCmd := &cobra.Command{
		Use:   "projects",
		Short: "Inspect and manage saved projects",
	}

	projectsCmd.AddCommand(newProjectsListCommand(ctx))
	projectsCmd.AddCommand(newProjectsShowCommand(ctx))
	projectsCmd.AddCommand(newProjectsDeleteCommand(ctx))

	return projectsCmd
}

func newProjectsListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved projects",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.projectStore()
			if err != nil {
				return err
			}
			summaries, err := store.List()
			if err != nil {
				return fmt.Errorf("list projects: %w", err)
			}
			out := cmd.OutOrStdout()
			if len(summaries) == 0 {
				fmt.Fprintln(out, "No projects found")
				return nil
			}
			rows := make([][]string, 0, len(summaries))
			for _, s := range summaries {
				rows = append(rows, []string{
					s.Name,
					strconv.Itoa(s.VideoCount),
					strconv.Itoa(s.Segments),
					s.UpdatedAt.Local().Format("2006-01-02 15:04"),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Name", "Videos", "Segments", "Updated"},
				rows,
				[]columnAlignment{alignLeft, alignRight, alignRight, alignLeft},
			))
			return nil
		},
	}
}

func newProjectsShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <name>",
		Short: "Show a project's videos, segments, and timeline health",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.projectStore()
			if err != nil {
				return err
			}
			proj, err := store.Load(args[0])
			if err != nil {
				if errors.Is(err, project.ErrNotFound) {
					return fmt.Errorf("project %q not found", args[0])
				}
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Project: %s\n", proj.Name)
			fmt.Fprintf(out, "Quality: %s  Subtitles: %v", proj.Export.Quality, proj.Export.SubtitlesEnabled)
			if proj.Export.MusicPath != "" {
				fmt.Fprintf(out, "  Music: %s", proj.Export.MusicPath)
			}
			fmt.Fprintln(out)

			for _, video := range proj.VideosInOrder() {
				tl := video.Timeline
				fmt.Fprintf(out, "\nVideo %d: %s (%s, %dx%d @ %.3g fps)\n",
					video.Order, video.Path, video.Orientation, tl.Width, tl.Height, tl.FPS)

				if len(tl.Segments) == 0 {
					fmt.Fprintln(out, "  no segments")
					continue
				}

				rows := make([][]string, 0, len(tl.Segments))
				for _, seg := range tl.Sorted() {
					rows = append(rows, []string{
						seg.Name,
						formatDuration(seg.StartTime),
						formatDuration(seg.EndTime),
						seg.Language,
						seg.Voice,
						truncateText(seg.Text, 40),
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Segment", "Start", "End", "Lang", "Voice", "Text"},
					rows,
					[]columnAlignment{alignLeft, alignRight, alignRight, alignLeft, alignLeft, alignLeft},
				))

				stats := tl.Coverage()
				fmt.Fprintf(out, "  Coverage: %d segments, %s of %s (%.1f%%), %d gaps\n",
					stats.SegmentCount,
					formatDuration(stats.CoveredSeconds),
					formatDuration(tl.VideoDuration),
					stats.CoveredPercent,
					stats.GapCount)

				for _, issue := range tl.Validate() {
					fmt.Fprintf(out, "  Warning: %s\n", issue)
				}
			}
			return nil
		},
	}
}

func newProjectsDeleteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a saved project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.projectStore()
			if err != nil {
				return err
			}
			if err := store.Delete(args[0]); err != nil {
				if errors.Is(err, project.ErrNotFound) {
					return fmt.Errorf("project %q not found", args[0])
				}
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted project %s\n", args[0])
			return nil
		},
	}
}

func truncateText(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-1]) + "…"
}
