package main

import (
	"fmt"
	"io"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"dubber/internal/export"
	"dubber/internal/reconcile"
)

func newExportCommand(ctx *commandContext) *cobra.Command {
	var (
		outputPath string
		quality    string
		musicPath  string
		subtitles  bool
		force      bool
		shift      bool
	)

	cmd := &cobra.Command{
		Use:   "export <project>",
		Short: "Render a project to its final video",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.projectStore()
			if err != nil {
				return err
			}
			proj, err := store.Load(args[0])
			if err != nil {
				return err
			}

			pipeline, closeCache, err := ctx.buildPipeline(store)
			if err != nil {
				return err
			}
			defer closeCache()

			opts := export.OptionsFromProject(proj)
			opts.OutputPath = strings.TrimSpace(outputPath)
			opts.Force = force
			if cmd.Flags().Changed("quality") {
				opts.Quality = quality
			}
			if cmd.Flags().Changed("music") {
				opts.MusicPath = strings.TrimSpace(musicPath)
			}
			if cmd.Flags().Changed("subtitles") {
				opts.Subtitles = subtitles
			}
			if shift {
				opts.ConflictPolicy = reconcile.PolicyShift
			}

			out := cmd.OutOrStdout()
			opts.Progress = newProgressPrinter(out)

			runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			result, err := pipeline.Export(runCtx, proj, opts)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Export complete: %s\n", result)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output file path (defaults to the output directory)")
	cmd.Flags().StringVar(&quality, "quality", "", "Encode quality: balanced or high")
	cmd.Flags().StringVar(&musicPath, "music", "", "Background music file to mix under the voice track")
	cmd.Flags().BoolVar(&subtitles, "subtitles", true, "Burn subtitles into the output")
	cmd.Flags().BoolVar(&force, "force", false, "Combine videos even when compatibility checks fail")
	cmd.Flags().BoolVar(&shift, "shift", false, "Shift later segments instead of truncating overlong audio")

	return cmd
}

func newPreviewCommand(ctx *commandContext) *cobra.Command {
	var videoID string

	cmd := &cobra.Command{
		Use:   "preview <project> <segment-id>",
		Short: "Render a single segment for review",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.projectStore()
			if err != nil {
				return err
			}
			proj, err := store.Load(args[0])
			if err != nil {
				return err
			}

			target := strings.TrimSpace(videoID)
			if target == "" {
				if len(proj.Videos) != 1 {
					return fmt.Errorf("project has %d videos; pass --video to pick one", len(proj.Videos))
				}
				target = proj.Videos[0].ID
			}

			pipeline, closeCache, err := ctx.buildPipeline(store)
			if err != nil {
				return err
			}
			defer closeCache()

			runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			result, err := pipeline.ExportPreview(runCtx, proj, target, args[1], export.OptionsFromProject(proj))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Preview written: %s\n", result)
			return nil
		},
	}

	cmd.Flags().StringVar(&videoID, "video", "", "Video id to preview from (required for multi-video projects)")
	return cmd
}

// newProgressPrinter renders pipeline progress. On a terminal the current
// stage line is rewritten in place; otherwise each update gets its own line.
func newProgressPrinter(out io.Writer) export.Progress {
	interactive := stdoutIsTerminal()
	return func(stage export.Stage, percent float64, message string) {
		line := fmt.Sprintf("[%3.0f%%] %s: %s", percent, stage, message)
		if interactive && stage != export.StageDone && stage != export.StageFailed {
			fmt.Fprintf(out, "\r\033[K%s", line)
			return
		}
		if interactive {
			fmt.Fprint(out, "\r\033[K")
		}
		fmt.Fprintln(out, line)
	}
}
