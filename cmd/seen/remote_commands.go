package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"seen/internal/api"
	"seen/internal/guide"
)

func newUploadCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "upload <path>",
		Short: "Upload a video to a running daemon",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			if info, err := os.Stat(path); err != nil {
				return fmt.Errorf("inspect upload: %w", err)
			} else if info.IsDir() {
				return fmt.Errorf("%s is a directory", path)
			}
			return ctx.withClient(func(client *api.Client) error {
				resp, err := client.Upload(cmd.Context(), path)
				if err != nil {
					return err
				}
				if ctx.JSONMode() {
					return writeJSON(cmd, resp)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Uploaded %s as job %s (%s)\n", filepath.Base(path), resp.ID, resp.Status)
				return nil
			})
		},
	}
}

func newAnnotateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "annotate <job-id> <guide-file>",
		Short: "Submit keyframe guides for a job and queue guided redaction",
		Long: "Submit keyframe guides for a job. The guide file may be JSON or YAML; it is\n" +
			"validated locally before being sent to the daemon.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			set, err := guide.Load(args[1])
			if err != nil {
				return err
			}
			payload, err := guide.Encode(set)
			if err != nil {
				return err
			}
			return ctx.withClient(func(client *api.Client) error {
				resp, err := client.Annotate(cmd.Context(), strings.TrimSpace(args[0]), payload)
				if err != nil {
					return err
				}
				return printAction(cmd, ctx, resp, fmt.Sprintf("%d tracks", set.Len()))
			})
		},
	}
}

func newAutoBlurCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "autoblur <job-id>",
		Short: "Queue automatic face redaction for a job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *api.Client) error {
				resp, err := client.AutoBlur(cmd.Context(), strings.TrimSpace(args[0]))
				if err != nil {
					return err
				}
				return printAction(cmd, ctx, resp, "auto")
			})
		},
	}
}

func printAction(cmd *cobra.Command, ctx *commandContext, resp *api.ActionResponse, detail string) error {
	if resp == nil {
		return errors.New("empty response from daemon")
	}
	if ctx.JSONMode() {
		return writeJSON(cmd, resp)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Job %s queued for redaction (%s), status %s\n", resp.ID, detail, resp.Status)
	return nil
}

func newDownloadCommand(ctx *commandContext) *cobra.Command {
	var outputPath string

	cmd := &cobra.Command{
		Use:   "download <job-id>",
		Short: "Download a redacted video",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := strings.TrimSpace(args[0])
			target := strings.TrimSpace(outputPath)
			dir := "."
			if target != "" {
				dir = filepath.Dir(target)
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return fmt.Errorf("create output directory: %w", err)
				}
			}
			return ctx.withClient(func(client *api.Client) error {
				tmp, err := os.CreateTemp(dir, ".seen-download-*")
				if err != nil {
					return fmt.Errorf("create download file: %w", err)
				}
				defer os.Remove(tmp.Name())

				name, err := client.Download(cmd.Context(), id, tmp)
				if closeErr := tmp.Close(); err == nil {
					err = closeErr
				}
				if err != nil {
					return err
				}

				if target == "" {
					target = filepath.Base(strings.TrimSpace(name))
					if target == "." || target == string(filepath.Separator) {
						target = id + "-redacted.mp4"
					}
				}
				if err := os.Rename(tmp.Name(), target); err != nil {
					return fmt.Errorf("save download: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Saved %s\n", target)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Destination file (defaults to the name suggested by the daemon)")
	return cmd
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status [job-id]",
		Short: "Show daemon status, or the state of one job",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *api.Client) error {
				if len(args) == 1 {
					item, err := client.Job(cmd.Context(), strings.TrimSpace(args[0]))
					if err != nil {
						return err
					}
					if ctx.JSONMode() {
						return writeJSON(cmd, item)
					}
					printJob(cmd.OutOrStdout(), item)
					return nil
				}

				status, err := client.DaemonStatus(cmd.Context())
				if err != nil {
					return err
				}
				if ctx.JSONMode() {
					return writeJSON(cmd, status)
				}
				printDaemonStatus(cmd.OutOrStdout(), status)
				return nil
			})
		},
	}
}

func printDaemonStatus(out io.Writer, status *api.DaemonStatus) {
	colorize := shouldColorize(out)

	for _, line := range renderSectionHeader("System Status", colorize) {
		fmt.Fprintln(out, line)
	}
	if status.Running {
		fmt.Fprintln(out, renderStatusLine("Daemon", statusOK, fmt.Sprintf("Running (pid %d)", status.PID), colorize))
	} else {
		fmt.Fprintln(out, renderStatusLine("Daemon", statusError, "Not running", colorize))
	}
	fmt.Fprintln(out, renderStatusLine("Queue database", statusInfo, status.QueueDBPath, colorize))
	if status.Workflow.LastError != "" {
		fmt.Fprintln(out, renderStatusLine("Last error", statusWarn, status.Workflow.LastError, colorize))
	}
	for _, line := range stageHealthLines(status.Workflow.StageHealth, colorize) {
		fmt.Fprintln(out, line)
	}
	fmt.Fprintln(out)

	for _, line := range renderSectionHeader("Dependencies", colorize) {
		fmt.Fprintln(out, line)
	}
	for _, line := range dependencyLines(status.Dependencies, colorize) {
		fmt.Fprintln(out, line)
	}
	fmt.Fprintln(out)

	for _, line := range renderSectionHeader("Queue Status", colorize) {
		fmt.Fprintln(out, line)
	}
	rows := buildQueueStatusRows(status.Workflow.QueueStats)
	if len(rows) == 0 {
		fmt.Fprintln(out, "Queue is empty")
		return
	}
	fmt.Fprint(out, renderTable([]string{"Status", "Count"}, rows, []columnAlignment{alignLeft, alignRight}))
}

func printJob(out io.Writer, item *api.QueueItem) {
	fmt.Fprintf(out, "Job:      %s (#%d)\n", item.PublicID, item.ID)
	fmt.Fprintf(out, "Source:   %s\n", item.SourceName)
	fmt.Fprintf(out, "Status:   %s\n", item.StageLabel)
	if item.Mode != "" {
		fmt.Fprintf(out, "Mode:     %s\n", item.Mode)
	}
	if item.Width > 0 {
		fmt.Fprintf(out, "Video:    %dx%d @ %.3f fps, %d frames\n", item.Width, item.Height, item.FrameRate, item.FrameCount)
	}
	if item.SampledFrames > 0 {
		fmt.Fprintf(out, "Sampled:  %d frames (every %d)\n", item.SampledFrames, item.SampleEvery)
	}
	if item.Progress.Stage != "" {
		fmt.Fprintf(out, "Progress: %s %.0f%%\n", item.Progress.Stage, item.Progress.Percent)
	}
	if item.ErrorMessage != "" {
		fmt.Fprintf(out, "Error:    %s (%s)\n", item.ErrorMessage, item.ErrorKind)
	}
	if item.DownloadReady {
		fmt.Fprintf(out, "Output:   %s (ready)\n", item.OutputName)
	}
}
