package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"seen/internal/frames"
	"seen/internal/sampling"
)

func newSampleCommand(ctx *commandContext) *cobra.Command {
	var input, outDir string
	var hz float64
	cmd := &cobra.Command{
		Use:   "sample",
		Short: "Write workbench frames for a video",
		Long: `Decode a video and save every Nth frame as <frame index>.jpg, where N is
the frame rate divided by --hz (at least 1). The index names are the frame
numbers to use in guide keyframes.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("hz") {
				hz = cfg.Sampling.SampleHz
			}
			src, err := frames.OpenFFmpegSource(cmd.Context(), strings.TrimSpace(input), frames.FFmpegOptions{
				FFmpegBinary:  cfg.FFmpeg.FFmpegBinary,
				FFprobeBinary: cfg.FFmpeg.FFprobeBinary,
			})
			if err != nil {
				return err
			}
			defer src.Close()

			res, err := sampling.Extract(cmd.Context(), src, sampling.Options{
				Dir:       strings.TrimSpace(outDir),
				SampleHz:  hz,
				MaxWidth:  cfg.Sampling.WorkbenchWidth,
				MaxHeight: cfg.Sampling.WorkbenchHeight,
				Quality:   cfg.Sampling.JPEGQuality,
			})
			if err != nil {
				return err
			}
			if ctx.JSONMode() {
				return writeJSON(cmd, res)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved %d of %d frames (every %d) to %s\n",
				len(res.Indices), res.Total, res.Every, outDir)
			return nil
		},
	}
	cmd.Flags().StringVarP(&input, "input", "i", "", "Source video")
	cmd.Flags().StringVarP(&outDir, "out-dir", "o", "", "Directory for sampled frames")
	cmd.Flags().Float64Var(&hz, "hz", 0, "Frames per second to keep (defaults to sampling.sample_hz)")
	_ = cmd.MarkFlagRequired("input")
	_ = cmd.MarkFlagRequired("out-dir")
	return cmd
}
