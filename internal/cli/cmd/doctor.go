package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"vidsnag/internal/config"
	"vidsnag/internal/dirs"
	"vidsnag/internal/model"
	"vidsnag/internal/util"
	"vidsnag/internal/util/deps"
)

func newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:           "doctor",
		Short:         "Diagnose external dependencies (yt-dlp/youtube-dl, ffmpeg) and folders",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts, err := config.Options(viper.GetViper())
			if err != nil {
				return &ExitError{Code: ExitCLIError, Err: err}
			}
			out := cmd.OutOrStdout()

			tools := deps.Report(cmd.Context(), util.NewDefaultRunner(), opts.DLBinary, opts.FFmpegBinary)
			t := newTable(out, "", "Tool", "Path", "Version")
			for _, tool := range tools {
				mark, path := color.GreenString("✓"), tool.Path
				if tool.Err != nil {
					mark, path = color.RedString("✗"), tool.Err.Error()
				}
				t.Append([]string{mark, tool.Name, path, tool.Version})
			}
			t.Render()
			fmt.Fprintln(out)

			f := newTable(out, "Folder", "Path")
			for _, row := range []struct {
				name string
				fn   func() (string, error)
			}{
				{"videos", func() (string, error) { return dirs.MediaDir(model.KindVideo, opts) }},
				{"music", func() (string, error) { return dirs.MediaDir(model.KindAudio, opts) }},
				{"config", dirs.ConfigDir},
				{"cache", dirs.CacheFile},
				{"history", dirs.HistoryFile},
			} {
				p, err := row.fn()
				if err != nil {
					p = err.Error()
				}
				f.Append([]string{row.name, p})
			}
			f.Render()

			if tools[0].Err != nil {
				return &ExitError{Code: ExitMissingDep, Err: tools[0].Err}
			}
			if tools[1].Err != nil {
				fmt.Fprintln(out, color.YellowString("\nffmpeg is optional: without it only single-file formats download and audio is not converted."))
			}
			return nil
		},
	}
}
