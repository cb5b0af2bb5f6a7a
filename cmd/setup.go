package cmd

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"riptide/internal/httputil"
	"riptide/pkg/logger"
)

// defaultFfmpegURL points at a static ffmpeg build served as a zip with
// a single "ffmpeg" member.
const defaultFfmpegURL = "https://evermeet.cx/ffmpeg/get/zip"

var flagFfmpegURL string

// setupCmd fetches a merge-capable ffmpeg binary into bin/ so the
// download_merged endpoint can combine separate video and audio streams
// on hosts without a system ffmpeg.
var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Download a static ffmpeg build into bin/",
	RunE:  setupRun,
}

func init() {
	setupCmd.Flags().StringVar(&flagFfmpegURL, "ffmpeg-url", defaultFfmpegURL, "URL of a zipped static ffmpeg build")
}

func setupRun(cmd *cobra.Command, args []string) error {
	binPath := filepath.Join("bin", "ffmpeg")
	if _, err := os.Stat(binPath); err == nil {
		log.Emit(logger.INFO, "ffmpeg already present at %s\n", binPath)
		return nil
	}

	if err := os.MkdirAll("bin", 0o755); err != nil {
		return fmt.Errorf("creating bin dir: %w", err)
	}

	log.Emit(logger.INFO, "downloading ffmpeg from %s\n", flagFfmpegURL)
	zipPath := filepath.Join("bin", "ffmpeg.zip")
	if err := fetchTo(zipPath, flagFfmpegURL); err != nil {
		return fmt.Errorf("downloading ffmpeg: %w", err)
	}
	defer os.Remove(zipPath)

	if err := extractFfmpeg(zipPath, binPath); err != nil {
		return fmt.Errorf("extracting ffmpeg: %w", err)
	}

	if err := os.Chmod(binPath, 0o755); err != nil {
		return fmt.Errorf("marking ffmpeg executable: %w", err)
	}

	log.Emit(logger.SUCCESS, "ffmpeg installed at %s\n", binPath)
	return nil
}

func fetchTo(path, url string) error {
	resp, err := httputil.Get(context.Background(), httputil.NewStreamingClient(), url, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = io.Copy(f, resp.Body)
	return err
}

// extractFfmpeg pulls the ffmpeg member out of the downloaded archive.
func extractFfmpeg(zipPath, dest string) error {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return err
	}
	defer r.Close()

	for _, f := range r.File {
		if filepath.Base(f.Name) != "ffmpeg" {
			continue
		}

		rc, err := f.Open()
		if err != nil {
			return err
		}
		defer rc.Close()

		out, err := os.Create(dest)
		if err != nil {
			return err
		}
		defer out.Close()

		_, err = io.Copy(out, rc)
		return err
	}
	return fmt.Errorf("no ffmpeg member in archive")
}
