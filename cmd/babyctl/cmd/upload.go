package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/templui/babybook/internal/client"
	"github.com/templui/babybook/internal/media"
)

func UploadCmd() *cobra.Command {
	var (
		babyID      string
		date        string
		title       string
		direct      bool
		concurrency int
		ffmpegPath  string
		ffprobePath string
	)

	cmd := &cobra.Command{
		Use:   "upload FILE...",
		Short: "Upload photos and videos to a baby's gallery",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if date == "" {
				date = time.Now().Format(time.DateOnly)
			}

			c, err := apiClient(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Cache().Close()

			var strategy client.UploadStrategy = &client.ProxyStrategy{Client: c}
			if direct {
				ffmpeg := media.NewFFmpeg(ffmpegPath)
				strategy = &client.DirectStrategy{
					Client: c,
					Images: media.ConverterChain{media.Decoder{}, ffmpeg},
					Video:  ffmpeg,
					Probe:  media.NewFFprobe(ffprobePath),
				}
			}

			items := make([]client.UploadItem, len(args))
			for i, path := range args {
				items[i] = client.UploadItem{Path: path, Title: title}
			}

			uploader := &client.Uploader{Client: c, Strategy: strategy, Concurrency: concurrency}
			created, err := uploader.Upload(cmd.Context(), babyID, date, items)
			if err != nil {
				return err
			}
			for _, item := range created {
				fmt.Printf("%s\t%s\t%s\n", item.ID, item.MediaType, item.URL)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&babyID, "baby", "", "baby ID (required)")
	cmd.Flags().StringVar(&date, "date", "", "date the media was taken, YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&title, "title", "", "title for every uploaded item")
	cmd.Flags().BoolVar(&direct, "direct", false, "convert locally and upload straight to storage")
	cmd.Flags().IntVar(&concurrency, "concurrency", 3, "parallel uploads")
	cmd.Flags().StringVar(&ffmpegPath, "ffmpeg", envOr("FFMPEG_PATH", "ffmpeg"), "ffmpeg binary for --direct")
	cmd.Flags().StringVar(&ffprobePath, "ffprobe", envOr("FFPROBE_PATH", "ffprobe"), "ffprobe binary for --direct")
	cmd.MarkFlagRequired("baby")
	return cmd
}
