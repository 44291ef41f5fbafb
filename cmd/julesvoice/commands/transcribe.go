package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/haivivi/julesvoice/pkg/cli"
	"github.com/haivivi/julesvoice/pkg/transcribe"
)

var (
	transcribeFile string
	transcribeMIME string
)

var transcribeCmd = &cobra.Command{
	Use:   "transcribe -f <audio>",
	Short: "Transcribe an audio file with the configured transcriber",
	Long: `Transcribe an audio file with the transcriber named by assistant.transcriber.

The container is guessed from the file extension unless --mime-type is given.
Use "-" to read the audio from stdin.

Examples:
  julesvoice transcribe -f request.wav
  cat request.ogg | julesvoice transcribe -f - --mime-type audio/ogg`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if transcribeFile == "" {
			return fmt.Errorf("audio file is required (-f)")
		}
		data, err := readAudio(cmd, transcribeFile)
		if err != nil {
			return err
		}
		mimeType := transcribeMIME
		if mimeType == "" {
			mimeType = transcribe.MIMETypeOf(transcribeFile)
		}

		s, err := loadServices()
		if err != nil {
			return err
		}
		t, err := newTranscriber(cmd.Context(), s)
		if err != nil {
			return err
		}

		if IsVerbose() {
			cli.PrintInfo("Transcribing %s (%s, %s)", transcribeFile, mimeType, cli.FormatBytes(len(data)))
		}
		text, err := t.Transcribe(cmd.Context(), data, mimeType)
		if err != nil {
			return err
		}
		if outputJSON || outputQuery != "" {
			return outputResult(cmd, map[string]any{"text": text, "mime_type": mimeType})
		}
		fmt.Fprintln(cmd.OutOrStdout(), text)
		return nil
	},
}

func readAudio(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read audio: %w", err)
	}
	return data, nil
}

func init() {
	transcribeCmd.Flags().StringVarP(&transcribeFile, "file", "f", "", "audio file (- for stdin)")
	transcribeCmd.Flags().StringVar(&transcribeMIME, "mime-type", "", "audio MIME type (default: from the extension)")
	rootCmd.AddCommand(transcribeCmd)
}
