package commands

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/haivivi/julesvoice/pkg/assistant"
	"github.com/haivivi/julesvoice/pkg/audio/portaudio"
	"github.com/haivivi/julesvoice/pkg/audio/wav"
	"github.com/haivivi/julesvoice/pkg/cli"
	"github.com/haivivi/julesvoice/pkg/interaction"
	"github.com/haivivi/julesvoice/pkg/metrics"
)

var (
	talkMetricsAddr string
	talkNoMic       bool
)

var talkCmd = &cobra.Command{
	Use:   "talk",
	Short: "Start an interactive voice and text session",
	Long: `Start an interactive session with the assistant.

Press Enter on an empty line to start recording from the default microphone
and Enter again to stop; the recording is transcribed and answered. Type a
line of text to submit it without speaking. Type /quit to exit.

Examples:
  julesvoice talk
  julesvoice talk --metrics-addr :9090
  julesvoice talk --no-mic`,
	RunE: runTalk,
}

var talkDevicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List audio input devices",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := portaudio.Initialize(); err != nil {
			return err
		}
		defer portaudio.Terminate()

		devices, err := portaudio.InputDevices()
		if err != nil {
			return err
		}
		if outputJSON || outputQuery != "" {
			return outputResult(cmd, devices)
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "DEFAULT\tINDEX\tNAME\tCHANNELS\tRATE")
		for _, d := range devices {
			def := ""
			if d.IsDefault {
				def = "*"
			}
			fmt.Fprintf(w, "%s\t%d\t%s\t%d\t%.0f\n", def, d.Index, d.Name, d.MaxInputChannels, d.DefaultSampleRate)
		}
		return w.Flush()
	},
}

func runTalk(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := loadServices()
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	if talkMetricsAddr != "" {
		srv := serveMetrics(talkMetricsAddr, reg)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx)
		}()
	}

	styles := cli.NewStyles(cli.DefaultTheme)
	out := cmd.OutOrStdout()
	errOut := cmd.ErrOrStderr()

	opts := assistantOptions{
		metrics: m,
		onStateChange: func(_, to assistant.State) {
			fmt.Fprintln(errOut, styles.Status(to.String(), talkHelp(to, !talkNoMic)))
		},
	}
	if !talkNoMic {
		if err := portaudio.Initialize(); err != nil {
			return fmt.Errorf("portaudio: %w (use --no-mic for text input only)", err)
		}
		defer portaudio.Terminate()
		opts.device = &portaudio.Microphone{Format: wav.Mono16K, Logger: slog.Default()}
	}

	a, closeFn, err := newAssistant(ctx, s, opts)
	if err != nil {
		return err
	}
	defer closeFn()

	fmt.Fprintln(out, styles.Title.Render("julesvoice")+" "+styles.Help.Render("context: "+s.Context))
	if !a.DialogueEnabled() {
		fmt.Fprintln(errOut, styles.Error.Render("Jules is not configured; requests are recorded without answers."))
	}
	fmt.Fprintln(errOut, styles.Status(a.State().String(), talkHelp(a.State(), !talkNoMic)))

	lines := readLines(cmd.InOrStdin())
	for {
		var line string
		var ok bool
		select {
		case <-ctx.Done():
			return nil
		case line, ok = <-lines:
			if !ok {
				return nil
			}
		}

		text := strings.TrimSpace(line)
		switch {
		case text == "/quit" || text == "/exit":
			return nil
		case text == "":
			if talkNoMic {
				continue
			}
			start := time.Now()
			turn, err := toggleRecording(ctx, a)
			printTurn(out, errOut, styles, turn, err, time.Since(start))
		default:
			start := time.Now()
			turn, err := a.SubmitText(ctx, text)
			printTurn(out, errOut, styles, turn, err, time.Since(start))
		}
	}
}

// toggleRecording starts a recording when idle and finishes it when
// recording. A nil turn with a nil error means recording has started.
func toggleRecording(ctx context.Context, a *assistant.Assistant) (*assistant.Turn, error) {
	if a.State() == assistant.StateRecording {
		return a.Stop(ctx)
	}
	return nil, a.Start(ctx)
}

func talkHelp(state assistant.State, mic bool) string {
	switch state {
	case assistant.StateIdle:
		if mic {
			return "Enter to record, type to ask, /quit to exit"
		}
		return "type to ask, /quit to exit"
	case assistant.StateRecording:
		return "Enter to stop"
	}
	return ""
}

// toolResultWidth bounds the tool result shown under a turn.
const toolResultWidth = 72

func printTurn(out, errOut io.Writer, styles cli.Styles, turn *assistant.Turn, err error, elapsed time.Duration) {
	if turn != nil {
		fmt.Fprintln(out, styles.Labeled("You:", turn.Text))
		for _, tc := range turn.ToolCalls {
			fmt.Fprintln(out, styles.Tool.Render(toolCallLine(tc)))
		}
		if turn.Response != "" {
			fmt.Fprintln(out, styles.Labeled("Jules:", turn.Response))
		}
		fmt.Fprintln(out, styles.Help.Render(cli.FormatDuration(elapsed)))
	}
	if err != nil {
		if errors.Is(err, assistant.ErrBusy) {
			fmt.Fprintln(errOut, styles.Help.Render("busy, please wait"))
			return
		}
		fmt.Fprintln(errOut, styles.Error.Render(assistant.UserMessage(err)))
	}
}

// toolCallLine renders a tool call as its name and a one-line result.
func toolCallLine(tc interaction.ToolCall) string {
	line := "  ↳ " + tc.Name
	if tc.Result == nil {
		return line
	}
	b, err := json.Marshal(tc.Result)
	if err != nil {
		return line
	}
	return line + " " + cli.Truncate(string(b), toolResultWidth)
}

// readLines delivers the lines of r until it is exhausted.
func readLines(r io.Reader) <-chan string {
	ch := make(chan string)
	go func() {
		defer close(ch)
		sc := bufio.NewScanner(r)
		for sc.Scan() {
			ch <- sc.Text()
		}
	}()
	return ch
}

func serveMetrics(addr string, reg *prometheus.Registry) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("metrics server failed", "addr", addr, "error", err)
		}
	}()
	slog.Info("serving metrics", "addr", addr)
	return srv
}

func init() {
	talkCmd.Flags().StringVar(&talkMetricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address (e.g. :9090)")
	talkCmd.Flags().BoolVar(&talkNoMic, "no-mic", false, "text input only, do not open the microphone")
	talkCmd.AddCommand(talkDevicesCmd)
	rootCmd.AddCommand(talkCmd)
}
