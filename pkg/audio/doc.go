// Package audio is the umbrella for speech capture:
//
//   - capture: recording sessions over a Device, with container negotiation
//   - portaudio: the default microphone as a capture.Device (cgo)
//   - wav: WAV (RIFF) container encoding for 16-bit PCM
//
// Example usage:
//
//	mic := &portaudio.Microphone{Format: wav.Mono16K}
//	session, err := capture.Open(ctx, mic)
//	if err != nil {
//	    return err
//	}
//	// ... user speaks ...
//	audio, err := session.Close()
package audio
