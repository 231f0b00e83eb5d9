// SPDX-License-Identifier: EPL-2.0

// Package audio provides the PCM primitives the clip store builds on.
//
// This package contains the core building blocks:
//   - Source interface for audio input
//   - Decoder and Registry for picking a decoder by file extension
//   - Resampler for sample rate conversion
//   - MonoMixer for folding channels down to mono
//   - IntPCMSource for the integer decoders from go-audio
//   - ReadAll and ToMono for collecting a whole stream into memory
//
// # Source Interface
//
// All decoders and processors implement Source, so they chain:
//
//	type Source interface {
//	    SampleRate() int
//	    Channels() int
//	    ReadSamples(dst []float32) (int, error)
//	    BufSize() int
//	    Close() error
//	}
//
// # Loading a clip
//
// Clips are played back from memory as mono float32 at the mixer's rate:
//
//	dec, err := registry.Lookup("sfx/step.ogg")
//	src, err := dec.Decode(file)
//	samples, err := audio.ToMono(src, 48000, 4096)
//
// # Sample Format
//
// Audio samples are float32 in the range [-1.0, 1.0], 0.0 being silence.
//
// # Error Handling
//
// Sources return io.EOF when no more data is available:
//
//	for {
//	    n, err := source.ReadSamples(buf)
//	    // process buf[:n] first, a final read may carry data and io.EOF
//	    if err == io.EOF {
//	        break
//	    }
//	    if err != nil {
//	        return err
//	    }
//	}
package audio
