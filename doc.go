// SPDX-License-Identifier: EPL-2.0

// Package audmgr plays named sound profiles through a bounded pool of
// reusable voices.
//
// A profile (package profile) describes one sound event: a channel group,
// one or more playback configs each picking a clip with randomised volume
// and pitch ranges, and optional 3D settings. Profiles are kept in a
// catalog (package catalog), usually loaded from YAML files:
//
//	id: door_open
//	group: sfx
//	configs:
//	  - clip: doors/open.wav
//	    volume: [0.8, 1.0]
//	    pitch: [0.95, 1.05]
//	spatial:
//	  rolloff: linear
//	  max_distance: 40
//
// The dispatcher (package dispatch) resolves a profile, acquires one pool
// handle per config, starts them on an anchor and reclaims them once
// every voice has finished. A request fails as a whole when the pool
// cannot supply all of its handles.
//
// # Engine
//
// Engine wires the pieces together with the software mixer (package
// mixer) as the voice backend:
//
//	cat, _ := catalog.Load("profiles")
//	eng, _ := audmgr.New(cat, audmgr.Options{ClipRoot: "sounds"})
//	out, _ := mixer.Open(eng.Mixer, mixer.OutputOptions{})
//	defer out.Close()
//
//	go eng.Run(ctx)
//	eng.Loop.Play(ctx, "door_open", eng.PlaceAnchor("front_door"))
//
// The dispatcher is single threaded. While Run is active every call goes
// through Loop, which queues it between ticks.
//
// # Formats
//
// Clips are decoded by extension:
//   - WAV (PCM) via formats/wav
//   - MP3 via formats/mp3
//   - Ogg Vorbis via formats/vorbis
//   - AIFF (PCM) via formats/aiff
//
// and converted to mono at the engine sample rate on first use.
package audmgr
