// Package guide decodes operator guide documents into track sets.
//
// A guide lists one entry per tracked region, each with the keyframes the
// operator placed in the annotation workbench:
//
//	[{"id": "plate", "keyFrames": [{"frameId": 0, "x": 10, "y": 20, "size": 40}]}]
//
// The same document may be wrapped as {"guides": [...]}, and the same field
// names are accepted in TOML and YAML. Decoding validates everything up front
// so a malformed guide fails before the first frame is touched.
package guide
