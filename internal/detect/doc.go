// Package detect defines the face detector contract used by automatic
// redaction.
//
// A Detector inspects one frame and returns the boxes to blur. Output is an
// unordered set; callers must not rely on box order. Boxes may extend past the
// frame or have non-positive dimensions; the redactor clips them.
//
// Implementations:
//   - None: never reports a region, for dry runs and tests
//   - Static: returns a fixed set of boxes
//   - Cascade: OpenCV Haar cascade via gocv, compiled only with the `gocv`
//     build tag; without it NewCascade returns ErrUnsupported
package detect
