// Package phash computes perceptual fingerprints for images and compares
// them by Hamming distance.
//
// A fingerprint is a 64-bit vector derived from an image's low-frequency
// visual structure:
//
//  1. Downscale the image to 32×32 (Lanczos) and convert to grayscale
//  2. Apply a 2D discrete cosine transform (DCT-II, orthonormal scaling)
//  3. Keep the low-frequency 8×8 coefficient block
//  4. Take the median of the block's 63 AC coefficients (the DC term is
//     excluded so overall brightness does not skew the cut line)
//  5. Set each of the 64 output bits to 1 where its coefficient exceeds
//     the median
//
// The frequency-domain approach makes the fingerprint stable under
// re-encoding, resizing, and minor edits; it changes materially only when
// the visual content changes. Two fingerprints are compared with
// Distance, a popcount over their XOR; small distances imply visual
// similarity.
//
// The canonical serialized form is the 16-digit lowercase hex string
// produced by Fingerprint.String and accepted by Parse. Fingerprints are
// canonical within this system only; no bit compatibility with other
// perceptual hash implementations is promised.
package phash
