// Package dnn loads exported detection models through OpenCV's DNN module
// and runs per-image inference.
//
// A Model wraps a loaded network together with its input size and score/NMS
// thresholds. Detect decodes an image from disk, forwards it through the
// network, decodes the output tensor, applies non-max suppression, and
// returns detections scaled back to source-image pixels. The device
// (CPU/CUDA) is chosen once at startup via PickDevice and applied when a
// model is opened.
package dnn
