// Package build runs the loader build. Service wires configuration, the
// toolchain, the image tree assembler and the observers into one pipeline
// run; every entry point (build, watch, tests) goes through it.
package build
