// Package build invokes the external build toolchain and decides build
// success by artifact existence rather than exit status.
package build
