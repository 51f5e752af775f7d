// SPDX-License-Identifier: MPL-2.0

// Package autoload generates a drone's <drone>-autoloads.el file.
//
// Scan reads an Emacs Lisp source file and extracts the forms marked with
// an autoload cookie. Definitions of commands, functions, macros and modes
// become autoload stubs; any other marked form is copied unchanged. The
// Generator aggregates the scan results of every eligible file of a drone
// into one file placed in the drone's first search path.
package autoload
