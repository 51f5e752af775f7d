// SPDX-License-Identifier: MPL-2.0

// Package drone defines the value types shared by every droneyard component:
// drone names, the per-drone property table read from the registry file, and
// the tagged build-step variant.
//
// A drone is an Emacs Lisp package vendored into the host configuration as a
// git submodule. Nothing in this package talks to git or the filesystem; the
// registry, build and lifecycle packages operate on these types.
package drone
