// SPDX-License-Identifier: MPL-2.0

// Package issue provides actionable errors and a catalog of Markdown issue
// pages, rendered with glamour, that explain common failures and how to
// recover from them.
package issue
