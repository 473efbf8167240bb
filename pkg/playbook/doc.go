// SPDX-License-Identifier: MPL-2.0

// Package playbook provides types and parsing for rigup playbook files.
//
// A playbook is a CUE document listing provisioning steps. Each step carries
// exactly one action block (ensure_dir, ensure_file, ensure_tool, packages,
// remove, preferences or shell) plus optional ordering and platform filters.
// The package validates documents against an embedded schema, runs the checks
// the schema cannot express, and renders the templated fields of a step for
// a particular run.
package playbook
