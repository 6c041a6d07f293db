// Package config defines the format-agnostic project configuration model
// and the Loader interface that concrete formats implement.
//
// The `config.Model` is the single source of truth for parser, index and
// loader settings. The HCL implementation lives in package hcl.
package config
