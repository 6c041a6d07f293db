// Package hcl provides the HCL implementation of config.Loader. It reads
// `doop.hcl` files and translates them into the format-agnostic
// config.Model.
package hcl
