// Package block defines the Block record produced by the scanner and the
// Store that holds every block of one parse, in file order.
package block
