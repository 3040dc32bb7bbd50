// Package templates provides the stock section templates scenes are built
// from: trace, property, event and spawn. Registry maps authored track kinds
// to them for the compiler.
package templates
