// Command moviescene compiles and evaluates scene documents.
//
// Subcommands:
//
//	compile   compile a sequence's evaluation field and print it
//	evaluate  play a range of a scene and print what was evaluated
//	inspect   serve the compiled state of a scene over HTTP
//	store     list or clear persisted templates
//	config    create or validate the configuration file
package main
