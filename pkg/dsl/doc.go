/*
Package dsl provides a fluent builder for conversation graphs.

It is an alternative to YAML documents when graphs are generated by code or written
inline in tests.

Example usage:

	b := dsl.New()
	b.Actor("guard", "Guard")
	b.Actor("hero", "Hero")

	gate := b.Conversation("gate")
	gate.Add("start").Go("halt")
	gate.Add("halt").
		Actor("guard").
		Voice("Halt! Who goes there?").
		Code("alerted = true;").
		Go("friend").
		GoPriority("run", 1)
	gate.Add("friend").Actor("hero").Response("A friend.")
	gate.Add("run").Actor("hero").Response("Run!").Condition("alerted")

	// The loader can be handed to parley.New.
	loader, err := b.Build()
*/
package dsl
