// Package schema defines the authoring-side form of a conversation graph.
//
// A Graph is what loaders produce: actors, conversations, nodes with their routines as
// source text, prioritised edges and typed properties. It is validated structurally here
// and compiled into runtime entities by the importer.
//
// Documents are usually written in YAML:
//
//	actors:
//	  - id: guard
//	    name: Guard
//	conversations:
//	  - id: gate
//	    nodes:
//	      - id: start
//	      - id: halt
//	        actor: guard
//	        voice: Halt! Who goes there?
//	        code: "alerted = true;"
//	      - id: friend
//	        response: A friend.
//	        condition: "!alerted"
//	    edges:
//	      - {from: start, to: halt}
//	      - {from: halt, to: friend, priority: 1}
//
// The entry node is the one named by root, or else the single node without incoming edges.
// A conversation that loops back into its entry node must name root explicitly.
//
// Property values are typed as string, int, float, bool or empty. The type may be given
// explicitly or inferred from the YAML scalar:
//
//	properties:
//	  - {name: mood, value: grim}
//	  - {name: weight, type: float, value: 2}
package schema
