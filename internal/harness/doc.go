// Package harness runs editing scenarios against the consistency engine.
//
// A scenario names a notation document, replays a list of UI operations
// through an engine.Executor backed by an in-memory session store, and
// checks assertions on the resulting models.
//
// # Scenario Format
//
//	name: scenario_name
//	description: "What this scenario validates"
//	notation: ../notations/uml.yaml
//	session: demo
//	steps:
//	  - op: createNode
//	    classifier: Class
//	    position: {x: 10, y: 10}
//	    expect: {name: Class1}
//	  - op: createEdge
//	    classifier: Realization
//	    source: Class1
//	    target: Class2
//	    expect: {error: CONSTRAINT_VIOLATED}
//	  - op: deleteNode
//	    name: Class1
//	assertions:
//	  - type: object_names
//	    names: [Class2]
//	  - type: consistent
//	  - type: replay
//
// # Assertion Types
//
//   - object_names: the instance objects, in order
//   - object_count: number of instance objects
//   - link: object.link targets the named object
//   - no_link: object has no link of that name
//   - position: the object's representation position
//   - attribute: an attribute value on an object
//   - consistent: positional correspondence holds and every link resolves
//   - stored: the session store holds seq and op count
//   - replay: replaying the stored op log reproduces the stored digest
//
// # Deterministic Testing
//
// Every scenario runs in a fresh in-memory database with a fresh logical
// clock, and object names and ids are derived deterministically, so traces
// are byte-identical across runs and can be compared with golden files.
package harness
