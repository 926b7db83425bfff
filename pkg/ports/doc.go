/*
Package ports defines the interfaces between the Parley engine and the outside world.

These interfaces decouple the execution core from graph sources, presentation and
cross-process signalling.

# Key Interfaces

  - GraphLoader: loads a schema.Graph document (e.g., from a YAML file or memory).
  - Listener: presents a running conversation and drives it forward through one-shot notifiers.
  - FlagPublisher: broadcasts flags to other engine instances (e.g., over Redis).
*/
package ports
