/*
Package ports defines the driven ports (interfaces) of the intake wizard engine.

These interfaces decouple the engine from its collaborators, allowing the same
navigation and persistence logic to run against different record stores and
submission backends.

# Key Interfaces

  - CheckpointStore: Persists the single wizard progress record per ProgressKey.
  - Submitter: Converts a finished claim draft into a persisted claim record.
  - DistributedLocker: Coordinates access to a live session across replicas.
*/
package ports
