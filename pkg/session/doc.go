/*
Package session hosts live wizard sessions for many users at once.

A Manager keeps one navigation controller per progress key, serializes access
to it with reference-counted per-key locks (plus an optional distributed lock
for multi-replica deployments) and wires every controller to the shared
persistence adapter, so a session started on any replica resumes from its
latest checkpoint.
*/
package session
