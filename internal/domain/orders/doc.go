// Package orders contains the domain model for the local order mirror:
// the Order aggregate with its line items and options, the remote order
// value objects delivered by the order source, the persisted sync job
// state machine, and the ports implemented by the infrastructure layer
// (order source client, repositories, transactional store).
//
// The package holds no I/O. All remote and database access goes through
// the port interfaces defined here, implemented under
// internal/infrastructure.
package orders
