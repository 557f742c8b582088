// Package ledger holds the pure statement engine: raw-row normalization,
// fee banding, running balances, reconciliation against payment operations
// and the flat export layout. Nothing in here touches storage.
package ledger
