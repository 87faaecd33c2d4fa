// Package types defines the entities, backend configuration and standard
// errors shared by the treasury packages: bindings between groups and
// custodial accounts, signer configurations, transaction proposals and
// membership events.
package types
